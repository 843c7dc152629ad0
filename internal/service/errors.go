package service

import "errors"

// 业务错误定义，handler 层据此映射响应码
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrInvalidEmail       = errors.New("邮箱格式不正确")
	ErrInvalidCredentials = errors.New("账号或密码错误")
	ErrUserDisabled       = errors.New("账号已被禁用")

	ErrTemplateNotFound     = errors.New("券种不存在")
	ErrTemplateNotClaimable = errors.New("券种当前不可领取")
	ErrTemplateInvalid      = errors.New("券种参数不合法")
	ErrPoolExhausted        = errors.New("券码池已领空")
	ErrClaimBusy            = errors.New("领取过于火爆，请稍后重试")
	ErrCodesEmpty           = errors.New("券码列表为空")

	ErrEmailServiceDisabled      = errors.New("邮件服务未启用")
	ErrEmailServiceNotConfigured = errors.New("邮件服务未配置")
	ErrEmailRecipientRejected    = errors.New("收件地址被拒绝")

	ErrVerifyCodeInvalid          = errors.New("验证码错误")
	ErrVerifyCodeExpired          = errors.New("验证码已过期")
	ErrVerifyCodeTooFrequent      = errors.New("验证码发送过于频繁")
	ErrVerifyCodeAttemptsExceeded = errors.New("验证码尝试次数过多")

	ErrInvalidToken    = errors.New("无效的 token")
	ErrInvalidPassword = errors.New("原密码错误")
)
