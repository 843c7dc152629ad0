package public

import (
	"errors"

	handlershared "github.com/coupon-next/internal/http/handlers/shared"
	"github.com/coupon-next/internal/http/response"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var sendCodeErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "邮箱格式不正确"},
	{target: service.ErrUserDisabled, code: response.CodeBadRequest, msg: "账号已被禁用"},
	{target: service.ErrVerifyCodeTooFrequent, code: response.CodeTooManyRequests, msg: "验证码发送过于频繁，请稍后再试"},
	{target: service.ErrEmailServiceDisabled, code: response.CodeInternal, msg: "邮件服务未启用"},
	{target: service.ErrEmailServiceNotConfigured, code: response.CodeInternal, msg: "邮件服务未配置"},
	{target: service.ErrEmailRecipientRejected, code: response.CodeBadRequest, msg: "收件地址不可用"},
}

var loginErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "邮箱格式不正确"},
	{target: service.ErrUserDisabled, code: response.CodeBadRequest, msg: "账号已被禁用"},
	{target: service.ErrVerifyCodeInvalid, code: response.CodeBadRequest, msg: "验证码错误"},
	{target: service.ErrVerifyCodeExpired, code: response.CodeBadRequest, msg: "验证码已过期，请重新获取"},
	{target: service.ErrVerifyCodeAttemptsExceeded, code: response.CodeBadRequest, msg: "尝试次数过多，请重新获取验证码"},
}

func respondSendCodeError(c *gin.Context, err error) {
	respondWithMappedError(c, err, sendCodeErrorRules, response.CodeInternal, "验证码发送失败")
}

func respondLoginError(c *gin.Context, err error) {
	respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "登录失败")
}
