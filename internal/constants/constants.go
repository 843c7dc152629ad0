package constants

// 券模板状态常量
const (
	TemplateStatusActive   = "active"
	TemplateStatusInactive = "inactive"
)

// 券码池状态常量
const (
	PoolEntryStatusAvailable = "available"
	PoolEntryStatusClaimed   = "claimed"
)

// 折扣类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 邮箱验证码用途常量
const (
	VerifyPurposeLogin = "login"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskClaimNotifyEmail = "claim:notify_email"
)

// 领券接口对外文案（与前端约定的固定字符串，不可随意改动）
const (
	ClaimMsgSuccess     = "优惠券领取成功！"
	ClaimMsgSoldOut     = "该优惠券已抢光，请选择其他券种"
	ClaimMsgRetryLater  = "领取失败，请稍后重试"
	ClaimMsgNeedAuth    = "Unauthorized"
	ClaimMsgTokenBad    = "Invalid Token"
	ClaimMsgNeedTplID   = "Template ID required"
	ClaimMsgServerError = "Internal Server Error"
)
