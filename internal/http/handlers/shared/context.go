package shared

import (
	"github.com/coupon-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUint 从请求上下文读取 uint 值，缺失或非法时直接返回 401。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, ok := c.Get(key)
	if !ok {
		RespondError(c, response.CodeUnauthorized, "未登录", nil)
		return 0, false
	}
	id, ok := value.(uint)
	if !ok || id == 0 {
		RespondError(c, response.CodeUnauthorized, "登录状态异常", nil)
		return 0, false
	}
	return id, true
}
