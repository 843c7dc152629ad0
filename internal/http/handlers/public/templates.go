package public

import (
	handlershared "github.com/coupon-next/internal/http/handlers/shared"
	"github.com/coupon-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListTemplates 可领取券种列表
func (h *Handler) ListTemplates(c *gin.Context) {
	views, err := h.TemplateService.ListClaimable()
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "获取券种列表失败", err)
		return
	}
	response.Success(c, gin.H{"templates": views})
}
