package public

import (
	"errors"
	"net/http"
	"strings"

	"github.com/coupon-next/internal/constants"
	handlershared "github.com/coupon-next/internal/http/handlers/shared"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
)

type claimCouponRequest struct {
	TemplateID uint `json:"template_id"`
}

// ClaimCoupon 领取优惠券。
// 响应格式与前端既有约定保持一致：鉴权和参数错误用 {"error": ...}，
// 成功用 {success, code, discount, message}，不走统一响应包装。
func (h *Handler) ClaimCoupon(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": constants.ClaimMsgNeedAuth})
		return
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	claims, err := h.UserAuthService.ValidateUserToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": constants.ClaimMsgTokenBad})
		return
	}

	var req claimCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TemplateID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": constants.ClaimMsgNeedTplID})
		return
	}

	result, err := h.ClaimService.Claim(req.TemplateID, claims.Email)
	if err != nil {
		handlershared.RequestLog(c).Warnw("claim_coupon_failed",
			"template_id", req.TemplateID,
			"user_id", claims.UserID,
			"error", err,
		)
		message := constants.ClaimMsgRetryLater
		if errors.Is(err, service.ErrPoolExhausted) {
			message = constants.ClaimMsgSoldOut
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"code":     result.Code,
		"discount": result.DiscountText,
		"message":  constants.ClaimMsgSuccess,
	})
}
