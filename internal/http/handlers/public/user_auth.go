package public

import (
	"time"

	"github.com/coupon-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

type sendCodeRequest struct {
	Email string `json:"email" binding:"required"`
}

// SendVerifyCode 发送登录验证码
func (h *Handler) SendVerifyCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	if err := h.UserAuthService.SendVerifyCode(req.Email); err != nil {
		respondSendCodeError(c, err)
		return
	}
	response.SuccessWithMsg(c, "验证码已发送", nil)
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// Login 验证码登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "参数错误", err)
		return
	}
	user, token, expiresAt, err := h.UserAuthService.LoginWithCode(req.Email, req.Code)
	if err != nil {
		respondLoginError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Profile 当前登录用户信息
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(c, response.CodeUnauthorized, "登录状态异常", err)
		return
	}
	response.Success(c, gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"status":        user.Status,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	})
}

// Logout 退出登录
func (h *Handler) Logout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.UserAuthService.Logout(userID); err != nil {
		respondError(c, response.CodeInternal, "退出登录失败", err)
		return
	}
	response.SuccessWithMsg(c, "已退出登录", nil)
}
