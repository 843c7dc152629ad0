package queue

import (
	"encoding/json"

	"github.com/coupon-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskClaimNotifyEmail 领取成功邮件通知任务
	TaskClaimNotifyEmail = constants.TaskClaimNotifyEmail
)

// ClaimNotifyEmailPayload 领取成功邮件任务载荷
type ClaimNotifyEmailPayload struct {
	PoolEntryID  uint   `json:"pool_entry_id"`
	TemplateID   uint   `json:"template_id"`
	Email        string `json:"email"`
	Code         string `json:"code"`
	DiscountText string `json:"discount_text"`
}

// NewClaimNotifyEmailTask 创建领取成功邮件任务
func NewClaimNotifyEmailTask(payload ClaimNotifyEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskClaimNotifyEmail, body), nil
}
