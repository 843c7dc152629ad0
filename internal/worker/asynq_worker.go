package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/provider"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskClaimNotifyEmail, c.handleClaimNotifyEmail)
}

func (c *Consumer) handleClaimNotifyEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_claim_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ClaimNotifyEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_claim_notify_unmarshal_failed", "error", err)
		return err
	}
	receiver := strings.TrimSpace(payload.Email)
	if payload.PoolEntryID == 0 || receiver == "" || strings.TrimSpace(payload.Code) == "" {
		logger.Debugw("worker_claim_notify_skip_invalid_payload",
			"pool_entry_id", payload.PoolEntryID,
			"email", payload.Email,
		)
		return nil
	}
	if c.EmailService == nil || !c.EmailService.Enabled() {
		logger.Debugw("worker_claim_notify_skip_email_disabled", "pool_entry_id", payload.PoolEntryID)
		return nil
	}

	input := service.ClaimEmailInput{
		Code:         payload.Code,
		DiscountText: payload.DiscountText,
	}
	if payload.TemplateID != 0 && c.TemplateRepo != nil {
		template, err := c.TemplateRepo.GetByID(payload.TemplateID)
		if err != nil {
			logger.Warnw("worker_claim_notify_fetch_template_failed",
				"template_id", payload.TemplateID,
				"error", err,
			)
			return err
		}
		if template != nil {
			input.TemplateName = template.Name
			input.RedirectURL = template.RedirectURL
		}
	}
	if strings.TrimSpace(input.TemplateName) == "" {
		input.TemplateName = "优惠券"
	}

	if err := c.EmailService.SendClaimSuccessEmail(receiver, input); err != nil {
		logger.Warnw("worker_claim_notify_send_failed",
			"pool_entry_id", payload.PoolEntryID,
			"receiver_email", receiver,
			"error", err,
		)
		return err
	}
	return nil
}
