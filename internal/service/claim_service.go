package service

import (
	"errors"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"
)

// ClaimService 领券服务
type ClaimService struct {
	templateRepo repository.CouponTemplateRepository
	poolRepo     repository.CouponPoolRepository
	queueClient  *queue.Client
	emailService *EmailService
}

// NewClaimService 创建领券服务
func NewClaimService(templateRepo repository.CouponTemplateRepository, poolRepo repository.CouponPoolRepository, queueClient *queue.Client, emailService *EmailService) *ClaimService {
	return &ClaimService{
		templateRepo: templateRepo,
		poolRepo:     poolRepo,
		queueClient:  queueClient,
		emailService: emailService,
	}
}

// ClaimResult 领取结果
type ClaimResult struct {
	PoolEntryID  uint   `json:"pool_entry_id"`
	TemplateID   uint   `json:"template_id"`
	TemplateName string `json:"template_name"`
	Code         string `json:"code"`
	DiscountText string `json:"discount"`
	RedirectURL  string `json:"redirect_url"`
}

// Claim 为用户领取一张指定券种的券码。
// 分配成功即视为领取成功，通知发送失败不回滚也不影响响应。
func (s *ClaimService) Claim(templateID uint, email string) (*ClaimResult, error) {
	if templateID == 0 {
		return nil, ErrTemplateInvalid
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	template, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	now := time.Now()
	if !isTemplateClaimable(template, now) {
		return nil, ErrTemplateNotClaimable
	}

	entry, err := s.poolRepo.Allocate(template.ID, normalized, now)
	if err != nil {
		if errors.Is(err, repository.ErrAllocateContention) {
			return nil, ErrClaimBusy
		}
		return nil, err
	}
	if entry == nil {
		return nil, ErrPoolExhausted
	}

	result := &ClaimResult{
		PoolEntryID:  entry.ID,
		TemplateID:   template.ID,
		TemplateName: template.Name,
		Code:         entry.Code,
		DiscountText: FormatDiscount(template.DiscountType, template.DiscountValue),
		RedirectURL:  template.RedirectURL,
	}

	s.notifyClaimSuccess(normalized, template, result)
	return result, nil
}

func (s *ClaimService) notifyClaimSuccess(email string, template *models.CouponTemplate, result *ClaimResult) {
	if s.queueClient.Enabled() {
		payload := queue.ClaimNotifyEmailPayload{
			PoolEntryID:  result.PoolEntryID,
			TemplateID:   result.TemplateID,
			Email:        email,
			Code:         result.Code,
			DiscountText: result.DiscountText,
		}
		if err := s.queueClient.EnqueueClaimNotifyEmail(payload); err != nil {
			logger.Warnw("claim_notify_enqueue_failed",
				"pool_entry_id", result.PoolEntryID,
				"email", email,
				"error", err,
			)
		}
		return
	}

	if s.emailService != nil && s.emailService.Enabled() {
		input := ClaimEmailInput{
			TemplateName: template.Name,
			Code:         result.Code,
			DiscountText: result.DiscountText,
			RedirectURL:  template.RedirectURL,
		}
		go func() {
			if err := s.emailService.SendClaimSuccessEmail(email, input); err != nil {
				logger.Warnw("claim_notify_send_failed",
					"pool_entry_id", result.PoolEntryID,
					"email", email,
					"error", err,
				)
			}
		}()
		return
	}

	logger.Debugw("claim_notify_skipped", "pool_entry_id", result.PoolEntryID, "email", email)
}

func isTemplateClaimable(template *models.CouponTemplate, now time.Time) bool {
	if template.Status != constants.TemplateStatusActive {
		return false
	}
	if now.Before(template.ValidFrom) {
		return false
	}
	if now.After(template.ValidUntil) {
		return false
	}
	return true
}
