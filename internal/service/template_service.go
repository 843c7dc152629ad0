package service

import (
	"strings"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"
)

// TemplateService 券种模板服务
type TemplateService struct {
	templateRepo repository.CouponTemplateRepository
	poolRepo     repository.CouponPoolRepository
}

// NewTemplateService 创建模板服务
func NewTemplateService(templateRepo repository.CouponTemplateRepository, poolRepo repository.CouponPoolRepository) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		poolRepo:     poolRepo,
	}
}

// TemplateView 对外展示的券种信息，库存数由券码池实时计数得出
type TemplateView struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue models.Decimal  `json:"discount_value"`
	DiscountText  string          `json:"discount_text"`
	OriginalPrice *models.Decimal `json:"original_price,omitempty"`
	CreditAmount  *int            `json:"credit_amount,omitempty"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	SortOrder     int             `json:"sort_order"`
	Status        string          `json:"status"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    time.Time       `json:"valid_until"`
	Total         int64           `json:"total"`
	Remaining     int64           `json:"remaining"`
}

// ListClaimable 列出当前可领取的券种及剩余库存
func (s *TemplateService) ListClaimable() ([]TemplateView, error) {
	templates, err := s.templateRepo.ListClaimable(time.Now())
	if err != nil {
		return nil, err
	}
	return s.buildViews(templates)
}

// AdminList 后台分页查询券种
func (s *TemplateService) AdminList(filter repository.TemplateListFilter) ([]TemplateView, int64, error) {
	templates, total, err := s.templateRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.buildViews(templates)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetByID 获取单个券种
func (s *TemplateService) GetByID(id uint) (*TemplateView, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	views, err := s.buildViews([]models.CouponTemplate{*template})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// TemplateInput 创建/更新券种入参
type TemplateInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue models.Decimal  `json:"discount_value"`
	OriginalPrice *models.Decimal `json:"original_price"`
	CreditAmount  *int            `json:"credit_amount"`
	RedirectURL   string          `json:"redirect_url"`
	SortOrder     int             `json:"sort_order"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    time.Time       `json:"valid_until"`
}

// Create 创建券种
func (s *TemplateService) Create(input TemplateInput) (*models.CouponTemplate, error) {
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}
	template := &models.CouponTemplate{
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		OriginalPrice: input.OriginalPrice,
		CreditAmount:  input.CreditAmount,
		RedirectURL:   strings.TrimSpace(input.RedirectURL),
		SortOrder:     input.SortOrder,
		Status:        constants.TemplateStatusActive,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
	}
	if err := s.templateRepo.Create(template); err != nil {
		return nil, err
	}
	return template, nil
}

// Update 更新券种
func (s *TemplateService) Update(id uint, input TemplateInput) (*models.CouponTemplate, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}

	template.Name = strings.TrimSpace(input.Name)
	template.Description = strings.TrimSpace(input.Description)
	template.DiscountType = input.DiscountType
	template.DiscountValue = input.DiscountValue
	template.OriginalPrice = input.OriginalPrice
	template.CreditAmount = input.CreditAmount
	template.RedirectURL = strings.TrimSpace(input.RedirectURL)
	template.SortOrder = input.SortOrder
	template.ValidFrom = input.ValidFrom
	template.ValidUntil = input.ValidUntil
	template.UpdatedAt = time.Now()

	if err := s.templateRepo.Update(template); err != nil {
		return nil, err
	}
	return template, nil
}

// UpdateStatus 上下架券种
func (s *TemplateService) UpdateStatus(id uint, status string) error {
	if status != constants.TemplateStatusActive && status != constants.TemplateStatusInactive {
		return ErrTemplateInvalid
	}
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return err
	}
	if template == nil {
		return ErrTemplateNotFound
	}
	return s.templateRepo.UpdateStatus(id, status)
}

// Delete 删除券种
func (s *TemplateService) Delete(id uint) error {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return err
	}
	if template == nil {
		return ErrTemplateNotFound
	}
	return s.templateRepo.Delete(id)
}

func (s *TemplateService) buildViews(templates []models.CouponTemplate) ([]TemplateView, error) {
	ids := make([]uint, 0, len(templates))
	for _, template := range templates {
		ids = append(ids, template.ID)
	}
	stats, err := s.poolRepo.CountByTemplateIDs(ids)
	if err != nil {
		return nil, err
	}

	views := make([]TemplateView, 0, len(templates))
	for _, template := range templates {
		stat := stats[template.ID]
		views = append(views, TemplateView{
			ID:            template.ID,
			Name:          template.Name,
			Description:   template.Description,
			DiscountType:  template.DiscountType,
			DiscountValue: template.DiscountValue,
			DiscountText:  FormatDiscount(template.DiscountType, template.DiscountValue),
			OriginalPrice: template.OriginalPrice,
			CreditAmount:  template.CreditAmount,
			RedirectURL:   template.RedirectURL,
			SortOrder:     template.SortOrder,
			Status:        template.Status,
			ValidFrom:     template.ValidFrom,
			ValidUntil:    template.ValidUntil,
			Total:         stat.Total,
			Remaining:     stat.Available,
		})
	}
	return views, nil
}

func validateTemplateInput(input TemplateInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrTemplateInvalid
	}
	switch input.DiscountType {
	case constants.DiscountTypePercentage, constants.DiscountTypeFixed:
	default:
		return ErrTemplateInvalid
	}
	if !input.DiscountValue.IsPositive() {
		return ErrTemplateInvalid
	}
	if input.ValidFrom.IsZero() || input.ValidUntil.IsZero() {
		return ErrTemplateInvalid
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return ErrTemplateInvalid
	}
	return nil
}
