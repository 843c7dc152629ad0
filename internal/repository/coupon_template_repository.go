package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// CouponTemplateRepository 券种模板数据访问接口
type CouponTemplateRepository interface {
	GetByID(id uint) (*models.CouponTemplate, error)
	ListClaimable(now time.Time) ([]models.CouponTemplate, error)
	List(filter TemplateListFilter) ([]models.CouponTemplate, int64, error)
	Create(template *models.CouponTemplate) error
	Update(template *models.CouponTemplate) error
	UpdateStatus(id uint, status string) error
	Delete(id uint) error
}

// TemplateListFilter 模板查询条件
type TemplateListFilter struct {
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// GormCouponTemplateRepository GORM 实现
type GormCouponTemplateRepository struct {
	db *gorm.DB
}

// NewCouponTemplateRepository 创建模板仓库
func NewCouponTemplateRepository(db *gorm.DB) *GormCouponTemplateRepository {
	return &GormCouponTemplateRepository{db: db}
}

// GetByID 根据 ID 获取模板
func (r *GormCouponTemplateRepository) GetByID(id uint) (*models.CouponTemplate, error) {
	var template models.CouponTemplate
	if err := r.db.First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

// ListClaimable 列出当前可领取的模板：状态激活且处于有效期内
func (r *GormCouponTemplateRepository) ListClaimable(now time.Time) ([]models.CouponTemplate, error) {
	var templates []models.CouponTemplate
	err := r.db.
		Where("status = ?", constants.TemplateStatusActive).
		Where("valid_from <= ? AND valid_until >= ?", now, now).
		Order("sort_order asc, created_at desc").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// List 分页查询模板
func (r *GormCouponTemplateRepository) List(filter TemplateListFilter) ([]models.CouponTemplate, int64, error) {
	query := r.db.Model(&models.CouponTemplate{})
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var templates []models.CouponTemplate
	if err := query.Order("sort_order asc, created_at desc").Find(&templates).Error; err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

// Create 创建模板
func (r *GormCouponTemplateRepository) Create(template *models.CouponTemplate) error {
	return r.db.Create(template).Error
}

// Update 保存模板全量字段
func (r *GormCouponTemplateRepository) Update(template *models.CouponTemplate) error {
	return r.db.Save(template).Error
}

// UpdateStatus 更新模板上下架状态
func (r *GormCouponTemplateRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.CouponTemplate{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete 软删除模板
func (r *GormCouponTemplateRepository) Delete(id uint) error {
	return r.db.Delete(&models.CouponTemplate{}, id).Error
}
