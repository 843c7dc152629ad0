package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"

	"gorm.io/gorm"
)

// allocateMaxAttempts 单次分配内的候选行重试上限
const allocateMaxAttempts = 3

// ErrAllocateContention 分配竞争过于激烈，重试次数耗尽
var ErrAllocateContention = errors.New("coupon pool allocation contention")

// CouponPoolRepository 券码池数据访问接口
type CouponPoolRepository interface {
	Allocate(templateID uint, claimedBy string, claimedAt time.Time) (*models.CouponPoolEntry, error)
	CreateBatch(entries []models.CouponPoolEntry) error
	FilterExistingCodes(codes []string) ([]string, error)
	GetByID(id uint) (*models.CouponPoolEntry, error)
	List(filter PoolEntryListFilter) ([]models.CouponPoolEntry, int64, error)
	CountByTemplate(templateID uint) (PoolStats, error)
	CountByTemplateIDs(templateIDs []uint) (map[uint]PoolStats, error)
	DeleteAvailableByTemplate(templateID uint) (int64, error)
}

// PoolStats 券码池统计结果
type PoolStats struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Claimed   int64 `json:"claimed"`
}

// PoolEntryListFilter 券码池查询条件
type PoolEntryListFilter struct {
	TemplateID uint
	Status     string
	ClaimedBy  string
	Page       int
	PageSize   int
}

// GormCouponPoolRepository GORM 实现
type GormCouponPoolRepository struct {
	db *gorm.DB
}

// NewCouponPoolRepository 创建券码池仓库
func NewCouponPoolRepository(db *gorm.DB) *GormCouponPoolRepository {
	return &GormCouponPoolRepository{db: db}
}

// Allocate 在单个事务内原子分配一个可用券码。
// 候选行按 id 升序选取；占用动作是条件更新（仅 status 仍为 available 的行会被写），
// 行被并发请求抢走时换下一行重试。读取后直接改写而不校验状态属于正确性缺陷，
// 任何改动都必须保持这里的比较交换语义。
func (r *GormCouponPoolRepository) Allocate(templateID uint, claimedBy string, claimedAt time.Time) (*models.CouponPoolEntry, error) {
	if templateID == 0 || strings.TrimSpace(claimedBy) == "" {
		return nil, errors.New("invalid allocation input")
	}
	if claimedAt.IsZero() {
		claimedAt = time.Now()
	}

	var allocated *models.CouponPoolEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for attempt := 0; attempt < allocateMaxAttempts; attempt++ {
			var candidate models.CouponPoolEntry
			query := tx.
				Where("template_id = ? AND status = ?", templateID, constants.PoolEntryStatusAvailable).
				Order("id asc")
			if locks := allocationLockClauses(tx); len(locks) > 0 {
				query = query.Clauses(locks...)
			}
			if err := query.First(&candidate).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 池已领空
					return nil
				}
				return err
			}

			result := tx.Model(&models.CouponPoolEntry{}).
				Where("id = ? AND status = ?", candidate.ID, constants.PoolEntryStatusAvailable).
				Updates(map[string]interface{}{
					"status":     constants.PoolEntryStatusClaimed,
					"claimed_by": claimedBy,
					"claimed_at": claimedAt,
					"updated_at": claimedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// 候选行已被并发请求占用，换下一行
				continue
			}

			candidate.Status = constants.PoolEntryStatusClaimed
			candidate.ClaimedBy = claimedBy
			candidate.ClaimedAt = &claimedAt
			candidate.UpdatedAt = claimedAt
			allocated = &candidate
			return nil
		}
		return ErrAllocateContention
	})
	if err != nil {
		return nil, err
	}
	return allocated, nil
}

// CreateBatch 批量创建券码
func (r *GormCouponPoolRepository) CreateBatch(entries []models.CouponPoolEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

// FilterExistingCodes 返回已存在的券码（券码全局唯一）
func (r *GormCouponPoolRepository) FilterExistingCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return []string{}, nil
	}
	var existing []string
	if err := r.db.Model(&models.CouponPoolEntry{}).
		Where("code IN ?", codes).
		Pluck("code", &existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// GetByID 根据 ID 获取券码
func (r *GormCouponPoolRepository) GetByID(id uint) (*models.CouponPoolEntry, error) {
	var entry models.CouponPoolEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// List 分页查询券码
func (r *GormCouponPoolRepository) List(filter PoolEntryListFilter) ([]models.CouponPoolEntry, int64, error) {
	query := r.db.Model(&models.CouponPoolEntry{})
	if filter.TemplateID > 0 {
		query = query.Where("template_id = ?", filter.TemplateID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if claimedBy := strings.TrimSpace(filter.ClaimedBy); claimedBy != "" {
		query = query.Where("claimed_by = ?", claimedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.CouponPoolEntry
	if err := query.Order("id asc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// CountByTemplate 统计单个模板的券码数量（总/可用/已领）
// 剩余数始终由计数得出，模板表不存冗余库存字段。
func (r *GormCouponPoolRepository) CountByTemplate(templateID uint) (PoolStats, error) {
	if templateID == 0 {
		return PoolStats{}, errors.New("invalid template id")
	}
	stats, err := r.CountByTemplateIDs([]uint{templateID})
	if err != nil {
		return PoolStats{}, err
	}
	return stats[templateID], nil
}

// CountByTemplateIDs 批量统计模板券码数量
func (r *GormCouponPoolRepository) CountByTemplateIDs(templateIDs []uint) (map[uint]PoolStats, error) {
	result := make(map[uint]PoolStats)
	if len(templateIDs) == 0 {
		return result, nil
	}

	type countRow struct {
		TemplateID uint
		Status     string
		Total      int64
	}

	var rows []countRow
	if err := r.db.Model(&models.CouponPoolEntry{}).
		Select("template_id, status, COUNT(*) as total").
		Where("template_id IN ?", templateIDs).
		Group("template_id, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats := result[row.TemplateID]
		stats.Total += row.Total
		switch row.Status {
		case constants.PoolEntryStatusAvailable:
			stats.Available += row.Total
		case constants.PoolEntryStatusClaimed:
			stats.Claimed += row.Total
		}
		result[row.TemplateID] = stats
	}
	return result, nil
}

// DeleteAvailableByTemplate 删除模板下未领取的券码（已领取的保留作领取记录）
func (r *GormCouponPoolRepository) DeleteAvailableByTemplate(templateID uint) (int64, error) {
	if templateID == 0 {
		return 0, errors.New("invalid template id")
	}
	result := r.db.
		Where("template_id = ? AND status = ?", templateID, constants.PoolEntryStatusAvailable).
		Delete(&models.CouponPoolEntry{})
	return result.RowsAffected, result.Error
}
