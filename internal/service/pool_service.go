package service

import (
	"strings"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"
)

// PoolService 券码池管理服务
type PoolService struct {
	templateRepo repository.CouponTemplateRepository
	poolRepo     repository.CouponPoolRepository
}

// NewPoolService 创建券码池服务
func NewPoolService(templateRepo repository.CouponTemplateRepository, poolRepo repository.CouponPoolRepository) *PoolService {
	return &PoolService{
		templateRepo: templateRepo,
		poolRepo:     poolRepo,
	}
}

// ImportResult 券码导入结果
type ImportResult struct {
	Imported          int `json:"imported"`
	SkippedDuplicates int `json:"skipped_duplicates"`
	SkippedInvalid    int `json:"skipped_invalid"`
}

// ImportCodes 批量导入券码。
// 空白行、批内重复、库内已存在的券码会被跳过，导入是追加式的，不影响已有券码。
func (s *PoolService) ImportCodes(templateID uint, codes []string) (*ImportResult, error) {
	template, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	result := &ImportResult{}
	seen := make(map[string]struct{}, len(codes))
	cleaned := make([]string, 0, len(codes))
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			result.SkippedInvalid++
			continue
		}
		if _, dup := seen[code]; dup {
			result.SkippedDuplicates++
			continue
		}
		seen[code] = struct{}{}
		cleaned = append(cleaned, code)
	}
	if len(cleaned) == 0 {
		return nil, ErrCodesEmpty
	}

	existing, err := s.poolRepo.FilterExistingCodes(cleaned)
	if err != nil {
		return nil, err
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		existingSet[code] = struct{}{}
	}

	entries := make([]models.CouponPoolEntry, 0, len(cleaned))
	for _, code := range cleaned {
		if _, dup := existingSet[code]; dup {
			result.SkippedDuplicates++
			continue
		}
		entries = append(entries, models.CouponPoolEntry{
			TemplateID: templateID,
			Code:       code,
			Status:     constants.PoolEntryStatusAvailable,
		})
	}
	if len(entries) == 0 {
		return result, nil
	}

	if err := s.poolRepo.CreateBatch(entries); err != nil {
		return nil, err
	}
	result.Imported = len(entries)
	return result, nil
}

// Stats 查询券码池统计
func (s *PoolService) Stats(templateID uint) (*repository.PoolStats, error) {
	template, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	stats, err := s.poolRepo.CountByTemplate(templateID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// List 分页查询券码
func (s *PoolService) List(filter repository.PoolEntryListFilter) ([]models.CouponPoolEntry, int64, error) {
	return s.poolRepo.List(filter)
}

// PurgeAvailable 清空某券种未领取的券码
func (s *PoolService) PurgeAvailable(templateID uint) (int64, error) {
	template, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		return 0, err
	}
	if template == nil {
		return 0, ErrTemplateNotFound
	}
	return s.poolRepo.DeleteAvailableByTemplate(templateID)
}
