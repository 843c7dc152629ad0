package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/queue"
	"github.com/coupon-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupClaimServiceTest(t *testing.T) (*ClaimService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.CouponTemplate{}, &models.CouponPoolEntry{}); err != nil {
		t.Fatalf("migrate coupon tables failed: %v", err)
	}

	templateRepo := repository.NewCouponTemplateRepository(db)
	poolRepo := repository.NewCouponPoolRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	svc := NewClaimService(templateRepo, poolRepo, queueClient, nil)
	return svc, db
}

func createClaimTemplate(t *testing.T, db *gorm.DB, name, discountType string, value float64) *models.CouponTemplate {
	t.Helper()
	now := time.Now()
	template := &models.CouponTemplate{
		Name:          name,
		DiscountType:  discountType,
		DiscountValue: models.NewDecimalFromFloat(value),
		Status:        constants.TemplateStatusActive,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("create template failed: %v", err)
	}
	return template
}

func seedClaimCodes(t *testing.T, db *gorm.DB, templateID uint, prefix string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := &models.CouponPoolEntry{
			TemplateID: templateID,
			Code:       fmt.Sprintf("%s-%03d", prefix, i),
			Status:     constants.PoolEntryStatusAvailable,
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("seed code failed: %v", err)
		}
	}
}

func TestClaimPercentageRendersDiscountText(t *testing.T) {
	svc, db := setupClaimServiceTest(t)
	template := createClaimTemplate(t, db, "八五折券", constants.DiscountTypePercentage, 8.5)
	seedClaimCodes(t, db, template.ID, "PCT", 1)

	result, err := svc.Claim(template.ID, "dev@example.com")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.Code != "PCT-000" {
		t.Fatalf("code want PCT-000 got %s", result.Code)
	}
	if result.DiscountText != "8.5折" {
		t.Fatalf("discount want 8.5折 got %s", result.DiscountText)
	}
}

func TestClaimFixedRendersDiscountText(t *testing.T) {
	svc, db := setupClaimServiceTest(t)
	template := createClaimTemplate(t, db, "立减五十", constants.DiscountTypeFixed, 50)
	seedClaimCodes(t, db, template.ID, "FIX", 1)

	result, err := svc.Claim(template.ID, "dev@example.com")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if result.DiscountText != "¥50" {
		t.Fatalf("discount want ¥50 got %s", result.DiscountText)
	}
}

func TestClaimExhaustedPoolReturnsSentinel(t *testing.T) {
	svc, db := setupClaimServiceTest(t)
	template := createClaimTemplate(t, db, "仅一张", constants.DiscountTypePercentage, 9)
	seedClaimCodes(t, db, template.ID, "ONE", 1)

	if _, err := svc.Claim(template.ID, "first@example.com"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, err := svc.Claim(template.ID, "late@example.com")
		if !errors.Is(err, ErrPoolExhausted) {
			t.Fatalf("claim #%d want ErrPoolExhausted got %v", i, err)
		}
	}
}

func TestClaimRejectsBadInput(t *testing.T) {
	svc, db := setupClaimServiceTest(t)
	template := createClaimTemplate(t, db, "输入校验", constants.DiscountTypePercentage, 9)
	seedClaimCodes(t, db, template.ID, "VAL", 1)

	if _, err := svc.Claim(0, "dev@example.com"); !errors.Is(err, ErrTemplateInvalid) {
		t.Fatalf("zero template id want ErrTemplateInvalid got %v", err)
	}
	if _, err := svc.Claim(template.ID, "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email want ErrInvalidEmail got %v", err)
	}
	if _, err := svc.Claim(999999, "dev@example.com"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("missing template want ErrTemplateNotFound got %v", err)
	}
}

func TestClaimRejectsInactiveOrExpiredTemplate(t *testing.T) {
	svc, db := setupClaimServiceTest(t)
	now := time.Now()

	inactive := createClaimTemplate(t, db, "已下架", constants.DiscountTypePercentage, 9)
	if err := db.Model(inactive).Update("status", constants.TemplateStatusInactive).Error; err != nil {
		t.Fatalf("deactivate template failed: %v", err)
	}
	seedClaimCodes(t, db, inactive.ID, "INACT", 1)

	expired := createClaimTemplate(t, db, "已过期", constants.DiscountTypePercentage, 9)
	if err := db.Model(expired).Updates(map[string]interface{}{
		"valid_from":  now.Add(-2 * time.Hour),
		"valid_until": now.Add(-time.Hour),
	}).Error; err != nil {
		t.Fatalf("expire template failed: %v", err)
	}
	seedClaimCodes(t, db, expired.ID, "EXP", 1)

	if _, err := svc.Claim(inactive.ID, "dev@example.com"); !errors.Is(err, ErrTemplateNotClaimable) {
		t.Fatalf("inactive template want ErrTemplateNotClaimable got %v", err)
	}
	if _, err := svc.Claim(expired.ID, "dev@example.com"); !errors.Is(err, ErrTemplateNotClaimable) {
		t.Fatalf("expired template want ErrTemplateNotClaimable got %v", err)
	}
}

func TestClaimSucceedsWhenNotificationUnavailable(t *testing.T) {
	_, db := setupClaimServiceTest(t)
	template := createClaimTemplate(t, db, "通知隔离", constants.DiscountTypePercentage, 7)
	seedClaimCodes(t, db, template.ID, "NOTIFY", 2)

	templateRepo := repository.NewCouponTemplateRepository(db)
	poolRepo := repository.NewCouponPoolRepository(db)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	// 指向不可达 SMTP 的邮件服务，发送必然失败
	emailCfg := &config.EmailConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    1,
		From:    "noreply@example.com",
	}
	svc := NewClaimService(templateRepo, poolRepo, queueClient, NewEmailService(emailCfg, "测试站点"))

	result, err := svc.Claim(template.ID, "dev@example.com")
	if err != nil {
		t.Fatalf("claim with broken notifier failed: %v", err)
	}
	if result.Code != "NOTIFY-000" {
		t.Fatalf("code want NOTIFY-000 got %s", result.Code)
	}

	var entry models.CouponPoolEntry
	if err := db.Where("code = ?", result.Code).First(&entry).Error; err != nil {
		t.Fatalf("reload entry failed: %v", err)
	}
	if entry.Status != constants.PoolEntryStatusClaimed {
		t.Fatalf("entry status want claimed got %s", entry.Status)
	}
	if entry.ClaimedBy != "dev@example.com" {
		t.Fatalf("claimed_by want dev@example.com got %s", entry.ClaimedBy)
	}
}

func TestClaimNormalizesEmailBeforeRecording(t *testing.T) {
	svc, db := setupClaimServiceTest(t)
	template := createClaimTemplate(t, db, "邮箱归一", constants.DiscountTypePercentage, 9)
	seedClaimCodes(t, db, template.ID, "NORM", 1)

	result, err := svc.Claim(template.ID, "  Dev@Example.COM ")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	var entry models.CouponPoolEntry
	if err := db.First(&entry, result.PoolEntryID).Error; err != nil {
		t.Fatalf("reload entry failed: %v", err)
	}
	if entry.ClaimedBy != "dev@example.com" {
		t.Fatalf("claimed_by want dev@example.com got %s", entry.ClaimedBy)
	}
}
