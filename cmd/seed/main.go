package main

import (
	"fmt"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()
	originalPrice := models.NewDecimal(decimal.NewFromInt(199))
	creditAmount := 100
	templates := []models.CouponTemplate{
		{
			Name:          "新人 8.5 折券",
			Description:   "全场通用，新用户专享",
			DiscountType:  constants.DiscountTypePercentage,
			DiscountValue: models.NewDecimalFromFloat(8.5),
			OriginalPrice: &originalPrice,
			SortOrder:     10,
			Status:        constants.TemplateStatusActive,
			ValidFrom:     now.AddDate(0, 0, -1),
			ValidUntil:    now.AddDate(0, 1, 0),
		},
		{
			Name:          "满减 50 元券",
			Description:   "满 200 元可用",
			DiscountType:  constants.DiscountTypeFixed,
			DiscountValue: models.NewDecimal(decimal.NewFromInt(50)),
			CreditAmount:  &creditAmount,
			SortOrder:     20,
			Status:        constants.TemplateStatusActive,
			ValidFrom:     now.AddDate(0, 0, -1),
			ValidUntil:    now.AddDate(0, 1, 0),
		},
	}

	for i := range templates {
		tpl := &templates[i]
		var existing models.CouponTemplate
		if err := models.DB.Where("name = ?", tpl.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(tpl).Error; err != nil {
				stdLog.Printf("Failed to create template %s: %v", tpl.Name, err)
				continue
			}
			stdLog.Printf("Created template: %s (id=%d)", tpl.Name, tpl.ID)
		} else {
			tpl.ID = existing.ID
			stdLog.Printf("Template already exists: %s (id=%d)", tpl.Name, existing.ID)
		}

		seedPoolCodes(tpl, 20, stdLog.Printf)
	}

	stdLog.Printf("Seed finished")
}

func seedPoolCodes(tpl *models.CouponTemplate, count int, logf func(format string, v ...interface{})) {
	var existing int64
	if err := models.DB.Model(&models.CouponPoolEntry{}).
		Where("template_id = ?", tpl.ID).
		Count(&existing).Error; err != nil {
		logf("Failed to count pool codes for %s: %v", tpl.Name, err)
		return
	}
	if existing > 0 {
		logf("Pool already seeded for %s (%d codes)", tpl.Name, existing)
		return
	}

	entries := make([]models.CouponPoolEntry, 0, count)
	for i := 1; i <= count; i++ {
		entries = append(entries, models.CouponPoolEntry{
			TemplateID: tpl.ID,
			Code:       fmt.Sprintf("CN%d-%04d", tpl.ID, i),
			Status:     constants.PoolEntryStatusAvailable,
		})
	}
	if err := models.DB.Create(&entries).Error; err != nil {
		logf("Failed to seed pool codes for %s: %v", tpl.Name, err)
		return
	}
	logf("Seeded %d pool codes for %s", count, tpl.Name)
}
