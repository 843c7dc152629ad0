package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponPoolRepositoryTest(t *testing.T) (*GormCouponPoolRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
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
	return NewCouponPoolRepository(db), db
}

func createPoolTemplate(t *testing.T, db *gorm.DB, name string) *models.CouponTemplate {
	t.Helper()
	now := time.Now()
	template := &models.CouponTemplate{
		Name:          name,
		DiscountType:  constants.DiscountTypePercentage,
		DiscountValue: models.NewDecimalFromFloat(8.5),
		Status:        constants.TemplateStatusActive,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("create template failed: %v", err)
	}
	return template
}

func seedPoolCodes(t *testing.T, repo *GormCouponPoolRepository, templateID uint, prefix string, n int) []string {
	t.Helper()
	entries := make([]models.CouponPoolEntry, 0, n)
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		code := fmt.Sprintf("%s-%04d", prefix, i)
		codes = append(codes, code)
		entries = append(entries, models.CouponPoolEntry{
			TemplateID: templateID,
			Code:       code,
			Status:     constants.PoolEntryStatusAvailable,
		})
	}
	if err := repo.CreateBatch(entries); err != nil {
		t.Fatalf("seed pool codes failed: %v", err)
	}
	return codes
}

func TestAllocateAssignsLowestAvailableCode(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	template := createPoolTemplate(t, db, "顺序分配")
	codes := seedPoolCodes(t, repo, template.ID, "SEQ", 3)

	claimedAt := time.Now()
	for i, want := range codes {
		entry, err := repo.Allocate(template.ID, "user@example.com", claimedAt)
		if err != nil {
			t.Fatalf("allocate #%d failed: %v", i, err)
		}
		if entry == nil {
			t.Fatalf("allocate #%d want entry got nil", i)
		}
		if entry.Code != want {
			t.Fatalf("allocate #%d code want %s got %s", i, want, entry.Code)
		}
		if entry.Status != constants.PoolEntryStatusClaimed {
			t.Fatalf("allocate #%d status want claimed got %s", i, entry.Status)
		}
		if entry.ClaimedBy != "user@example.com" {
			t.Fatalf("allocate #%d claimed_by want user@example.com got %s", i, entry.ClaimedBy)
		}
		if entry.ClaimedAt == nil {
			t.Fatalf("allocate #%d claimed_at not set", i)
		}
	}
}

func TestAllocateConcurrentNoDoubleAllocation(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	template := createPoolTemplate(t, db, "并发分配")
	const poolSize = 10
	const requests = 25
	seedPoolCodes(t, repo, template.ID, "CONC", poolSize)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allocatedCodes := make(map[string]int)
	exhausted := 0

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			claimer := fmt.Sprintf("user%d@example.com", idx)
			entry, err := repo.Allocate(template.ID, claimer, time.Now())
			if err != nil {
				t.Errorf("allocate by %s failed: %v", claimer, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if entry == nil {
				exhausted++
				return
			}
			allocatedCodes[entry.Code]++
		}(i)
	}
	wg.Wait()

	if len(allocatedCodes) != poolSize {
		t.Fatalf("distinct allocated codes want %d got %d", poolSize, len(allocatedCodes))
	}
	for code, count := range allocatedCodes {
		if count != 1 {
			t.Fatalf("code %s allocated %d times", code, count)
		}
	}
	if exhausted != requests-poolSize {
		t.Fatalf("exhausted responses want %d got %d", requests-poolSize, exhausted)
	}

	stats, err := repo.CountByTemplate(template.ID)
	if err != nil {
		t.Fatalf("count by template failed: %v", err)
	}
	if stats.Total != poolSize {
		t.Fatalf("total want %d got %d", poolSize, stats.Total)
	}
	if stats.Claimed != poolSize {
		t.Fatalf("claimed want %d got %d", poolSize, stats.Claimed)
	}
	if stats.Available != 0 {
		t.Fatalf("available want 0 got %d", stats.Available)
	}
	if stats.Available+stats.Claimed != stats.Total {
		t.Fatalf("conservation violated: %d+%d != %d", stats.Available, stats.Claimed, stats.Total)
	}
}

func TestAllocateExhaustedPoolStaysExhaustedUntilRestock(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	template := createPoolTemplate(t, db, "售罄")
	seedPoolCodes(t, repo, template.ID, "EXH", 1)

	entry, err := repo.Allocate(template.ID, "first@example.com", time.Now())
	if err != nil {
		t.Fatalf("first allocate failed: %v", err)
	}
	if entry == nil {
		t.Fatal("first allocate want entry got nil")
	}

	for i := 0; i < 3; i++ {
		entry, err = repo.Allocate(template.ID, "late@example.com", time.Now())
		if err != nil {
			t.Fatalf("allocate on empty pool failed: %v", err)
		}
		if entry != nil {
			t.Fatalf("allocate on empty pool want nil got code %s", entry.Code)
		}
	}

	seedPoolCodes(t, repo, template.ID, "EXH-NEW", 1)
	entry, err = repo.Allocate(template.ID, "late@example.com", time.Now())
	if err != nil {
		t.Fatalf("allocate after restock failed: %v", err)
	}
	if entry == nil {
		t.Fatal("allocate after restock want entry got nil")
	}
	if entry.Code != "EXH-NEW-0000" {
		t.Fatalf("restock code want EXH-NEW-0000 got %s", entry.Code)
	}
}

func TestAllocateDoesNotCrossTemplates(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	templateA := createPoolTemplate(t, db, "券种A")
	templateB := createPoolTemplate(t, db, "券种B")
	seedPoolCodes(t, repo, templateA.ID, "TPLA", 1)
	seedPoolCodes(t, repo, templateB.ID, "TPLB", 1)

	entry, err := repo.Allocate(templateB.ID, "user@example.com", time.Now())
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if entry == nil || entry.Code != "TPLB-0000" {
		t.Fatalf("allocate want TPLB-0000 got %+v", entry)
	}

	statsA, err := repo.CountByTemplate(templateA.ID)
	if err != nil {
		t.Fatalf("count template A failed: %v", err)
	}
	if statsA.Available != 1 || statsA.Claimed != 0 {
		t.Fatalf("template A pool touched: %+v", statsA)
	}
}

func TestFilterExistingCodes(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	template := createPoolTemplate(t, db, "去重导入")
	seedPoolCodes(t, repo, template.ID, "DUP", 2)

	existing, err := repo.FilterExistingCodes([]string{"DUP-0000", "DUP-0001", "DUP-9999"})
	if err != nil {
		t.Fatalf("filter existing codes failed: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("existing codes want 2 got %d: %v", len(existing), existing)
	}
}

func TestDeleteAvailableByTemplateKeepsClaimedRecords(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	template := createPoolTemplate(t, db, "清理未领")
	seedPoolCodes(t, repo, template.ID, "PURGE", 3)

	if _, err := repo.Allocate(template.ID, "keeper@example.com", time.Now()); err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	deleted, err := repo.DeleteAvailableByTemplate(template.ID)
	if err != nil {
		t.Fatalf("delete available failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted want 2 got %d", deleted)
	}

	stats, err := repo.CountByTemplate(template.ID)
	if err != nil {
		t.Fatalf("count by template failed: %v", err)
	}
	if stats.Claimed != 1 || stats.Available != 0 {
		t.Fatalf("stats after purge want claimed=1 available=0 got %+v", stats)
	}
}

func TestListPoolEntriesWithFilters(t *testing.T) {
	repo, db := setupCouponPoolRepositoryTest(t)
	template := createPoolTemplate(t, db, "分页查询")
	seedPoolCodes(t, repo, template.ID, "LIST", 5)
	if _, err := repo.Allocate(template.ID, "someone@example.com", time.Now()); err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	entries, total, err := repo.List(PoolEntryListFilter{
		TemplateID: template.ID,
		Status:     constants.PoolEntryStatusAvailable,
		Page:       1,
		PageSize:   3,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 4 {
		t.Fatalf("available total want 4 got %d", total)
	}
	if len(entries) != 3 {
		t.Fatalf("page size want 3 got %d", len(entries))
	}

	entries, total, err = repo.List(PoolEntryListFilter{
		TemplateID: template.ID,
		ClaimedBy:  "someone@example.com",
		Page:       1,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("list by claimer failed: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("claimer filter want 1 got total=%d len=%d", total, len(entries))
	}
	if entries[0].Code != "LIST-0000" {
		t.Fatalf("claimer entry code want LIST-0000 got %s", entries[0].Code)
	}
}
