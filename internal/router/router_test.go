package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var (
	routerTestOnce      sync.Once
	routerTestEngine    *gin.Engine
	routerTestContainer *provider.Container
)

func setupRouterTest(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	routerTestOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
		if err != nil {
			t.Fatalf("open sqlite failed: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("get sql.DB failed: %v", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.AutoMigrate(
			&models.Admin{},
			&models.User{},
			&models.EmailVerifyCode{},
			&models.CouponTemplate{},
			&models.CouponPoolEntry{},
		); err != nil {
			t.Fatalf("migrate tables failed: %v", err)
		}
		models.DB = db

		cfg := &config.Config{}
		cfg.Server.Mode = "debug"
		cfg.JWT.SecretKey = "router-test-admin-secret"
		cfg.JWT.ExpireHours = 1
		cfg.UserJWT.SecretKey = "router-test-user-secret"
		cfg.UserJWT.ExpireHours = 1
		cfg.Claim.SiteName = "测试券站"

		routerTestContainer = provider.NewContainer(cfg)
		routerTestEngine = SetupRouter(cfg, routerTestContainer)
	})
	return routerTestEngine, routerTestContainer
}

func createTestUserToken(t *testing.T, c *provider.Container, email string) string {
	t.Helper()
	user := &models.User{Email: email, Status: constants.UserStatusActive}
	if err := c.UserRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	token, _, err := c.UserAuthService.GenerateUserJWT(user)
	if err != nil {
		t.Fatalf("generate user jwt failed: %v", err)
	}
	return token
}

func createTestTemplateWithCodes(t *testing.T, name string, codes int) *models.CouponTemplate {
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
	if err := models.DB.Create(template).Error; err != nil {
		t.Fatalf("create template failed: %v", err)
	}
	for i := 1; i <= codes; i++ {
		entry := &models.CouponPoolEntry{
			TemplateID: template.ID,
			Code:       fmt.Sprintf("%s-%04d", name, i),
			Status:     constants.PoolEntryStatusAvailable,
		}
		if err := models.DB.Create(entry).Error; err != nil {
			t.Fatalf("create pool entry failed: %v", err)
		}
	}
	return template
}

func doClaimRequest(engine *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/claim-coupon", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeJSONBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response body failed: %v (body=%s)", err, w.Body.String())
	}
	return payload
}

func TestClaimCouponRequiresAuthHeader(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := doClaimRequest(engine, "", `{"template_id":1}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	payload := decodeJSONBody(t, w)
	if payload["error"] != "Unauthorized" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestClaimCouponRejectsInvalidToken(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := doClaimRequest(engine, "not-a-valid-token", `{"template_id":1}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	payload := decodeJSONBody(t, w)
	if payload["error"] != "Invalid Token" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestClaimCouponRequiresTemplateID(t *testing.T) {
	engine, container := setupRouterTest(t)
	token := createTestUserToken(t, container, "need-tpl@example.com")

	w := doClaimRequest(engine, token, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	payload := decodeJSONBody(t, w)
	if payload["error"] != "Template ID required" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestClaimCouponSuccessResponseShape(t *testing.T) {
	engine, container := setupRouterTest(t)
	token := createTestUserToken(t, container, "claimer@example.com")
	template := createTestTemplateWithCodes(t, "ROUTE-OK", 2)

	w := doClaimRequest(engine, token, fmt.Sprintf(`{"template_id":%d}`, template.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body=%s)", w.Code, w.Body.String())
	}
	payload := decodeJSONBody(t, w)
	if payload["success"] != true {
		t.Fatalf("expected success=true, got %v", payload["success"])
	}
	code, _ := payload["code"].(string)
	if !strings.HasPrefix(code, "ROUTE-OK-") {
		t.Fatalf("unexpected code: %q", code)
	}
	if payload["discount"] != "8.5折" {
		t.Fatalf("unexpected discount: %v", payload["discount"])
	}
	if payload["message"] != constants.ClaimMsgSuccess {
		t.Fatalf("unexpected message: %v", payload["message"])
	}

	var entry models.CouponPoolEntry
	if err := models.DB.Where("code = ?", code).First(&entry).Error; err != nil {
		t.Fatalf("load claimed entry failed: %v", err)
	}
	if entry.Status != constants.PoolEntryStatusClaimed || entry.ClaimedBy != "claimer@example.com" {
		t.Fatalf("entry not recorded as claimed: status=%s claimed_by=%s", entry.Status, entry.ClaimedBy)
	}
}

func TestClaimCouponSoldOutMessage(t *testing.T) {
	engine, container := setupRouterTest(t)
	token := createTestUserToken(t, container, "soldout@example.com")
	template := createTestTemplateWithCodes(t, "ROUTE-EMPTY", 0)

	w := doClaimRequest(engine, token, fmt.Sprintf(`{"template_id":%d}`, template.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	payload := decodeJSONBody(t, w)
	if payload["error"] != constants.ClaimMsgSoldOut {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}
}

func TestClaimCouponLastCodeGoesToExactlyOneUser(t *testing.T) {
	engine, container := setupRouterTest(t)
	tokenA := createTestUserToken(t, container, "race-a@example.com")
	tokenB := createTestUserToken(t, container, "race-b@example.com")
	template := createTestTemplateWithCodes(t, "ROUTE-LAST", 1)

	body := fmt.Sprintf(`{"template_id":%d}`, template.ID)
	first := doClaimRequest(engine, tokenA, body)
	second := doClaimRequest(engine, tokenB, body)

	if first.Code != http.StatusOK {
		t.Fatalf("first claim expected 200, got %d (body=%s)", first.Code, first.Body.String())
	}
	if second.Code != http.StatusBadRequest {
		t.Fatalf("second claim expected 400, got %d (body=%s)", second.Code, second.Body.String())
	}
	secondPayload := decodeJSONBody(t, second)
	if secondPayload["error"] != constants.ClaimMsgSoldOut {
		t.Fatalf("unexpected sold-out message: %v", secondPayload["error"])
	}

	var claimed int64
	if err := models.DB.Model(&models.CouponPoolEntry{}).
		Where("template_id = ? AND status = ?", template.ID, constants.PoolEntryStatusClaimed).
		Count(&claimed).Error; err != nil {
		t.Fatalf("count claimed entries failed: %v", err)
	}
	if claimed != 1 {
		t.Fatalf("expected exactly 1 claimed entry, got %d", claimed)
	}
}

func TestCORSPreflightReturnsOK(t *testing.T) {
	engine, _ := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/claim-coupon", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("unexpected preflight body: %q", w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing CORS headers on preflight response")
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	engine, _ := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	payload := decodeJSONBody(t, w)
	if payload["error"] != "Not Found" {
		t.Fatalf("unexpected 404 body: %v", payload)
	}
}

func TestVerifyCodeLoginFlowOverHTTP(t *testing.T) {
	engine, container := setupRouterTest(t)

	email := "flow@example.com"
	record := &models.EmailVerifyCode{
		Email:     email,
		Code:      "246810",
		Purpose:   constants.VerifyPurposeLogin,
		SentAt:    time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	if err := container.EmailVerifyCodeRepo.Create(record); err != nil {
		t.Fatalf("seed verify code failed: %v", err)
	}

	body := fmt.Sprintf(`{"email":%q,"code":"246810"}`, email)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body=%s)", w.Code, w.Body.String())
	}
	payload := decodeJSONBody(t, w)
	if payload["status_code"] != float64(0) {
		t.Fatalf("unexpected status_code: %v", payload["status_code"])
	}
	data, _ := payload["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("missing token in login response: %v", payload)
	}

	profileReq := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	profileReq.Header.Set("Authorization", "Bearer "+token)
	profileW := httptest.NewRecorder()
	engine.ServeHTTP(profileW, profileReq)

	if profileW.Code != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d (body=%s)", profileW.Code, profileW.Body.String())
	}
	profile := decodeJSONBody(t, profileW)
	profileData, _ := profile["data"].(map[string]interface{})
	if profileData["email"] != email {
		t.Fatalf("unexpected profile email: %v", profileData["email"])
	}
}
