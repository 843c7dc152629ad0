package service

import (
	"errors"
	"testing"
	"time"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.EmailVerifyCode{}); err != nil {
		t.Fatalf("migrate user tables failed: %v", err)
	}

	cfg := &config.Config{
		UserJWT: config.JWTConfig{SecretKey: "unit-test-secret", ExpireHours: 1},
	}
	userRepo := repository.NewUserRepository(db)
	codeRepo := repository.NewEmailVerifyCodeRepository(db)
	return NewUserAuthService(cfg, userRepo, codeRepo, nil), db
}

func seedLoginCode(t *testing.T, db *gorm.DB, email, code string) *models.EmailVerifyCode {
	t.Helper()
	now := time.Now()
	record := &models.EmailVerifyCode{
		Email:     email,
		Purpose:   constants.VerifyPurposeLogin,
		Code:      code,
		ExpiresAt: now.Add(10 * time.Minute),
		SentAt:    now,
		CreatedAt: now,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed login code failed: %v", err)
	}
	return record
}

func TestLoginWithCodeCreatesAccountOnFirstLogin(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)
	seedLoginCode(t, db, "newcomer@example.com", "246810")

	user, token, expiresAt, err := svc.LoginWithCode("Newcomer@Example.com", "246810")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Email != "newcomer@example.com" {
		t.Fatalf("email want newcomer@example.com got %s", user.Email)
	}
	if user.EmailVerifiedAt == nil {
		t.Fatal("email_verified_at not set")
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("token/expiry invalid: token=%q expires=%v", token, expiresAt)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestLoginWithCodeRejectsWrongOrReusedCode(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)
	record := seedLoginCode(t, db, "reuse@example.com", "135790")

	if _, _, _, err := svc.LoginWithCode("reuse@example.com", "000000"); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("wrong code want ErrVerifyCodeInvalid got %v", err)
	}

	var reloaded models.EmailVerifyCode
	if err := db.First(&reloaded, record.ID).Error; err != nil {
		t.Fatalf("reload code failed: %v", err)
	}
	if reloaded.AttemptCount != 1 {
		t.Fatalf("attempt count want 1 got %d", reloaded.AttemptCount)
	}

	if _, _, _, err := svc.LoginWithCode("reuse@example.com", "135790"); err != nil {
		t.Fatalf("correct code rejected: %v", err)
	}
	if _, _, _, err := svc.LoginWithCode("reuse@example.com", "135790"); !errors.Is(err, ErrVerifyCodeInvalid) {
		t.Fatalf("reused code want ErrVerifyCodeInvalid got %v", err)
	}
}

func TestLoginWithCodeRejectsExpiredCode(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)
	record := seedLoginCode(t, db, "expired@example.com", "112233")
	if err := db.Model(record).Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire code failed: %v", err)
	}

	if _, _, _, err := svc.LoginWithCode("expired@example.com", "112233"); !errors.Is(err, ErrVerifyCodeExpired) {
		t.Fatalf("expired code want ErrVerifyCodeExpired got %v", err)
	}
}

func TestLoginWithCodeRejectsDisabledUser(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)
	user := &models.User{Email: "banned@example.com", Status: constants.UserStatusDisabled}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	seedLoginCode(t, db, "banned@example.com", "998877")

	if _, _, _, err := svc.LoginWithCode("banned@example.com", "998877"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
}

func TestParseUserJWTRejectsTamperedToken(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)
	seedLoginCode(t, db, "tamper@example.com", "445566")
	_, token, _, err := svc.LoginWithCode("tamper@example.com", "445566")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := svc.ParseUserJWT(token + "x"); err == nil {
		t.Fatal("tampered token accepted")
	}
	if _, err := svc.ParseUserJWT("not-a-jwt"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
