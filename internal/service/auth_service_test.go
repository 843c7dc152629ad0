package service

import (
	"context"
	"errors"
	"testing"

	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
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
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("migrate admin table failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "auth-service-test-secret"
	cfg.JWT.ExpireHours = 1

	svc := NewAuthService(cfg, repository.NewAdminRepository(db))
	return svc, db
}

func createTestAdmin(t *testing.T, svc *AuthService, db *gorm.DB, username, password string) *models.Admin {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{Username: username, PasswordHash: hash}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func TestAdminLoginVerifiesPassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	createTestAdmin(t, svc, db, "auth-login-admin", "correct-horse-battery")

	admin, token, expiresAt, err := svc.Login("auth-login-admin", "correct-horse-battery")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatalf("expected token and expiry, got token=%q expires=%v", token, expiresAt)
	}
	if admin.LastLoginAt == nil {
		t.Fatalf("expected last_login_at to be recorded")
	}

	claims, err := svc.ValidateAdminToken(context.Background(), token)
	if err != nil {
		t.Fatalf("validate token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "auth-login-admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := svc.Login("auth-login-admin", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("no-such-admin", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown admin, got %v", err)
	}
}

func TestChangePasswordInvalidatesOldTokens(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "auth-rotate-admin", "old-password-123")

	token, _, err := svc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	if _, err := svc.ValidateAdminToken(context.Background(), token); err != nil {
		t.Fatalf("token should be valid before password change: %v", err)
	}

	if err := svc.ChangePassword(admin.ID, "old-password-123", "new-password-456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.ValidateAdminToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected old token rejected after password change, got %v", err)
	}

	if _, _, _, err := svc.Login("auth-rotate-admin", "old-password-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, _, _, err := svc.Login("auth-rotate-admin", "new-password-456"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestChangePasswordValidatesInput(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, db, "auth-validate-admin", "current-password")

	if err := svc.ChangePassword(admin.ID, "not-the-password", "new-password-456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "current-password", "short"); err == nil {
		t.Fatalf("expected short password rejected")
	}
	if err := svc.ChangePassword(99999, "whatever", "new-password-456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
