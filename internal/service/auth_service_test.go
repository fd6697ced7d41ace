package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newAuthTestService(t *testing.T, name string) (*gorm.DB, *AuthService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:   "test-admin-secret-key-0123456789",
			ExpireHours: 1,
		},
		BuyerJWT: config.JWTConfig{
			SecretKey:   "test-buyer-secret-key-0123456789",
			ExpireHours: 1,
		},
	}
	return db, NewAuthService(cfg, repository.NewAdminRepository(db))
}

func TestHashAndVerifyPassword(t *testing.T) {
	_, svc := newAuthTestService(t, "auth_hash")
	hash, err := svc.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("expected hash, got plaintext")
	}
	if err := svc.VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestAdminJWTRoundTrip(t *testing.T) {
	_, svc := newAuthTestService(t, "auth_jwt")
	admin := &models.Admin{ID: 42, Username: "root"}

	token, expiresAt, err := svc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("GenerateJWT error: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT error: %v", err)
	}
	if claims.AdminID != 42 || claims.Username != "root" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected error for tampered token")
	}
}

func TestBuyerTokenRoundTrip(t *testing.T) {
	_, svc := newAuthTestService(t, "auth_buyer_jwt")

	token, _, err := svc.GenerateBuyerToken("buyer@example.com")
	if err != nil {
		t.Fatalf("GenerateBuyerToken error: %v", err)
	}
	email, err := svc.ParseBuyerToken(token)
	if err != nil {
		t.Fatalf("ParseBuyerToken error: %v", err)
	}
	if email != "buyer@example.com" {
		t.Fatalf("unexpected email: %s", email)
	}

	// 买家 Token 不能当管理员 Token 用
	if claims, err := svc.ParseJWT(token); err == nil && claims.AdminID != 0 {
		t.Fatalf("expected buyer token to carry no admin identity, got %+v", claims)
	}
}

func TestLogin(t *testing.T) {
	db, svc := newAuthTestService(t, "auth_login")
	hash, err := svc.HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	admin := models.Admin{Username: "root", PasswordHash: hash}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	got, token, expiresAt, err := svc.Login("root", "admin123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != admin.ID || token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("unexpected login result: %+v token %q expires %v", got, token, expiresAt)
	}
	if got.LastLoginAt == nil {
		t.Fatalf("expected last_login_at to be set")
	}

	if _, _, _, err := svc.Login("root", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for wrong password, got: %v", err)
	}
	if _, _, _, err := svc.Login("nobody", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got: %v", err)
	}
}
