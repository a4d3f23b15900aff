package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testService(t *testing.T) *Service {
	t.Helper()
	passwords := NewPasswordManager(bcrypt.MinCost, MinPasswordLength)
	tokens := NewJWTManager("test-secret", time.Minute, time.Hour)
	service, err := NewService("operator", "Str0ng!pass", passwords, tokens)
	if err != nil {
		t.Fatalf("service setup failed: %v", err)
	}
	return service
}

func TestLoginAndValidate(t *testing.T) {
	service := testService(t)

	pair, err := service.Login("operator", "Str0ng!pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Errorf("incomplete token pair %+v", pair)
	}

	claims, err := service.Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Username != "operator" || claims.Role != "operator" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service := testService(t)

	if _, err := service.Login("operator", "wrong-password"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login("nobody", "Str0ng!pass"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	service := testService(t)

	pair, err := service.Login("operator", "Str0ng!pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	next, err := service.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	// The consumed token is revoked.
	if _, err := service.Refresh(pair.RefreshToken); err != ErrInvalidToken {
		t.Errorf("reused refresh token must fail, got %v", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	service := testService(t)
	if _, err := service.Validate("not-a-token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordStrength(t *testing.T) {
	passwords := NewPasswordManager(bcrypt.MinCost, MinPasswordLength)

	if err := passwords.ValidatePasswordStrength("Str0ng!pass"); err != nil {
		t.Errorf("strong password rejected: %v", err)
	}
	if err := passwords.ValidatePasswordStrength("short"); err == nil {
		t.Error("short password must be rejected")
	}
	if err := passwords.ValidatePasswordStrength("alllowercase"); err == nil {
		t.Error("single-class password must be rejected")
	}
}
