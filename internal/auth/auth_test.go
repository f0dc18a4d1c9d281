package auth

import (
	"errors"
	"testing"
	"time"

	"paghetta/internal/core"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("tr0ubador")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword("tr0ubador", hash); err != nil {
		t.Errorf("VerifyPassword with correct password: %v", err)
	}
	if err := VerifyPassword("wrong", hash); err == nil {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, exp, err := tm.Generate(42, core.RoleGuardian)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry %v should be in the future", exp)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.AccountID != 42 || claims.Role != core.RoleGuardian {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParse_RejectsBadTokens(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	if _, err := tm.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: want ErrInvalidToken, got %v", err)
	}

	other := NewTokenManager("other-secret", time.Hour)
	token, _, err := other.Generate(1, core.RoleDependent)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: want ErrInvalidToken, got %v", err)
	}

	expired := NewTokenManager("test-secret", -time.Minute)
	token, _, err = expired.Generate(1, core.RoleDependent)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := tm.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: want ErrInvalidToken, got %v", err)
	}
}
