// Package auth covers password hashing and the session tokens the web
// surface hands out as cookies.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"paghetta/internal/core"
)

// ErrInvalidToken wraps core.ErrUnauthorized so callers can treat any
// rejected session uniformly.
var ErrInvalidToken = fmt.Errorf("invalid token: %w", core.ErrUnauthorized)

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

type Claims struct {
	AccountID int64     `json:"aid"`
	Role      core.Role `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a session token for the account. The expiry doubles as
// the cookie lifetime.
func (tm *TokenManager) Generate(accountID int64, role core.Role) (string, time.Time, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Parse validates the signature and expiry and returns the embedded
// claims. Any failure maps to ErrInvalidToken.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
