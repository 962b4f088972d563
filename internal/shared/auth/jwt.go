// Package auth signs and verifies the session tokens issued after login.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	devSecret = "dev-secret"
	tokenTTL  = 24 * time.Hour
)

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims represents the identity contained in a session token.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

var signingKey atomic.Value

// Configure sets the HMAC key. Production requires a non-empty secret; other
// environments fall back to a fixed development key.
func Configure(secret, env string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if env == "production" {
			return fmt.Errorf("%w: JWT_SECRET required in production", ErrMissingSecret)
		}
		secret = devSecret
	}
	signingKey.Store([]byte(secret))
	return nil
}

func key() []byte {
	if k, ok := signingKey.Load().([]byte); ok {
		return k
	}
	return []byte(devSecret)
}

// SignJWT issues an HS256 token for subject with a 24h lifetime.
func SignJWT(subject string, claims Claims) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("sub is required")
	}
	now := time.Now().UTC()
	claims.Subject = subject
	claims.IssuedAt = jwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(tokenTTL))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key())
}

// VerifyJWT verifies a token and returns its claims.
func VerifyJWT(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
