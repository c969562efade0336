// Package token issues and verifies the HS256 bearer tokens that carry the
// caller's roster role.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "user-roster"

var (
	ErrEmptySecret = errors.New("token: empty signing secret")
	ErrMissingRole = errors.New("token: role claim is empty")
)

// Claims is the JWT payload. Subject identifies the caller; Role drives
// visibility and write access.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for subject with the given role, valid for ttl from now.
func Issue(secret, subject, role string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return "", ErrMissingRole
	}

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies raw against secret and returns its claims. Only HS256 is accepted.
func Parse(secret, raw string) (*Claims, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token: parse: %w", err)
	}
	if strings.TrimSpace(claims.Role) == "" {
		return nil, ErrMissingRole
	}
	return claims, nil
}
