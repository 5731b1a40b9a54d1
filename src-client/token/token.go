package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	ROLE_ADMIN  = Role("admin")
	ROLE_KIOSCO = Role("kiosco")
)

// Claims is the middle segment of the backend's bearer token. Only the
// payload is ever read here; the signature is the backend's business, and
// nothing decoded from it grants more than routing convenience. Every API
// call still carries the raw token for server-side authorization.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"usuario"`
	Role     Role   `json:"rol"`
	jwt.RegisteredClaims
}

// Decode reads the payload segment of a three-part token without verifying
// the signature. A token that can't be split, base64url-decoded or
// unmarshalled comes back as an error; expiry is NOT checked here.
func Decode(raw string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("can't decode token: %w", err)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, fmt.Errorf("token has no iat/exp claim")
	}
	return claims, nil
}

// Expired against the supplied clock.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}
