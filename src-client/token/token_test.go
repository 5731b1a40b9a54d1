package token_test

import (
	"testing"
	"time"

	"kiosco/src-client/token"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, role string, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := token.Claims{
		UserID:   7,
		Username: "kiosco1",
		Role:     token.Role(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestDecode(t *testing.T) {
	now := time.Now()

	// case: valid token, payload read without signature verification
	func() {
		raw := signedToken(t, "kiosco", now, now.Add(time.Hour))
		claims, err := token.Decode(raw)
		if err != nil {
			t.Fatal(err)
		}
		if claims.UserID != 7 {
			t.Error("wrong user id", claims.UserID)
		}
		if claims.Username != "kiosco1" {
			t.Error("wrong username", claims.Username)
		}
		if claims.Role != token.ROLE_KIOSCO {
			t.Error("wrong role", claims.Role)
		}
		if claims.Expired(now) {
			t.Error("token should not be expired yet")
		}
	}()

	// case: garbage in
	func() {
		if _, err := token.Decode("not-a-token"); err == nil {
			t.Error("expected decode error")
		}
		if _, err := token.Decode("a.b.c"); err == nil {
			t.Error("expected decode error")
		}
	}()

	// case: no exp claim
	func() {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"id":      7,
			"usuario": "kiosco1",
			"rol":     "kiosco",
		}).SignedString([]byte("whatever"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := token.Decode(raw); err == nil {
			t.Error("expected error for token without iat/exp")
		}
	}()
}

func TestExpired(t *testing.T) {
	now := time.Now()

	raw := signedToken(t, "admin", now.Add(-2*time.Hour), now.Add(-time.Hour))
	claims, err := token.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !claims.Expired(now) {
		t.Error("token with exp in the past should be expired")
	}
	if claims.Expired(now.Add(-90 * time.Minute)) {
		t.Error("token should not be expired before its exp")
	}
}
