package services

import (
	"errors"
	"testing"

	"letterdrop/config"
	letterdrop_errors "letterdrop/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return NewAuthService(&config.Config{
		AdminEmail:        "author@letterdrop.dev",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
		JWTExpiryMin:      60,
	})
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	token, err := svc.Login("Author@Letterdrop.DEV", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}

	claims, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Email != "author@letterdrop.dev" {
		t.Fatalf("unexpected email claim %q", claims.Email)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	if _, err := svc.Login("author@letterdrop.dev", "wrong"); !errors.Is(err, letterdrop_errors.ErrUnauthorized) {
		t.Fatalf("wrong password: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Login("stranger@example.com", "hunter2"); !errors.Is(err, letterdrop_errors.ErrUnauthorized) {
		t.Fatalf("wrong email: expected ErrUnauthorized, got %v", err)
	}
}

func TestParseAccessTokenRejectsTampering(t *testing.T) {
	svc := newAuthService(t, "hunter2")
	other := newAuthService(t, "hunter2")
	other.jwtSecret = []byte("different-secret")

	token, err := svc.Login("author@letterdrop.dev", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := other.ParseAccessToken(token); !errors.Is(err, letterdrop_errors.ErrUnauthorized) {
		t.Fatalf("foreign secret: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ParseAccessToken(""); !errors.Is(err, letterdrop_errors.ErrUnauthorized) {
		t.Fatalf("empty token: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.ParseAccessToken(token + "x"); !errors.Is(err, letterdrop_errors.ErrUnauthorized) {
		t.Fatalf("mangled token: expected ErrUnauthorized, got %v", err)
	}
}
