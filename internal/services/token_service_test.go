package services

import (
	"errors"
	"testing"
	"time"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, expiresAt, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("Issue() expiry %v is not in the future", expiresAt)
	}

	userID, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Verify() userID = %q, want %q", userID, "user-123")
	}
}

func TestTokenService_VerifyFailures(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	expired := NewTokenService("test-secret", -time.Minute)
	expiredToken, _, err := expired.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherKey := NewTokenService("different-secret", time.Hour)
	forgedToken, _, err := otherKey.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.token"},
		{"expired token", expiredToken},
		{"wrong signing key", forgedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Verify() error = %v, want ErrUnauthenticated", err)
			}
		})
	}
}
