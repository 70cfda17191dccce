package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/user-service/internal/events"
	"github.com/SAP-F-2025/user-service/internal/models"
)

func TestResetService_RequestUnknownEmail(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	credentials := newTestCredentialService(t, repo)
	svc := NewResetService(repo, credentials, publisher, testLogger(), time.Hour)

	if err := svc.Request(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("Request() for unknown email error = %v, want nil", err)
	}
	if got := len(publisher.Published()); got != 0 {
		t.Errorf("Request() for unknown email published %d events, want 0", got)
	}
}

func TestResetService_RequestAndRedeem(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	credentials := newTestCredentialService(t, repo)
	svc := NewResetService(repo, credentials, publisher, testLogger(), time.Hour)

	user, err := credentials.Create(ctx, "Dave", "dave@example.com", "original-pass1", models.RoleStudent)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Request(ctx, "Dave@Example.com"); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	published := publisher.Published()
	if len(published) != 1 {
		t.Fatalf("Request() published %d events, want 1", len(published))
	}
	if published[0].Topic != events.TopicEmailDelivery {
		t.Errorf("Request() topic = %q, want %q", published[0].Topic, events.TopicEmailDelivery)
	}
	plaintext := published[0].Envelope.Payload["reset_token"]
	if plaintext == "" {
		t.Fatal("Request() email payload has no reset token")
	}

	// The stored ticket must be the digest, never the plaintext.
	stored, _ := repo.users.GetCredentialsByID(ctx, user.ID)
	if stored.ResetTokenHash == nil || *stored.ResetTokenHash == plaintext {
		t.Fatal("reset ticket stored in plaintext")
	}

	if err := svc.Redeem(ctx, plaintext, "brand-new-pass1"); err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if _, err := credentials.Verify(ctx, "dave@example.com", "brand-new-pass1"); err != nil {
		t.Errorf("new password does not verify after redeem: %v", err)
	}

	// Single use: the same token must not redeem twice.
	if err := svc.Redeem(ctx, plaintext, "another-pass1"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("second Redeem() error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestResetService_RedeemExpiredTicket(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	credentials := newTestCredentialService(t, repo)
	svc := NewResetService(repo, credentials, publisher, testLogger(), -time.Minute)

	if _, err := credentials.Create(ctx, "Eve", "eve@example.com", "original-pass1", models.RoleStudent); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Request(ctx, "eve@example.com"); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	plaintext := publisher.Published()[0].Envelope.Payload["reset_token"]
	if err := svc.Redeem(ctx, plaintext, "new-pass1"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Errorf("Redeem() with expired ticket error = %v, want ErrResetTokenInvalid", err)
	}
}

func TestResetService_RedeemGarbageToken(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(testLogger())
	credentials := newTestCredentialService(t, repo)
	svc := NewResetService(repo, credentials, publisher, testLogger(), time.Hour)

	for _, token := range []string{"", "deadbeef", "not-a-token"} {
		if err := svc.Redeem(ctx, token, "new-pass1"); !errors.Is(err, ErrResetTokenInvalid) {
			t.Errorf("Redeem(%q) error = %v, want ErrResetTokenInvalid", token, err)
		}
	}
}
