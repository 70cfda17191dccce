package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/user-service/internal/events"
	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
)

const resetTokenBytes = 32

type resetService struct {
	repo        repositories.Repository
	credentials CredentialService
	publisher   events.Publisher
	logger      *slog.Logger
	ttl         time.Duration
}

func NewResetService(repo repositories.Repository, credentials CredentialService, publisher events.Publisher, logger *slog.Logger, ttl time.Duration) ResetService {
	return &resetService{
		repo:        repo,
		credentials: credentials,
		publisher:   publisher,
		logger:      logger,
		ttl:         ttl,
	}
}

func (s *resetService) Request(ctx context.Context, email string) error {
	user, err := s.repo.User().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Same response as the known-email path; no ticket, no email.
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now().UTC()
	if user.HasActiveResetTicket(now) {
		// The new ticket supersedes the outstanding one.
		s.logger.Info("replacing active reset ticket", "user_id", user.ID)
	}

	plaintext, hash, err := newResetToken()
	if err != nil {
		return err
	}

	expiresAt := now.Add(s.ttl)
	if err := s.repo.User().SetResetTicket(ctx, user.ID, hash, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset ticket: %w", err)
	}

	// The plaintext token exists only here and in the outgoing email.
	if err := s.publisher.PublishPasswordResetRequested(ctx, user.Email, user.Name, plaintext); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

func (s *resetService) Redeem(ctx context.Context, plaintextToken, newPassword string) error {
	if plaintextToken == "" {
		return ErrResetTokenInvalid
	}

	newHash, err := s.credentials.HashSecret(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.repo.User().RedeemResetTicket(ctx, hashResetToken(plaintextToken), newHash, time.Now().UTC())
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to redeem reset ticket: %w", err)
	}

	s.recordEvent(ctx, userID)
	return nil
}

func (s *resetService) recordEvent(ctx context.Context, userID string) {
	event := &models.AuthEvent{
		UserID: &userID,
		Type:   models.AuthEventPasswordReset,
	}
	if err := s.repo.AuthEvent().Record(ctx, event); err != nil {
		s.logger.Warn("failed to record password reset event", "user_id", userID, "error", err)
	}

	if err := s.publisher.PublishPasswordChanged(ctx, userID); err != nil {
		s.logger.Warn("failed to publish password changed event", "user_id", userID, "error", err)
	}
}

// newResetToken returns the plaintext token for the email and the sha256 hex
// digest for storage.
func newResetToken() (plaintext, hash string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	return plaintext, hashResetToken(plaintext), nil
}

func hashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
