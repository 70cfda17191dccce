package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
)

type credentialService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cost   int

	// dummyHash is compared against when the email is unknown so that both
	// failure paths pay the bcrypt cost.
	dummyHash []byte
}

func NewCredentialService(repo repositories.Repository, logger *slog.Logger, bcryptCost int) (CredentialService, error) {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("credential-timing-pad"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy hash: %w", err)
	}

	return &credentialService{
		repo:      repo,
		logger:    logger,
		cost:      bcryptCost,
		dummyHash: dummy,
	}, nil
}

// NormalizeEmail lower-cases and trims an address. All lookups and writes go
// through this so case variants collapse to one identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *credentialService) Create(ctx context.Context, name, email, password string, role models.UserRole) (*models.User, error) {
	email = NormalizeEmail(email)

	// Cheap pre-check so an obvious duplicate skips the bcrypt work. The
	// unique index stays authoritative for races and stale cache entries.
	if exists, err := s.repo.User().ExistsByEmail(ctx, email); err == nil && exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.HashSecret(password)
	if err != nil {
		return nil, err
	}

	if !role.Valid() {
		role = models.RoleStudent
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		AvatarURL:    models.DefaultAvatar,
		PasswordHash: hash,
		LastActiveAt: time.Now().UTC(),
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *credentialService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Pay the same hashing cost as the known-email path.
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	return user, nil
}

func (s *credentialService) ChangeSecret(ctx context.Context, userID, oldPassword, newPassword string) error {
	// Cached profile views never carry the hash; read the row directly.
	user, err := s.repo.User().GetCredentialsByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	return s.UpdateSecret(ctx, userID, newPassword)
}

func (s *credentialService) UpdateSecret(ctx context.Context, userID, newPassword string) error {
	hash, err := s.HashSecret(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.User().UpdatePassword(ctx, userID, hash); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *credentialService) HashSecret(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *credentialService) TouchLastActive(userID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.User().TouchLastActive(ctx, userID, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to touch last_active_at", "user_id", userID, "error", err)
		}
	}()
}
