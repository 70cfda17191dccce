package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/user-service/internal/events"
	"github.com/SAP-F-2025/user-service/internal/media"
	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
	"github.com/SAP-F-2025/user-service/internal/validator"
)

// maxAvatarSize caps avatar uploads at 5 MiB.
const maxAvatarSize = 5 << 20

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type profileService struct {
	repo      repositories.Repository
	media     media.Store
	publisher events.Publisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewProfileService(repo repositories.Repository, mediaStore media.Store, publisher events.Publisher, logger *slog.Logger, v *validator.Validator) ProfileService {
	return &profileService{
		repo:      repo,
		media:     mediaStore,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

func (s *profileService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *profileService) Update(ctx context.Context, userID string, req UpdateProfileRequest, avatar *AvatarUpload) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := false
	previousAvatar := user.AvatarURL

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		changed = true
	}
	if req.Email != nil {
		user.Email = NormalizeEmail(*req.Email)
		changed = true
	}
	if req.Bio != nil {
		user.Bio = req.Bio
		changed = true
	}

	if avatar != nil {
		url, err := s.uploadAvatar(ctx, userID, avatar)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = url
		changed = true
	}

	if !changed {
		return user, nil
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		switch {
		case repositories.IsDuplicateError(err):
			return nil, ErrEmailTaken
		case repositories.IsNotFoundError(err):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if avatar != nil && previousAvatar != models.DefaultAvatar {
		if err := s.media.Delete(ctx, previousAvatar); err != nil {
			s.logger.Warn("failed to delete previous avatar", "user_id", userID, "error", err)
		}
	}

	return s.Get(ctx, userID)
}

func (s *profileService) Delete(ctx context.Context, userID string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	// The delete and its audit record land together or not at all.
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Delete(ctx, userID); err != nil {
			return err
		}
		event := &models.AuthEvent{UserID: &userID, Type: models.AuthEventAccountDeleted}
		return tx.AuthEvent().Record(ctx, event)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if user.AvatarURL != models.DefaultAvatar {
		if err := s.media.Delete(ctx, user.AvatarURL); err != nil {
			s.logger.Warn("failed to delete avatar for removed account", "user_id", userID, "error", err)
		}
	}

	if err := s.publisher.PublishAccountDeleted(ctx, userID); err != nil {
		s.logger.Warn("failed to publish account deleted event", "user_id", userID, "error", err)
	}

	return nil
}

func (s *profileService) uploadAvatar(ctx context.Context, userID string, avatar *AvatarUpload) (string, error) {
	if avatar.Size > maxAvatarSize {
		return "", ValidationErrors{{Field: "avatar", Message: "must be at most 5MB", Rule: "max"}}
	}
	if !allowedAvatarTypes[avatar.ContentType] {
		return "", ValidationErrors{{Field: "avatar", Message: "must be a jpeg, png or webp image", Rule: "content_type"}}
	}

	ext := strings.ToLower(filepath.Ext(avatar.Filename))
	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)

	url, err := s.media.Upload(ctx, key, avatar.ContentType, avatar.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return url, nil
}
