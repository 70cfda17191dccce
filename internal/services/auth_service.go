package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/user-service/internal/events"
	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
	"github.com/SAP-F-2025/user-service/internal/validator"
)

type authService struct {
	repo        repositories.Repository
	credentials CredentialService
	tokens      TokenService
	publisher   events.Publisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewAuthService(repo repositories.Repository, credentials CredentialService, tokens TokenService, publisher events.Publisher, logger *slog.Logger, v *validator.Validator) AuthService {
	return &authService{
		repo:        repo,
		credentials: credentials,
		tokens:      tokens,
		publisher:   publisher,
		logger:      logger,
		validator:   v,
	}
}

func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	role := models.UserRole(req.Role)
	if req.Role == "" {
		role = models.RoleStudent
	}

	user, err := s.credentials.Create(ctx, req.Name, req.Email, req.Password, role)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, &user.ID, models.AuthEventSignUp, map[string]string{"role": string(user.Role)})

	if err := s.publisher.PublishUserRegistered(ctx, user.ID, user.Email); err != nil {
		s.logger.Warn("failed to publish user registered event", "user_id", user.ID, "error", err)
	}

	return s.openSession(user)
}

func (s *authService) SignIn(ctx context.Context, req SignInRequest) (*Session, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.credentials.Verify(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// user_id stays nil so the audit trail cannot confirm whether
			// the address is registered.
			s.recordEvent(ctx, nil, models.AuthEventSignInFailed, nil)
		}
		return nil, err
	}

	s.recordEvent(ctx, &user.ID, models.AuthEventSignIn, nil)
	s.credentials.TouchLastActive(user.ID)

	return s.openSession(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Token is valid but the account is gone (deleted).
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	s.credentials.TouchLastActive(user.ID)
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	if err := s.credentials.ChangeSecret(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	s.recordEvent(ctx, &userID, models.AuthEventPasswordChanged, nil)

	if err := s.publisher.PublishPasswordChanged(ctx, userID); err != nil {
		s.logger.Warn("failed to publish password changed event", "user_id", userID, "error", err)
	}

	return nil
}

func (s *authService) openSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) recordEvent(ctx context.Context, userID *string, eventType models.AuthEventType, details map[string]string) {
	event := &models.AuthEvent{
		UserID: userID,
		Type:   eventType,
	}

	if len(details) > 0 {
		payload, err := json.Marshal(details)
		if err == nil {
			event.Details = datatypes.JSON(payload)
		}
	}

	if err := s.repo.AuthEvent().Record(ctx, event); err != nil {
		s.logger.Warn("failed to record auth event", "type", string(eventType), "error", err)
	}
}
