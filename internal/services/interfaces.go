package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type SignUpRequest = validator.SignUpRequest
type SignInRequest = validator.SignInRequest
type ChangePasswordRequest = validator.ChangePasswordRequest
type ForgotPasswordRequest = validator.ForgotPasswordRequest
type ResetPasswordRequest = validator.ResetPasswordRequest
type UpdateProfileRequest = validator.UpdateProfileRequest

// Session is the result of a successful sign-up or sign-in. Token is the
// signed session token; handlers decide how it travels (cookie).
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// AvatarUpload carries an uploaded avatar file through the service layer.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UserListRequest struct {
	Query  string `form:"q" validate:"omitempty,max=100"`
	Role   string `form:"role" validate:"omitempty,user_role"`
	Page   int    `form:"page" validate:"omitempty,min=1"`
	Size   int    `form:"size" validate:"omitempty,min=1,max=100"`
}

type UserListResponse struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

// ===== SERVICE INTERFACES =====

// CredentialService owns password hashing and verification. No plaintext
// secret leaves this service; nothing above it sees a hash.
type CredentialService interface {
	// Create registers a new account with a hashed secret.
	// Returns ErrEmailTaken when the normalized email already exists.
	Create(ctx context.Context, name, email, password string, role models.UserRole) (*models.User, error)

	// Verify checks email+password. Returns ErrInvalidCredentials for both
	// unknown email and wrong password, taking comparable time in each case.
	Verify(ctx context.Context, email, password string) (*models.User, error)

	// ChangeSecret rotates the password after re-proving the current one.
	ChangeSecret(ctx context.Context, userID, oldPassword, newPassword string) error

	// UpdateSecret overwrites the password without re-proving it. Only flows
	// that carry their own proof (a redeemed reset ticket) may call this.
	UpdateSecret(ctx context.Context, userID, newPassword string) error

	// HashSecret hashes a plaintext password for storage. Used by the reset
	// flow, which writes the hash through an atomic redeem.
	HashSecret(password string) (string, error)

	// TouchLastActive updates the activity timestamp without blocking the
	// caller. Failures are logged, not returned.
	TouchLastActive(userID string)
}

// TokenService issues and verifies signed session tokens.
type TokenService interface {
	// Issue creates a token whose subject is the user ID.
	Issue(userID string) (token string, expiresAt time.Time, err error)

	// Verify parses the token and returns the subject user ID. Any failure
	// (bad signature, expired, malformed) returns ErrUnauthenticated.
	Verify(token string) (userID string, err error)
}

// ResetService implements the forgotten-password flow.
type ResetService interface {
	// Request issues a reset ticket and emails the plaintext token. Unknown
	// emails succeed without side effects so callers cannot probe accounts.
	Request(ctx context.Context, email string) error

	// Redeem consumes a ticket and sets the new password in one atomic step.
	// A second redeem of the same token returns ErrResetTokenInvalid.
	Redeem(ctx context.Context, plaintextToken, newPassword string) error
}

// AuthService orchestrates the account lifecycle operations that handlers
// call directly.
type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*Session, error)
	SignIn(ctx context.Context, req SignInRequest) (*Session, error)

	// Authenticate resolves a session token to its user. Used by middleware.
	Authenticate(ctx context.Context, token string) (*models.User, error)

	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
}

// ProfileService manages the mutable account profile.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, req UpdateProfileRequest, avatar *AvatarUpload) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}

// UserAdminService provides the administrative roster operations.
type UserAdminService interface {
	List(ctx context.Context, req UserListRequest) (*UserListResponse, error)
	Get(ctx context.Context, userID string) (*models.User, error)

	// Events returns the account's recent credential audit trail, newest
	// first.
	Events(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error)

	// ExportRoster writes the full user roster as an xlsx workbook.
	ExportRoster(ctx context.Context, w io.Writer, req UserListRequest) error
}

// ServiceManager provides access to all services
type ServiceManager interface {
	Credential() CredentialService
	Token() TokenService
	Reset() ResetService
	Auth() AuthService
	Profile() ProfileService
	UserAdmin() UserAdminService

	HealthCheck(ctx context.Context) error
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
