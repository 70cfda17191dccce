package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/user-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string          // Search query for name or email
	Role   models.UserRole // Filter by role, empty means all
	Limit  int             // Page size
	Offset int             // Offset for pagination
}

// UserRepository owns durable identity records. Emails passed in are expected
// to be lower-cased by the caller; the unique index on email is the source of
// truth for concurrent create calls.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetCredentialsByID reads the row without the cache so the password hash
	// and reset ticket reflect the latest write. GetByID serves cached profile
	// views that never carry credential material.
	GetCredentialsByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// Credential lifecycle
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	TouchLastActive(ctx context.Context, id string, at time.Time) error

	// Reset ticket lifecycle. RedeemResetTicket performs a single conditional
	// update keyed on "hash matches AND not expired" that also stores the new
	// password hash and clears the ticket, so two concurrent redeems cannot
	// both succeed. It returns the affected user's ID, or ErrNotFound when no
	// row matched.
	SetResetTicket(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	RedeemResetTicket(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error)

	// List and search operations (admin surface)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	Search(ctx context.Context, query string, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// AuthEventRepository records credential-related activity for auditing.
type AuthEventRepository interface {
	Record(ctx context.Context, event *models.AuthEvent) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error)
}
