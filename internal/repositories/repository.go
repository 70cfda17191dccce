package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates all repository interfaces behind one handle. The
// handle is created by the composition root with lifecycle open -> ready ->
// closed and injected into services; there is no ambient global store access.
type Repository interface {
	User() UserRepository
	AuthEvent() AuthEventRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check; failure means the process must refuse new requests
	// rather than serve partial data.
	Ping(ctx context.Context) error

	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Sentinel errors shared by all repository implementations.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// IsNotFoundError reports whether err means the record does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err means a uniqueness constraint was
// violated.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}
