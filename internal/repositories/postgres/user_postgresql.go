package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/user-service/internal/cache"
	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// Create inserts a new identity. The unique index on email decides the winner
// between concurrent signups; a violation surfaces as ErrDuplicate.
func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, r.cacheManager.User, "list:*")
	return nil
}

// GetByID retrieves a user by ID with caching. The cached copy is the JSON
// view of the row, which drops the password hash and reset ticket; callers
// that need credential material use GetCredentialsByID.
func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var user models.User

	err := r.cacheManager.User.CacheOrExecute(ctx, cacheKey, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := r.db.WithContext(ctx).First(&dbUser, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetCredentialsByID is the uncached variant of GetByID for credential
// checks.
func (r *UserPostgreSQL) GetCredentialsByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user credentials: %w", err)
	}
	return &user, nil
}

// GetByEmail is used on the sign-in path and is deliberately not cached: the
// row carries the password hash and must reflect the latest credential write.
func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// Update persists profile fields and invalidates cache. The prior email is
// read first so an address change also drops the old address's entries.
func (r *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	var prior models.User
	if err := r.db.WithContext(ctx).Select("email").First(&prior, "id = ?", user.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("failed to load user for update: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":       user.Name,
			"email":      user.Email,
			"bio":        user.Bio,
			"avatar_url": user.AvatarURL,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateUserCache(ctx, r.cacheManager, user.ID, user.Email)
	if prior.Email != user.Email {
		cache.SafeDelete(ctx, r.cacheManager.User, fmt.Sprintf("email:%s", prior.Email))
		cache.SafeDelete(ctx, r.cacheManager.Exists, fmt.Sprintf("email:%s", prior.Email))
	}
	return nil
}

// Delete soft-deletes the identity. The email's cache entries go too so the
// address is immediately free for re-registration.
func (r *UserPostgreSQL) Delete(ctx context.Context, id string) error {
	var prior models.User
	if err := r.db.WithContext(ctx).Select("email").First(&prior, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("failed to load user for delete: %w", err)
	}

	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.InvalidateUserCache(ctx, r.cacheManager, id, prior.Email)
	return nil
}

// UpdatePassword overwrites the stored hash.
func (r *UserPostgreSQL) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}

	cache.SafeDelete(ctx, r.cacheManager.User, fmt.Sprintf("id:%s", id))
	return nil
}

// TouchLastActive updates the activity timestamp without touching updated_at.
func (r *UserPostgreSQL) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_active_at", at).Error
}

// SetResetTicket stores the ticket hash and expiry, replacing any previous
// ticket.
func (r *UserPostgreSQL) SetResetTicket(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_token_hash": tokenHash,
			"reset_expires_at": expiresAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set reset ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// RedeemResetTicket is one conditional UPDATE: match on hash and expiry, set
// the new password hash and clear the ticket in the same statement. Zero rows
// means the ticket never existed, expired, or was already consumed.
func (r *UserPostgreSQL) RedeemResetTicket(ctx context.Context, tokenHash string, newPasswordHash string, now time.Time) (string, error) {
	var updated []models.User
	result := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("reset_token_hash = ? AND reset_expires_at > ?", tokenHash, now).
		Updates(map[string]interface{}{
			"password_hash":    newPasswordHash,
			"reset_token_hash": nil,
			"reset_expires_at": nil,
		})
	if result.Error != nil {
		return "", fmt.Errorf("failed to redeem reset ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 || len(updated) == 0 {
		return "", repositories.ErrNotFound
	}

	cache.SafeDelete(ctx, r.cacheManager.User, fmt.Sprintf("id:%s", updated[0].ID))
	return updated[0].ID, nil
}

// List lists users with pagination and optional role filter.
func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != "" {
		query = query.Where("role = ?", filters.Role)
	}
	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []*models.User
	err := query.Order("created_at DESC").
		Limit(filters.Limit).
		Offset(filters.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// Search searches users by name or email.
func (r *UserPostgreSQL) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Query = query
	return r.List(ctx, filters)
}

// ExistsByEmail checks email existence with a short-lived cache.
func (r *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	var exists bool

	err := r.cacheManager.Exists.CacheOrExecute(ctx, cacheKey, &exists, cache.ExistsCacheConfig.TTL, func() (interface{}, error) {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", email).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check email existence: %w", err)
		}
		return count > 0, nil
	})
	if err != nil {
		return false, err
	}

	return exists, nil
}
