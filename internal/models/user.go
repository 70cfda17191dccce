package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// DefaultAvatar is the placeholder avatar reference for new accounts. It is
// never deleted from media storage.
const DefaultAvatar = "default-avatar.png"

// User is the durable identity record. Email is always stored lower-cased and
// unique among live rows; the partial index is the source of truth for
// concurrent signups and releases the address once the account is
// soft-deleted. The password hash and reset ticket never appear in any
// serialized form.
type User struct {
	ID    string   `json:"id" gorm:"primaryKey;size:36"`
	Name  string   `json:"name" gorm:"not null;size:100"`
	Email string   `json:"email" gorm:"uniqueIndex:uidx_users_email,where:deleted_at IS NULL;not null;size:255"`
	Role  UserRole `json:"role" gorm:"not null;size:20;default:student"`

	// Profile info
	Bio       *string `json:"bio" gorm:"size:500"`
	AvatarURL string  `json:"avatar_url" gorm:"size:500"`

	// Credentials (owned by the credential service, never exposed)
	PasswordHash string `json:"-" gorm:"not null;size:100"`

	// Reset ticket: hash of the plaintext token plus expiry. At most one
	// active ticket per user; a new request overwrites the previous one.
	ResetTokenHash *string    `json:"-" gorm:"size:64;index"`
	ResetExpiresAt *time.Time `json:"-"`

	LastActiveAt time.Time      `json:"last_active_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// HasActiveResetTicket reports whether an unexpired reset ticket exists.
func (u *User) HasActiveResetTicket(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetExpiresAt != nil && u.ResetExpiresAt.After(now)
}
