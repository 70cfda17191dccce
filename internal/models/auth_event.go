package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuthEventType string

const (
	AuthEventSignUp          AuthEventType = "sign_up"
	AuthEventSignIn          AuthEventType = "sign_in"
	AuthEventSignInFailed    AuthEventType = "sign_in_failed"
	AuthEventPasswordChanged AuthEventType = "password_changed"
	AuthEventPasswordReset   AuthEventType = "password_reset"
	AuthEventAccountDeleted  AuthEventType = "account_deleted"
)

// AuthEvent is an audit record for credential-related activity. UserID is nil
// for failed sign-ins against unknown emails so the audit trail itself cannot
// be used for account enumeration.
type AuthEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    *string        `json:"user_id" gorm:"size:36;index"`
	Type      AuthEventType  `json:"type" gorm:"not null;size:40;index"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
