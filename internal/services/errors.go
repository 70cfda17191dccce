package services

import (
	"errors"

	"github.com/SAP-F-2025/user-service/internal/validator"
)

// Service-level sentinel errors. Handlers map these to HTTP status codes;
// anything not in this list is treated as an internal error.
var (
	ErrEmailTaken         = errors.New("email address is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUserNotFound       = errors.New("user not found")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or expired")
)

// ValidationErrors is re-exported so handlers can errors.As against the
// service boundary without importing the validator package.
type ValidationErrors = validator.ValidationErrors
