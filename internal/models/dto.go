package models

import "time"

// ErrorResponse is the fixed shape for all error bodies. Code is the stable
// machine-checkable kind; Message is for humans. Internal details never leak
// into production responses.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionResponse is returned by signup and signin alongside the session
// cookie.
type SessionResponse struct {
	User      *User     `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
