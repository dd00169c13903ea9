package domain

import "time"

// TokenPurpose differentiates opaque one-time tokens.
type TokenPurpose string

const (
	TokenPurposePasswordReset     TokenPurpose = "PASSWORD_RESET"
	TokenPurposeEmailVerification TokenPurpose = "EMAIL_VERIFICATION"
)

// ActionToken represents a stored opaque token bound to a pending operation.
type ActionToken struct {
	ID        string
	UserID    string
	Purpose   TokenPurpose
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
