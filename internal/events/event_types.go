package events

import (
	"time"

	"github.com/spec-kit/hospital-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered             EventType = "user_registered"
	EventUserLoggedIn               EventType = "user_logged_in"
	EventPasswordResetRequested     EventType = "password_reset_requested"
	EventPasswordChanged            EventType = "password_changed"
	EventEmailVerificationRequested EventType = "email_verification_requested"
	EventEmailVerified              EventType = "email_verified"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// UserLoggedInPayload payload.
type UserLoggedInPayload struct {
	Email string `json:"email"`
}

// ActionTokenPayload payload for reset and verification requests. The token
// is delivered out of band; only its expiry is carried on the event.
type ActionTokenPayload struct {
	Email     string              `json:"email"`
	Purpose   domain.TokenPurpose `json:"purpose"`
	ExpiresAt time.Time           `json:"expires_at"`
}
