package domain

import "time"

// Role enumerates account roles across the hospital platform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePatient, RoleStaff:
		return true
	}
	return false
}

// User is the domain model for platform accounts (clinical staff and patients).
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Role          Role
	Active        bool
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
