package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants catalog management access.
	RoleAdmin Role = "admin"
	// RoleUser grants standard reader access.
	RoleUser Role = "user"
)

// User represents an authenticated account in the system.
type User struct {
	Record
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Name         string    `json:"name"`
	Role         Role      `json:"role"` // admin or user
	LastLoginAt  time.Time `json:"last_login_at,omitzero"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns a copy of the user safe for API responses.
// The password hash never leaves the server.
func (u *User) Public() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
