// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the marketplace.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RoleClient   Role = "client"
)

// User represents a marketplace account with authentication and 2FA fields.
// Clients and providers share the table, differentiated by Role.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	Bio          *string   `json:"bio,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsProvider returns true if the user can list services.
func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// Providers and admins must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return (u.Role == RoleAdmin || u.Role == RoleProvider) && !u.TOTPEnabled
}
