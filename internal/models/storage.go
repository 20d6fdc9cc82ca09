package models

import (
	"fmt"
	"time"
)

// User roles. Admin unlocks the /api/admin surface; everything else is "user".
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidateRole checks that role is one of the defined role constants.
func ValidateRole(role string) error {
	switch role {
	case RoleAdmin, RoleUser:
		return nil
	}
	return fmt.Errorf("invalid role %q: must be %q or %q", role, RoleAdmin, RoleUser)
}

// InternalUser represents a user account stored in the internal database.
// Auth and identity only; preferences are stored as UserKeyValue entries.
type InternalUser struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// UserKeyValue represents a per-user configuration key-value pair.
type UserKeyValue struct {
	UserID   string    `json:"user_id"`
	Key      string    `json:"key"`
	Value    string    `json:"value"`
	Version  int       `json:"version"`
	DateTime time.Time `json:"datetime"`
}
