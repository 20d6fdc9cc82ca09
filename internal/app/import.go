package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type importUsersFile struct {
	Users []importUser `json:"users"`
}

type importUser struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	DisplayCurrency string `json:"display_currency"`
	ReminderDay     string `json:"reminder_day"`
}

// ImportUsersFromFile reads a users JSON file and imports accounts into the
// internal store. Existing users (by username) are skipped. Passwords are
// bcrypt-hashed. Preference fields land as per-user key-value entries.
// Returns (imported count, skipped count, error).
func ImportUsersFromFile(ctx context.Context, store interfaces.InternalStore, logger *common.Logger, filePath string) (int, int, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read users file %s: %w", filePath, err)
	}

	var file importUsersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, 0, fmt.Errorf("failed to parse users file %s: %w", filePath, err)
	}

	imported, skipped := 0, 0
	for _, u := range file.Users {
		if u.Username == "" {
			skipped++
			continue
		}
		// Skip if exists
		if _, err := store.GetUser(ctx, u.Username); err == nil {
			skipped++
			continue
		}
		role := u.Role
		if role == "" {
			role = models.RoleUser
		}
		if err := models.ValidateRole(role); err != nil {
			logger.Warn().Err(err).Str("username", u.Username).Msg("Invalid role during import")
			skipped++
			continue
		}
		// Hash password
		passwordBytes := []byte(u.Password)
		if len(passwordBytes) > 72 {
			passwordBytes = passwordBytes[:72]
		}
		hash, err := bcrypt.GenerateFromPassword(passwordBytes, 10)
		if err != nil {
			logger.Warn().Err(err).Str("username", u.Username).Msg("Failed to hash password during import")
			skipped++
			continue
		}
		now := time.Now()
		user := &models.InternalUser{
			UserID:       u.Username,
			Email:        u.Email,
			PasswordHash: string(hash),
			Role:         role,
			CreatedAt:    now,
			ModifiedAt:   now,
		}
		if err := store.SaveUser(ctx, user); err != nil {
			logger.Warn().Err(err).Str("username", u.Username).Msg("Failed to save user during import")
			skipped++
			continue
		}
		if u.DisplayCurrency != "" {
			if err := store.SetUserKV(ctx, u.Username, "display_currency", u.DisplayCurrency); err != nil {
				logger.Warn().Err(err).Str("username", u.Username).Msg("Failed to store display currency during import")
			}
		}
		if u.ReminderDay != "" {
			if err := store.SetUserKV(ctx, u.Username, "reminder_day", u.ReminderDay); err != nil {
				logger.Warn().Err(err).Str("username", u.Username).Msg("Failed to store reminder day during import")
			}
		}
		logger.Info().Str("username", u.Username).Str("role", role).Msg("User imported")
		imported++
	}
	return imported, skipped, nil
}
