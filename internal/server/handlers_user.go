package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/chitty/internal/models"
)

// --- User handlers ---

// validateUsername checks that a username is safe for storage.
// Rejects empty, too long, null bytes, and control characters.
func validateUsername(username string) string {
	if username == "" {
		return "username is required"
	}
	if len(username) > 128 {
		return "username must be 128 characters or fewer"
	}
	for _, c := range username {
		if c < 0x20 || c == 0x7f {
			return "username contains invalid control characters"
		}
	}
	return ""
}

// hashPassword bcrypt-hashes a password, truncating to 72 bytes first.
func hashPassword(password string) (string, error) {
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes, 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// handleUsers handles POST (register) and GET (admin list) for /api/users.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUserCreate(w, r)
	case http.MethodGet:
		s.handleAdminListUsers(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleUserCreate handles POST /api/users — create a new user.
func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		Role            string `json:"role"`
		DisplayCurrency string `json:"display_currency"`
		ReminderDay     string `json:"reminder_day"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if errMsg := validateUsername(req.Username); errMsg != "" {
		WriteError(w, http.StatusBadRequest, errMsg)
		return
	}
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, "password is required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if err := models.ValidateRole(req.Role); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	// Check if user already exists
	if _, err := store.GetUser(ctx, req.Username); err == nil {
		WriteError(w, http.StatusConflict, fmt.Sprintf("user '%s' already exists", req.Username))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user := &models.InternalUser{
		UserID:       req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    time.Now(),
	}

	if err := store.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("username", req.Username).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "failed to save user")
		return
	}

	// Save preferences as UserKV entries
	if req.DisplayCurrency != "" {
		store.SetUserKV(ctx, req.Username, "display_currency", req.DisplayCurrency)
	}
	if req.ReminderDay != "" {
		store.SetUserKV(ctx, req.Username, "reminder_day", req.ReminderDay)
	}

	s.logger.Info().Str("username", user.UserID).Str("role", user.Role).Msg("User created")

	WriteData(w, http.StatusCreated, map[string]interface{}{
		"username": user.UserID,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// routeUsers dispatches GET/PUT/DELETE for /api/users/{id}.
func (s *Server) routeUsers(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if username == "" {
		WriteError(w, http.StatusBadRequest, "username is required in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleUserGet(w, r, username)
	case http.MethodPut:
		s.handleUserUpdate(w, r, username)
	case http.MethodDelete:
		s.handleUserDelete(w, r, username)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleUserGet handles GET /api/users/{id}.
func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	user, err := store.GetUser(ctx, username)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("user '%s' not found", username))
		return
	}

	kvs, _ := store.ListUserKV(ctx, username)

	WriteData(w, http.StatusOK, userResponse(user, kvs))
}

// handleUserUpdate handles PUT /api/users/{id}.
func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request, username string) {
	var req struct {
		Email           *string `json:"email"`
		Role            *string `json:"role"`
		Password        *string `json:"password"`
		DisplayCurrency *string `json:"display_currency"`
		ReminderDay     *string `json:"reminder_day"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	user, err := store.GetUser(ctx, username)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("user '%s' not found", username))
		return
	}

	// Update InternalUser fields
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		if err := models.ValidateRole(*req.Role); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			WriteError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		user.PasswordHash = hash
	}

	if err := store.SaveUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to save user")
		WriteError(w, http.StatusInternalServerError, "failed to save user")
		return
	}

	// Update UserKV preferences
	if req.DisplayCurrency != nil {
		store.SetUserKV(ctx, username, "display_currency", *req.DisplayCurrency)
	}
	if req.ReminderDay != nil {
		store.SetUserKV(ctx, username, "reminder_day", *req.ReminderDay)
	}

	kvs, _ := store.ListUserKV(ctx, username)

	WriteData(w, http.StatusOK, userResponse(user, kvs))
}

// handleUserDelete handles DELETE /api/users/{id}.
func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request, username string) {
	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	if _, err := store.GetUser(ctx, username); err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("user '%s' not found", username))
		return
	}

	if err := store.DeleteUser(ctx, username); err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("Failed to delete user")
		WriteError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// userResponse builds a safe response from InternalUser + UserKV entries.
func userResponse(user *models.InternalUser, kvs []*models.UserKeyValue) map[string]interface{} {
	kvMap := make(map[string]string)
	for _, kv := range kvs {
		kvMap[kv.Key] = kv.Value
	}
	return map[string]interface{}{
		"username":         user.UserID,
		"email":            user.Email,
		"role":             user.Role,
		"created_at":       user.CreatedAt,
		"display_currency": kvMap["display_currency"],
		"reminder_day":     kvMap["reminder_day"],
	}
}
