package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/models"
)

// requireAdmin checks that the request carries an admin identity.
// Returns false (and writes the response) if not.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	uc := common.UserContextFromContext(r.Context())
	if uc == nil || uc.UserID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return false
	}
	if uc.Role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "Admin access required")
		return false
	}
	return true
}

// handleAdminListUsers handles GET /api/admin/users — list all user accounts.
// Password hashes never leave the store layer.
func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	store := s.app.Storage.InternalStore()

	ids, err := store.ListUsers(ctx)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}

	users := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		user, err := store.GetUser(ctx, id)
		if err != nil {
			continue
		}
		users = append(users, map[string]interface{}{
			"username":   user.UserID,
			"email":      user.Email,
			"role":       user.Role,
			"created_at": user.CreatedAt,
		})
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// handleAdminRecalculate handles POST /api/admin/recalculate — mark every
// fund of every user dirty so the next analytics read recomputes it.
func (s *Server) handleAdminRecalculate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.requireAdmin(w, r) {
		return
	}

	ctx := r.Context()
	internal := s.app.Storage.InternalStore()
	funds := s.app.Storage.FundStore()

	ids, err := internal.ListUsers(ctx)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to list users: "+err.Error())
		return
	}
	// Funds can exist without a user row in single-tenant mode.
	ids = append(ids, "default")

	now := time.Now()
	marked := 0
	failed := 0
	seen := make(map[string]bool, len(ids))

	for _, userID := range ids {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		owned, err := funds.ListFunds(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Recalculate: failed to list funds")
			failed++
			continue
		}
		for _, fund := range owned {
			if err := funds.MarkNeedsRecalc(ctx, userID, fund.ID, now); err != nil {
				s.logger.Warn().Err(err).Str("fund_id", fund.ID).Msg("Recalculate: failed to mark fund")
				failed++
				continue
			}
			marked++
		}
	}

	s.logger.Info().Int("marked", marked).Int("failed", failed).Msg("Admin recalculate completed")

	WriteData(w, http.StatusOK, map[string]interface{}{
		"marked_funds": marked,
		"failed":       failed,
	})
}
