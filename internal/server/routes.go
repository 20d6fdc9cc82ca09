package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/glossary", s.handleGlossary)
	mux.HandleFunc("/api/mcp/tools", s.handleToolCatalog)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Users
	mux.HandleFunc("/api/users/", s.routeUsers)
	mux.HandleFunc("/api/users", s.handleUsers)

	// Auth
	mux.HandleFunc("/api/auth/login", s.handleAuthLogin)
	mux.HandleFunc("/api/auth/validate", s.handleAuthValidate)

	// Funds and their children
	mux.HandleFunc("/api/funds/", s.routeFunds)
	mux.HandleFunc("/api/funds", s.handleFunds)

	// Dashboard
	mux.HandleFunc("/api/dashboard", s.handleDashboard)

	// Admin
	mux.HandleFunc("/api/admin/users", s.handleAdminListUsers)
	mux.HandleFunc("/api/admin/recalculate", s.handleAdminRecalculate)
}

// routeFunds dispatches /api/funds/{id}/* to the appropriate handler.
func (s *Server) routeFunds(w http.ResponseWriter, r *http.Request) {
	// Extract fund ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/funds/")
	if path == "" {
		s.handleFunds(w, r)
		return
	}

	// Split into fund ID and sub-path
	parts := strings.SplitN(path, "/", 2)
	fundID := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch subpath {
	case "":
		s.handleFund(w, r, fundID)
	case "analytics":
		s.handleFundAnalytics(w, r, fundID)
	case "cashflows":
		s.handleCashFlows(w, r, fundID)
	case "cashflows/net":
		s.handleNetCashFlows(w, r, fundID)
	case "projection":
		s.handleProjection(w, r, fundID)
	case "chart":
		s.handleChart(w, r, fundID)
	case "entries":
		s.handleEntries(w, r, fundID)
	case "bids":
		s.handleBids(w, r, fundID)
	default:
		// Nested paths: entries/{month}, bids/{month}
		if strings.HasPrefix(subpath, "entries/") {
			month := strings.TrimPrefix(subpath, "entries/")
			s.handleEntry(w, r, fundID, month)
		} else if strings.HasPrefix(subpath, "bids/") {
			month := strings.TrimPrefix(subpath, "bids/")
			s.handleBid(w, r, fundID, month)
		} else {
			WriteError(w, http.StatusNotFound, "Not found")
		}
	}
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	store := s.app.Storage.InternalStore()

	// Build runtime settings from system KV
	kvAll := map[string]string{}
	for _, key := range []string{"chitty_schema_version", "chitty_build_timestamp"} {
		if val, err := store.GetSystemKV(ctx, key); err == nil && val != "" {
			kvAll[key] = val
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runtime_settings":  kvAll,
		"user_id":           common.ResolveUserID(ctx),
		"environment":       s.app.Config.Environment,
		"storage_driver":    s.app.Config.Storage.Driver,
		"storage_address":   s.app.Config.Storage.Address,
		"storage_namespace": s.app.Config.Storage.Namespace,
		"storage_database":  s.app.Config.Storage.Database,
		"storage_data_path": s.app.Config.Storage.DataPath,
		"logging_level":     s.app.Config.Logging.Level,
		"jwt_secret":        maskSecret(s.app.Config.Auth.JWTSecret),
	})
}

func (s *Server) handleToolCatalog(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, buildToolCatalog())
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
