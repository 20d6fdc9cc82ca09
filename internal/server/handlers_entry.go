package server

import (
	"fmt"
	"net/http"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

// --- Monthly entry handlers ---

// handleEntries handles GET (list) and POST (log month) for /api/funds/{id}/entries.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request, fundID string) {
	switch r.Method {
	case http.MethodGet:
		s.handleEntryList(w, r, fundID)
	case http.MethodPost:
		s.handleEntryLog(w, r, fundID)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleEntryList(w http.ResponseWriter, r *http.Request, fundID string) {
	userID := common.ResolveUserID(r.Context())

	entries, err := s.app.EntryService.ListEntries(r.Context(), userID, fundID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleEntryLog(w http.ResponseWriter, r *http.Request, fundID string) {
	var input interfaces.EntryInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	entry, err := s.app.EntryService.LogMonth(r.Context(), userID, fundID, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, entry)
}

// handleEntry handles GET/PUT/DELETE for /api/funds/{id}/entries/{month}.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	switch r.Method {
	case http.MethodGet:
		s.handleEntryGet(w, r, fundID, monthKey)
	case http.MethodPut:
		s.handleEntryUpdate(w, r, fundID, monthKey)
	case http.MethodDelete:
		s.handleEntryDelete(w, r, fundID, monthKey)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleEntryGet(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	userID := common.ResolveUserID(r.Context())

	entry, err := s.app.EntryService.GetEntry(r.Context(), userID, fundID, monthKey)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if entry == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no entry for month '%s'", monthKey))
		return
	}

	WriteData(w, http.StatusOK, entry)
}

func (s *Server) handleEntryUpdate(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	var update interfaces.EntryUpdate
	if !DecodeJSON(w, r, &update) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	entry, err := s.app.EntryService.UpdateEntry(r.Context(), userID, fundID, monthKey, update)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, entry)
}

func (s *Server) handleEntryDelete(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	userID := common.ResolveUserID(r.Context())

	if err := s.app.EntryService.DeleteEntry(r.Context(), userID, fundID, monthKey); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
