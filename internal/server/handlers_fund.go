package server

import (
	"fmt"
	"net/http"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

// --- Fund handlers ---

// handleFunds handles GET (list) and POST (create) for /api/funds.
func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleFundList(w, r)
	case http.MethodPost:
		s.handleFundCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	userID := common.ResolveUserID(r.Context())

	funds, err := s.app.FundService.ListFunds(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing funds: %v", err))
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"funds": funds,
		"count": len(funds),
	})
}

func (s *Server) handleFundCreate(w http.ResponseWriter, r *http.Request) {
	var input interfaces.FundInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	fund, err := s.app.FundService.CreateFund(r.Context(), userID, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, fund)
}

// handleFund handles GET/PUT/DELETE for /api/funds/{id}.
func (s *Server) handleFund(w http.ResponseWriter, r *http.Request, fundID string) {
	switch r.Method {
	case http.MethodGet:
		s.handleFundGet(w, r, fundID)
	case http.MethodPut:
		s.handleFundUpdate(w, r, fundID)
	case http.MethodDelete:
		s.handleFundDelete(w, r, fundID)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleFundGet(w http.ResponseWriter, r *http.Request, fundID string) {
	userID := common.ResolveUserID(r.Context())

	fund, err := s.app.FundService.GetFund(r.Context(), userID, fundID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error loading fund: %v", err))
		return
	}
	if fund == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("fund '%s' not found", fundID))
		return
	}

	WriteData(w, http.StatusOK, fund)
}

func (s *Server) handleFundUpdate(w http.ResponseWriter, r *http.Request, fundID string) {
	var update interfaces.FundUpdate
	if !DecodeJSON(w, r, &update) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	fund, err := s.app.FundService.UpdateFund(r.Context(), userID, fundID, update)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, fund)
}

func (s *Server) handleFundDelete(w http.ResponseWriter, r *http.Request, fundID string) {
	userID := common.ResolveUserID(r.Context())

	if err := s.app.FundService.DeleteFund(r.Context(), userID, fundID); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
