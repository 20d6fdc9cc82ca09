package server

import (
	"fmt"
	"net/http"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

// --- Bid handlers ---

// handleBids handles GET (list) and POST (record) for /api/funds/{id}/bids.
func (s *Server) handleBids(w http.ResponseWriter, r *http.Request, fundID string) {
	switch r.Method {
	case http.MethodGet:
		s.handleBidList(w, r, fundID)
	case http.MethodPost:
		s.handleBidRecord(w, r, fundID)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleBidList(w http.ResponseWriter, r *http.Request, fundID string) {
	userID := common.ResolveUserID(r.Context())

	bids, err := s.app.BidService.ListBids(r.Context(), userID, fundID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"bids":  bids,
		"count": len(bids),
	})
}

func (s *Server) handleBidRecord(w http.ResponseWriter, r *http.Request, fundID string) {
	var input interfaces.BidInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	bid, err := s.app.BidService.RecordBid(r.Context(), userID, fundID, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, bid)
}

// handleBid handles GET/PUT/DELETE for /api/funds/{id}/bids/{month}.
// PUT re-records the month's bid, reusing the upsert path.
func (s *Server) handleBid(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	switch r.Method {
	case http.MethodGet:
		s.handleBidGet(w, r, fundID, monthKey)
	case http.MethodPut:
		s.handleBidUpdate(w, r, fundID, monthKey)
	case http.MethodDelete:
		s.handleBidDelete(w, r, fundID, monthKey)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleBidGet(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	userID := common.ResolveUserID(r.Context())

	bid, err := s.app.BidService.GetBid(r.Context(), userID, fundID, monthKey)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if bid == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no bid for month '%s'", monthKey))
		return
	}

	WriteData(w, http.StatusOK, bid)
}

func (s *Server) handleBidUpdate(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	var input interfaces.BidInput
	if !DecodeJSON(w, r, &input) {
		return
	}
	// The path month wins over any month in the body.
	input.MonthKey = monthKey

	userID := common.ResolveUserID(r.Context())

	bid, err := s.app.BidService.RecordBid(r.Context(), userID, fundID, input)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, bid)
}

func (s *Server) handleBidDelete(w http.ResponseWriter, r *http.Request, fundID, monthKey string) {
	userID := common.ResolveUserID(r.Context())

	if err := s.app.BidService.DeleteBid(r.Context(), userID, fundID, monthKey); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
