package server

import (
	"net/http"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/models"
)

// handleGlossary returns a glossary of chit-fund terms. When a fund_id query
// parameter names an existing fund, examples are computed from that fund's
// live numbers; otherwise a canonical worked example is used.
func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()
	userID := common.ResolveUserID(ctx)

	var fund *models.Fund
	var net *models.NetCashFlowResult
	var projection *models.ProjectionResult

	if fundID := r.URL.Query().Get("fund_id"); fundID != "" {
		// Non-fatal enrichment: fall back to worked examples on any miss.
		if f, err := s.app.FundService.GetFund(ctx, userID, fundID); err == nil && f != nil {
			fund = f
			if n, err := s.app.AnalyticsService.GetNetCashFlowSeries(ctx, userID, fundID); err == nil {
				net = n
			}
			if p, err := s.app.AnalyticsService.GetProjection(ctx, userID, fundID, 3); err == nil {
				projection = p
			}
		}
	}

	WriteJSON(w, http.StatusOK, models.BuildGlossary(fund, net, projection))
}
