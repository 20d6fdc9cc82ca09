package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

// defaultMonthsAhead is the projection horizon used when the months_ahead
// query parameter is absent. maxMonthsAhead bounds the horizon to ten years.
const (
	defaultMonthsAhead = 6
	maxMonthsAhead     = 120
)

// parseMonthsAhead reads the months_ahead query parameter. An absent or
// unparsable value falls back to the default; negative values clamp to zero.
func parseMonthsAhead(r *http.Request) int {
	raw := r.URL.Query().Get("months_ahead")
	if raw == "" {
		return defaultMonthsAhead
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultMonthsAhead
	}
	if n < 0 {
		return 0
	}
	if n > maxMonthsAhead {
		return maxMonthsAhead
	}
	return n
}

// --- Analytics handlers ---

// handleFundAnalytics handles GET /api/funds/{id}/analytics?months_ahead=N.
func (s *Server) handleFundAnalytics(w http.ResponseWriter, r *http.Request, fundID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	analytics, err := s.app.AnalyticsService.GetFundAnalytics(r.Context(), userID, fundID, interfaces.AnalyticsOptions{
		MonthsAhead: parseMonthsAhead(r),
	})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error computing analytics: %v", err))
		return
	}
	if analytics == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("fund '%s' not found", fundID))
		return
	}

	WriteData(w, http.StatusOK, analytics)
}

// handleCashFlows handles GET /api/funds/{id}/cashflows — the full signed series.
func (s *Server) handleCashFlows(w http.ResponseWriter, r *http.Request, fundID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	series, err := s.app.AnalyticsService.GetCashFlowSeries(r.Context(), userID, fundID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error reconstructing cash flows: %v", err))
		return
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"fund_id":    fundID,
		"cash_flows": series,
		"count":      len(series),
	})
}

// handleNetCashFlows handles GET /api/funds/{id}/cashflows/net — the
// recorded-only ledger view with skipped-month accounting.
func (s *Server) handleNetCashFlows(w http.ResponseWriter, r *http.Request, fundID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	result, err := s.app.AnalyticsService.GetNetCashFlowSeries(r.Context(), userID, fundID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error reconstructing net cash flows: %v", err))
		return
	}

	WriteData(w, http.StatusOK, result)
}

// handleProjection handles GET /api/funds/{id}/projection?months_ahead=N.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request, fundID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	projection, err := s.app.AnalyticsService.GetProjection(r.Context(), userID, fundID, parseMonthsAhead(r))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error computing projection: %v", err))
		return
	}
	if projection == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("fund '%s' not found", fundID))
		return
	}

	WriteData(w, http.StatusOK, projection)
}

// handleChart handles GET /api/funds/{id}/chart — cumulative position PNG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, fundID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	png, err := s.app.AnalyticsService.RenderCashFlowChart(r.Context(), userID, fundID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error rendering chart: %v", err))
		return
	}
	if png == nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("no chart data for fund '%s'", fundID))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleDashboard handles GET /api/dashboard — all active funds aggregated.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := common.ResolveUserID(r.Context())

	summary, err := s.app.AnalyticsService.GetDashboard(r.Context(), userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error building dashboard: %v", err))
		return
	}

	WriteData(w, http.StatusOK, summary)
}
