// Package interfaces defines service contracts for Chitty
package interfaces

import (
	"context"

	"github.com/bobmcallan/chitty/internal/models"
)

// FundService manages fund lifecycle and validation.
type FundService interface {
	// CreateFund validates input, derives the end month from start + duration,
	// and persists the fund. New funds start with the recalculation flag set.
	CreateFund(ctx context.Context, userID string, input FundInput) (*models.Fund, error)

	// GetFund retrieves a fund, or (nil, nil) when it does not exist.
	GetFund(ctx context.Context, userID, fundID string) (*models.Fund, error)

	// ListFunds returns all funds owned by the user, newest first.
	ListFunds(ctx context.Context, userID string) ([]*models.Fund, error)

	// UpdateFund applies a partial update and marks the fund for recalculation.
	UpdateFund(ctx context.Context, userID, fundID string, update FundUpdate) (*models.Fund, error)

	// DeleteFund removes the fund and cascades to entries and bids.
	DeleteFund(ctx context.Context, userID, fundID string) error
}

// FundInput carries the fields needed to create a fund.
type FundInput struct {
	Name               string  `json:"name"`
	ChitValue          float64 `json:"chit_value"`
	MonthlyInstallment float64 `json:"monthly_installment"`
	DurationMonths     int     `json:"duration_months"`
	StartMonth         string  `json:"start_month"`
	Notes              string  `json:"notes"`
}

// FundUpdate carries a partial fund update; nil fields are left unchanged.
// EarlyExitMonth set to an empty string clears an existing early exit.
type FundUpdate struct {
	Name               *string  `json:"name"`
	ChitValue          *float64 `json:"chit_value"`
	MonthlyInstallment *float64 `json:"monthly_installment"`
	DurationMonths     *int     `json:"duration_months"`
	StartMonth         *string  `json:"start_month"`
	EarlyExitMonth     *string  `json:"early_exit_month"`
	IsActive           *bool    `json:"is_active"`
	Notes              *string  `json:"notes"`
}

// EntryService manages monthly entries for a fund. Every mutation marks the
// owning fund for recalculation.
type EntryService interface {
	// LogMonth upserts the entry for a month. Creation marks the month paid.
	LogMonth(ctx context.Context, userID, fundID string, input EntryInput) (*models.MonthlyEntry, error)

	// GetEntry retrieves one month's entry, or (nil, nil) when absent.
	GetEntry(ctx context.Context, userID, fundID, monthKey string) (*models.MonthlyEntry, error)

	// ListEntries returns all entries for a fund sorted by month key.
	ListEntries(ctx context.Context, userID, fundID string) ([]*models.MonthlyEntry, error)

	// UpdateEntry applies a partial update to an existing entry.
	UpdateEntry(ctx context.Context, userID, fundID, monthKey string, update EntryUpdate) (*models.MonthlyEntry, error)

	// DeleteEntry removes one month's entry.
	DeleteEntry(ctx context.Context, userID, fundID, monthKey string) error
}

// EntryInput carries the fields needed to log a month.
type EntryInput struct {
	MonthKey       string  `json:"month_key"`
	DividendAmount float64 `json:"dividend_amount"`
	PrizeAmount    float64 `json:"prize_amount"`
	Notes          string  `json:"notes"`
}

// EntryUpdate carries a partial entry update; nil fields are left unchanged.
type EntryUpdate struct {
	DividendAmount *float64 `json:"dividend_amount"`
	PrizeAmount    *float64 `json:"prize_amount"`
	IsPaid         *bool    `json:"is_paid"`
	Notes          *string  `json:"notes"`
}

// BidService manages monthly auction bids. Bids never feed the cash-flow
// math but still mark the fund for recalculation.
type BidService interface {
	// RecordBid upserts the bid for a month, deriving the discount amount.
	RecordBid(ctx context.Context, userID, fundID string, input BidInput) (*models.Bid, error)

	// GetBid retrieves one month's bid, or (nil, nil) when absent.
	GetBid(ctx context.Context, userID, fundID, monthKey string) (*models.Bid, error)

	// ListBids returns all bids for a fund sorted by month key.
	ListBids(ctx context.Context, userID, fundID string) ([]*models.Bid, error)

	// DeleteBid removes one month's bid.
	DeleteBid(ctx context.Context, userID, fundID, monthKey string) error
}

// BidInput carries the fields needed to record a bid.
type BidInput struct {
	MonthKey   string  `json:"month_key"`
	WinningBid float64 `json:"winning_bid"`
	WinnerName string  `json:"winner_name"`
	Notes      string  `json:"notes"`
}

// AnalyticsService derives cash-flow series, returns, projections, and the
// dashboard from stored funds and entries. Data problems are absorbed into
// empty/nil results; only storage failures surface as errors.
type AnalyticsService interface {
	// GetCashFlowSeries returns the full signed series, one point per active
	// month. Missing fund yields an empty series.
	GetCashFlowSeries(ctx context.Context, userID, fundID string) ([]models.CashFlowPoint, error)

	// GetNetCashFlowSeries returns the recorded-month ledger view.
	GetNetCashFlowSeries(ctx context.Context, userID, fundID string) (*models.NetCashFlowResult, error)

	// GetFundAnalytics computes profit, XIRR, and optionally a projection.
	// Returns (nil, nil) when the fund does not exist. A successful read
	// clears the fund's recalculation flag.
	GetFundAnalytics(ctx context.Context, userID, fundID string, opts AnalyticsOptions) (*models.FundAnalytics, error)

	// GetProjection forecasts monthsAhead future months from recorded averages.
	// Returns (nil, nil) when the fund does not exist.
	GetProjection(ctx context.Context, userID, fundID string, monthsAhead int) (*models.ProjectionResult, error)

	// GetDashboard aggregates all active funds for a user and clears their
	// recalculation flags.
	GetDashboard(ctx context.Context, userID string) (*models.DashboardSummary, error)

	// RenderCashFlowChart renders a PNG of the cumulative cash position with
	// the projected continuation. Returns (nil, nil) when the fund is missing
	// or has no points.
	RenderCashFlowChart(ctx context.Context, userID, fundID string) ([]byte, error)
}

// AnalyticsOptions configures fund analytics reads.
type AnalyticsOptions struct {
	MonthsAhead int // projection horizon to embed; 0 omits the projection
}
