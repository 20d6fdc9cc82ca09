package models

import "time"

// CashFlowPoint is one dated, signed cash flow in a fund's full series.
// Sign convention: installments are outflows (negative); dividends and prize
// payouts are inflows (positive). Derived on read, never persisted.
type CashFlowPoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// NetCashFlowPoint is one recorded month in the lighter ledger view.
// Net = installment − dividend, so a larger net means a worse month for the
// saver. Prize payouts are deliberately excluded from this view.
type NetCashFlowPoint struct {
	Date              time.Time `json:"date"`
	MonthKey          string    `json:"month_key"`
	InstallmentAmount float64   `json:"installment_amount"`
	DividendAmount    float64   `json:"dividend_amount"`
	NetCashFlow       float64   `json:"net_cash_flow"`
}

// NetCashFlowResult carries the recorded-month ledger plus a count of
// entries skipped for malformed month keys, so bad data is visible rather
// than silently dropped.
type NetCashFlowResult struct {
	Points        []NetCashFlowPoint `json:"points"`
	SkippedMonths int                `json:"skipped_months"`
}

// ProjectedPoint is one forecast month. Net is signed like the full series:
// forecasted dividend + prize average − installment.
type ProjectedPoint struct {
	Date              time.Time `json:"date"`
	MonthKey          string    `json:"month_key"`
	InstallmentAmount float64   `json:"forecasted_installment_amount"`
	DividendAmount    float64   `json:"forecasted_dividend_amount"`
	NetCashFlow       float64   `json:"forecasted_net_cash_flow"`
}

// ProjectionResult is the forecast for a fund. Zero averages with
// BasedOnMonths == 0 signal "no projection possible" (no recorded months).
type ProjectionResult struct {
	Points        []ProjectedPoint `json:"points"`
	AvgDividend   float64          `json:"avg_dividend"`
	AvgPrize      float64          `json:"avg_prize"`
	BasedOnMonths int              `json:"based_on_months"`
}

// FundAnalytics is the per-fund analytics read model. XIRR is an annualized
// percentage, nil when the solver has no solution (never zero-as-unknown).
type FundAnalytics struct {
	FundID            string            `json:"fund_id"`
	FundName          string            `json:"fund_name"`
	IsActive          bool              `json:"is_active"`
	TotalProfit       float64           `json:"total_profit"`
	XIRR              *float64          `json:"xirr"`
	CashFlowCount     int               `json:"cash_flow_count"`
	SkippedMonths     int               `json:"skipped_months"`
	LastRecordedMonth string            `json:"last_recorded_month,omitempty"`
	Projection        *ProjectionResult `json:"projection,omitempty"`
}

// FundSummary is one fund's line in the dashboard.
type FundSummary struct {
	FundID        string   `json:"fund_id"`
	FundName      string   `json:"fund_name"`
	TotalProfit   float64  `json:"total_profit"`
	XIRR          *float64 `json:"xirr"`
	CashFlowCount int      `json:"cash_flow_count"`
}

// DashboardSummary folds profit and return figures across all of a user's
// active funds. FundCount counts funds that produced at least one cash-flow
// point.
type DashboardSummary struct {
	TotalProfit float64       `json:"total_profit"`
	Funds       []FundSummary `json:"funds"`
	FundCount   int           `json:"fund_count"`
}
