package models

import "time"

// MonthlyEntry records what happened in one month of a fund: the dividend
// returned to the member, the prize payout if the member won that month's
// bid, and whether the installment was paid. One entry per (fund, month key)
// is enforced by the store.
type MonthlyEntry struct {
	ID             string    `json:"id"`
	FundID         string    `json:"fund_id"`
	MonthKey       string    `json:"month_key"`
	DividendAmount float64   `json:"dividend_amount"`
	PrizeAmount    float64   `json:"prize_amount"`
	IsPaid         bool      `json:"is_paid"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
