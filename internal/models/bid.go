package models

import "time"

// Bid records the winning auction bid for one month of a fund.
// DiscountAmount is derived as ChitValue − WinningBid. Bids never enter the
// cash-flow math; they exist for record keeping and still mark the fund
// dirty when mutated.
type Bid struct {
	ID             string    `json:"id"`
	FundID         string    `json:"fund_id"`
	MonthKey       string    `json:"month_key"`
	WinningBid     float64   `json:"winning_bid"`
	DiscountAmount float64   `json:"discount_amount"`
	WinnerName     string    `json:"winner_name,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
