package models

import "time"

// Fund represents a rotating-savings (chit) fund a user participates in.
// ChitValue is the total payout pool; MonthlyInstallment is the fixed amount
// paid in each active month. EndMonth is derived from StartMonth and
// DurationMonths at creation and recomputed on edits.
type Fund struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	ChitValue          float64   `json:"chit_value"`
	MonthlyInstallment float64   `json:"monthly_installment"`
	DurationMonths     int       `json:"duration_months"`
	StartMonth         string    `json:"start_month"`
	EndMonth           string    `json:"end_month"`
	EarlyExitMonth     string    `json:"early_exit_month,omitempty"`
	IsActive           bool      `json:"is_active"`
	NeedsRecalc        bool      `json:"needs_recalculation"`
	LastActivityAt     time.Time `json:"last_activity_at"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EffectiveEndMonth returns the early-exit month when set, otherwise the
// natural end month. The active range of a fund is [StartMonth, EffectiveEndMonth].
func (f *Fund) EffectiveEndMonth() string {
	if f.EarlyExitMonth != "" {
		return f.EarlyExitMonth
	}
	return f.EndMonth
}
