// Package analytics reconstructs fund cash flows, solves annualized returns,
// and projects future months. Everything here is derived on read; nothing is
// persisted. The reconstruction helpers are pure functions so the service
// layer and the ledger view share one definition of an active month.
package analytics

import (
	"fmt"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/models"
)

// MonthSeries returns the inclusive month keys from start through end,
// strictly increasing with no gaps. An inverted range yields an empty
// series, not an error: callers treat empty as "nothing to reconstruct".
func MonthSeries(startKey, endKey string) ([]string, error) {
	start, err := common.ParseMonthKey(startKey)
	if err != nil {
		return nil, fmt.Errorf("invalid series start: %w", err)
	}
	end, err := common.ParseMonthKey(endKey)
	if err != nil {
		return nil, fmt.Errorf("invalid series end: %w", err)
	}

	if start.After(end) {
		return []string{}, nil
	}

	var keys []string
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		keys = append(keys, common.FormatMonthKey(cur))
	}
	return keys, nil
}

// ActiveMonths returns the fund's active month series. An early-exit month
// shortens the range; otherwise the configured end month bounds it.
func ActiveMonths(fund *models.Fund) ([]string, error) {
	return MonthSeries(fund.StartMonth, fund.EffectiveEndMonth())
}
