package analytics

import (
	"fmt"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/models"
)

// Project extrapolates monthsAhead future points from arithmetic means of
// the recorded months' dividend and prize amounts; the installment is held
// constant at the fund's fixed amount. The horizon starts one month after
// the last recorded month, not after "now": an early-exit fund or one with
// trailing unrecorded months projects from where its history stops, which
// may already be in the past.
//
// With no recorded months the result has empty points and zero averages,
// the explicit "no projection" signal. monthsAhead <= 0 yields empty points
// with averages still populated.
func Project(fund *models.Fund, entries []*models.MonthlyEntry, monthsAhead int) (*models.ProjectionResult, error) {
	result := &models.ProjectionResult{Points: []models.ProjectedPoint{}}

	valid := make([]*models.MonthlyEntry, 0, len(entries))
	for _, e := range entries {
		if common.ValidMonthKey(e.MonthKey) {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return result, nil
	}

	var totalDividend, totalPrize float64
	last := ""
	for _, e := range valid {
		totalDividend += e.DividendAmount
		totalPrize += e.PrizeAmount
		if e.MonthKey > last {
			last = e.MonthKey
		}
	}

	n := float64(len(valid))
	result.AvgDividend = totalDividend / n
	result.AvgPrize = totalPrize / n
	result.BasedOnMonths = len(valid)

	key := last
	for i := 0; i < monthsAhead; i++ {
		next, err := common.AddMonths(key, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to advance projection month: %w", err)
		}
		key = next

		date, err := common.ParseMonthKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse projection month: %w", err)
		}

		result.Points = append(result.Points, models.ProjectedPoint{
			Date:              date,
			MonthKey:          key,
			InstallmentAmount: fund.MonthlyInstallment,
			DividendAmount:    result.AvgDividend,
			NetCashFlow:       -fund.MonthlyInstallment + result.AvgDividend + result.AvgPrize,
		})
	}
	return result, nil
}
