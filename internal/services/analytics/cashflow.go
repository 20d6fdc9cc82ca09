package analytics

import (
	"fmt"
	"sort"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/models"
)

// BuildCashFlow joins the fund's active month series with its sparse
// recorded entries into a complete signed series: exactly one point per
// active month, dated the first of that month. The installment outflow is
// emitted even for unrecorded months since the obligation exists whether or
// not the user logged it. Bids never enter this series.
func BuildCashFlow(fund *models.Fund, entries []*models.MonthlyEntry) ([]models.CashFlowPoint, error) {
	months, err := ActiveMonths(fund)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*models.MonthlyEntry, len(entries))
	for _, e := range entries {
		byMonth[e.MonthKey] = e
	}

	points := make([]models.CashFlowPoint, 0, len(months))
	for _, mk := range months {
		date, err := common.ParseMonthKey(mk)
		if err != nil {
			return nil, fmt.Errorf("failed to parse generated month key: %w", err)
		}

		amount := -fund.MonthlyInstallment
		if e, ok := byMonth[mk]; ok {
			amount += e.DividendAmount + e.PrizeAmount
		}

		points = append(points, models.CashFlowPoint{Date: date, Amount: amount})
	}
	return points, nil
}

// TotalProfit sums the signed amounts of a series.
func TotalProfit(points []models.CashFlowPoint) float64 {
	total := 0.0
	for _, p := range points {
		total += p.Amount
	}
	return total
}

// BuildNetCashFlow reports only recorded months as installment − dividend
// deltas, without zero-filling. The opposite sign convention from the full
// series: here a larger net means a worse month for the saver. Entries with
// malformed month keys are counted in SkippedMonths rather than dropped
// invisibly.
func BuildNetCashFlow(fund *models.Fund, entries []*models.MonthlyEntry) *models.NetCashFlowResult {
	result := &models.NetCashFlowResult{Points: []models.NetCashFlowPoint{}}

	sorted := make([]*models.MonthlyEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MonthKey < sorted[j].MonthKey
	})

	for _, e := range sorted {
		date, err := common.ParseMonthKey(e.MonthKey)
		if err != nil {
			result.SkippedMonths++
			continue
		}
		result.Points = append(result.Points, models.NetCashFlowPoint{
			Date:              date,
			MonthKey:          e.MonthKey,
			InstallmentAmount: fund.MonthlyInstallment,
			DividendAmount:    e.DividendAmount,
			NetCashFlow:       fund.MonthlyInstallment - e.DividendAmount,
		})
	}
	return result
}

// LastRecordedMonth returns the latest well-formed month key among entries,
// or "" when none exist.
func LastRecordedMonth(entries []*models.MonthlyEntry) string {
	last := ""
	for _, e := range entries {
		if !common.ValidMonthKey(e.MonthKey) {
			continue
		}
		if e.MonthKey > last {
			last = e.MonthKey
		}
	}
	return last
}
