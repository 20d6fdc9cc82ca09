package analytics

import (
	"context"
	"fmt"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/recalc"
)

// Compile-time interface check
var _ interfaces.AnalyticsService = (*Service)(nil)

// Service implements AnalyticsService. All results are computed per request
// from the fund store; nothing derived is cached or persisted. Data-shape
// problems (missing fund, malformed configuration) collapse into empty or
// nil results, and only storage failures propagate as errors.
type Service struct {
	storage interfaces.StorageManager
	recalc  *recalc.Coordinator
	logger  *common.Logger
}

// NewService creates a new analytics service.
func NewService(storage interfaces.StorageManager, coordinator *recalc.Coordinator, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		recalc:  coordinator,
		logger:  logger,
	}
}

// GetCashFlowSeries returns the full signed series for a fund, one point per
// active month. A missing fund yields an empty series, not an error.
func (s *Service) GetCashFlowSeries(ctx context.Context, userID, fundID string) ([]models.CashFlowPoint, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return []models.CashFlowPoint{}, nil
	}

	entries, err := s.storage.FundStore().ListEntries(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	return s.reconstruct(fund, entries), nil
}

// GetNetCashFlowSeries returns the recorded-month ledger view.
func (s *Service) GetNetCashFlowSeries(ctx context.Context, userID, fundID string) (*models.NetCashFlowResult, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return &models.NetCashFlowResult{Points: []models.NetCashFlowPoint{}}, nil
	}

	entries, err := s.storage.FundStore().ListEntries(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	result := BuildNetCashFlow(fund, entries)
	if result.SkippedMonths > 0 {
		s.logger.Warn().Str("fund_id", fundID).Int("skipped", result.SkippedMonths).
			Msg("Entries with malformed month keys skipped in net cash flow")
	}
	return result, nil
}

// GetFundAnalytics computes the per-fund read model: total profit, XIRR,
// and optionally a projection. Returns (nil, nil) when the fund does not
// exist. A completed read clears the fund's recalculation flag.
func (s *Service) GetFundAnalytics(ctx context.Context, userID, fundID string, opts interfaces.AnalyticsOptions) (*models.FundAnalytics, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return nil, nil
	}

	entries, err := s.storage.FundStore().ListEntries(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	points := s.reconstruct(fund, entries)

	analytics := &models.FundAnalytics{
		FundID:            fund.ID,
		FundName:          fund.Name,
		IsActive:          fund.IsActive,
		TotalProfit:       TotalProfit(points),
		XIRR:              XIRRPercent(points),
		CashFlowCount:     len(points),
		SkippedMonths:     countMalformedKeys(entries),
		LastRecordedMonth: LastRecordedMonth(entries),
	}

	if opts.MonthsAhead > 0 {
		projection, err := Project(fund, entries, opts.MonthsAhead)
		if err != nil {
			s.logger.Warn().Err(err).Str("fund_id", fundID).Msg("Projection failed")
		} else {
			analytics.Projection = projection
		}
	}

	s.recalc.CompareAndClear(ctx, fund)

	s.logger.Debug().Str("fund_id", fundID).
		Float64("profit", analytics.TotalProfit).
		Int("points", analytics.CashFlowCount).
		Msg("Fund analytics computed")
	return analytics, nil
}

// GetProjection forecasts monthsAhead future months from recorded averages.
// Returns (nil, nil) when the fund does not exist.
func (s *Service) GetProjection(ctx context.Context, userID, fundID string, monthsAhead int) (*models.ProjectionResult, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return nil, nil
	}

	entries, err := s.storage.FundStore().ListEntries(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	projection, err := Project(fund, entries, monthsAhead)
	if err != nil {
		s.logger.Warn().Err(err).Str("fund_id", fundID).Msg("Projection failed")
		return &models.ProjectionResult{Points: []models.ProjectedPoint{}}, nil
	}
	return projection, nil
}

// GetDashboard folds profit and return figures across all of the user's
// active funds, one serial reconstruction per fund. Funds whose series is
// empty are skipped; every visited fund has its recalculation flag cleared.
func (s *Service) GetDashboard(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	funds, err := s.storage.FundStore().ListFunds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	summary := &models.DashboardSummary{Funds: []models.FundSummary{}}

	for _, fund := range funds {
		if !fund.IsActive {
			continue
		}

		entries, err := s.storage.FundStore().ListEntries(ctx, fund.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for fund '%s': %w", fund.ID, err)
		}

		points := s.reconstruct(fund, entries)
		s.recalc.CompareAndClear(ctx, fund)
		if len(points) == 0 {
			continue
		}

		profit := TotalProfit(points)
		summary.Funds = append(summary.Funds, models.FundSummary{
			FundID:        fund.ID,
			FundName:      fund.Name,
			TotalProfit:   profit,
			XIRR:          XIRRPercent(points),
			CashFlowCount: len(points),
		})
		summary.TotalProfit += profit
	}
	summary.FundCount = len(summary.Funds)

	s.logger.Debug().Str("user_id", userID).
		Int("funds", summary.FundCount).
		Float64("total_profit", summary.TotalProfit).
		Msg("Dashboard computed")
	return summary, nil
}

// reconstruct builds the full series for a fund, absorbing a malformed month
// configuration into an empty series with a warning.
func (s *Service) reconstruct(fund *models.Fund, entries []*models.MonthlyEntry) []models.CashFlowPoint {
	points, err := BuildCashFlow(fund, entries)
	if err != nil {
		s.logger.Warn().Err(err).Str("fund_id", fund.ID).Msg("Cash flow reconstruction failed")
		return []models.CashFlowPoint{}
	}
	return points
}

func countMalformedKeys(entries []*models.MonthlyEntry) int {
	n := 0
	for _, e := range entries {
		if !common.ValidMonthKey(e.MonthKey) {
			n++
		}
	}
	return n
}
