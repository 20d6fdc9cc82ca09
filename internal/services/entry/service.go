// Package entry manages monthly dividend and payout records for a fund.
package entry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/recalc"
)

// Compile-time interface check
var _ interfaces.EntryService = (*Service)(nil)

// Service implements EntryService
type Service struct {
	storage interfaces.StorageManager
	recalc  *recalc.Coordinator
	logger  *common.Logger
}

// NewService creates a new entry service
func NewService(storage interfaces.StorageManager, coordinator *recalc.Coordinator, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		recalc:  coordinator,
		logger:  logger,
	}
}

func generateEntryID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "me_00000000"
	}
	return "me_" + hex.EncodeToString(b)
}

func validateAmount(field string, amount float64) error {
	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return fmt.Errorf("%s must be finite", field)
	}
	if amount < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	if amount >= 1e15 {
		return fmt.Errorf("%s exceeds maximum (1e15)", field)
	}
	return nil
}

func validateEntryInput(input interfaces.EntryInput) error {
	if !common.ValidMonthKey(input.MonthKey) {
		return fmt.Errorf("invalid month_key %q; must be YYYY-MM", input.MonthKey)
	}
	if err := validateAmount("dividend_amount", input.DividendAmount); err != nil {
		return err
	}
	if err := validateAmount("prize_amount", input.PrizeAmount); err != nil {
		return err
	}
	if len(input.Notes) > 1000 {
		return fmt.Errorf("notes exceeds 1000 characters")
	}
	return nil
}

// requireFund loads the fund scoped to the caller so child records of other
// users' funds are never reachable.
func (s *Service) requireFund(ctx context.Context, userID, fundID string) (*models.Fund, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return nil, fmt.Errorf("fund '%s' not found", fundID)
	}
	return fund, nil
}

// LogMonth upserts the entry for a month. A new entry marks the month paid;
// re-logging an existing month replaces its amounts without touching the paid
// flag. Months outside the fund's active range are stored but never enter the
// reconstruction.
func (s *Service) LogMonth(ctx context.Context, userID, fundID string, input interfaces.EntryInput) (*models.MonthlyEntry, error) {
	if err := validateEntryInput(input); err != nil {
		return nil, fmt.Errorf("invalid entry: %w", err)
	}

	fund, err := s.requireFund(ctx, userID, fundID)
	if err != nil {
		return nil, err
	}
	if input.MonthKey < fund.StartMonth || input.MonthKey > fund.EffectiveEndMonth() {
		s.logger.Warn().Str("fund_id", fundID).Str("month", input.MonthKey).
			Msg("Logging a month outside the fund's active range")
	}

	existing, err := s.storage.FundStore().GetEntry(ctx, fundID, input.MonthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}

	now := time.Now()
	entry := &models.MonthlyEntry{
		ID:             generateEntryID(),
		FundID:         fundID,
		MonthKey:       input.MonthKey,
		DividendAmount: input.DividendAmount,
		PrizeAmount:    input.PrizeAmount,
		IsPaid:         true,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing != nil {
		entry.ID = existing.ID
		entry.IsPaid = existing.IsPaid
		entry.CreatedAt = existing.CreatedAt
	}

	if err := s.storage.FundStore().SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.recalc.MarkDirty(ctx, userID, fundID)

	s.logger.Info().Str("fund_id", fundID).Str("month", entry.MonthKey).
		Float64("dividend", entry.DividendAmount).
		Float64("prize", entry.PrizeAmount).
		Msg("Month logged")
	return entry, nil
}

// GetEntry retrieves one month's entry, or (nil, nil) when absent.
func (s *Service) GetEntry(ctx context.Context, userID, fundID, monthKey string) (*models.MonthlyEntry, error) {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return nil, err
	}
	return s.storage.FundStore().GetEntry(ctx, fundID, monthKey)
}

// ListEntries returns all entries for a fund sorted by month key.
func (s *Service) ListEntries(ctx context.Context, userID, fundID string) ([]*models.MonthlyEntry, error) {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return nil, err
	}
	return s.storage.FundStore().ListEntries(ctx, fundID)
}

// UpdateEntry applies a partial update to an existing entry.
func (s *Service) UpdateEntry(ctx context.Context, userID, fundID, monthKey string, update interfaces.EntryUpdate) (*models.MonthlyEntry, error) {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return nil, err
	}

	entry, err := s.storage.FundStore().GetEntry(ctx, fundID, monthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("no entry for month '%s'", monthKey)
	}

	if update.DividendAmount != nil {
		entry.DividendAmount = *update.DividendAmount
	}
	if update.PrizeAmount != nil {
		entry.PrizeAmount = *update.PrizeAmount
	}
	if update.IsPaid != nil {
		entry.IsPaid = *update.IsPaid
	}
	if update.Notes != nil {
		entry.Notes = *update.Notes
	}

	if err := validateAmount("dividend_amount", entry.DividendAmount); err != nil {
		return nil, fmt.Errorf("invalid entry: %w", err)
	}
	if err := validateAmount("prize_amount", entry.PrizeAmount); err != nil {
		return nil, fmt.Errorf("invalid entry: %w", err)
	}
	if len(entry.Notes) > 1000 {
		return nil, fmt.Errorf("invalid entry: notes exceeds 1000 characters")
	}

	entry.UpdatedAt = time.Now()
	if err := s.storage.FundStore().SaveEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.recalc.MarkDirty(ctx, userID, fundID)

	s.logger.Info().Str("fund_id", fundID).Str("month", monthKey).Msg("Entry updated")
	return entry, nil
}

// DeleteEntry removes one month's entry.
func (s *Service) DeleteEntry(ctx context.Context, userID, fundID, monthKey string) error {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return err
	}

	entry, err := s.storage.FundStore().GetEntry(ctx, fundID, monthKey)
	if err != nil {
		return fmt.Errorf("failed to load entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("no entry for month '%s'", monthKey)
	}

	if err := s.storage.FundStore().DeleteEntry(ctx, fundID, monthKey); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	s.recalc.MarkDirty(ctx, userID, fundID)

	s.logger.Info().Str("fund_id", fundID).Str("month", monthKey).Msg("Entry deleted")
	return nil
}
