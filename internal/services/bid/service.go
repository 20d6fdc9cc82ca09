// Package bid manages monthly auction bid records for a fund.
package bid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/recalc"
)

// Compile-time interface check
var _ interfaces.BidService = (*Service)(nil)

// Service implements BidService
type Service struct {
	storage interfaces.StorageManager
	recalc  *recalc.Coordinator
	logger  *common.Logger
}

// NewService creates a new bid service
func NewService(storage interfaces.StorageManager, coordinator *recalc.Coordinator, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		recalc:  coordinator,
		logger:  logger,
	}
}

func generateBidID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "bid_00000000"
	}
	return "bid_" + hex.EncodeToString(b)
}

func validateBidInput(input interfaces.BidInput, chitValue float64) error {
	if !common.ValidMonthKey(input.MonthKey) {
		return fmt.Errorf("invalid month_key %q; must be YYYY-MM", input.MonthKey)
	}
	if math.IsInf(input.WinningBid, 0) || math.IsNaN(input.WinningBid) {
		return fmt.Errorf("winning_bid must be finite")
	}
	if input.WinningBid < 0 {
		return fmt.Errorf("winning_bid must not be negative")
	}
	if input.WinningBid > chitValue {
		return fmt.Errorf("winning_bid %.2f exceeds chit value %.2f", input.WinningBid, chitValue)
	}
	if len(input.WinnerName) > 100 {
		return fmt.Errorf("winner_name exceeds 100 characters")
	}
	if len(input.Notes) > 1000 {
		return fmt.Errorf("notes exceeds 1000 characters")
	}
	return nil
}

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

// RecordBid upserts the bid for a month, deriving the discount amount from
// the fund's chit value. Bids are record keeping only; the cash-flow math
// never reads them, but the fund is still marked for recalculation so the
// dashboard reflects activity.
func (s *Service) RecordBid(ctx context.Context, userID, fundID string, input interfaces.BidInput) (*models.Bid, error) {
	fund, err := s.requireFund(ctx, userID, fundID)
	if err != nil {
		return nil, err
	}

	if err := validateBidInput(input, fund.ChitValue); err != nil {
		return nil, fmt.Errorf("invalid bid: %w", err)
	}

	existing, err := s.storage.FundStore().GetBid(ctx, fundID, input.MonthKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load bid: %w", err)
	}

	now := time.Now()
	bid := &models.Bid{
		ID:             generateBidID(),
		FundID:         fundID,
		MonthKey:       input.MonthKey,
		WinningBid:     input.WinningBid,
		DiscountAmount: fund.ChitValue - input.WinningBid,
		WinnerName:     strings.TrimSpace(input.WinnerName),
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing != nil {
		bid.ID = existing.ID
		bid.CreatedAt = existing.CreatedAt
	}

	if err := s.storage.FundStore().SaveBid(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to save bid: %w", err)
	}

	s.recalc.MarkDirty(ctx, userID, fundID)

	s.logger.Info().Str("fund_id", fundID).Str("month", bid.MonthKey).
		Float64("winning_bid", bid.WinningBid).
		Float64("discount", bid.DiscountAmount).
		Msg("Bid recorded")
	return bid, nil
}

// GetBid retrieves one month's bid, or (nil, nil) when absent.
func (s *Service) GetBid(ctx context.Context, userID, fundID, monthKey string) (*models.Bid, error) {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return nil, err
	}
	return s.storage.FundStore().GetBid(ctx, fundID, monthKey)
}

// ListBids returns all bids for a fund sorted by month key.
func (s *Service) ListBids(ctx context.Context, userID, fundID string) ([]*models.Bid, error) {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return nil, err
	}
	return s.storage.FundStore().ListBids(ctx, fundID)
}

// DeleteBid removes one month's bid.
func (s *Service) DeleteBid(ctx context.Context, userID, fundID, monthKey string) error {
	if _, err := s.requireFund(ctx, userID, fundID); err != nil {
		return err
	}

	bid, err := s.storage.FundStore().GetBid(ctx, fundID, monthKey)
	if err != nil {
		return fmt.Errorf("failed to load bid: %w", err)
	}
	if bid == nil {
		return fmt.Errorf("no bid for month '%s'", monthKey)
	}

	if err := s.storage.FundStore().DeleteBid(ctx, fundID, monthKey); err != nil {
		return fmt.Errorf("failed to delete bid: %w", err)
	}

	s.recalc.MarkDirty(ctx, userID, fundID)

	s.logger.Info().Str("fund_id", fundID).Str("month", monthKey).Msg("Bid deleted")
	return nil
}
