// Package funddb implements FundStore using BadgerHold.
// It stores funds, monthly entries, and bids as typed records.
package funddb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
)

// Store implements interfaces.FundStore using BadgerHold.
// mu serializes fund-row writes so the recalculation flag's
// compare-and-clear cannot lose a concurrent mark.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
	mu     sync.Mutex
}

var _ interfaces.FundStore = (*Store)(nil)

// keySep is the composite key separator. Using a null byte prevents
// collisions when IDs contain separator-like characters.
const keySep = "\x00"

// fundKey builds the fund storage key: user_id + \x00 + fund_id
func fundKey(userID, fundID string) string {
	return userID + keySep + fundID
}

// childKey builds the entry/bid storage key: fund_id + \x00 + month_key
func childKey(fundID, monthKey string) string {
	return fundID + keySep + monthKey
}

// NewStore creates a new FundStore backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create funddb path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open funddb at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("FundDB opened")
	return &Store{db: db, logger: logger}, nil
}

// --- Funds ---

func (s *Store) SaveFund(_ context.Context, fund *models.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := fundKey(fund.UserID, fund.ID)
	now := time.Now()

	var existing models.Fund
	if err := s.db.Get(ck, &existing); err == nil {
		fund.CreatedAt = existing.CreatedAt
	} else if fund.CreatedAt.IsZero() {
		fund.CreatedAt = now
	}
	fund.UpdatedAt = now

	if err := s.db.Upsert(ck, fund); err != nil {
		return fmt.Errorf("failed to save fund '%s': %w", fund.ID, err)
	}
	s.logger.Debug().Str("fund_id", fund.ID).Str("user_id", fund.UserID).Msg("Fund saved")
	return nil
}

func (s *Store) GetFund(_ context.Context, userID, fundID string) (*models.Fund, error) {
	var fund models.Fund
	if err := s.db.Get(fundKey(userID, fundID), &fund); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get fund '%s': %w", fundID, err)
	}
	return &fund, nil
}

func (s *Store) ListFunds(_ context.Context, userID string) ([]*models.Fund, error) {
	var all []models.Fund
	if err := s.db.Find(&all, badgerhold.Where("UserID").Eq(userID)); err != nil {
		return nil, fmt.Errorf("failed to list funds for user '%s': %w", userID, err)
	}
	result := make([]*models.Fund, 0, len(all))
	for i := range all {
		f := all[i]
		result = append(result, &f)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeleteFund(ctx context.Context, userID, fundID string) error {
	s.mu.Lock()
	if err := s.db.Delete(fundKey(userID, fundID), models.Fund{}); err != nil && err != badgerhold.ErrNotFound {
		s.mu.Unlock()
		return fmt.Errorf("failed to delete fund '%s': %w", fundID, err)
	}
	s.mu.Unlock()

	// Cascade to child records
	entries, err := s.ListEntries(ctx, fundID)
	if err == nil {
		for _, e := range entries {
			_ = s.db.Delete(childKey(e.FundID, e.MonthKey), models.MonthlyEntry{})
		}
	}
	bids, err := s.ListBids(ctx, fundID)
	if err == nil {
		for _, b := range bids {
			_ = s.db.Delete(childKey(b.FundID, b.MonthKey), models.Bid{})
		}
	}

	s.logger.Debug().Str("fund_id", fundID).Str("user_id", userID).Msg("Fund and child records deleted")
	return nil
}

// --- Monthly entries ---

func (s *Store) SaveEntry(_ context.Context, entry *models.MonthlyEntry) error {
	ck := childKey(entry.FundID, entry.MonthKey)
	now := time.Now()

	var existing models.MonthlyEntry
	if err := s.db.Get(ck, &existing); err == nil {
		entry.CreatedAt = existing.CreatedAt
		if entry.ID == "" {
			entry.ID = existing.ID
		}
	} else if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	if err := s.db.Upsert(ck, entry); err != nil {
		return fmt.Errorf("failed to save entry '%s' for fund '%s': %w", entry.MonthKey, entry.FundID, err)
	}
	return nil
}

func (s *Store) GetEntry(_ context.Context, fundID, monthKey string) (*models.MonthlyEntry, error) {
	var entry models.MonthlyEntry
	if err := s.db.Get(childKey(fundID, monthKey), &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entry '%s' for fund '%s': %w", monthKey, fundID, err)
	}
	return &entry, nil
}

func (s *Store) ListEntries(_ context.Context, fundID string) ([]*models.MonthlyEntry, error) {
	var all []models.MonthlyEntry
	if err := s.db.Find(&all, badgerhold.Where("FundID").Eq(fundID)); err != nil {
		return nil, fmt.Errorf("failed to list entries for fund '%s': %w", fundID, err)
	}
	result := make([]*models.MonthlyEntry, 0, len(all))
	for i := range all {
		e := all[i]
		result = append(result, &e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MonthKey < result[j].MonthKey
	})
	return result, nil
}

func (s *Store) DeleteEntry(_ context.Context, fundID, monthKey string) error {
	if err := s.db.Delete(childKey(fundID, monthKey), models.MonthlyEntry{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete entry '%s' for fund '%s': %w", monthKey, fundID, err)
	}
	return nil
}

// --- Bids ---

func (s *Store) SaveBid(_ context.Context, bid *models.Bid) error {
	ck := childKey(bid.FundID, bid.MonthKey)
	now := time.Now()

	var existing models.Bid
	if err := s.db.Get(ck, &existing); err == nil {
		bid.CreatedAt = existing.CreatedAt
		if bid.ID == "" {
			bid.ID = existing.ID
		}
	} else if bid.CreatedAt.IsZero() {
		bid.CreatedAt = now
	}
	bid.UpdatedAt = now

	if err := s.db.Upsert(ck, bid); err != nil {
		return fmt.Errorf("failed to save bid '%s' for fund '%s': %w", bid.MonthKey, bid.FundID, err)
	}
	return nil
}

func (s *Store) GetBid(_ context.Context, fundID, monthKey string) (*models.Bid, error) {
	var bid models.Bid
	if err := s.db.Get(childKey(fundID, monthKey), &bid); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bid '%s' for fund '%s': %w", monthKey, fundID, err)
	}
	return &bid, nil
}

func (s *Store) ListBids(_ context.Context, fundID string) ([]*models.Bid, error) {
	var all []models.Bid
	if err := s.db.Find(&all, badgerhold.Where("FundID").Eq(fundID)); err != nil {
		return nil, fmt.Errorf("failed to list bids for fund '%s': %w", fundID, err)
	}
	result := make([]*models.Bid, 0, len(all))
	for i := range all {
		b := all[i]
		result = append(result, &b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MonthKey < result[j].MonthKey
	})
	return result, nil
}

func (s *Store) DeleteBid(_ context.Context, fundID, monthKey string) error {
	if err := s.db.Delete(childKey(fundID, monthKey), models.Bid{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete bid '%s' for fund '%s': %w", monthKey, fundID, err)
	}
	return nil
}

// --- Recalculation flag ---

func (s *Store) MarkNeedsRecalc(_ context.Context, userID, fundID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := fundKey(userID, fundID)
	var fund models.Fund
	if err := s.db.Get(ck, &fund); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("fund '%s' not found", fundID)
		}
		return fmt.Errorf("failed to load fund '%s' for recalc mark: %w", fundID, err)
	}

	fund.NeedsRecalc = true
	if at.After(fund.LastActivityAt) {
		fund.LastActivityAt = at
	}

	if err := s.db.Upsert(ck, &fund); err != nil {
		return fmt.Errorf("failed to mark fund '%s' for recalc: %w", fundID, err)
	}
	return nil
}

// ClearNeedsRecalc clears the flag only when no writer has stamped activity
// past the observed time. A concurrent mark between the caller's read and
// this clear therefore always survives.
func (s *Store) ClearNeedsRecalc(_ context.Context, userID, fundID string, observed time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := fundKey(userID, fundID)
	var fund models.Fund
	if err := s.db.Get(ck, &fund); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to load fund '%s' for recalc clear: %w", fundID, err)
	}

	if !fund.NeedsRecalc {
		return false, nil
	}
	if fund.LastActivityAt.After(observed) {
		return false, nil
	}

	fund.NeedsRecalc = false
	if err := s.db.Upsert(ck, &fund); err != nil {
		return false, fmt.Errorf("failed to clear recalc flag for fund '%s': %w", fundID, err)
	}
	return true, nil
}

// Close shuts down the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
