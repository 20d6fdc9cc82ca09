package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
)

// FundStore implements interfaces.FundStore against SurrealDB.
// Record ID formats: fund:<userID>_<fundID>, monthly_entry:<fundID>_<monthKey>,
// bid:<fundID>_<monthKey>.
type FundStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewFundStore(db *surrealdb.DB, logger *common.Logger) *FundStore {
	return &FundStore{
		db:     db,
		logger: logger,
	}
}

func fundID(userID, id string) string {
	return userID + "_" + id
}

func childID(fundID, monthKey string) string {
	return fundID + "_" + monthKey
}

// --- Funds ---

func (s *FundStore) SaveFund(ctx context.Context, fund *models.Fund) error {
	now := time.Now()
	rid := surrealmodels.NewRecordID("fund", fundID(fund.UserID, fund.ID))

	if existing, err := surrealdb.Select[models.Fund](ctx, s.db, rid); err == nil && existing != nil && !existing.CreatedAt.IsZero() {
		fund.CreatedAt = existing.CreatedAt
	} else if fund.CreatedAt.IsZero() {
		fund.CreatedAt = now
	}
	fund.UpdatedAt = now

	sql := "UPSERT $rid CONTENT $fund"
	vars := map[string]any{"rid": rid, "fund": fund}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Fund](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save fund after retries: %w", lastErr)
}

func (s *FundStore) GetFund(ctx context.Context, userID, id string) (*models.Fund, error) {
	fund, err := surrealdb.Select[models.Fund](ctx, s.db, surrealmodels.NewRecordID("fund", fundID(userID, id)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select fund: %w", err)
	}
	if fund == nil || fund.ID == "" {
		return nil, nil
	}
	return fund, nil
}

func (s *FundStore) ListFunds(ctx context.Context, userID string) ([]*models.Fund, error) {
	sql := "SELECT * FROM fund WHERE user_id = $user_id ORDER BY created_at DESC"
	vars := map[string]any{"user_id": userID}

	results, err := surrealdb.Query[[]models.Fund](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Fund
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *FundStore) DeleteFund(ctx context.Context, userID, id string) error {
	if _, err := surrealdb.Delete[models.Fund](ctx, s.db, surrealmodels.NewRecordID("fund", fundID(userID, id))); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete fund: %w", err)
	}

	// Cascade to child records
	sql := "DELETE monthly_entry WHERE fund_id = $fund_id; DELETE bid WHERE fund_id = $fund_id"
	vars := map[string]any{"fund_id": id}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to delete fund children: %w", err)
	}

	s.logger.Debug().Str("fund_id", id).Msg("Fund deleted with children")
	return nil
}

// --- Monthly entries ---

func (s *FundStore) SaveEntry(ctx context.Context, entry *models.MonthlyEntry) error {
	now := time.Now()
	rid := surrealmodels.NewRecordID("monthly_entry", childID(entry.FundID, entry.MonthKey))

	if existing, err := surrealdb.Select[models.MonthlyEntry](ctx, s.db, rid); err == nil && existing != nil && existing.ID != "" {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	sql := "UPSERT $rid CONTENT $entry"
	vars := map[string]any{"rid": rid, "entry": entry}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.MonthlyEntry](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save entry after retries: %w", lastErr)
}

func (s *FundStore) GetEntry(ctx context.Context, fund, monthKey string) (*models.MonthlyEntry, error) {
	entry, err := surrealdb.Select[models.MonthlyEntry](ctx, s.db, surrealmodels.NewRecordID("monthly_entry", childID(fund, monthKey)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	if entry == nil || entry.MonthKey == "" {
		return nil, nil
	}
	return entry, nil
}

func (s *FundStore) ListEntries(ctx context.Context, fund string) ([]*models.MonthlyEntry, error) {
	sql := "SELECT * FROM monthly_entry WHERE fund_id = $fund_id ORDER BY month_key ASC"
	vars := map[string]any{"fund_id": fund}

	results, err := surrealdb.Query[[]models.MonthlyEntry](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.MonthlyEntry
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *FundStore) DeleteEntry(ctx context.Context, fund, monthKey string) error {
	if _, err := surrealdb.Delete[models.MonthlyEntry](ctx, s.db, surrealmodels.NewRecordID("monthly_entry", childID(fund, monthKey))); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// --- Bids ---

func (s *FundStore) SaveBid(ctx context.Context, bid *models.Bid) error {
	now := time.Now()
	rid := surrealmodels.NewRecordID("bid", childID(bid.FundID, bid.MonthKey))

	if existing, err := surrealdb.Select[models.Bid](ctx, s.db, rid); err == nil && existing != nil && existing.ID != "" {
		bid.ID = existing.ID
		bid.CreatedAt = existing.CreatedAt
	} else if bid.CreatedAt.IsZero() {
		bid.CreatedAt = now
	}
	bid.UpdatedAt = now

	sql := "UPSERT $rid CONTENT $bid"
	vars := map[string]any{"rid": rid, "bid": bid}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.Bid](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save bid after retries: %w", lastErr)
}

func (s *FundStore) GetBid(ctx context.Context, fund, monthKey string) (*models.Bid, error) {
	bid, err := surrealdb.Select[models.Bid](ctx, s.db, surrealmodels.NewRecordID("bid", childID(fund, monthKey)))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to select bid: %w", err)
	}
	if bid == nil || bid.MonthKey == "" {
		return nil, nil
	}
	return bid, nil
}

func (s *FundStore) ListBids(ctx context.Context, fund string) ([]*models.Bid, error) {
	sql := "SELECT * FROM bid WHERE fund_id = $fund_id ORDER BY month_key ASC"
	vars := map[string]any{"fund_id": fund}

	results, err := surrealdb.Query[[]models.Bid](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	if results != nil && len(*results) > 0 {
		var mapped []*models.Bid
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

func (s *FundStore) DeleteBid(ctx context.Context, fund, monthKey string) error {
	if _, err := surrealdb.Delete[models.Bid](ctx, s.db, surrealmodels.NewRecordID("bid", childID(fund, monthKey))); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete bid: %w", err)
	}
	return nil
}

// --- Recalculation flag ---

// MarkNeedsRecalc sets the dirty bit and advances last_activity_at, never
// moving it backwards. Both statements run server-side so concurrent marks
// cannot regress the activity stamp.
func (s *FundStore) MarkNeedsRecalc(ctx context.Context, userID, id string, at time.Time) error {
	rid := surrealmodels.NewRecordID("fund", fundID(userID, id))
	sql := "UPDATE $rid SET needs_recalculation = true RETURN AFTER; UPDATE $rid SET last_activity_at = $at WHERE last_activity_at < $at"
	vars := map[string]any{"rid": rid, "at": at}

	results, err := surrealdb.Query[[]models.Fund](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to mark fund for recalculation: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("fund '%s' not found", id)
	}
	return nil
}

// ClearNeedsRecalc clears the dirty bit only when no activity has been
// recorded past the observed stamp — the same atomic claim shape as a
// conditional status transition. Reports whether the clear happened.
func (s *FundStore) ClearNeedsRecalc(ctx context.Context, userID, id string, observed time.Time) (bool, error) {
	rid := surrealmodels.NewRecordID("fund", fundID(userID, id))
	sql := "UPDATE $rid SET needs_recalculation = false WHERE needs_recalculation = true AND last_activity_at <= $observed RETURN AFTER"
	vars := map[string]any{"rid": rid, "observed": observed}

	results, err := surrealdb.Query[[]models.Fund](ctx, s.db, sql, vars)
	if err != nil {
		return false, fmt.Errorf("failed to clear recalculation flag: %w", err)
	}

	cleared := results != nil && len(*results) > 0 && len((*results)[0].Result) > 0
	return cleared, nil
}

func (s *FundStore) Close() error {
	return nil
}

// Compile-time check
var _ interfaces.FundStore = (*FundStore)(nil)
