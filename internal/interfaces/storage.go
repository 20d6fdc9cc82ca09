// Package interfaces defines service contracts for Chitty
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/chitty/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	// Storage accessors
	InternalStore() InternalStore
	FundStore() FundStore

	// Backend returns the active driver name ("badger" or "surrealdb").
	Backend() string

	// Lifecycle
	Close() error
}

// InternalStore manages user accounts, per-user config, and system-level KV.
type InternalStore interface {
	// User accounts
	GetUser(ctx context.Context, userID string) (*models.InternalUser, error)
	GetUserByEmail(ctx context.Context, email string) (*models.InternalUser, error)
	SaveUser(ctx context.Context, user *models.InternalUser) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]string, error)

	// Per-user key-value config
	GetUserKV(ctx context.Context, userID, key string) (*models.UserKeyValue, error)
	SetUserKV(ctx context.Context, userID, key, value string) error
	DeleteUserKV(ctx context.Context, userID, key string) error
	ListUserKV(ctx context.Context, userID string) ([]*models.UserKeyValue, error)

	// System key-value (non-user-scoped)
	GetSystemKV(ctx context.Context, key string) (string, error)
	SetSystemKV(ctx context.Context, key, value string) error

	Close() error
}

// FundStore manages funds and their child records (monthly entries, bids).
// Funds are scoped to a user; entries and bids are keyed by (fund, month key).
// Get operations return (nil, nil) when the row does not exist.
type FundStore interface {
	// Funds
	SaveFund(ctx context.Context, fund *models.Fund) error
	GetFund(ctx context.Context, userID, fundID string) (*models.Fund, error)
	ListFunds(ctx context.Context, userID string) ([]*models.Fund, error)
	// DeleteFund removes the fund and cascades to its entries and bids.
	DeleteFund(ctx context.Context, userID, fundID string) error

	// Monthly entries
	SaveEntry(ctx context.Context, entry *models.MonthlyEntry) error
	GetEntry(ctx context.Context, fundID, monthKey string) (*models.MonthlyEntry, error)
	ListEntries(ctx context.Context, fundID string) ([]*models.MonthlyEntry, error)
	DeleteEntry(ctx context.Context, fundID, monthKey string) error

	// Bids
	SaveBid(ctx context.Context, bid *models.Bid) error
	GetBid(ctx context.Context, fundID, monthKey string) (*models.Bid, error)
	ListBids(ctx context.Context, fundID string) ([]*models.Bid, error)
	DeleteBid(ctx context.Context, fundID, monthKey string) error

	// Recalculation flag. MarkNeedsRecalc sets the dirty bit and stamps
	// last_activity_at. ClearNeedsRecalc clears the bit only when
	// last_activity_at has not advanced past observed (optimistic check);
	// it reports whether a clear happened.
	MarkNeedsRecalc(ctx context.Context, userID, fundID string, at time.Time) error
	ClearNeedsRecalc(ctx context.Context, userID, fundID string, observed time.Time) (bool, error)

	Close() error
}
