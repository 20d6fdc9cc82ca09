// Package recalc coordinates the per-fund needs-recalculation flag.
// The flag is advisory: mutations set it, analytics reads clear it, and
// nothing refuses to compute because of it. Clearing is optimistic so a
// writer landing between a read and its clear is never lost.
package recalc

import (
	"context"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
)

// Coordinator fans flag transitions out to the fund store.
type Coordinator struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewCoordinator creates a flag coordinator over the given storage.
func NewCoordinator(storage interfaces.StorageManager, logger *common.Logger) *Coordinator {
	return &Coordinator{
		storage: storage,
		logger:  logger,
	}
}

// MarkDirty flags the fund after a mutation to it or its child records.
// Fire-and-forget: failures are logged, never propagated, so a flag hiccup
// cannot fail the write that triggered it.
func (c *Coordinator) MarkDirty(ctx context.Context, userID, fundID string) {
	if err := c.storage.FundStore().MarkNeedsRecalc(ctx, userID, fundID, time.Now()); err != nil {
		c.logger.Warn().Err(err).Str("fund_id", fundID).Msg("Failed to mark fund for recalculation")
		return
	}
	c.logger.Debug().Str("fund_id", fundID).Msg("Fund marked for recalculation")
}

// CompareAndClear clears the flag only if no activity landed after the
// state observed by the caller's read. Losing the race is harmless; the
// fund stays dirty and the next read clears it.
func (c *Coordinator) CompareAndClear(ctx context.Context, fund *models.Fund) {
	if fund == nil || !fund.NeedsRecalc {
		return
	}
	cleared, err := c.storage.FundStore().ClearNeedsRecalc(ctx, fund.UserID, fund.ID, fund.LastActivityAt)
	if err != nil {
		c.logger.Warn().Err(err).Str("fund_id", fund.ID).Msg("Failed to clear recalculation flag")
		return
	}
	if cleared {
		c.logger.Debug().Str("fund_id", fund.ID).Msg("Recalculation flag cleared")
	}
}
