package app

import (
	"context"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

// recalcSweepInterval is how often the background sweep looks for funds
// flagged for recalculation.
const recalcSweepInterval = 15 * time.Minute

// startRecalcSweeper recomputes analytics for flagged funds on a fixed
// interval so reads after a schema change or bulk edit stay fast.
func startRecalcSweeper(ctx context.Context, analyticsService interfaces.AnalyticsService, storage interfaces.StorageManager, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Recalc sweeper: stopped")
			return
		case <-ticker.C:
			sweepRecalc(ctx, analyticsService, storage, logger)
		}
	}
}

func sweepRecalc(ctx context.Context, analyticsService interfaces.AnalyticsService, storage interfaces.StorageManager, logger *common.Logger) {
	start := time.Now()

	userIDs := scanUsersNeedingRecalc(ctx, storage, logger)
	if len(userIDs) == 0 {
		return
	}

	swept := 0
	for _, userID := range userIDs {
		// Dashboard read recomputes every flagged fund and clears its flag
		if _, err := analyticsService.GetDashboard(ctx, userID); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Recalc sweep: dashboard recompute failed")
			continue
		}
		swept++
	}

	logger.Info().
		Int("users", swept).
		Dur("elapsed", time.Since(start)).
		Msg("Recalc sweep: complete")
}

// scanUsersNeedingRecalc returns the users with at least one fund flagged
// for recalculation, always considering the single-tenant "default" scope.
func scanUsersNeedingRecalc(ctx context.Context, storage interfaces.StorageManager, logger *common.Logger) []string {
	userIDs, err := storage.InternalStore().ListUsers(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Recalc scan: failed to list users")
		userIDs = nil
	}
	userIDs = append(userIDs, "default")

	fundStore := storage.FundStore()
	seen := make(map[string]bool, len(userIDs))
	var needy []string
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		funds, err := fundStore.ListFunds(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Recalc scan: failed to list funds")
			continue
		}
		for _, f := range funds {
			if f.NeedsRecalc {
				needy = append(needy, userID)
				break
			}
		}
	}
	return needy
}
