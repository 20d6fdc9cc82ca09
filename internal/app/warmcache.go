package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

// warmAnalytics precomputes dashboards for flagged funds on startup so the
// first user query is fast. Schema remarks at startup leave every fund
// flagged; this clears them before traffic arrives.
func warmAnalytics(ctx context.Context, analyticsService interfaces.AnalyticsService, storage interfaces.StorageManager, logger *common.Logger) {
	// Check env var override
	if os.Getenv("CHITTY_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm analytics: disabled via CHITTY_WARM_CACHE=off")
		return
	}

	start := time.Now()

	userIDs := scanUsersNeedingRecalc(ctx, storage, logger)
	if len(userIDs) == 0 {
		logger.Info().Msg("Warm analytics: nothing flagged, skipping")
		return
	}

	warmed := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			logger.Info().Msg("Warm analytics: cancelled")
			return
		}
		if _, err := analyticsService.GetDashboard(ctx, userID); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Warm analytics: dashboard recompute failed")
			continue
		}
		warmed++
	}

	logger.Info().
		Int("users", warmed).
		Dur("elapsed", time.Since(start)).
		Msg("Warm analytics: complete")
}
