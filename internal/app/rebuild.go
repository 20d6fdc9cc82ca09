package app

import (
	"context"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
)

const schemaVersionKey = "chitty_schema_version"
const buildTimestampKey = "chitty_build_timestamp"

// checkSchemaVersion compares the stored schema version against the code's
// SchemaVersion constant. On mismatch it remarks every fund for recalculation
// so analytics are rebuilt under the new layout, then stores the new version.
// Returns true if a remark occurred.
func checkSchemaVersion(ctx context.Context, sm interfaces.StorageManager, logger *common.Logger) bool {
	internalStore := sm.InternalStore()

	stored, err := internalStore.GetSystemKV(ctx, schemaVersionKey)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read schema version")
		return false
	}
	if stored == common.SchemaVersion {
		logger.Debug().
			Str("version", common.SchemaVersion).
			Msg("Schema version matches")
		return false
	}

	remarked := false
	if stored == "" {
		logger.Info().
			Str("current", common.SchemaVersion).
			Msg("Schema version not found, initializing (first run or pre-versioning)")
	} else {
		logger.Warn().
			Str("stored", stored).
			Str("current", common.SchemaVersion).
			Msg("Schema version mismatch, remarking funds for recalculation")
		remarkAllFunds(ctx, sm, logger)
		remarked = true
	}

	if err := internalStore.SetSystemKV(ctx, schemaVersionKey, common.SchemaVersion); err != nil {
		logger.Error().Err(err).Msg("Failed to store new schema version")
	}

	return remarked
}

// checkDevBuildChange detects if the build timestamp has changed since last
// startup. In non-production environments, a build change remarks every fund
// so analytics reflecting code changes are recomputed on the next read.
// Returns true if a remark occurred.
func checkDevBuildChange(ctx context.Context, sm interfaces.StorageManager, config *common.Config, logger *common.Logger) bool {
	if config.IsProduction() {
		return false
	}

	internalStore := sm.InternalStore()
	currentBuild := common.GetBuild()

	// Skip if build is unknown (local dev without ldflags)
	if currentBuild == "unknown" {
		return false
	}

	storedBuild, err := internalStore.GetSystemKV(ctx, buildTimestampKey)
	if err == nil && storedBuild == currentBuild {
		logger.Debug().
			Str("build", currentBuild).
			Msg("Build timestamp unchanged")
		return false
	}

	if storedBuild != "" {
		logger.Info().
			Str("previous_build", storedBuild).
			Str("current_build", currentBuild).
			Msg("Dev mode: build changed, remarking funds for recalculation")
		remarkAllFunds(ctx, sm, logger)
	}

	if err := internalStore.SetSystemKV(ctx, buildTimestampKey, currentBuild); err != nil {
		logger.Error().Err(err).Msg("Failed to store build timestamp")
	}

	return storedBuild != ""
}

// remarkAllFunds sets the recalculation flag on every fund of every known
// user, including the single-tenant "default" scope.
func remarkAllFunds(ctx context.Context, sm interfaces.StorageManager, logger *common.Logger) {
	userIDs, err := sm.InternalStore().ListUsers(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to list users for remark")
		userIDs = nil
	}
	userIDs = append(userIDs, "default")

	fundStore := sm.FundStore()
	now := time.Now()
	seen := make(map[string]bool, len(userIDs))
	marked := 0
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		funds, err := fundStore.ListFunds(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to list funds for remark")
			continue
		}
		for _, f := range funds {
			if err := fundStore.MarkNeedsRecalc(ctx, userID, f.ID, now); err != nil {
				logger.Warn().Err(err).Str("fund_id", f.ID).Msg("Failed to remark fund")
				continue
			}
			marked++
		}
	}
	if marked > 0 {
		logger.Info().Int("marked", marked).Msg("Funds remarked for recalculation")
	}
}
