package data

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	surrealdb "github.com/bobmcallan/chitty/internal/storage/surrealdb"
	tcommon "github.com/bobmcallan/chitty/tests/common"
)

// testManager creates a StorageManager connected to the shared SurrealDB
// container with a unique database per test for isolation.
func testManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)

	cfg := &common.Config{
		Environment: "test",
		Storage: common.StorageConfig{
			Driver:    "surrealdb",
			Address:   sc.Address(),
			Namespace: "chitty_data_test",
			Database:  fmt.Sprintf("d_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano()%100000),
			Username:  "root",
			Password:  "root",
			DataPath:  t.TempDir(),
		},
	}

	logger := common.NewSilentLogger()
	mgr, err := surrealdb.NewManager(logger, cfg)
	if err != nil {
		t.Fatalf("create storage manager: %v", err)
	}

	t.Cleanup(func() {
		mgr.Close()
	})

	return mgr
}

// testContext returns a background context.
func testContext() context.Context {
	return context.Background()
}

// newFund builds a fund row with the canonical 20-month terms.
func newFund(userID, id, name string) *models.Fund {
	now := time.Now()
	return &models.Fund{
		ID:                 id,
		UserID:             userID,
		Name:               name,
		ChitValue:          100000,
		MonthlyInstallment: 5000,
		DurationMonths:     20,
		StartMonth:         "2024-01",
		EndMonth:           "2025-08",
		IsActive:           true,
		NeedsRecalc:        true,
		LastActivityAt:     now,
		CreatedAt:          now,
	}
}
