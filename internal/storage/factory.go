package storage

import (
	"fmt"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/storage/surrealdb"
)

// Storage driver constants.
const (
	DriverBadger  = "badger"
	DriverSurreal = "surrealdb"
)

// NewStorageManager creates a StorageManager for the configured driver.
// Supported drivers: "badger" (default, embedded) and "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	driver := config.Storage.Driver
	if driver == "" {
		driver = DriverBadger
	}

	switch driver {
	case DriverBadger:
		return NewManager(logger, config)

	case DriverSurreal:
		return surrealdb.NewManager(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: badger, surrealdb)", driver)
	}
}
