// Package storage provides the top-level StorageManager with pluggable
// backends: embedded badger (default) or SurrealDB.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/storage/funddb"
	"github.com/bobmcallan/chitty/internal/storage/internaldb"
)

// Manager implements interfaces.StorageManager using 2 embedded badger areas.
type Manager struct {
	internal *internaldb.Store
	funds    *funddb.Store
	logger   *common.Logger
}

// NewManager creates a badger-backed StorageManager under config.Storage.DataPath.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	dataPath := config.Storage.DataPath
	if dataPath == "" {
		dataPath = "data"
	}

	internalPath := filepath.Join(dataPath, "internal")
	internalStore, err := internaldb.NewStore(logger, internalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create internal store: %w", err)
	}

	fundPath := filepath.Join(dataPath, "funds")
	fundStore, err := funddb.NewStore(logger, fundPath)
	if err != nil {
		internalStore.Close()
		return nil, fmt.Errorf("failed to create fund store: %w", err)
	}

	logger.Info().
		Str("internal", internalPath).
		Str("funds", fundPath).
		Msg("Storage manager initialized (badger)")

	return &Manager{
		internal: internalStore,
		funds:    fundStore,
		logger:   logger,
	}, nil
}

func (m *Manager) InternalStore() interfaces.InternalStore {
	return m.internal
}

func (m *Manager) FundStore() interfaces.FundStore {
	return m.funds
}

func (m *Manager) Backend() string {
	return DriverBadger
}

func (m *Manager) Close() error {
	var firstErr error
	if err := m.internal.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.funds.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
