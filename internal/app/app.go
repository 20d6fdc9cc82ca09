package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/services/analytics"
	"github.com/bobmcallan/chitty/internal/services/bid"
	"github.com/bobmcallan/chitty/internal/services/entry"
	"github.com/bobmcallan/chitty/internal/services/fund"
	"github.com/bobmcallan/chitty/internal/services/recalc"
	"github.com/bobmcallan/chitty/internal/storage"
)

// App holds all initialized services, storage, and the MCP server.
// It is the shared core used by both cmd/chitty-server and cmd/chitty-mcp.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	FundService      interfaces.FundService
	EntryService     interfaces.EntryService
	BidService       interfaces.BidService
	AnalyticsService interfaces.AnalyticsService
	MCPServer        *server.MCPServer
	StartupTime      time.Time

	sweeperCancel   context.CancelFunc
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, services, and the MCP server.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, CHITTY_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("CHITTY_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "chitty.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/chitty.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.DataPath != "" && !filepath.IsAbs(config.Storage.DataPath) {
		config.Storage.DataPath = filepath.Join(binDir, config.Storage.DataPath)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	// Initialize logger
	logger := common.NewLoggerFromConfig(config.Logging)

	return newApp(config, logger, startupStart)
}

// NewAppWithConfig builds an App from an already-loaded config and logger.
// Used by tests and embedders that manage their own config resolution.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	return newApp(config, logger, time.Now())
}

func newApp(config *common.Config, logger *common.Logger, startupStart time.Time) (*App, error) {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Check schema version - remark derived analytics on mismatch
	ctx := context.Background()
	checkSchemaVersion(ctx, storageManager, logger)
	checkDevBuildChange(ctx, storageManager, config, logger)

	// Emergency admin bootstrap, opt-in. The generated password is logged once.
	if os.Getenv("CHITTY_BREAKGLASS") == "true" {
		ensureBreakglassAdmin(ctx, storageManager.InternalStore(), logger)
	}

	// Initialize services
	coordinator := recalc.NewCoordinator(storageManager, logger)
	fundService := fund.NewService(storageManager, coordinator, logger)
	entryService := entry.NewService(storageManager, coordinator, logger)
	bidService := bid.NewService(storageManager, coordinator, logger)
	analyticsService := analytics.NewService(storageManager, coordinator, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"chitty",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		FundService:      fundService,
		EntryService:     entryService,
		BidService:       bidService,
		AnalyticsService: analyticsService,
		MCPServer:        mcpServer,
		StartupTime:      startupStart,
	}

	// Register all MCP tools
	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel sweeper, cancel warm analytics, close storage.
func (a *App) Close() {
	if a.sweeperCancel != nil {
		a.sweeperCancel()
		a.sweeperCancel = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartWarmAnalytics launches the background startup warm goroutine.
func (a *App) StartWarmAnalytics() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmAnalytics(warmCtx, a.AnalyticsService, a.Storage, a.Logger)
	}()
}

// StartRecalcSweeper launches the background recalculation sweep goroutine.
func (a *App) StartRecalcSweeper() {
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	a.sweeperCancel = sweeperCancel
	go startRecalcSweeper(sweeperCtx, a.AnalyticsService, a.Storage, a.Logger, recalcSweepInterval)
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createListFundsTool(), handleListFunds(a.FundService, logger))
	s.AddTool(createGetFundTool(), handleGetFund(a.FundService, logger))
	s.AddTool(createCreateFundTool(), handleCreateFund(a.FundService, logger))
	s.AddTool(createUpdateFundTool(), handleUpdateFund(a.FundService, logger))
	s.AddTool(createDeleteFundTool(), handleDeleteFund(a.FundService, logger))
	s.AddTool(createLogMonthTool(), handleLogMonth(a.EntryService, logger))
	s.AddTool(createDeleteMonthTool(), handleDeleteMonth(a.EntryService, logger))
	s.AddTool(createRecordBidTool(), handleRecordBid(a.BidService, logger))
	s.AddTool(createListBidsTool(), handleListBids(a.BidService, logger))
	s.AddTool(createGetCashFlowsTool(), handleGetCashFlows(a.AnalyticsService, logger))
	s.AddTool(createGetProjectionTool(), handleGetProjection(a.AnalyticsService, logger))
	s.AddTool(createGetDashboardTool(), handleGetDashboard(a.AnalyticsService, logger))
	s.AddTool(createGetGlossaryTool(), handleGetGlossary(a.FundService, a.AnalyticsService, logger))
}
