package app

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
	"github.com/bobmcallan/chitty/internal/services/analytics"
	"github.com/bobmcallan/chitty/internal/services/bid"
	"github.com/bobmcallan/chitty/internal/services/entry"
	"github.com/bobmcallan/chitty/internal/services/fund"
	"github.com/bobmcallan/chitty/internal/services/recalc"
	"github.com/bobmcallan/chitty/internal/storage"
)

// newTestStorage creates a badger-backed storage manager under a temp dir.
func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	logger := common.NewLoggerFromConfig(common.LoggingConfig{Level: "disabled"})
	cfg := common.NewDefaultConfig()
	cfg.Storage.DataPath = t.TempDir()

	mgr, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		t.Fatalf("NewStorageManager failed: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// newTestUser builds an InternalUser with timestamps set.
func newTestUser(userID, email, role string) *models.InternalUser {
	now := time.Now()
	return &models.InternalUser{
		UserID:       userID,
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
}

// testHarness provides an in-process MCP client connected to a chitty MCP
// server backed by real storage-backed services. Tools operate on the
// single-tenant "default" user scope.
type testHarness struct {
	t         *testing.T
	client    *client.Client
	mcpServer *server.MCPServer
	storage   interfaces.StorageManager
	logger    *common.Logger
}

// newTestHarness creates a chitty MCP server over temp-dir storage and an
// in-process client. The client is already initialized and ready to call tools.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := common.NewLoggerFromConfig(common.LoggingConfig{Level: "disabled"})
	mgr := newTestStorage(t)

	coordinator := recalc.NewCoordinator(mgr, logger)
	fundService := fund.NewService(mgr, coordinator, logger)
	entryService := entry.NewService(mgr, coordinator, logger)
	bidService := bid.NewService(mgr, coordinator, logger)
	analyticsService := analytics.NewService(mgr, coordinator, logger)

	mcpServer := server.NewMCPServer(
		"chitty-test",
		"test",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createGetVersionTool(), handleGetVersion())
	mcpServer.AddTool(createListFundsTool(), handleListFunds(fundService, logger))
	mcpServer.AddTool(createGetFundTool(), handleGetFund(fundService, logger))
	mcpServer.AddTool(createCreateFundTool(), handleCreateFund(fundService, logger))
	mcpServer.AddTool(createUpdateFundTool(), handleUpdateFund(fundService, logger))
	mcpServer.AddTool(createDeleteFundTool(), handleDeleteFund(fundService, logger))
	mcpServer.AddTool(createLogMonthTool(), handleLogMonth(entryService, logger))
	mcpServer.AddTool(createDeleteMonthTool(), handleDeleteMonth(entryService, logger))
	mcpServer.AddTool(createRecordBidTool(), handleRecordBid(bidService, logger))
	mcpServer.AddTool(createListBidsTool(), handleListBids(bidService, logger))
	mcpServer.AddTool(createGetCashFlowsTool(), handleGetCashFlows(analyticsService, logger))
	mcpServer.AddTool(createGetProjectionTool(), handleGetProjection(analyticsService, logger))
	mcpServer.AddTool(createGetDashboardTool(), handleGetDashboard(analyticsService, logger))
	mcpServer.AddTool(createGetGlossaryTool(), handleGetGlossary(fundService, analyticsService, logger))

	// Create in-process client
	c, err := client.NewInProcessClient(mcpServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Failed to start client: %v", err)
	}

	// Initialize MCP protocol handshake
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "chitty-test-client",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		t.Fatalf("Failed to initialize MCP: %v", err)
	}

	h := &testHarness{
		t:         t,
		client:    c,
		mcpServer: mcpServer,
		storage:   mgr,
		logger:    logger,
	}

	t.Cleanup(h.close)
	return h
}

// callTool invokes an MCP tool by name with the given arguments.
func (h *testHarness) callTool(name string, args map[string]any) (*mcp.CallToolResult, error) {
	h.t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return h.client.CallTool(context.Background(), req)
}

// getTextContent extracts text from a content block at the given index.
// Fails the test if index is out of range or content is not text.
func (h *testHarness) getTextContent(result *mcp.CallToolResult, index int) string {
	h.t.Helper()
	if index >= len(result.Content) {
		h.t.Fatalf("Content index %d out of range (have %d blocks)", index, len(result.Content))
	}
	tc, ok := result.Content[index].(mcp.TextContent)
	if !ok {
		h.t.Fatalf("Content[%d] is %T, not TextContent", index, result.Content[index])
	}
	return tc.Text
}

// createFund makes a fund through the create_fund tool and returns its ID.
func (h *testHarness) createFund(name string) string {
	h.t.Helper()
	result, err := h.callTool("create_fund", map[string]any{
		"name":                name,
		"chit_value":          100000.0,
		"monthly_installment": 5000.0,
		"duration_months":     20,
		"start_month":         "2024-01",
	})
	if err != nil {
		h.t.Fatalf("create_fund failed: %v", err)
	}
	if result.IsError {
		h.t.Fatalf("create_fund returned error: %s", h.getTextContent(result, 0))
	}
	return h.lookupFundID(name)
}

// lookupFundID resolves a fund name to its ID via storage.
func (h *testHarness) lookupFundID(name string) string {
	h.t.Helper()
	funds, err := h.storage.FundStore().ListFunds(context.Background(), "default")
	if err != nil {
		h.t.Fatalf("ListFunds failed: %v", err)
	}
	for _, f := range funds {
		if f.Name == name {
			return f.ID
		}
	}
	h.t.Fatalf("fund %q not found after creation", name)
	return ""
}

func (h *testHarness) close() {
	if h.client != nil {
		h.client.Close()
	}
}
