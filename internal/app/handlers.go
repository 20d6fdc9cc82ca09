package app

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/chitty/internal/common"
	"github.com/bobmcallan/chitty/internal/interfaces"
	"github.com/bobmcallan/chitty/internal/models"
)

// handleGetVersion implements the get_version tool
func handleGetVersion() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("Chitty Server\nVersion: %s\nBuild: %s\nCommit: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
		return textResult(result), nil
	}
}

// handleListFunds implements the list_funds tool
func handleListFunds(fundService interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := common.ResolveUserID(ctx)

		funds, err := fundService.ListFunds(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Msg("List funds failed")
			return errorResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatFundList(funds)), nil
	}
}

// handleGetFund implements the get_fund tool
func handleGetFund(fundService interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}

		userID := common.ResolveUserID(ctx)
		fund, err := fundService.GetFund(ctx, userID, fundID)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("Get fund failed")
			return errorResult(fmt.Sprintf("Get error: %v", err)), nil
		}
		if fund == nil {
			return errorResult(fmt.Sprintf("Fund '%s' not found", fundID)), nil
		}

		return textResult(formatFund(fund)), nil
	}
}

// handleCreateFund implements the create_fund tool
func handleCreateFund(fundService interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil || name == "" {
			return errorResult("Error: name parameter is required"), nil
		}
		startMonth, err := request.RequireString("start_month")
		if err != nil || startMonth == "" {
			return errorResult("Error: start_month parameter is required"), nil
		}

		input := interfaces.FundInput{
			Name:               name,
			ChitValue:          request.GetFloat("chit_value", 0),
			MonthlyInstallment: request.GetFloat("monthly_installment", 0),
			DurationMonths:     request.GetInt("duration_months", 0),
			StartMonth:         startMonth,
			Notes:              request.GetString("notes", ""),
		}

		userID := common.ResolveUserID(ctx)
		fund, err := fundService.CreateFund(ctx, userID, input)
		if err != nil {
			logger.Error().Err(err).Str("name", name).Msg("Create fund failed")
			return errorResult(fmt.Sprintf("Create error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Fund created.\n\n%s", formatFund(fund))), nil
	}
}

// handleUpdateFund implements the update_fund tool
func handleUpdateFund(fundService interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}

		// Merge semantics: only keys present in the request are applied.
		args := request.GetArguments()
		var update interfaces.FundUpdate
		if v, ok := args["name"].(string); ok {
			update.Name = &v
		}
		if v, ok := args["chit_value"].(float64); ok {
			update.ChitValue = &v
		}
		if v, ok := args["monthly_installment"].(float64); ok {
			update.MonthlyInstallment = &v
		}
		if v, ok := args["duration_months"].(float64); ok {
			months := int(v)
			update.DurationMonths = &months
		}
		if v, ok := args["start_month"].(string); ok {
			update.StartMonth = &v
		}
		if v, ok := args["early_exit_month"].(string); ok {
			update.EarlyExitMonth = &v
		}
		if v, ok := args["is_active"].(bool); ok {
			update.IsActive = &v
		}
		if v, ok := args["notes"].(string); ok {
			update.Notes = &v
		}

		userID := common.ResolveUserID(ctx)
		fund, err := fundService.UpdateFund(ctx, userID, fundID, update)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("Update fund failed")
			return errorResult(fmt.Sprintf("Update error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Fund updated.\n\n%s", formatFund(fund))), nil
	}
}

// handleDeleteFund implements the delete_fund tool
func handleDeleteFund(fundService interfaces.FundService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}

		userID := common.ResolveUserID(ctx)
		if err := fundService.DeleteFund(ctx, userID, fundID); err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("Delete fund failed")
			return errorResult(fmt.Sprintf("Delete error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Fund '%s' deleted along with its entries and bids.", fundID)), nil
	}
}

// handleLogMonth implements the log_month tool
func handleLogMonth(entryService interfaces.EntryService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}
		monthKey, err := request.RequireString("month_key")
		if err != nil || monthKey == "" {
			return errorResult("Error: month_key parameter is required"), nil
		}

		input := interfaces.EntryInput{
			MonthKey:       monthKey,
			DividendAmount: request.GetFloat("dividend_amount", 0),
			PrizeAmount:    request.GetFloat("prize_amount", 0),
			Notes:          request.GetString("notes", ""),
		}

		userID := common.ResolveUserID(ctx)
		entry, err := entryService.LogMonth(ctx, userID, fundID, input)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Str("month", monthKey).Msg("Log month failed")
			return errorResult(fmt.Sprintf("Log error: %v", err)), nil
		}

		return textResult(formatEntry(entry)), nil
	}
}

// handleDeleteMonth implements the delete_month tool
func handleDeleteMonth(entryService interfaces.EntryService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}
		monthKey, err := request.RequireString("month_key")
		if err != nil || monthKey == "" {
			return errorResult("Error: month_key parameter is required"), nil
		}

		userID := common.ResolveUserID(ctx)
		if err := entryService.DeleteEntry(ctx, userID, fundID, monthKey); err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Str("month", monthKey).Msg("Delete month failed")
			return errorResult(fmt.Sprintf("Delete error: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Month %s deleted from fund '%s'.", monthKey, fundID)), nil
	}
}

// handleRecordBid implements the record_bid tool
func handleRecordBid(bidService interfaces.BidService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}
		monthKey, err := request.RequireString("month_key")
		if err != nil || monthKey == "" {
			return errorResult("Error: month_key parameter is required"), nil
		}

		input := interfaces.BidInput{
			MonthKey:   monthKey,
			WinningBid: request.GetFloat("winning_bid", 0),
			WinnerName: request.GetString("winner_name", ""),
			Notes:      request.GetString("notes", ""),
		}

		userID := common.ResolveUserID(ctx)
		bid, err := bidService.RecordBid(ctx, userID, fundID, input)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Str("month", monthKey).Msg("Record bid failed")
			return errorResult(fmt.Sprintf("Bid error: %v", err)), nil
		}

		return textResult(formatBid(bid)), nil
	}
}

// handleListBids implements the list_bids tool
func handleListBids(bidService interfaces.BidService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}

		userID := common.ResolveUserID(ctx)
		bids, err := bidService.ListBids(ctx, userID, fundID)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("List bids failed")
			return errorResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatBidList(fundID, bids)), nil
	}
}

// handleGetCashFlows implements the get_cash_flows tool
func handleGetCashFlows(analyticsService interfaces.AnalyticsService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}

		userID := common.ResolveUserID(ctx)
		series, err := analyticsService.GetCashFlowSeries(ctx, userID, fundID)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("Cash flow series failed")
			return errorResult(fmt.Sprintf("Cash flow error: %v", err)), nil
		}
		net, err := analyticsService.GetNetCashFlowSeries(ctx, userID, fundID)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("Net cash flow series failed")
			return errorResult(fmt.Sprintf("Cash flow error: %v", err)), nil
		}

		return textResult(formatCashFlows(fundID, series, net)), nil
	}
}

// handleGetProjection implements the get_projection tool
func handleGetProjection(analyticsService interfaces.AnalyticsService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fundID, err := request.RequireString("fund_id")
		if err != nil || fundID == "" {
			return errorResult("Error: fund_id parameter is required"), nil
		}

		monthsAhead := request.GetInt("months_ahead", 6)
		if monthsAhead > 120 {
			monthsAhead = 120
		}
		if monthsAhead < 0 {
			monthsAhead = 0
		}

		userID := common.ResolveUserID(ctx)
		projection, err := analyticsService.GetProjection(ctx, userID, fundID, monthsAhead)
		if err != nil {
			logger.Error().Err(err).Str("fund_id", fundID).Msg("Projection failed")
			return errorResult(fmt.Sprintf("Projection error: %v", err)), nil
		}
		if projection == nil {
			return errorResult(fmt.Sprintf("Fund '%s' not found", fundID)), nil
		}

		return textResult(formatProjection(fundID, projection)), nil
	}
}

// handleGetDashboard implements the get_dashboard tool
func handleGetDashboard(analyticsService interfaces.AnalyticsService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := common.ResolveUserID(ctx)

		summary, err := analyticsService.GetDashboard(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Msg("Dashboard failed")
			return errorResult(fmt.Sprintf("Dashboard error: %v", err)), nil
		}

		return textResult(formatDashboard(summary)), nil
	}
}

// handleGetGlossary implements the get_glossary tool
func handleGetGlossary(fundService interfaces.FundService, analyticsService interfaces.AnalyticsService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := common.ResolveUserID(ctx)

		var fund *models.Fund
		var net *models.NetCashFlowResult
		var projection *models.ProjectionResult

		if fundID := request.GetString("fund_id", ""); fundID != "" {
			// Non-fatal enrichment: fall back to worked examples on any miss.
			if f, err := fundService.GetFund(ctx, userID, fundID); err == nil && f != nil {
				fund = f
				if n, err := analyticsService.GetNetCashFlowSeries(ctx, userID, fundID); err == nil {
					net = n
				}
				if p, err := analyticsService.GetProjection(ctx, userID, fundID, 3); err == nil {
					projection = p
				}
			}
		}

		return textResult(formatGlossary(models.BuildGlossary(fund, net, projection))), nil
	}
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
