package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the Chitty server version and status. Use this to verify connectivity."),
	)
}

// createListFundsTool returns the list_funds tool definition
func createListFundsTool() mcp.Tool {
	return mcp.NewTool("list_funds",
		mcp.WithDescription("List all chit funds with their core terms and status. Start here to discover fund IDs for the other tools."),
	)
}

// createGetFundTool returns the get_fund tool definition
func createGetFundTool() mcp.Tool {
	return mcp.NewTool("get_fund",
		mcp.WithDescription("Get a single chit fund: chit value, monthly installment, duration, start and end months, early exit, and activity flags."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund ID (e.g. 'fund_1a2b3c4d')"),
		),
	)
}

// createCreateFundTool returns the create_fund tool definition
func createCreateFundTool() mcp.Tool {
	return mcp.NewTool("create_fund",
		mcp.WithDescription("Create a new chit fund. The end month is derived from start_month + duration_months."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name for the fund (e.g. 'Office 50L Chit')"),
		),
		mcp.WithNumber("chit_value",
			mcp.Required(),
			mcp.Description("Total chit value: the pot a winning member receives before discount"),
		),
		mcp.WithNumber("monthly_installment",
			mcp.Required(),
			mcp.Description("Gross amount the member pays each month, before dividend"),
		),
		mcp.WithNumber("duration_months",
			mcp.Required(),
			mcp.Description("Total number of months the fund runs"),
		),
		mcp.WithString("start_month",
			mcp.Required(),
			mcp.Description("First month of the fund in YYYY-MM format"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
	)
}

// createUpdateFundTool returns the update_fund tool definition
func createUpdateFundTool() mcp.Tool {
	return mcp.NewTool("update_fund",
		mcp.WithDescription("Update a chit fund. Uses merge semantics; only provided fields are changed. Set early_exit_month to '' to clear an early exit."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund ID to update"),
		),
		mcp.WithString("name",
			mcp.Description("Updated display name"),
		),
		mcp.WithNumber("chit_value",
			mcp.Description("Updated chit value"),
		),
		mcp.WithNumber("monthly_installment",
			mcp.Description("Updated monthly installment"),
		),
		mcp.WithNumber("duration_months",
			mcp.Description("Updated duration in months; recomputes the end month"),
		),
		mcp.WithString("start_month",
			mcp.Description("Updated start month in YYYY-MM format; recomputes the end month"),
		),
		mcp.WithString("early_exit_month",
			mcp.Description("Month the member exited early (YYYY-MM). Empty string clears it."),
		),
		mcp.WithBoolean("is_active",
			mcp.Description("Whether the fund is active. Inactive funds are excluded from the dashboard."),
		),
		mcp.WithString("notes",
			mcp.Description("Updated notes"),
		),
	)
}

// createDeleteFundTool returns the delete_fund tool definition
func createDeleteFundTool() mcp.Tool {
	return mcp.NewTool("delete_fund",
		mcp.WithDescription("Delete a chit fund and all of its monthly entries and bids."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund ID to delete"),
		),
	)
}

// createLogMonthTool returns the log_month tool definition
func createLogMonthTool() mcp.Tool {
	return mcp.NewTool("log_month",
		mcp.WithDescription("Log a month for a fund: the dividend received and any prize payout. Upserts by month; logging marks the month paid."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund the month belongs to"),
		),
		mcp.WithString("month_key",
			mcp.Required(),
			mcp.Description("Month to log in YYYY-MM format. Must fall inside the fund's active window."),
		),
		mcp.WithNumber("dividend_amount",
			mcp.Description("Dividend credited for the month, reducing the effective installment"),
		),
		mcp.WithNumber("prize_amount",
			mcp.Description("Prize payout received this month (non-zero only when the member won the auction)"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
	)
}

// createDeleteMonthTool returns the delete_month tool definition
func createDeleteMonthTool() mcp.Tool {
	return mcp.NewTool("delete_month",
		mcp.WithDescription("Delete a logged month from a fund. The month reverts to unrecorded and is skipped in the ledger view."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund the month belongs to"),
		),
		mcp.WithString("month_key",
			mcp.Required(),
			mcp.Description("Month to delete in YYYY-MM format"),
		),
	)
}

// createRecordBidTool returns the record_bid tool definition
func createRecordBidTool() mcp.Tool {
	return mcp.NewTool("record_bid",
		mcp.WithDescription("Record the winning auction bid for a month. The discount is derived as chit_value - winning_bid. Informational only; bids never feed the cash-flow math."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund the auction belongs to"),
		),
		mcp.WithString("month_key",
			mcp.Required(),
			mcp.Description("Auction month in YYYY-MM format"),
		),
		mcp.WithNumber("winning_bid",
			mcp.Required(),
			mcp.Description("Amount the winner agreed to take, at or below the chit value"),
		),
		mcp.WithString("winner_name",
			mcp.Description("Name of the winning member"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
	)
}

// createListBidsTool returns the list_bids tool definition
func createListBidsTool() mcp.Tool {
	return mcp.NewTool("list_bids",
		mcp.WithDescription("List all recorded auction bids for a fund, sorted by month."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund to list bids for"),
		),
	)
}

// createGetCashFlowsTool returns the get_cash_flows tool definition
func createGetCashFlowsTool() mcp.Tool {
	return mcp.NewTool("get_cash_flows",
		mcp.WithDescription("Get the full signed cash-flow series for a fund, one point per active month, plus the recorded-month ledger view."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund to compute cash flows for"),
		),
	)
}

// createGetProjectionTool returns the get_projection tool definition
func createGetProjectionTool() mcp.Tool {
	return mcp.NewTool("get_projection",
		mcp.WithDescription("Project future months for a fund from recorded averages: expected dividend, prize, and net cash flow per month."),
		mcp.WithString("fund_id",
			mcp.Required(),
			mcp.Description("Fund to project"),
		),
		mcp.WithNumber("months_ahead",
			mcp.Description("Months to project (default: 6, max: 120)"),
		),
	)
}

// createGetDashboardTool returns the get_dashboard tool definition
func createGetDashboardTool() mcp.Tool {
	return mcp.NewTool("get_dashboard",
		mcp.WithDescription("Get the cross-fund dashboard: per-fund profit and XIRR plus portfolio-level totals across all active funds."),
	)
}

// createGetGlossaryTool returns the get_glossary tool definition
func createGetGlossaryTool() mcp.Tool {
	return mcp.NewTool("get_glossary",
		mcp.WithDescription("Get chit-fund term definitions with formulas and worked examples. Pass fund_id to substitute that fund's live numbers into the examples."),
		mcp.WithString("fund_id",
			mcp.Description("Optional fund whose figures are used in the examples"),
		),
	)
}
