package server

import "github.com/bobmcallan/chitty/internal/models"

// buildToolCatalog returns the full MCP tool catalog describing all active tools
// and their HTTP mappings. Used by GET /api/mcp/tools for dynamic tool registration.
func buildToolCatalog() []models.ToolDefinition {
	fundParam := models.ParamDefinition{
		Name:        "fund_id",
		Type:        "string",
		Description: "Fund ID (e.g. 'fund_1a2b3c4d'). Use list_funds to discover IDs.",
		Required:    true,
		In:          "path",
	}
	monthParam := models.ParamDefinition{
		Name:        "month",
		Type:        "string",
		Description: "Month key in YYYY-MM format (e.g. '2024-03').",
		Required:    true,
		In:          "path",
	}

	return []models.ToolDefinition{
		// --- System ---
		{
			Name:        "get_version",
			Description: "Get the Chitty server version and status. Use this to verify connectivity.",
			Method:      "GET",
			Path:        "/api/version",
		},

		// --- Funds ---
		{
			Name:        "list_funds",
			Description: "List all chit funds with their core terms and status. Start here to discover fund IDs for the other tools.",
			Method:      "GET",
			Path:        "/api/funds",
		},
		{
			Name:        "get_fund",
			Description: "Get a single chit fund: chit value, monthly installment, duration, start and end months, early exit, and activity flags.",
			Method:      "GET",
			Path:        "/api/funds/{fund_id}",
			Params: []models.ParamDefinition{
				fundParam,
			},
		},
		{
			Name:        "create_fund",
			Description: "Create a new chit fund. The end month is derived from start_month + duration_months.",
			Method:      "POST",
			Path:        "/api/funds",
			Params: []models.ParamDefinition{
				{
					Name:        "name",
					Type:        "string",
					Description: "Display name for the fund (e.g. 'Office 50L Chit').",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "chit_value",
					Type:        "number",
					Description: "Total chit value: the pot a winning member receives before discount.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "monthly_installment",
					Type:        "number",
					Description: "Gross amount the member pays each month, before dividend.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "duration_months",
					Type:        "number",
					Description: "Total number of months the fund runs.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "start_month",
					Type:        "string",
					Description: "First month of the fund in YYYY-MM format.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "notes",
					Type:        "string",
					Description: "Free-form notes.",
					In:          "body",
				},
			},
		},
		{
			Name:        "update_fund",
			Description: "Update a chit fund. Uses merge semantics; only provided fields are changed. Set early_exit_month to '' to clear an early exit.",
			Method:      "PUT",
			Path:        "/api/funds/{fund_id}",
			Params: []models.ParamDefinition{
				fundParam,
				{
					Name:        "name",
					Type:        "string",
					Description: "Updated display name.",
					In:          "body",
				},
				{
					Name:        "chit_value",
					Type:        "number",
					Description: "Updated chit value.",
					In:          "body",
				},
				{
					Name:        "monthly_installment",
					Type:        "number",
					Description: "Updated monthly installment.",
					In:          "body",
				},
				{
					Name:        "duration_months",
					Type:        "number",
					Description: "Updated duration in months. Recomputes the end month.",
					In:          "body",
				},
				{
					Name:        "start_month",
					Type:        "string",
					Description: "Updated start month in YYYY-MM format. Recomputes the end month.",
					In:          "body",
				},
				{
					Name:        "early_exit_month",
					Type:        "string",
					Description: "Month the member exited early (YYYY-MM), truncating the active window. Empty string clears it.",
					In:          "body",
				},
				{
					Name:        "is_active",
					Type:        "boolean",
					Description: "Whether the fund is active. Inactive funds are excluded from the dashboard.",
					In:          "body",
				},
				{
					Name:        "notes",
					Type:        "string",
					Description: "Updated notes.",
					In:          "body",
				},
			},
		},
		{
			Name:        "delete_fund",
			Description: "Delete a chit fund and all of its monthly entries and bids.",
			Method:      "DELETE",
			Path:        "/api/funds/{fund_id}",
			Params: []models.ParamDefinition{
				fundParam,
			},
		},

		// --- Monthly ledger ---
		{
			Name:        "log_month",
			Description: "Log a month for a fund: the dividend received and any prize payout. Upserts by month; logging marks the month paid.",
			Method:      "POST",
			Path:        "/api/funds/{fund_id}/entries",
			Params: []models.ParamDefinition{
				fundParam,
				{
					Name:        "month_key",
					Type:        "string",
					Description: "Month to log in YYYY-MM format. Must fall inside the fund's active window.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "dividend_amount",
					Type:        "number",
					Description: "Dividend credited for the month, reducing the effective installment.",
					In:          "body",
				},
				{
					Name:        "prize_amount",
					Type:        "number",
					Description: "Prize payout received this month (non-zero only when the member won the auction).",
					In:          "body",
				},
				{
					Name:        "notes",
					Type:        "string",
					Description: "Free-form notes.",
					In:          "body",
				},
			},
		},
		{
			Name:        "delete_month",
			Description: "Delete a logged month from a fund. The month reverts to unrecorded and is skipped in the ledger view.",
			Method:      "DELETE",
			Path:        "/api/funds/{fund_id}/entries/{month}",
			Params: []models.ParamDefinition{
				fundParam,
				monthParam,
			},
		},

		// --- Auction ---
		{
			Name:        "record_bid",
			Description: "Record the winning auction bid for a month. The discount is derived as chit_value - winning_bid. Informational only; bids never feed the cash-flow math.",
			Method:      "POST",
			Path:        "/api/funds/{fund_id}/bids",
			Params: []models.ParamDefinition{
				fundParam,
				{
					Name:        "month_key",
					Type:        "string",
					Description: "Auction month in YYYY-MM format.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "winning_bid",
					Type:        "number",
					Description: "Amount the winner agreed to take, at or below the chit value.",
					Required:    true,
					In:          "body",
				},
				{
					Name:        "winner_name",
					Type:        "string",
					Description: "Name of the winning member.",
					In:          "body",
				},
				{
					Name:        "notes",
					Type:        "string",
					Description: "Free-form notes.",
					In:          "body",
				},
			},
		},
		{
			Name:        "list_bids",
			Description: "List all recorded auction bids for a fund, sorted by month.",
			Method:      "GET",
			Path:        "/api/funds/{fund_id}/bids",
			Params: []models.ParamDefinition{
				fundParam,
			},
		},

		// --- Analytics ---
		{
			Name:        "get_cash_flows",
			Description: "FAST: Get the full signed cash-flow series for a fund, one point per active month. Outflows are negative installments net of dividend; prize months add the payout.",
			Method:      "GET",
			Path:        "/api/funds/{fund_id}/cashflows",
			Params: []models.ParamDefinition{
				fundParam,
			},
		},
		{
			Name:        "get_projection",
			Description: "Project future months for a fund from recorded averages: expected dividend, prize, and net cash flow per month.",
			Method:      "GET",
			Path:        "/api/funds/{fund_id}/projection",
			Params: []models.ParamDefinition{
				fundParam,
				{
					Name:        "months_ahead",
					Type:        "number",
					Description: "Months to project (default: 6, max: 120).",
					In:          "query",
				},
			},
		},
		{
			Name:        "get_dashboard",
			Description: "Get the cross-fund dashboard: per-fund paid/total months, net position, XIRR, and portfolio-level totals across all active funds.",
			Method:      "GET",
			Path:        "/api/dashboard",
		},

		// --- Reference ---
		{
			Name:        "get_glossary",
			Description: "Get chit-fund term definitions with formulas and worked examples. Pass fund_id to substitute that fund's live numbers into the examples.",
			Method:      "GET",
			Path:        "/api/glossary",
			Params: []models.ParamDefinition{
				{
					Name:        "fund_id",
					Type:        "string",
					Description: "Optional fund whose figures are used in the examples.",
					In:          "query",
				},
			},
		},
	}
}
