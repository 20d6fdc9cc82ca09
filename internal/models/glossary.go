package models

import (
	"fmt"
	"time"
)

// GlossaryResponse is the top-level response for the glossary endpoint.
type GlossaryResponse struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Categories  []GlossaryCategory `json:"categories"`
}

// GlossaryCategory groups related glossary terms.
type GlossaryCategory struct {
	Name  string         `json:"name"`
	Terms []GlossaryTerm `json:"terms"`
}

// GlossaryTerm defines a single chit-fund term.
type GlossaryTerm struct {
	Term       string `json:"term"`
	Label      string `json:"label"`
	Definition string `json:"definition"`
	Formula    string `json:"formula,omitempty"`
	Example    string `json:"example,omitempty"`
}

// BuildGlossary constructs the glossary. All inputs may be nil; when a fund
// and its series are given, examples use that fund's live numbers, otherwise
// a canonical worked example is used.
func BuildGlossary(fund *Fund, net *NetCashFlowResult, projection *ProjectionResult) *GlossaryResponse {
	resp := &GlossaryResponse{
		GeneratedAt: time.Now(),
	}

	resp.Categories = append(resp.Categories, buildFundBasicsCategory(fund))
	resp.Categories = append(resp.Categories, buildLedgerCategory(fund, net))
	resp.Categories = append(resp.Categories, buildAuctionCategory(fund))
	resp.Categories = append(resp.Categories, buildReturnsCategory(projection))

	return resp
}

func buildFundBasicsCategory(fund *Fund) GlossaryCategory {
	chitValue := 100000.0
	installment := 5000.0
	duration := 20
	startMonth := "2024-01"
	endMonth := "2025-08"
	if fund != nil {
		chitValue = fund.ChitValue
		installment = fund.MonthlyInstallment
		duration = fund.DurationMonths
		startMonth = fund.StartMonth
		endMonth = fund.EndMonth
	}

	return GlossaryCategory{
		Name: "Fund Basics",
		Terms: []GlossaryTerm{
			{
				Term:       "chit_value",
				Label:      "Chit Value",
				Definition: "The total pool of the fund, paid out once per cycle to the winning member.",
				Example:    fmtAmount(chitValue),
			},
			{
				Term:       "monthly_installment",
				Label:      "Monthly Installment",
				Definition: "The fixed amount every member pays into the pool each active month.",
				Example:    fmt.Sprintf("%s per month for %d months", fmtAmount(installment), duration),
			},
			{
				Term:       "duration_months",
				Label:      "Duration",
				Definition: "Number of months the fund runs; usually equals the number of members.",
				Example:    fmt.Sprintf("%d months", duration),
			},
			{
				Term:       "end_month",
				Label:      "End Month",
				Definition: "The final active month, derived from the start month plus the duration.",
				Formula:    "start_month + (duration_months - 1)",
				Example:    fmt.Sprintf("%s + %d months = %s", startMonth, duration-1, endMonth),
			},
			{
				Term:       "early_exit_month",
				Label:      "Early Exit Month",
				Definition: "When set, the month the member left the fund before its natural end. Reconstruction stops here.",
				Example:    earlyExitExample(fund),
			},
		},
	}
}

func buildLedgerCategory(fund *Fund, net *NetCashFlowResult) GlossaryCategory {
	installment := 5000.0
	if fund != nil {
		installment = fund.MonthlyInstallment
	}
	dividend := 800.0
	netFlow := installment - dividend
	example := fmt.Sprintf("%s - %s = %s", fmtAmount(installment), fmtAmount(dividend), fmtAmount(netFlow))
	skipped := 0
	if net != nil {
		skipped = net.SkippedMonths
		if len(net.Points) > 0 {
			last := net.Points[len(net.Points)-1]
			example = fmt.Sprintf("%s: %s - %s = %s", last.MonthKey,
				fmtAmount(last.InstallmentAmount), fmtAmount(last.DividendAmount), fmtAmount(last.NetCashFlow))
		}
	}

	return GlossaryCategory{
		Name: "Monthly Ledger",
		Terms: []GlossaryTerm{
			{
				Term:       "dividend_amount",
				Label:      "Dividend",
				Definition: "The member's share of the auction discount, distributed back each month.",
				Example:    "A 16,000 discount split across 20 members gives each an 800 dividend.",
			},
			{
				Term:       "prize_amount",
				Label:      "Prize",
				Definition: "The payout received in the month the member wins the auction. Recorded on that month's entry.",
				Example:    "Winning at a bid of 84,000 pays out 84,000 as the prize.",
			},
			{
				Term:       "net_cash_flow",
				Label:      "Net Cash Flow",
				Definition: "Installment minus dividend for a recorded month. Larger means a worse month for the saver. Prize payouts are excluded from this view.",
				Formula:    "monthly_installment - dividend_amount",
				Example:    example,
			},
			{
				Term:       "skipped_months",
				Label:      "Skipped Months",
				Definition: "Recorded entries dropped from the ledger because their month key was malformed.",
				Example:    fmt.Sprintf("%d", skipped),
			},
		},
	}
}

func buildAuctionCategory(fund *Fund) GlossaryCategory {
	chitValue := 100000.0
	if fund != nil {
		chitValue = fund.ChitValue
	}
	bid := chitValue * 0.84
	discount := chitValue - bid

	return GlossaryCategory{
		Name: "Auction",
		Terms: []GlossaryTerm{
			{
				Term:       "winning_bid",
				Label:      "Winning Bid",
				Definition: "The lowest amount a member is willing to accept in the month's auction. The winner takes this as the prize.",
				Example:    fmtAmount(bid),
			},
			{
				Term:       "discount_amount",
				Label:      "Discount",
				Definition: "The amount forgone by the winner, distributed to all members as dividends.",
				Formula:    "chit_value - winning_bid",
				Example:    fmt.Sprintf("%s - %s = %s", fmtAmount(chitValue), fmtAmount(bid), fmtAmount(discount)),
			},
			{
				Term:       "winner_name",
				Label:      "Winner",
				Definition: "The member who won the month's auction. Informational only; bids never feed the cash-flow math.",
			},
		},
	}
}

func buildReturnsCategory(projection *ProjectionResult) GlossaryCategory {
	projExample := "With avg dividend 800 and avg prize 0, a 5,000 installment projects to -4,200 per future month."
	if projection != nil && projection.BasedOnMonths > 0 && len(projection.Points) > 0 {
		p := projection.Points[0]
		projExample = fmt.Sprintf("%s: %s + %s - %s = %s (from %d recorded months)",
			p.MonthKey, fmtAmount(projection.AvgDividend), fmtAmount(projection.AvgPrize),
			fmtAmount(p.InstallmentAmount), fmtAmount(p.NetCashFlow), projection.BasedOnMonths)
	}

	return GlossaryCategory{
		Name: "Returns",
		Terms: []GlossaryTerm{
			{
				Term:       "total_profit",
				Label:      "Total Profit",
				Definition: "Sum of all signed cash flows: dividends and prizes received minus installments paid.",
				Formula:    "sum(dividends) + sum(prizes) - sum(installments)",
			},
			{
				Term:       "xirr",
				Label:      "XIRR",
				Definition: "Annualized internal rate of return over the fund's dated cash flows. Null when the flows admit no solution, never zero-as-unknown.",
				Formula:    "rate r where sum(amount / (1 + r)^(days/365)) = 0",
				Example:    "Paying 5,000 monthly and winning 90,000 mid-cycle can yield an XIRR above 20%.",
			},
			{
				Term:       "projected_net_cash_flow",
				Label:      "Projected Net Cash Flow",
				Definition: "Forecast for a future month from the averages of recorded months, signed like the full series.",
				Formula:    "avg_dividend + avg_prize - monthly_installment",
				Example:    projExample,
			},
		},
	}
}

func fmtAmount(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-%.2f", -v)
	}
	return fmt.Sprintf("%.2f", v)
}

func earlyExitExample(fund *Fund) string {
	if fund == nil || fund.EarlyExitMonth == "" {
		return "A fund running 2024-01 to 2025-08 with an early exit in 2024-10 reconstructs only through 2024-10."
	}
	return fmt.Sprintf("This fund exits early in %s (natural end %s).", fund.EarlyExitMonth, fund.EndMonth)
}
