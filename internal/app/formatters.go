package app

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/chitty/internal/models"
)

// formatMoney renders an amount with thousands separators and two decimals.
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	intPart := s[:len(s)-3]
	frac := s[len(s)-3:]
	var sb strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	if neg {
		return "-" + sb.String() + frac
	}
	return sb.String() + frac
}

// formatSignedMoney renders an amount with an explicit sign.
func formatSignedMoney(v float64) string {
	if v >= 0 {
		return "+" + formatMoney(v)
	}
	return formatMoney(v)
}

// formatXIRR renders an XIRR pointer, distinguishing "no solution" from zero.
func formatXIRR(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// formatFundList formats funds as a markdown table
func formatFundList(funds []*models.Fund) string {
	if len(funds) == 0 {
		return "No funds found. Use create_fund to add one."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Chit Funds (%d)\n\n", len(funds)))
	sb.WriteString("| ID | Name | Chit Value | Installment | Months | Window | Active |\n")
	sb.WriteString("|----|------|------------|-------------|--------|--------|--------|\n")
	for _, f := range funds {
		window := fmt.Sprintf("%s to %s", f.StartMonth, f.EffectiveEndMonth())
		active := "yes"
		if !f.IsActive {
			active = "no"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s | %s |\n",
			f.ID, f.Name, formatMoney(f.ChitValue), formatMoney(f.MonthlyInstallment),
			f.DurationMonths, window, active))
	}
	return sb.String()
}

// formatFund formats a single fund's details
func formatFund(f *models.Fund) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Fund: %s\n\n", f.Name))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", f.ID))
	sb.WriteString(fmt.Sprintf("**Chit Value:** %s\n", formatMoney(f.ChitValue)))
	sb.WriteString(fmt.Sprintf("**Monthly Installment:** %s\n", formatMoney(f.MonthlyInstallment)))
	sb.WriteString(fmt.Sprintf("**Duration:** %d months (%s to %s)\n", f.DurationMonths, f.StartMonth, f.EndMonth))
	if f.EarlyExitMonth != "" {
		sb.WriteString(fmt.Sprintf("**Early Exit:** %s\n", f.EarlyExitMonth))
	}
	if f.IsActive {
		sb.WriteString("**Status:** active\n")
	} else {
		sb.WriteString("**Status:** inactive\n")
	}
	if f.NeedsRecalc {
		sb.WriteString("**Analytics:** stale, recomputed on next read\n")
	}
	if f.Notes != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", f.Notes))
	}
	return sb.String()
}

// formatEntry formats a logged month confirmation
func formatEntry(e *models.MonthlyEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Month %s logged for fund '%s'.\n\n", e.MonthKey, e.FundID))
	sb.WriteString(fmt.Sprintf("**Dividend:** %s\n", formatMoney(e.DividendAmount)))
	sb.WriteString(fmt.Sprintf("**Prize:** %s\n", formatMoney(e.PrizeAmount)))
	if e.IsPaid {
		sb.WriteString("**Paid:** yes\n")
	} else {
		sb.WriteString("**Paid:** no\n")
	}
	if e.Notes != "" {
		sb.WriteString(fmt.Sprintf("**Notes:** %s\n", e.Notes))
	}
	return sb.String()
}

// formatBid formats a recorded bid confirmation
func formatBid(b *models.Bid) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bid recorded for %s on fund '%s'.\n\n", b.MonthKey, b.FundID))
	sb.WriteString(fmt.Sprintf("**Winning Bid:** %s\n", formatMoney(b.WinningBid)))
	sb.WriteString(fmt.Sprintf("**Discount:** %s\n", formatMoney(b.DiscountAmount)))
	if b.WinnerName != "" {
		sb.WriteString(fmt.Sprintf("**Winner:** %s\n", b.WinnerName))
	}
	return sb.String()
}

// formatBidList formats bids as a markdown table
func formatBidList(fundID string, bids []*models.Bid) string {
	if len(bids) == 0 {
		return fmt.Sprintf("No bids recorded for fund '%s'.", fundID)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Bids: %s (%d)\n\n", fundID, len(bids)))
	sb.WriteString("| Month | Winning Bid | Discount | Winner |\n")
	sb.WriteString("|-------|-------------|----------|--------|\n")
	for _, b := range bids {
		winner := b.WinnerName
		if winner == "" {
			winner = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			b.MonthKey, formatMoney(b.WinningBid), formatMoney(b.DiscountAmount), winner))
	}
	return sb.String()
}

// formatCashFlows formats the full signed series and the recorded-month ledger
func formatCashFlows(fundID string, series []models.CashFlowPoint, net *models.NetCashFlowResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Cash Flows: %s\n\n", fundID))

	if len(series) == 0 {
		sb.WriteString("No cash flows. The fund may not exist or has no active months.\n")
		return sb.String()
	}

	total := 0.0
	for _, p := range series {
		total += p.Amount
	}
	sb.WriteString(fmt.Sprintf("**Points:** %d\n", len(series)))
	sb.WriteString(fmt.Sprintf("**Net Position:** %s\n\n", formatSignedMoney(total)))

	sb.WriteString("## Full Series\n\n")
	sb.WriteString("| Date | Amount |\n")
	sb.WriteString("|------|--------|\n")
	for _, p := range series {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date.Format("2006-01-02"), formatSignedMoney(p.Amount)))
	}

	if net != nil && len(net.Points) > 0 {
		sb.WriteString("\n## Recorded Months\n\n")
		sb.WriteString("| Month | Installment | Dividend | Net |\n")
		sb.WriteString("|-------|-------------|----------|-----|\n")
		for _, p := range net.Points {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				p.MonthKey, formatMoney(p.InstallmentAmount), formatMoney(p.DividendAmount), formatMoney(p.NetCashFlow)))
		}
		if net.SkippedMonths > 0 {
			sb.WriteString(fmt.Sprintf("\n%d entries skipped for malformed month keys.\n", net.SkippedMonths))
		}
	}

	return sb.String()
}

// formatProjection formats a forecast
func formatProjection(fundID string, p *models.ProjectionResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Projection: %s\n\n", fundID))

	if p.BasedOnMonths == 0 {
		sb.WriteString("No recorded months to project from. Log a month first.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("**Based On:** %d recorded months\n", p.BasedOnMonths))
	sb.WriteString(fmt.Sprintf("**Avg Dividend:** %s\n", formatMoney(p.AvgDividend)))
	sb.WriteString(fmt.Sprintf("**Avg Prize:** %s\n\n", formatMoney(p.AvgPrize)))

	if len(p.Points) == 0 {
		sb.WriteString("No projection horizon requested. Set months_ahead above 0.\n")
		return sb.String()
	}

	sb.WriteString("| Month | Installment | Dividend | Net |\n")
	sb.WriteString("|-------|-------------|----------|-----|\n")
	for _, pt := range p.Points {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			pt.MonthKey, formatMoney(pt.InstallmentAmount), formatMoney(pt.DividendAmount), formatSignedMoney(pt.NetCashFlow)))
	}
	return sb.String()
}

// formatDashboard formats the cross-fund summary
func formatDashboard(d *models.DashboardSummary) string {
	var sb strings.Builder
	sb.WriteString("# Dashboard\n\n")
	sb.WriteString(fmt.Sprintf("**Active Funds:** %d\n", d.FundCount))
	sb.WriteString(fmt.Sprintf("**Total Profit:** %s\n\n", formatSignedMoney(d.TotalProfit)))

	if len(d.Funds) == 0 {
		sb.WriteString("No active funds with cash flows.\n")
		return sb.String()
	}

	sb.WriteString("| Fund | Profit | XIRR | Flows |\n")
	sb.WriteString("|------|--------|------|-------|\n")
	for _, f := range d.Funds {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d |\n",
			f.FundName, formatSignedMoney(f.TotalProfit), formatXIRR(f.XIRR), f.CashFlowCount))
	}
	return sb.String()
}

// formatGlossary formats glossary categories and terms as markdown
func formatGlossary(g *models.GlossaryResponse) string {
	var sb strings.Builder
	sb.WriteString("# Chit Fund Glossary\n")
	for _, cat := range g.Categories {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", cat.Name))
		for _, term := range cat.Terms {
			sb.WriteString(fmt.Sprintf("**%s** (`%s`): %s\n", term.Label, term.Term, term.Definition))
			if term.Formula != "" {
				sb.WriteString(fmt.Sprintf("- Formula: `%s`\n", term.Formula))
			}
			if term.Example != "" {
				sb.WriteString(fmt.Sprintf("- Example: %s\n", term.Example))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
