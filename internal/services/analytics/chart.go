package analytics

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/chitty/internal/models"
)

// RenderCashFlowChart renders a PNG of the fund's monthly net cash flow and
// cumulative position. Returns (nil, nil) when the fund is missing or its
// series is too short to chart.
func (s *Service) RenderCashFlowChart(ctx context.Context, userID, fundID string) ([]byte, error) {
	fund, err := s.storage.FundStore().GetFund(ctx, userID, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund: %w", err)
	}
	if fund == nil {
		return nil, nil
	}

	entries, err := s.storage.FundStore().ListEntries(ctx, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	points := s.reconstruct(fund, entries)
	if len(points) < 2 {
		return nil, nil
	}

	return renderCashFlowPNG(fund.Name, points)
}

// renderCashFlowPNG renders two series: Monthly Net (blue solid) and
// Cumulative Position (gray dashed). Returns raw PNG bytes.
func renderCashFlowPNG(fundName string, points []models.CashFlowPoint) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, len(points))
	monthlyY := make([]float64, len(points))
	cumulativeY := make([]float64, len(points))

	running := 0.0
	for i, p := range points {
		xValues[i] = p.Date
		monthlyY[i] = p.Amount
		running += p.Amount
		cumulativeY[i] = running
	}

	monthlySeries := chart.TimeSeries{
		Name: "Monthly Net",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: monthlyY,
	}

	cumulativeSeries := chart.TimeSeries{
		Name: "Cumulative Position",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: cumulativeY,
	}

	graph := chart.Chart{
		Title:  fundName + " Cash Flow",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{
			monthlySeries,
			cumulativeSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
