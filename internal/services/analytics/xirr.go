package analytics

import (
	"math"
	"sort"

	"github.com/bobmcallan/chitty/internal/models"
)

// Solver bounds. Rates at or below -1 make the discount base non-positive,
// so Newton steps are clamped to minRate.
const (
	xirrMaxIter = 100
	xirrTol     = 1e-7
	xirrMinRate = -0.999
)

// SolveXIRR finds the annualized rate r at which the series' net present
// value is zero: Σ amount_i / (1+r)^(days_i/365), with days_i measured from
// the earliest flow. Returns ok=false when the series has no sign change or
// no solver converges; callers must treat that as "unknown", never as zero.
// The result is order-independent: flows are sorted by date internally.
func SolveXIRR(points []models.CashFlowPoint) (float64, bool) {
	flows := make([]models.CashFlowPoint, 0, len(points))
	for _, p := range points {
		if p.Date.IsZero() {
			continue
		}
		flows = append(flows, p)
	}
	if len(flows) == 0 {
		return 0, false
	}

	sort.Slice(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})

	// Need at least one negative and one positive flow
	hasNeg, hasPos := false, false
	for _, f := range flows {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		return 0, false
	}

	baseDate := flows[0].Date
	years := make([]float64, len(flows))
	for i, f := range flows {
		days := f.Date.Sub(baseDate).Hours() / 24
		years[i] = days / 365.0
	}

	rate, ok := newtonXIRR(flows, years)
	if !ok {
		rate, ok = bisectXIRR(flows, years)
	}
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	return rate, true
}

// XIRRPercent is the percentage variant of SolveXIRR. A nil result means the
// solver found no solution; null propagates unchanged to API responses.
func XIRRPercent(points []models.CashFlowPoint) *float64 {
	rate, ok := SolveXIRR(points)
	if !ok {
		return nil
	}
	pct := rate * 100
	return &pct
}

// newtonXIRR runs Newton-Raphson from a simple-return guess.
func newtonXIRR(flows []models.CashFlowPoint, years []float64) (float64, bool) {
	totalInvested := 0.0
	totalReceived := 0.0
	for _, f := range flows {
		if f.Amount < 0 {
			totalInvested -= f.Amount
		} else {
			totalReceived += f.Amount
		}
	}

	guess := 0.1
	if totalInvested > 0 {
		simpleReturn := totalReceived/totalInvested - 1
		if simpleReturn > -0.9 && simpleReturn < 10 {
			guess = simpleReturn
		}
	}

	rate := guess
	for iter := 0; iter < xirrMaxIter; iter++ {
		npv := 0.0
		dnpv := 0.0

		for i, f := range flows {
			y := years[i]
			base := 1 + rate
			if base <= 0 {
				rate = xirrMinRate
				base = 1 + rate
			}
			discount := math.Pow(base, y)
			if discount == 0 {
				continue
			}
			npv += f.Amount / discount
			if y != 0 {
				dnpv -= y * f.Amount / (discount * base)
			}
		}

		if math.Abs(npv) < xirrTol {
			return rate, true
		}
		if dnpv == 0 {
			break
		}

		newRate := rate - npv/dnpv
		if newRate < xirrMinRate {
			newRate = xirrMinRate
		}
		if newRate > 100 {
			newRate = 100
		}
		rate = newRate
	}
	return 0, false
}

// bisectXIRR is the fallback solver over a fixed bracket.
func bisectXIRR(flows []models.CashFlowPoint, years []float64) (float64, bool) {
	const (
		maxIter = 200
		tol     = 1e-6
	)

	npvAt := func(rate float64) float64 {
		sum := 0.0
		for i, f := range flows {
			base := 1 + rate
			if base <= 0 {
				return math.NaN()
			}
			sum += f.Amount / math.Pow(base, years[i])
		}
		return sum
	}

	lo, hi := -0.99, 10.0
	npvLo := npvAt(lo)
	npvHi := npvAt(hi)

	if math.IsNaN(npvLo) || math.IsNaN(npvHi) {
		return 0, false
	}
	if npvLo*npvHi > 0 {
		return 0, false
	}

	for iter := 0; iter < maxIter; iter++ {
		mid := (lo + hi) / 2
		npvMid := npvAt(mid)
		if math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < tol {
			return mid, true
		}
		if npvMid*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}

	return (lo + hi) / 2, true
}
