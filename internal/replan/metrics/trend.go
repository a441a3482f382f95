package metrics

import (
	"time"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/fifo"
)

// Trend window weights: the 6-month window dominates, recent 90 days second,
// the full year smooths both.
const (
	weight12m = 0.20
	weight6m  = 0.50
	weight90d = 0.30
)

const risingThreshold = 1.2
const fallingThreshold = 0.8

type trendResult struct {
	current12m float64
	prior12m   float64
	factor     float64
}

// trend blends three current-vs-prior window ratios into one factor.
func (e *Engine) trend(sales []fifo.MatchedSale) trendResult {
	start12m := e.now.AddDate(-1, 0, 0)
	start12mPrior := e.now.AddDate(-2, 0, 0)
	start6m := e.now.AddDate(0, -6, 0)
	start6mPrior := start12m
	start90d := e.now.AddDate(0, 0, -90)
	start90dPrior := e.now.AddDate(0, 0, -180)

	cur12 := windowSum(sales, start12m, e.now)
	pri12 := priorWindowSum(sales, start12mPrior, start12m)
	cur6 := windowSum(sales, start6m, e.now)
	pri6 := priorWindowSum(sales, start6mPrior, start6m)
	cur90 := windowSum(sales, start90d, e.now)
	pri90 := priorWindowSum(sales, start90dPrior, start90d)

	factor := weight12m*trendRatio(cur12, pri12) +
		weight6m*trendRatio(cur6, pri6) +
		weight90d*trendRatio(cur90, pri90)

	return trendResult{current12m: cur12, prior12m: pri12, factor: factor}
}

// windowSum totals net quantity for sales with start <= date <= end.
func windowSum(sales []fifo.MatchedSale, start, end time.Time) float64 {
	var total float64
	for _, s := range sales {
		if !s.Date.Before(start) && !s.Date.After(end) {
			total += s.NetQuantity()
		}
	}
	return total
}

// priorWindowSum totals net quantity for sales with start <= date < end.
func priorWindowSum(sales []fifo.MatchedSale, start, end time.Time) float64 {
	var total float64
	for _, s := range sales {
		if !s.Date.Before(start) && s.Date.Before(end) {
			total += s.NetQuantity()
		}
	}
	return total
}

// trendRatio compares a window against its predecessor. A window appearing
// out of nothing counts as a doubling; two empty windows are flat.
func trendRatio(current, prior float64) float64 {
	switch {
	case prior > 0:
		return current / prior
	case current > 0:
		return 2.0
	default:
		return 1.0
	}
}

func trendLabel(factor float64) string {
	switch {
	case !domain.IsDefined(factor):
		return domain.TrendNoData
	case factor >= risingThreshold:
		return domain.TrendRising
	case factor <= fallingThreshold:
		return domain.TrendFalling
	default:
		return domain.TrendStable
	}
}
