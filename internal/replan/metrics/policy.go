package metrics

import (
	"math"
	"time"

	"github.com/acstore/replenishment/internal/domain"
)

// LeadTimeDays is the order-to-delivery lag added to every coverage range.
const LeadTimeDays = 17

// SpecialSubgroup gets wider coverage ranges and a longer inactivity cutoff:
// its products sell slowly but must never be allowed to run out.
const SpecialSubgroup = 154

// dayRange is (min coverage days, max coverage days) for one ABC class.
type dayRange struct {
	min int
	max int
}

var defaultDayRanges = map[string]dayRange{
	"A": {20, 60},
	"B": {30, 90},
	"C": {45, 120},
	"D": {0, 45},
}

var specialDayRanges = map[string]dayRange{
	"A": {45, 120},
	"B": {60, 180},
	"C": {90, 240},
	"D": {0, 120},
}

// retirementCutoff drops products whose last sale is older and that hold no
// stock.
var retirementCutoff = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// inactivityRecallQtyDays is the coverage used for the reduced max target of
// a product that stopped selling.
const inactivityRecallQtyDays = 15

func dayRangesFor(subgroup int) map[string]dayRange {
	if subgroup == SpecialSubgroup {
		return specialDayRanges
	}
	return defaultDayRanges
}

func inactivityCutoffDays(subgroup int) int {
	if subgroup == SpecialSubgroup {
		return 365
	}
	return 240
}

// baseTargets computes the pre-trend min/max stock targets from the class
// day-range table, the lead time and the stockout-adjusted demand. A product
// that has not sold within its inactivity cutoff is forced to min 0 and a
// token max.
func (e *Engine) baseTargets(class string, subgroup int, demand float64, lastSale time.Time) (int, int) {
	rng, ok := dayRangesFor(subgroup)[class]
	if !ok || !domain.IsDefined(demand) || demand <= 0 {
		return 0, 0
	}

	minTarget := ceilInt(demand * float64(rng.min+LeadTimeDays))
	maxTarget := ceilInt(demand * float64(rng.max+LeadTimeDays))

	if !lastSale.IsZero() {
		if daysBetween(lastSale, e.now) > inactivityCutoffDays(subgroup) {
			minTarget = 0
			maxTarget = maxInt(1, ceilInt(demand*inactivityRecallQtyDays))
		}
	}

	return minTarget, maxTarget
}

// clampTrendFactor bounds the trend multiplier so one hot or dead quarter
// cannot more than double or halve the targets.
func clampTrendFactor(factor float64) float64 {
	if !domain.IsDefined(factor) {
		return 1.0
	}
	return math.Max(0.5, math.Min(2.0, factor))
}

// lowHistorySales is the sale count at or below which the trend-adjusted
// targets are not trusted.
const lowHistorySales = 10

// onDemandHoldingDays: at or below this holding time a low-history product is
// treated as bought to order.
const onDemandHoldingDays = 5

// lowHistoryOverride replaces the computed targets for products with too few
// sales to support them, classifying the product's planning regime.
func lowHistoryOverride(agg ProductAggregate, minAdjusted, maxAdjusted int) (string, int, int) {
	if agg.NumSales <= 0 || agg.NumSales > lowHistorySales {
		return domain.PlanningNormal, minAdjusted, maxAdjusted
	}

	avgQtyPerSale := agg.QtySold / float64(agg.NumSales)

	if domain.IsDefined(agg.HoldingDays) && agg.HoldingDays <= onDemandHoldingDays {
		return domain.PlanningOnDemand, 0, maxInt(1, ceilInt(avgQtyPerSale*1.5))
	}
	return domain.PlanningLowHistory, 0, maxInt(1, ceilInt(avgQtyPerSale*2))
}

func ceilInt(v float64) int {
	return int(math.Ceil(v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
