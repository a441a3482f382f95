// Package metrics computes the per-product demand, trend, stockout and
// classification figures that drive the min/max stocking policy.
//
// The computation is two-phase: Aggregate runs independently per product and
// is safe to call concurrently; Finalize needs every aggregate at once to
// rank products into ABC classes before the policy targets can be assigned.
package metrics

import (
	"sort"
	"time"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/fifo"
)

// ProductInput bundles everything the engine needs for one product. Sales
// must already be filtered to positive net quantity and matched by the lot
// matcher; Lots are the valid inbound rows for the same product.
type ProductInput struct {
	Snapshot domain.ProductSnapshot
	Sales    []fifo.MatchedSale
	Lots     []domain.InboundLot
}

// ProductAggregate is the phase-one result: every figure that can be derived
// from a single product's history without knowing the other products.
type ProductAggregate struct {
	Snapshot domain.ProductSnapshot

	HoldingDays float64
	QtySold     float64
	ValueSold   float64
	FirstSale   time.Time
	LastSale    time.Time
	PeriodDays  int
	NumSales    int

	DemandPerDay  float64
	Sales12m      float64
	Sales12mPrior float64
	TrendFactor   float64
	TrendLabel    string

	StockoutDays   int
	AdjustedDemand float64
}

// Engine computes metric records against a fixed reference date, so a run is
// reproducible no matter when its goroutines are scheduled.
type Engine struct {
	now time.Time
}

// NewEngine creates an engine anchored at the given reference date, which is
// truncated to midnight.
func NewEngine(now time.Time) *Engine {
	return &Engine{now: midnight(now)}
}

// Aggregate computes the phase-one figures for one product. It returns false
// when the product has no valid sale and therefore no metric record.
func (e *Engine) Aggregate(in ProductInput) (ProductAggregate, bool) {
	if len(in.Sales) == 0 {
		return ProductAggregate{}, false
	}

	agg := ProductAggregate{
		Snapshot:    in.Snapshot,
		HoldingDays: domain.Undefined(),
		NumSales:    len(in.Sales),
	}

	// Quantity-weighted average of (sale date - origin lot date) over the
	// sales the matcher could resolve.
	var weightedDays, weight float64
	for _, s := range in.Sales {
		qty := s.NetQuantity()
		agg.QtySold += qty
		agg.ValueSold += s.LiquidValue

		if agg.FirstSale.IsZero() || s.Date.Before(agg.FirstSale) {
			agg.FirstSale = s.Date
		}
		if s.Date.After(agg.LastSale) {
			agg.LastSale = s.Date
		}

		if s.Resolved() {
			weightedDays += float64(daysBetween(s.LotDate, s.Date)) * qty
			weight += qty
		}
	}
	if weight > 0 {
		agg.HoldingDays = weightedDays / weight
	}

	agg.DemandPerDay = domain.Undefined()
	if !agg.FirstSale.IsZero() && !agg.LastSale.IsZero() {
		agg.PeriodDays = daysBetween(agg.FirstSale, agg.LastSale) + 1
		if agg.PeriodDays < 1 {
			agg.PeriodDays = 1
		}
		agg.DemandPerDay = agg.QtySold / float64(agg.PeriodDays)
	}

	trend := e.trend(in.Sales)
	agg.Sales12m = trend.current12m
	agg.Sales12mPrior = trend.prior12m
	agg.TrendFactor = trend.factor
	agg.TrendLabel = trendLabel(trend.factor)

	agg.StockoutDays = e.stockoutDays(in.Snapshot.OnHandQuantity, in.Sales, in.Lots)
	agg.AdjustedDemand = adjustedDemand(agg.DemandPerDay, agg.StockoutDays)

	return agg, true
}

// Finalize ranks the aggregates into ABC classes and derives the stocking
// policy for each product. Products whose last sale predates the retirement
// cutoff and that hold no stock are dropped from the result.
func (e *Engine) Finalize(aggs []ProductAggregate) []domain.MetricRecord {
	ranked := make([]ProductAggregate, len(aggs))
	copy(ranked, aggs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return soldValue(ranked[i]) > soldValue(ranked[j])
	})

	var total float64
	for _, a := range ranked {
		total += soldValue(a)
	}

	records := make([]domain.MetricRecord, 0, len(ranked))
	var cum float64
	for _, agg := range ranked {
		cum += soldValue(agg)
		pct := 0.0
		if total > 0 {
			pct = cum / total * 100
		}

		rec, keep := e.buildRecord(agg, classifyABC(pct), pct)
		if keep {
			records = append(records, rec)
		}
	}

	return records
}

// buildRecord derives the policy fields for one classified product. The
// second return is false when the retirement filter drops the product.
func (e *Engine) buildRecord(agg ProductAggregate, class string, pct float64) (domain.MetricRecord, bool) {
	snap := agg.Snapshot

	// Last sale before the cutoff and nothing on hand: dead catalogue entry.
	if !agg.LastSale.IsZero() && agg.LastSale.Before(retirementCutoff) && snap.OnHandQuantity <= 0 {
		return domain.MetricRecord{}, false
	}

	rec := domain.MetricRecord{
		ProductID:      snap.ProductID,
		Description:    snap.Description,
		SubgroupCode:   snap.SubgroupCode,
		Brand:          snap.Brand,
		Supplier1:      snap.Supplier1,
		Supplier2:      snap.Supplier2,
		Supplier3:      snap.Supplier3,
		OnHandQuantity: snap.OnHandQuantity,

		HoldingDays: agg.HoldingDays,
		QtySold:     agg.QtySold,
		ValueSold:   agg.ValueSold,
		FirstSale:   agg.FirstSale,
		LastSale:    agg.LastSale,
		PeriodDays:  agg.PeriodDays,
		NumSales:    agg.NumSales,

		Sales12m:      agg.Sales12m,
		Sales12mPrior: agg.Sales12mPrior,
		TrendFactor:   agg.TrendFactor,
		TrendLabel:    agg.TrendLabel,

		DemandPerDay:         agg.DemandPerDay,
		StockoutDays:         agg.StockoutDays,
		AdjustedDemandPerDay: agg.AdjustedDemand,

		CumValuePct:      pct,
		ABCClass:         class,
		StockingCategory: stockingCategory(agg.HoldingDays),
	}

	rec.MinBase, rec.MaxBase = e.baseTargets(class, snap.SubgroupCode, agg.AdjustedDemand, agg.LastSale)

	rec.TrendAdjustFactor = clampTrendFactor(agg.TrendFactor)
	rec.MinAdjusted = ceilInt(float64(rec.MinBase) * rec.TrendAdjustFactor)
	rec.MaxAdjusted = ceilInt(float64(rec.MaxBase) * rec.TrendAdjustFactor)

	rec.PlanningType, rec.MinFinal, rec.MaxFinal = lowHistoryOverride(agg, rec.MinAdjusted, rec.MaxAdjusted)

	if rec.TrendLabel == domain.TrendRising && rec.TrendFactor >= risingThreshold {
		rec.TrendAlert = domain.AlertYes
	} else {
		rec.TrendAlert = domain.AlertNo
	}

	rec.Rationale = buildRationale(rec)

	return rec, true
}

func soldValue(agg ProductAggregate) float64 {
	if !domain.IsDefined(agg.ValueSold) {
		return 0
	}
	return agg.ValueSold
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(midnight(to).Sub(midnight(from)) / (24 * time.Hour))
}
