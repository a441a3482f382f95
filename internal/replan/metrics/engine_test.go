package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/fifo"
)

func resolvedSale(date, lotDate time.Time, qty, value float64) fifo.MatchedSale {
	return fifo.MatchedSale{
		OutboundTransaction: domain.OutboundTransaction{
			ProductID:   "P1",
			Date:        date,
			Quantity:    qty,
			LiquidValue: value,
		},
		LotDate: lotDate,
	}
}

func TestAggregateNoSales(t *testing.T) {
	e := NewEngine(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	_, ok := e.Aggregate(ProductInput{Snapshot: domain.ProductSnapshot{ProductID: "P1"}})
	assert.False(t, ok)
}

func TestAggregateBasics(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	lotDate := now.AddDate(0, 0, -40)
	sales := []fifo.MatchedSale{
		resolvedSale(now.AddDate(0, 0, -30), lotDate, 4, 100), // held 10 days
		resolvedSale(now.AddDate(0, 0, -10), lotDate, 6, 150), // held 30 days
	}

	agg, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "P1", OnHandQuantity: 20},
		Sales:    sales,
	})
	require.True(t, ok)

	assert.Equal(t, 2, agg.NumSales)
	assert.Equal(t, 10.0, agg.QtySold)
	assert.Equal(t, 250.0, agg.ValueSold)
	assert.Equal(t, now.AddDate(0, 0, -30), agg.FirstSale)
	assert.Equal(t, now.AddDate(0, 0, -10), agg.LastSale)
	assert.Equal(t, 21, agg.PeriodDays)

	// Quantity-weighted holding time: (10*4 + 30*6) / 10.
	assert.InDelta(t, 22.0, agg.HoldingDays, 1e-9)
	assert.InDelta(t, 10.0/21.0, agg.DemandPerDay, 1e-9)
}

func TestAggregateUnresolvedSalesHaveNoHoldingTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	sales := []fifo.MatchedSale{
		{OutboundTransaction: domain.OutboundTransaction{
			ProductID: "P1", Date: now.AddDate(0, 0, -5), Quantity: 3, LiquidValue: 30,
		}},
	}

	agg, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "P1"},
		Sales:    sales,
	})
	require.True(t, ok)
	assert.False(t, domain.IsDefined(agg.HoldingDays))
	assert.Equal(t, 3.0, agg.QtySold)
}

func TestAggregateSingleDayPeriod(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	d := now.AddDate(0, 0, -5)
	sales := []fifo.MatchedSale{resolvedSale(d, d.AddDate(0, 0, -1), 8, 80)}

	agg, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "P1"},
		Sales:    sales,
	})
	require.True(t, ok)
	assert.Equal(t, 1, agg.PeriodDays)
	assert.Equal(t, 8.0, agg.DemandPerDay)
}

func TestFinalizeABCPartition(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	// Values 60, 25, 10, 5 out of 100: cumulative 60, 85, 95, 100.
	values := []float64{60, 25, 10, 5}
	var aggs []ProductAggregate
	for i, v := range values {
		agg, ok := e.Aggregate(ProductInput{
			Snapshot: domain.ProductSnapshot{
				ProductID:      fmt.Sprintf("P%d", i+1),
				OnHandQuantity: 10,
			},
			Sales: []fifo.MatchedSale{
				resolvedSale(now.AddDate(0, 0, -20), now.AddDate(0, 0, -30), 1, v),
			},
		})
		require.True(t, ok)
		aggs = append(aggs, agg)
	}

	records := e.Finalize(aggs)
	require.Len(t, records, 4)

	byID := make(map[string]domain.MetricRecord)
	for _, r := range records {
		byID[r.ProductID] = r
	}
	assert.Equal(t, "A", byID["P1"].ABCClass) // cum 60%
	assert.Equal(t, "B", byID["P2"].ABCClass) // cum 85%
	assert.Equal(t, "C", byID["P3"].ABCClass) // cum 95%
	assert.Equal(t, "D", byID["P4"].ABCClass) // cum 100%

	for _, r := range records {
		assert.Contains(t, []string{"A", "B", "C", "D"}, r.ABCClass)
	}
}

func TestFinalizeRetiresDeadProducts(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	old := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)

	dead, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "DEAD", OnHandQuantity: 0},
		Sales:    []fifo.MatchedSale{resolvedSale(old, old.AddDate(0, 0, -10), 1, 10)},
	})
	require.True(t, ok)

	// Same ancient history but still holding stock: kept.
	stocked, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "STOCKED", OnHandQuantity: 3},
		Sales:    []fifo.MatchedSale{resolvedSale(old, old.AddDate(0, 0, -10), 1, 10)},
	})
	require.True(t, ok)

	records := e.Finalize([]ProductAggregate{dead, stocked})
	require.Len(t, records, 1)
	assert.Equal(t, "STOCKED", records[0].ProductID)
}

func TestFinalizeTrendAlert(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	// Sales only in recent windows push every ratio to the 2.0 cap.
	rising, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "HOT", OnHandQuantity: 5},
		Sales: []fifo.MatchedSale{
			resolvedSale(now.AddDate(0, 0, -20), now.AddDate(0, 0, -30), 10, 100),
			resolvedSale(now.AddDate(0, 0, -5), now.AddDate(0, 0, -30), 10, 100),
		},
	})
	require.True(t, ok)

	records := e.Finalize([]ProductAggregate{rising})
	require.Len(t, records, 1)
	assert.Equal(t, domain.TrendRising, records[0].TrendLabel)
	assert.Equal(t, domain.AlertYes, records[0].TrendAlert)
	assert.NotEmpty(t, records[0].Rationale)
}

func TestFinalizeTrendAdjustScalesTargets(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	// Steady seller with plenty of history; trend factor near 1 keeps the
	// adjusted targets close to base.
	var sales []fifo.MatchedSale
	for m := 0; m < 24; m++ {
		d := now.AddDate(0, -m, -10)
		sales = append(sales, resolvedSale(d, d.AddDate(0, 0, -20), 10, 100))
	}

	agg, ok := e.Aggregate(ProductInput{
		Snapshot: domain.ProductSnapshot{ProductID: "P1", OnHandQuantity: 50},
		Sales:    sales,
	})
	require.True(t, ok)

	records := e.Finalize([]ProductAggregate{agg})
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, domain.PlanningNormal, rec.PlanningType)
	assert.Greater(t, rec.MinBase, 0)
	assert.Greater(t, rec.MaxBase, rec.MinBase)
	assert.GreaterOrEqual(t, rec.TrendAdjustFactor, 0.5)
	assert.LessOrEqual(t, rec.TrendAdjustFactor, 2.0)
	assert.Equal(t, rec.MinAdjusted, rec.MinFinal)
	assert.Equal(t, rec.MaxAdjusted, rec.MaxFinal)
}
