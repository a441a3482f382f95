package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/fifo"
)

func inLot(date time.Time, qty float64) domain.InboundLot {
	return domain.InboundLot{ProductID: "P1", Date: date, Quantity: qty}
}

func TestStockoutDaysNoMovementPositiveBalance(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	got := e.stockoutDays(10, nil, nil)
	assert.Equal(t, 0, got)
}

func TestStockoutDaysNoMovementZeroBalance(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	// Zero on hand and no movement: out of stock the entire window.
	got := e.stockoutDays(0, nil, nil)
	assert.Equal(t, stockoutWindowDays, got)
}

func TestStockoutDaysReconstructsGap(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	// Stocked long before the window, sold down to zero 10 days ago and
	// restocked 4 days ago. Working backwards from today's balance of 5,
	// the days from the sale to the restock (6 of them) closed at zero.
	sales := []fifo.MatchedSale{
		matchedSale(now.AddDate(0, 0, -10), 5),
	}
	lots := []domain.InboundLot{
		inLot(now.AddDate(0, 0, -800), 5),
		inLot(now.AddDate(0, 0, -4), 5),
	}

	got := e.stockoutDays(5, sales, lots)
	assert.Equal(t, 6, got)
}

func TestStockoutDaysBoundedByWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	got := e.stockoutDays(-3, nil, nil)
	assert.Equal(t, stockoutWindowDays, got)
}

func TestStockoutDaysIgnoresMovementOutsideWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(now)

	// A huge sale three years ago must not distort the reconstruction.
	sales := []fifo.MatchedSale{
		matchedSale(now.AddDate(-3, 0, 0), 1000),
	}
	got := e.stockoutDays(10, sales, nil)
	assert.Equal(t, 0, got)
}

func TestAdjustedDemand(t *testing.T) {
	assert.Equal(t, 0.0, adjustedDemand(domain.Undefined(), 100))
	assert.Equal(t, 0.0, adjustedDemand(0, 100))
	assert.Equal(t, 0.0, adjustedDemand(-1, 100))
	assert.Equal(t, 2.0, adjustedDemand(2.0, 0))
	assert.InDelta(t, 2.0*(1+365.0/730.0), adjustedDemand(2.0, 365), 1e-9)
	assert.InDelta(t, 4.0, adjustedDemand(2.0, 730), 1e-9)
}
