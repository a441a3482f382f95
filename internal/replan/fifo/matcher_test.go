package fifo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acstore/replenishment/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(date time.Time, qty float64) domain.OutboundTransaction {
	return domain.OutboundTransaction{ProductID: "P1", Date: date, Quantity: qty}
}

func lot(date time.Time, qty float64, seq int64) domain.InboundLot {
	return domain.InboundLot{ProductID: "P1", Date: date, Quantity: qty, SequenceNo: seq}
}

func TestMatchProductSingleLot(t *testing.T) {
	lots := []domain.InboundLot{lot(day(2024, 1, 10), 100, 1)}
	sales := []domain.OutboundTransaction{
		sale(day(2024, 2, 1), 30),
		sale(day(2024, 3, 1), 40),
	}

	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 2)
	for _, m := range matched {
		assert.True(t, m.Resolved())
		assert.Equal(t, day(2024, 1, 10), m.LotDate)
	}
}

func TestMatchProductCrossesLots(t *testing.T) {
	lots := []domain.InboundLot{
		lot(day(2024, 1, 1), 10, 1),
		lot(day(2024, 2, 1), 10, 2),
	}
	sales := []domain.OutboundTransaction{
		sale(day(2024, 2, 10), 8),  // cum 8, first lot
		sale(day(2024, 2, 11), 4),  // cum 12, second lot
		sale(day(2024, 2, 12), 8),  // cum 20, second lot exactly
	}

	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 3)
	assert.Equal(t, day(2024, 1, 1), matched[0].LotDate)
	assert.Equal(t, day(2024, 2, 1), matched[1].LotDate)
	assert.Equal(t, day(2024, 2, 1), matched[2].LotDate)
}

func TestMatchProductSaleBeforeAnyLot(t *testing.T) {
	lots := []domain.InboundLot{lot(day(2024, 5, 1), 50, 1)}
	sales := []domain.OutboundTransaction{sale(day(2024, 4, 1), 5)}

	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 1)
	assert.False(t, matched[0].Resolved())
}

func TestMatchProductInsufficientInbound(t *testing.T) {
	lots := []domain.InboundLot{lot(day(2024, 1, 1), 10, 1)}
	sales := []domain.OutboundTransaction{
		sale(day(2024, 2, 1), 10),
		sale(day(2024, 3, 1), 1), // cum 11 > cum inbound 10
	}

	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 2)
	assert.True(t, matched[0].Resolved())
	assert.False(t, matched[1].Resolved())
}

func TestMatchProductLotAfterSaleIgnored(t *testing.T) {
	// The later lot would cover the sale, but it had not arrived yet.
	lots := []domain.InboundLot{
		lot(day(2024, 1, 1), 5, 1),
		lot(day(2024, 6, 1), 100, 2),
	}
	sales := []domain.OutboundTransaction{
		sale(day(2024, 2, 1), 5),
		sale(day(2024, 3, 1), 3),
	}

	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 2)
	assert.Equal(t, day(2024, 1, 1), matched[0].LotDate)
	assert.False(t, matched[1].Resolved())
}

func TestMatchProductReturnsReduceNetQuantity(t *testing.T) {
	lots := []domain.InboundLot{lot(day(2024, 1, 1), 10, 1)}
	s := sale(day(2024, 2, 1), 12)
	s.ReturnedQuantity = 3 // net 9, still covered by the lot

	matched := MatchProduct([]domain.OutboundTransaction{s}, lots)
	require.Len(t, matched, 1)
	assert.True(t, matched[0].Resolved())
}

func TestMatchProductSameDayLotsFollowSequence(t *testing.T) {
	lots := []domain.InboundLot{
		lot(day(2024, 1, 1), 5, 2),
		lot(day(2024, 1, 1), 5, 1),
	}
	sales := []domain.OutboundTransaction{
		sale(day(2024, 1, 2), 5),
		sale(day(2024, 1, 3), 5),
	}

	// Both lots share a date, so both sales resolve to that date; the point
	// is that cumulative inbound is built in sequence order without panics
	// or misordering.
	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 2)
	assert.True(t, matched[0].Resolved())
	assert.True(t, matched[1].Resolved())
}

func TestMatchProductUnsortedInput(t *testing.T) {
	lots := []domain.InboundLot{
		lot(day(2024, 3, 1), 10, 2),
		lot(day(2024, 1, 1), 10, 1),
	}
	sales := []domain.OutboundTransaction{
		sale(day(2024, 3, 10), 5), // cum after sort: 15, second lot
		sale(day(2024, 2, 1), 10), // cum after sort: 10, first lot
	}

	matched := MatchProduct(sales, lots)
	require.Len(t, matched, 2)

	// Output follows sorted sale order.
	assert.Equal(t, day(2024, 2, 1), matched[0].Date)
	assert.Equal(t, day(2024, 1, 1), matched[0].LotDate)
	assert.Equal(t, day(2024, 3, 10), matched[1].Date)
	assert.Equal(t, day(2024, 3, 1), matched[1].LotDate)
}

func TestMatchProductCumulativeInboundMonotonic(t *testing.T) {
	lots := []domain.InboundLot{
		lot(day(2024, 1, 1), 3, 1),
		lot(day(2024, 1, 15), 7, 2),
		lot(day(2024, 2, 1), 2, 3),
	}

	var running float64
	for _, l := range lots {
		next := running + l.Quantity
		assert.GreaterOrEqual(t, next, running)
		running = next
	}
}

func TestMatchProductNoLots(t *testing.T) {
	matched := MatchProduct([]domain.OutboundTransaction{sale(day(2024, 1, 1), 1)}, nil)
	require.Len(t, matched, 1)
	assert.False(t, matched[0].Resolved())
}
