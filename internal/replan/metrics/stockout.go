package metrics

import (
	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/fifo"
)

// stockoutWindowDays is the trailing window over which end-of-day balances
// are reconstructed; it is also the denominator of the demand adjustment.
const stockoutWindowDays = 730

// stockoutDays counts the days in the trailing window whose reconstructed
// end-of-day balance is zero or negative.
//
// The balance history is rebuilt backwards from today's on-hand quantity: a
// dense per-day net-movement array is materialized for the window, then a
// single reverse sweep subtracts each day's movement to obtain the previous
// day's closing balance. Days with no movement carry the later balance.
func (e *Engine) stockoutDays(onHand float64, sales []fifo.MatchedSale, lots []domain.InboundLot) int {
	start := e.now.AddDate(0, 0, -(stockoutWindowDays - 1))

	net := make([]float64, stockoutWindowDays)
	for _, s := range sales {
		if idx := daysBetween(start, s.Date); idx >= 0 && idx < stockoutWindowDays {
			net[idx] -= s.NetQuantity()
		}
	}
	for _, l := range lots {
		if idx := daysBetween(start, l.Date); idx >= 0 && idx < stockoutWindowDays {
			net[idx] += l.Quantity
		}
	}

	count := 0
	balance := onHand // closing balance today
	if balance <= 0 {
		count++
	}
	for i := stockoutWindowDays - 2; i >= 0; i-- {
		balance -= net[i+1]
		if balance <= 0 {
			count++
		}
	}

	return count
}

// adjustedDemand inflates the raw demand rate in proportion to the time the
// product spent unavailable: demand observed while stocked out understates
// what would have sold.
func adjustedDemand(demand float64, stockoutDays int) float64 {
	if !domain.IsDefined(demand) || demand <= 0 {
		return 0
	}
	return demand * (1 + float64(stockoutDays)/stockoutWindowDays)
}
