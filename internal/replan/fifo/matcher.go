// Package fifo assigns each sale to the inbound lot it was chronologically
// drawn from, reconstructing first-in-first-out consumption from the raw
// movement log of a single product.
package fifo

import (
	"sort"
	"time"

	"github.com/acstore/replenishment/internal/domain"
)

// MatchedSale is an outbound transaction annotated with the date of the
// inbound lot that supplied it. LotDate is the zero time when no lot at or
// before the sale date had accumulated enough quantity to cover it.
type MatchedSale struct {
	domain.OutboundTransaction
	LotDate time.Time
}

// Resolved reports whether the sale was traced back to an inbound lot.
func (m MatchedSale) Resolved() bool {
	return !m.LotDate.IsZero()
}

// MatchProduct matches every sale of one product to its origin lot.
//
// Both inputs may arrive in any order; sales are sorted by date (stable, so
// same-day rows keep log order) and lots by date then sequence number. For a
// sale at running cumulative outbound position p, the origin is the first lot
// whose cumulative inbound quantity reaches p, restricted to lots dated on or
// before the sale. Runs in O(n_out log n_in).
//
// Callers must exclude non-positive net-quantity rows beforehand.
func MatchProduct(sales []domain.OutboundTransaction, lots []domain.InboundLot) []MatchedSale {
	sorted := make([]domain.OutboundTransaction, len(sales))
	copy(sorted, sales)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	ordered := make([]domain.InboundLot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].SequenceNo < ordered[j].SequenceNo
	})

	cumIn := make([]float64, len(ordered))
	var running float64
	for i, lot := range ordered {
		running += lot.Quantity
		cumIn[i] = running
	}

	matched := make([]MatchedSale, len(sorted))
	var cumOut float64
	for i, sale := range sorted {
		cumOut += sale.NetQuantity()
		matched[i] = MatchedSale{OutboundTransaction: sale}

		// Last lot dated on or before the sale.
		k := sort.Search(len(ordered), func(j int) bool {
			return ordered[j].Date.After(sale.Date)
		}) - 1
		if k < 0 {
			continue
		}
		if cumIn[k] < cumOut {
			// Not enough inbound accumulated by the sale date.
			continue
		}

		idx := sort.Search(k+1, func(j int) bool {
			return cumIn[j] >= cumOut
		})
		matched[i].LotDate = ordered[idx].Date
	}

	return matched
}
