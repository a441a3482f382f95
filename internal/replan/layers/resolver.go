// Package layers re-derives which inbound lots the current on-hand stock of
// a product is still composed of, assuming the oldest lots were sold first.
package layers

import (
	"math"
	"sort"

	"github.com/acstore/replenishment/internal/domain"
)

// reconcileTolerance absorbs float drift when comparing the recorded on-hand
// quantity against the movement history.
const reconcileTolerance = 1e-4

// Resolve allocates a product's on-hand quantity across its inbound lots.
//
// Lots are walked oldest first: each lot is consumed against the total
// historical outflow, and whatever survives is allocated to the remaining
// on-hand quantity until it is fully accounted for. A missing lot history or
// a book-vs-theory mismatch yields a reconciliation flag; neither stops the
// allocation.
//
// Products with no stock on hand produce no layers and no flag.
func Resolve(snap domain.ProductSnapshot, lots []domain.InboundLot, totalOutbound float64) ([]domain.LotAllocation, *domain.ReconciliationFlag) {
	if snap.OnHandQuantity <= 0 {
		return nil, nil
	}

	if len(lots) == 0 {
		return nil, &domain.ReconciliationFlag{
			ProductID:      snap.ProductID,
			Reason:         "produto com estoque disponível mas sem entradas registradas",
			OnHandQuantity: snap.OnHandQuantity,
			ComputedOnHand: 0,
		}
	}

	ordered := make([]domain.InboundLot, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].SequenceNo < ordered[j].SequenceNo
	})

	var totalInbound float64
	for _, lot := range ordered {
		if lot.Quantity > 0 {
			totalInbound += lot.Quantity
		}
	}

	var flag *domain.ReconciliationFlag
	theoretical := totalInbound - totalOutbound
	if math.Abs(theoretical-snap.OnHandQuantity) > reconcileTolerance {
		flag = &domain.ReconciliationFlag{
			ProductID:      snap.ProductID,
			Reason:         "divergência entre saldo FIFO teórico e estoque disponível",
			OnHandQuantity: snap.OnHandQuantity,
			ComputedOnHand: theoretical,
		}
	}

	var allocations []domain.LotAllocation
	toDistribute := snap.OnHandQuantity
	soldLeft := totalOutbound
	layerIndex := 0

	for _, lot := range ordered {
		if lot.Quantity <= 0 {
			continue
		}

		remaining := lot.Quantity
		if soldLeft > 0 {
			if soldLeft >= remaining {
				soldLeft -= remaining
				remaining = 0
			} else {
				remaining -= soldLeft
				soldLeft = 0
			}
		}

		if remaining > 0 && toDistribute > 0 {
			qty := math.Min(remaining, toDistribute)
			toDistribute -= qty

			layerIndex++
			allocations = append(allocations, domain.LotAllocation{
				ProductID:      snap.ProductID,
				Description:    snap.Description,
				OnHandQuantity: snap.OnHandQuantity,
				LayerIndex:     layerIndex,
				LotDate:        lot.Date,
				Quantity:       qty,
			})
		}

		if toDistribute <= 0 {
			break
		}
	}

	return allocations, flag
}

// WideForm collapses long-form allocations into one row per product, layers
// ordered by index.
func WideForm(allocations []domain.LotAllocation) []domain.WideAllocation {
	byProduct := make(map[string]*domain.WideAllocation)
	order := make([]string, 0)

	sorted := make([]domain.LotAllocation, len(allocations))
	copy(sorted, allocations)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].LayerIndex < sorted[j].LayerIndex
	})

	for _, alloc := range sorted {
		wide, ok := byProduct[alloc.ProductID]
		if !ok {
			wide = &domain.WideAllocation{
				ProductID:      alloc.ProductID,
				Description:    alloc.Description,
				OnHandQuantity: alloc.OnHandQuantity,
			}
			byProduct[alloc.ProductID] = wide
			order = append(order, alloc.ProductID)
		}
		wide.LayerTotal += alloc.Quantity
		wide.Layers = append(wide.Layers, domain.WideLayer{
			LotDate:  alloc.LotDate,
			Quantity: alloc.Quantity,
		})
	}

	result := make([]domain.WideAllocation, 0, len(order))
	for _, id := range order {
		result = append(result, *byProduct[id])
	}
	return result
}
