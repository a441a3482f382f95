// Package suggest turns a product's classification record into a concrete
// purchase suggestion, optionally evaluating a pending quotation order against
// the product's stock targets.
package suggest

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/acstore/replenishment/internal/domain"
)

// trendBoost inflates the restock quantity of A/B products flagged with a
// strong rising trend.
const trendBoost = 1.2

// Params carries the caller-controlled knobs of one evaluation. They are
// explicit per call so concurrent evaluations of different orders never share
// state.
type Params struct {
	// CoverageDays overrides the max target as demand times this window.
	// Zero means use the record's own max target.
	CoverageDays int
	// AnalyzeOrder switches the engine to order-analysis mode: the pending
	// quantity enters the projected stock and the order-specific branches
	// apply.
	AnalyzeOrder bool
}

// Validate rejects malformed caller input before any computation runs.
func (p Params) Validate() error {
	if p.CoverageDays < 0 {
		return errors.Errorf("janela de cobertura inválida: %d dias", p.CoverageDays)
	}
	return nil
}

// Input is everything the engine needs about one product.
type Input struct {
	ProductID   string
	Description string

	OnHand     float64
	MinTarget  int
	MaxTarget  int
	HasTargets bool

	PlanningType string
	TrendAlert   string
	ABCClass     string

	// Demand is the stockout-adjusted daily demand; Undefined when the
	// product has no usable sales history.
	Demand float64

	// PendingQty is the quantity on the order being analyzed. It must be a
	// non-negative whole number.
	PendingQty float64
}

// FromMetricRecord builds an engine input from a stored classification row.
func FromMetricRecord(rec domain.MetricRecord, pendingQty float64) Input {
	demand := rec.DemandPerDay
	if domain.IsDefined(rec.AdjustedDemandPerDay) && rec.AdjustedDemandPerDay > 0 {
		demand = rec.AdjustedDemandPerDay
	}
	return Input{
		ProductID:    rec.ProductID,
		Description:  rec.Description,
		OnHand:       rec.OnHandQuantity,
		MinTarget:    rec.MinFinal,
		MaxTarget:    rec.MaxFinal,
		HasTargets:   true,
		PlanningType: rec.PlanningType,
		TrendAlert:   rec.TrendAlert,
		ABCClass:     rec.ABCClass,
		Demand:       demand,
		PendingQty:   pendingQty,
	}
}

// Evaluate runs the decision tree for one product and returns its suggestion.
// It is a pure function of its arguments.
func Evaluate(in Input, params Params) (domain.SuggestionRecord, error) {
	if err := params.Validate(); err != nil {
		return domain.SuggestionRecord{}, err
	}
	if err := validatePending(in.PendingQty); err != nil {
		return domain.SuggestionRecord{}, errors.Wrapf(err, "produto %s", in.ProductID)
	}

	rec := domain.SuggestionRecord{
		ProductID:   in.ProductID,
		Description: in.Description,
	}

	if !in.HasTargets {
		rec.Status = domain.StatusNoData
		rec.Priority = domain.PriorityNoData
		rec.ProjectedStock = in.OnHand
		if params.AnalyzeOrder {
			rec.ProjectedStock += in.PendingQty
		}
		rec.Rationale = "Produto sem dados de mínimo/máximo calculados."
		return rec, nil
	}

	minT, maxT := scaleTargets(in, params)
	rec.MinTarget = minT
	rec.MaxTarget = maxT

	projected := in.OnHand
	if params.AnalyzeOrder {
		projected += in.PendingQty
	}
	rec.ProjectedStock = projected

	boosted := in.TrendAlert == domain.AlertYes && (in.ABCClass == "A" || in.ABCClass == "B")
	pure := pureSuggestion(in, maxT, boosted)
	rec.PureSuggestion = pure

	switch {
	case in.PlanningType == domain.PlanningOnDemand:
		rec.Status = domain.StatusOnDemand
		rec.Priority = domain.PriorityOnDemand
		if !params.AnalyzeOrder {
			rec.SuggestedQty = pure
		}
		rec.Rationale = fmt.Sprintf(
			"Produto sob demanda. Est: %.0f. Comprar apenas contra pedido firme.", in.OnHand)

	case minT == 0 && maxT == 0:
		rec.Status = domain.StatusNoPolicy
		rec.Priority = domain.PriorityNoPolicy
		rec.Rationale = fmt.Sprintf(
			"Sem política de estoque definida (Min e Max zerados). Est: %.0f.", in.OnHand)

	case !params.AnalyzeOrder:
		evaluatePlanning(&rec, in, minT, maxT, boosted, pure)

	default:
		evaluateOrder(&rec, in, minT, maxT, boosted, projected)
	}

	return rec, nil
}

// validatePending rejects fractional or negative pending-order quantities.
func validatePending(qty float64) error {
	if qty < 0 {
		return errors.Errorf("quantidade de pedido negativa: %.2f", qty)
	}
	if qty != math.Trunc(qty) {
		return errors.Errorf("quantidade de pedido não inteira: %.2f", qty)
	}
	return nil
}

// scaleTargets applies the caller's coverage-window override: the max target
// becomes demand times the window, the min target passes through untouched,
// and max never drops below min.
func scaleTargets(in Input, params Params) (int, int) {
	minT := in.MinTarget
	maxT := in.MaxTarget
	if params.CoverageDays > 0 && domain.IsDefined(in.Demand) && in.Demand > 0 {
		maxT = int(math.Ceil(in.Demand * float64(params.CoverageDays)))
	}
	if maxT < minT {
		maxT = minT
	}
	return minT, maxT
}

// pureSuggestion is the restock-to-max quantity, ignoring any pending order.
func pureSuggestion(in Input, maxT int, boosted bool) int {
	if in.PlanningType == domain.PlanningOnDemand || maxT <= 0 || in.OnHand >= float64(maxT) {
		return 0
	}
	qty := float64(maxT) - in.OnHand
	if boosted {
		qty *= trendBoost
	}
	return roundPolicy(qty, in.ABCClass)
}

// roundPolicy rounds a suggested quantity: A/B always round up, the remaining
// classes round to nearest with ties up.
func roundPolicy(qty float64, class string) int {
	if class == "A" || class == "B" {
		return int(math.Ceil(qty))
	}
	return int(math.Floor(qty + 0.5))
}

// evaluatePlanning is the general planning mode: no specific order, the
// current stock is compared directly against the target band.
func evaluatePlanning(rec *domain.SuggestionRecord, in Input, minT, maxT int, boosted bool, pure int) {
	rec.Status = domain.StatusPlanning
	rec.SuggestedQty = pure

	switch {
	case in.OnHand < float64(minT):
		rec.Priority = domain.PriorityCritical
		rec.Rationale = fmt.Sprintf(
			"Est: %.0f < Min: %d. Sugere-se +%d p/ atingir Max: %d.",
			in.OnHand, minT, pure, maxT)
	case in.OnHand < float64(maxT):
		if boosted && pure > 0 {
			rec.Priority = domain.PriorityTrend
			rec.Rationale = fmt.Sprintf(
				"Est: %.0f dentro da faixa [%d, %d], mas tendência de alta: +%d (boost %.1fx).",
				in.OnHand, minT, maxT, pure, trendBoost)
		} else {
			rec.Priority = domain.PriorityOK
			rec.Rationale = fmt.Sprintf(
				"Est: %.0f dentro da faixa [%d, %d].", in.OnHand, minT, maxT)
		}
	default:
		rec.Priority = domain.PriorityOverstocked
		rec.Rationale = fmt.Sprintf(
			"Est: %.0f >= Max: %d. Exced: %.0f. Não comprar.",
			in.OnHand, maxT, in.OnHand-float64(maxT))
	}
}

// evaluateOrder is the order-analysis mode: the projected stock after the
// pending order lands is compared against the target band.
func evaluateOrder(rec *domain.SuggestionRecord, in Input, minT, maxT int, boosted bool, projected float64) {
	shortfall := float64(maxT) - projected
	boost := 1.0
	if boosted {
		boost = trendBoost
	}

	switch {
	case projected < float64(minT):
		rec.Status = domain.StatusShortOrder
		rec.Priority = domain.PriorityCritical
		rec.SuggestedQty = roundPolicy(shortfall*boost, in.ABCClass)
		rec.Rationale = fmt.Sprintf(
			"EstProj: %.0f (Est: %.0f + Ped: %.0f) < Min: %d. Sugere-se +%d p/ atingir Max: %d.",
			projected, in.OnHand, in.PendingQty, minT, rec.SuggestedQty, maxT)

	case projected <= float64(maxT):
		rec.Status = domain.StatusAdequate
		if boosted {
			rec.SuggestedQty = roundPolicy(shortfall*boost, in.ABCClass)
			if rec.SuggestedQty > 0 {
				rec.Priority = domain.PriorityTrend
				rec.Rationale = fmt.Sprintf(
					"EstProj: %.0f (Est: %.0f + Ped: %.0f) dentro da faixa [%d, %d], tendência de alta: +%d (boost %.1fx).",
					projected, in.OnHand, in.PendingQty, minT, maxT, rec.SuggestedQty, trendBoost)
			} else {
				rec.Priority = domain.PriorityOK
				rec.Rationale = fmt.Sprintf(
					"EstProj: %.0f (Est: %.0f + Ped: %.0f) dentro da faixa [%d, %d].",
					projected, in.OnHand, in.PendingQty, minT, maxT)
			}
		} else {
			rec.Priority = domain.PriorityOK
			rec.Rationale = fmt.Sprintf(
				"EstProj: %.0f (Est: %.0f + Ped: %.0f) dentro da faixa [%d, %d]. Compra suficiente.",
				projected, in.OnHand, in.PendingQty, minT, maxT)
		}

	default:
		rec.Status = domain.StatusExcessOrder
		rec.Priority = domain.PriorityExcess
		rec.Rationale = fmt.Sprintf(
			"EstProj: %.0f (Est: %.0f + Ped: %.0f) > Max: %d. Exced: %.0f. Reduzir pedido.",
			projected, in.OnHand, in.PendingQty, maxT, projected-float64(maxT))
	}
}
