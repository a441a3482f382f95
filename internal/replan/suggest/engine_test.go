package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acstore/replenishment/internal/domain"
)

func baseInput() Input {
	return Input{
		ProductID:    "P1",
		Description:  "produto teste",
		OnHand:       15,
		MinTarget:    20,
		MaxTarget:    60,
		HasTargets:   true,
		PlanningType: domain.PlanningNormal,
		TrendAlert:   domain.AlertNo,
		ABCClass:     "C",
		Demand:       2.0,
	}
}

func TestRoundPolicy(t *testing.T) {
	assert.Equal(t, 3, roundPolicy(2.3, "A"))
	assert.Equal(t, 3, roundPolicy(2.3, "B"))
	assert.Equal(t, 2, roundPolicy(2.3, "C"))
	assert.Equal(t, 3, roundPolicy(2.5, "C"))
	assert.Equal(t, 2, roundPolicy(2.4, "D"))
	assert.Equal(t, 3, roundPolicy(3.0, "A"))
}

func TestValidateRejectsNegativeCoverage(t *testing.T) {
	_, err := Evaluate(baseInput(), Params{CoverageDays: -5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobertura")
}

func TestValidateRejectsBadPendingQty(t *testing.T) {
	in := baseInput()
	in.PendingQty = 2.5
	_, err := Evaluate(in, Params{AnalyzeOrder: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "não inteira")

	in.PendingQty = -1
	_, err = Evaluate(in, Params{AnalyzeOrder: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negativa")
}

func TestEvaluateNoTargets(t *testing.T) {
	in := baseInput()
	in.HasTargets = false

	rec, err := Evaluate(in, Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoData, rec.Status)
	assert.Equal(t, domain.PriorityNoData, rec.Priority)
	assert.Equal(t, 0, rec.SuggestedQty)
}

func TestEvaluateNoTargetsOrderModeProjectsPending(t *testing.T) {
	in := baseInput()
	in.HasTargets = false
	in.OnHand = 3
	in.PendingQty = 2

	rec, err := Evaluate(in, Params{AnalyzeOrder: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoData, rec.Status)
	assert.InDelta(t, 5.0, rec.ProjectedStock, 1e-9)

	// Outside order analysis the pending quantity stays out of the
	// projection.
	rec, err = Evaluate(in, Params{})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, rec.ProjectedStock, 1e-9)
}

func TestEvaluateOnDemand(t *testing.T) {
	in := baseInput()
	in.PlanningType = domain.PlanningOnDemand
	in.OnHand = 1

	// Planning mode still reports the pure suggestion, which is forced to
	// zero for on-demand products.
	rec, err := Evaluate(in, Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnDemand, rec.Status)
	assert.Equal(t, 0, rec.SuggestedQty)
	assert.Equal(t, 0, rec.PureSuggestion)

	// Order mode never suggests for on-demand products.
	in.PendingQty = 10
	rec, err = Evaluate(in, Params{AnalyzeOrder: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnDemand, rec.Status)
	assert.Equal(t, 0, rec.SuggestedQty)
}

func TestEvaluateNoPolicy(t *testing.T) {
	in := baseInput()
	in.MinTarget = 0
	in.MaxTarget = 0
	in.Demand = domain.Undefined()

	rec, err := Evaluate(in, Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoPolicy, rec.Status)
	assert.Equal(t, domain.PriorityNoPolicy, rec.Priority)
	assert.Equal(t, 0, rec.SuggestedQty)
}

func TestEvaluateCriticalBelowMin(t *testing.T) {
	// demand 2/day, min 20, max 60, stock 15, no pending order.
	rec, err := Evaluate(baseInput(), Params{})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPlanning, rec.Status)
	assert.Equal(t, domain.PriorityCritical, rec.Priority)
	assert.Equal(t, 45, rec.SuggestedQty) // (60-15)*1.0
	assert.Equal(t, 45, rec.PureSuggestion)
	assert.Contains(t, rec.Rationale, "Min: 20")
}

func TestEvaluateWithinRangeOK(t *testing.T) {
	in := baseInput()
	in.OnHand = 30

	rec, err := Evaluate(in, Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityOK, rec.Priority)
	assert.Equal(t, 30, rec.SuggestedQty) // still suggests completing to max
}

func TestEvaluateWithinRangeTrendOpportunity(t *testing.T) {
	in := baseInput()
	in.OnHand = 30
	in.ABCClass = "A"
	in.TrendAlert = domain.AlertYes

	rec, err := Evaluate(in, Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityTrend, rec.Priority)
	assert.Equal(t, 36, rec.SuggestedQty) // ceil((60-30)*1.2)
}

func TestEvaluateOverstocked(t *testing.T) {
	in := baseInput()
	in.OnHand = 80

	rec, err := Evaluate(in, Params{})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityOverstocked, rec.Priority)
	assert.Equal(t, 0, rec.SuggestedQty)
	assert.Contains(t, rec.Rationale, "Exced: 20")
}

func TestEvaluateCoverageOverride(t *testing.T) {
	// Class A, trend alert, stock 50, coverage 30 days at demand 2/day:
	// max becomes 60; pending 5 projects to 55, inside the band, boost
	// applies, suggested = ceil((60-55)*1.2) = 6.
	in := baseInput()
	in.ABCClass = "A"
	in.TrendAlert = domain.AlertYes
	in.OnHand = 50
	in.PendingQty = 5

	rec, err := Evaluate(in, Params{CoverageDays: 30, AnalyzeOrder: true})
	require.NoError(t, err)

	assert.Equal(t, 60, rec.MaxTarget)
	assert.Equal(t, 55.0, rec.ProjectedStock)
	assert.Equal(t, domain.StatusAdequate, rec.Status)
	assert.Equal(t, domain.PriorityTrend, rec.Priority)
	assert.Equal(t, 6, rec.SuggestedQty)
}

func TestEvaluateCoverageOverrideKeepsMaxAboveMin(t *testing.T) {
	in := baseInput()
	in.Demand = 0.1 // ceil(0.1*30) = 3 < min 20

	rec, err := Evaluate(in, Params{CoverageDays: 30})
	require.NoError(t, err)
	assert.Equal(t, 20, rec.MinTarget)
	assert.Equal(t, 20, rec.MaxTarget)
}

func TestEvaluateCoverageIgnoredWithoutDemand(t *testing.T) {
	in := baseInput()
	in.Demand = domain.Undefined()

	rec, err := Evaluate(in, Params{CoverageDays: 30})
	require.NoError(t, err)
	assert.Equal(t, 60, rec.MaxTarget)
}

func TestEvaluateOrderInsufficient(t *testing.T) {
	in := baseInput()
	in.OnHand = 5
	in.PendingQty = 3 // projected 8 < min 20

	rec, err := Evaluate(in, Params{AnalyzeOrder: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShortOrder, rec.Status)
	assert.Equal(t, domain.PriorityCritical, rec.Priority)
	assert.Equal(t, 52, rec.SuggestedQty) // 60 - 8
	assert.Contains(t, rec.Rationale, "EstProj: 8")
}

func TestEvaluateOrderAdequateNoBoost(t *testing.T) {
	in := baseInput()
	in.OnHand = 20
	in.PendingQty = 10 // projected 30, inside [20, 60]

	rec, err := Evaluate(in, Params{AnalyzeOrder: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAdequate, rec.Status)
	assert.Equal(t, domain.PriorityOK, rec.Priority)
	assert.Equal(t, 0, rec.SuggestedQty)
}

func TestEvaluateOrderExcess(t *testing.T) {
	in := baseInput()
	in.OnHand = 50
	in.PendingQty = 30 // projected 80 > max 60

	rec, err := Evaluate(in, Params{AnalyzeOrder: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExcessOrder, rec.Status)
	assert.Equal(t, domain.PriorityExcess, rec.Priority)
	assert.Equal(t, 0, rec.SuggestedQty)
	assert.Contains(t, rec.Rationale, "Exced: 20")
}

func TestEvaluateIdempotent(t *testing.T) {
	in := baseInput()
	params := Params{CoverageDays: 45, AnalyzeOrder: true}
	in.PendingQty = 4

	first, err := Evaluate(in, params)
	require.NoError(t, err)
	second, err := Evaluate(in, params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFromMetricRecordPrefersAdjustedDemand(t *testing.T) {
	rec := domain.MetricRecord{
		ProductID:            "P1",
		DemandPerDay:         2.0,
		AdjustedDemandPerDay: 2.6,
		MinFinal:             10,
		MaxFinal:             40,
		OnHandQuantity:       5,
		PlanningType:         domain.PlanningNormal,
		TrendAlert:           domain.AlertNo,
		ABCClass:             "B",
	}

	in := FromMetricRecord(rec, 3)
	assert.Equal(t, 2.6, in.Demand)
	assert.Equal(t, 3.0, in.PendingQty)
	assert.True(t, in.HasTargets)

	rec.AdjustedDemandPerDay = 0
	in = FromMetricRecord(rec, 0)
	assert.Equal(t, 2.0, in.Demand)
}
