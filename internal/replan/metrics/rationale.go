package metrics

import (
	"fmt"
	"strings"

	"github.com/acstore/replenishment/internal/domain"
)

// buildRationale composes the audit text explaining how a product's targets
// were derived. It reports the numbers used; it is never parsed back.
func buildRationale(rec domain.MetricRecord) string {
	var parts []string

	if domain.IsDefined(rec.DemandPerDay) {
		parts = append(parts, fmt.Sprintf(
			"Produto curva %s, categoria de estocagem '%s', com %d vendas no período e demanda média original de %.3f un/dia.",
			rec.ABCClass, rec.StockingCategory, rec.NumSales, rec.DemandPerDay))
	} else {
		parts = append(parts, fmt.Sprintf(
			"Produto curva %s, categoria de estocagem '%s', com %d vendas no período.",
			rec.ABCClass, rec.StockingCategory, rec.NumSales))
	}

	if rec.StockoutDays > 0 {
		parts = append(parts, fmt.Sprintf(
			"Houve %d dias de ruptura estimada nos últimos 2 anos. A demanda foi ajustada para %.3f un/dia.",
			rec.StockoutDays, rec.AdjustedDemandPerDay))
	}

	if rng, ok := dayRangesFor(rec.SubgroupCode)[rec.ABCClass]; ok {
		group := "padrão"
		if rec.SubgroupCode == SpecialSubgroup {
			group = fmt.Sprintf("%d", SpecialSubgroup)
		}
		parts = append(parts, fmt.Sprintf(
			"A regra base da curva %s (grupo %s) considera %d a %d dias + %d dias de lead time, resultando em cobertura de %d a %d dias. Isso gera estoque base de %d un a %d un.",
			rec.ABCClass, group, rng.min, rng.max, LeadTimeDays,
			rng.min+LeadTimeDays, rng.max+LeadTimeDays, rec.MinBase, rec.MaxBase))
	}

	if domain.IsDefined(rec.TrendFactor) {
		parts = append(parts, fmt.Sprintf(
			"Nos últimos 12 meses, as vendas estão classificadas como '%s' (fator de tendência ≈ %.2f).",
			rec.TrendLabel, rec.TrendFactor))
	} else {
		parts = append(parts, "Não há histórico suficiente para cálculo de tendência de 12 meses.")
	}

	switch rec.PlanningType {
	case domain.PlanningNormal:
		if rec.MinBase != rec.MinAdjusted || rec.MaxBase != rec.MaxAdjusted {
			parts = append(parts, fmt.Sprintf(
				"Foi aplicado um ajuste de tendência, multiplicando o estoque base, gerando mínimo ajustado de %d un e máximo ajustado de %d un.",
				rec.MinAdjusted, rec.MaxAdjusted))
		}
		parts = append(parts, fmt.Sprintf(
			"Como planejamento 'Normal', o estoque sugerido final é mínimo de %d un e máximo de %d un.",
			rec.MinFinal, rec.MaxFinal))
	case domain.PlanningOnDemand:
		parts = append(parts, fmt.Sprintf(
			"Produto com poucas vendas (%d) e tempo médio de estoque muito baixo: tratado como compra sob demanda, mínimo 0 e máximo de %d un.",
			rec.NumSales, rec.MaxFinal))
	case domain.PlanningLowHistory:
		parts = append(parts, fmt.Sprintf(
			"Produto com poucas vendas (%d) e histórico limitado: mínimo 0 e máximo conservador de %d un.",
			rec.NumSales, rec.MaxFinal))
	}

	if rec.TrendAlert == domain.AlertYes {
		parts = append(parts, "Atenção: o produto apresenta forte tendência de alta nos últimos 12 meses.")
	}

	parts = append(parts, fmt.Sprintf("O estoque atual é de %.0f un.", rec.OnHandQuantity))

	return strings.Join(parts, " ")
}
