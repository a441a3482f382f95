package metrics

import "github.com/acstore/replenishment/internal/domain"

// classifyABC maps a cumulative value-share percentage to a value class.
// Thresholds follow the classic 70/90/97 split.
func classifyABC(cumPct float64) string {
	switch {
	case cumPct <= 70:
		return "A"
	case cumPct <= 90:
		return "B"
	case cumPct <= 97:
		return "C"
	default:
		return "D"
	}
}

// stockingCategory buckets a product by its average holding time in days.
func stockingCategory(holdingDays float64) string {
	switch {
	case !domain.IsDefined(holdingDays):
		return domain.CategoryNoData
	case holdingDays <= 60:
		return domain.CategoryFast
	case holdingDays <= 120:
		return domain.CategoryMedium
	case holdingDays <= 240:
		return domain.CategorySlow
	default:
		return domain.CategoryObsolete
	}
}
