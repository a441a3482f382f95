package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acstore/replenishment/internal/domain"
)

func TestClassifyABC(t *testing.T) {
	tests := []struct {
		cumPct float64
		want   string
	}{
		{0, "A"},
		{35.5, "A"},
		{70, "A"},
		{70.01, "B"},
		{90, "B"},
		{90.01, "C"},
		{97, "C"},
		{97.01, "D"},
		{100, "D"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyABC(tt.cumPct), "cumPct=%v", tt.cumPct)
	}
}

func TestStockingCategory(t *testing.T) {
	tests := []struct {
		name        string
		holdingDays float64
		want        string
	}{
		{"undefined", domain.Undefined(), domain.CategoryNoData},
		{"fast boundary", 60, domain.CategoryFast},
		{"medium", 61, domain.CategoryMedium},
		{"medium boundary", 120, domain.CategoryMedium},
		{"slow", 121, domain.CategorySlow},
		{"slow boundary", 240, domain.CategorySlow},
		{"obsolete", 241, domain.CategoryObsolete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stockingCategory(tt.holdingDays))
		})
	}
}
