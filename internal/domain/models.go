// internal/domain/models.go
package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Undefined is the sentinel for numeric fields the source data cannot resolve
// (no sales, no matched lot, and so on). Callers test it with IsDefined.
func Undefined() float64 { return math.NaN() }

// IsDefined reports whether a metric value carries real data.
func IsDefined(v float64) bool { return !math.IsNaN(v) }

// OutboundTransaction is one stock outflow row from the movement log.
type OutboundTransaction struct {
	ProductID        string    `db:"product_id"`
	Date             time.Time `db:"moved_at"`
	Quantity         float64   `db:"quantity"`
	ReturnedQuantity float64   `db:"returned_quantity"`
	LiquidValue      float64   `db:"liquid_value"`
	OriginCode       string    `db:"origin_code"`
}

// NetQuantity is the sold quantity after returns. Rows with a non-positive
// net quantity are excluded from all sales-based calculations.
func (t OutboundTransaction) NetQuantity() float64 {
	return t.Quantity - t.ReturnedQuantity
}

// InboundLot is one stock inflow row. SequenceNo breaks ties between lots
// booked on the same date.
type InboundLot struct {
	ProductID  string    `db:"product_id"`
	Date       time.Time `db:"received_at"`
	Quantity   float64   `db:"quantity"`
	SequenceNo int64     `db:"sequence_no"`
	OriginCode string    `db:"origin_code"`
}

// ProductSnapshot is the point-in-time product master row, including the
// current on-hand quantity the layer resolver reconciles against.
type ProductSnapshot struct {
	ProductID      string  `db:"product_id"`
	Description    string  `db:"description"`
	SubgroupCode   int     `db:"subgroup_code"`
	OnHandQuantity float64 `db:"on_hand_quantity"`
	Brand          string  `db:"brand"`
	Supplier1      string  `db:"supplier_1"`
	Supplier2      string  `db:"supplier_2"`
	Supplier3      string  `db:"supplier_3"`
}

// MetricRecord is the full per-product classification output of one batch
// run. It is recomputed from scratch every run and never mutated afterwards.
type MetricRecord struct {
	ProductID    string `db:"product_id" json:"product_id"`
	Description  string `db:"description" json:"description"`
	SubgroupCode int    `db:"subgroup_code" json:"subgroup_code"`
	Brand        string `db:"brand" json:"brand"`
	Supplier1    string `db:"supplier_1" json:"supplier_1"`
	Supplier2    string `db:"supplier_2" json:"supplier_2"`
	Supplier3    string `db:"supplier_3" json:"supplier_3"`

	OnHandQuantity float64 `db:"on_hand_quantity" json:"on_hand_quantity"`

	HoldingDays float64   `db:"holding_days" json:"holding_days"` // quantity-weighted, Undefined when no sale resolved
	QtySold     float64   `db:"qty_sold" json:"qty_sold"`
	ValueSold   float64   `db:"value_sold" json:"value_sold"`
	FirstSale   time.Time `db:"first_sale" json:"first_sale"`
	LastSale    time.Time `db:"last_sale" json:"last_sale"`
	PeriodDays  int       `db:"period_days" json:"period_days"`
	NumSales    int       `db:"num_sales" json:"num_sales"`

	Sales12m      float64 `db:"sales_12m" json:"sales_12m"`
	Sales12mPrior float64 `db:"sales_12m_prior" json:"sales_12m_prior"`
	TrendFactor   float64 `db:"trend_factor" json:"trend_factor"`
	TrendLabel    string  `db:"trend_label" json:"trend_label"`

	DemandPerDay         float64 `db:"demand_per_day" json:"demand_per_day"`
	StockoutDays         int     `db:"stockout_days" json:"stockout_days"`
	AdjustedDemandPerDay float64 `db:"adjusted_demand_per_day" json:"adjusted_demand_per_day"`

	CumValuePct      float64 `db:"cum_value_pct" json:"cum_value_pct"`
	ABCClass         string  `db:"abc_class" json:"abc_class"`
	StockingCategory string  `db:"stocking_category" json:"stocking_category"`

	MinBase           int     `db:"min_base" json:"min_base"`
	MaxBase           int     `db:"max_base" json:"max_base"`
	TrendAdjustFactor float64 `db:"trend_adjust_factor" json:"trend_adjust_factor"`
	MinAdjusted       int     `db:"min_adjusted" json:"min_adjusted"`
	MaxAdjusted       int     `db:"max_adjusted" json:"max_adjusted"`
	MinFinal          int     `db:"min_final" json:"min_final"`
	MaxFinal          int     `db:"max_final" json:"max_final"`

	PlanningType string `db:"planning_type" json:"planning_type"`
	TrendAlert   string `db:"trend_alert" json:"trend_alert"`
	Rationale    string `db:"rationale" json:"rationale"`
}

// MarshalJSON renders undefined metric values as null. encoding/json rejects
// NaN, and holding time, demand and trend are all undefined for products
// whose history cannot resolve them.
func (m MetricRecord) MarshalJSON() ([]byte, error) {
	type alias MetricRecord
	return json.Marshal(struct {
		alias
		HoldingDays          *float64 `json:"holding_days"`
		TrendFactor          *float64 `json:"trend_factor"`
		DemandPerDay         *float64 `json:"demand_per_day"`
		AdjustedDemandPerDay *float64 `json:"adjusted_demand_per_day"`
	}{
		alias:                alias(m),
		HoldingDays:          nullable(m.HoldingDays),
		TrendFactor:          nullable(m.TrendFactor),
		DemandPerDay:         nullable(m.DemandPerDay),
		AdjustedDemandPerDay: nullable(m.AdjustedDemandPerDay),
	})
}

func nullable(v float64) *float64 {
	if !IsDefined(v) {
		return nil
	}
	return &v
}

// LotAllocation is one FIFO layer of the current on-hand stock (long form).
type LotAllocation struct {
	ProductID      string    `db:"product_id" json:"product_id"`
	Description    string    `db:"description" json:"description"`
	OnHandQuantity float64   `db:"on_hand_quantity" json:"on_hand_quantity"`
	LayerIndex     int       `db:"layer_index" json:"layer_index"`
	LotDate        time.Time `db:"lot_date" json:"lot_date"`
	Quantity       float64   `db:"quantity" json:"quantity"`
}

// WideLayer is one (date, quantity) pair inside a WideAllocation.
type WideLayer struct {
	LotDate  time.Time `json:"lot_date"`
	Quantity float64   `json:"quantity"`
}

// WideAllocation aggregates all layers of one product into a single row.
type WideAllocation struct {
	ProductID      string      `json:"product_id"`
	Description    string      `json:"description"`
	OnHandQuantity float64     `json:"on_hand_quantity"`
	LayerTotal     float64     `json:"layer_total"`
	Layers         []WideLayer `json:"layers"`
}

// ReconciliationFlag annotates a product whose recorded on-hand quantity does
// not match the movement history. Informational only.
type ReconciliationFlag struct {
	ProductID      string  `db:"product_id" json:"product_id"`
	Reason         string  `db:"reason" json:"reason"`
	OnHandQuantity float64 `db:"on_hand_quantity" json:"on_hand_quantity"`
	ComputedOnHand float64 `db:"computed_on_hand" json:"computed_on_hand"`
}

// ChangeRecord is one entry of the run-over-run change report.
type ChangeRecord struct {
	ProductID   string `db:"product_id" json:"product_id"`
	Description string `db:"description" json:"description"`
	Kind        string `db:"kind" json:"kind"`
	Details     string `db:"details" json:"details"`
}

// PendingOrderLine is one line of a quotation order under analysis.
type PendingOrderLine struct {
	ProductID string  `db:"product_id" json:"product_id"`
	Quantity  float64 `db:"quantity" json:"quantity"`
}

// SuggestionRecord is the purchase-suggestion output for one product.
type SuggestionRecord struct {
	ProductID      string  `db:"product_id" json:"product_id"`
	Description    string  `db:"description" json:"description"`
	MinTarget      int     `db:"min_target" json:"min_target"`
	MaxTarget      int     `db:"max_target" json:"max_target"`
	ProjectedStock float64 `db:"projected_stock" json:"projected_stock"`
	PureSuggestion int     `db:"pure_suggestion" json:"pure_suggestion"`
	SuggestedQty   int     `db:"suggested_qty" json:"suggested_qty"`
	Status         string  `db:"status" json:"status"`
	Priority       string  `db:"priority" json:"priority"`
	Rationale      string  `db:"rationale" json:"rationale"`
}
