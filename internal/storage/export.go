package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/acstore/replenishment/internal/domain"
)

// ExportMetricsCSV archives a run's metric table as csv for the buying team.
// The object key embeds the run date, so each run archives separately.
func ExportMetricsCSV(ctx context.Context, store ObjectStorage, runDate time.Time, records []domain.MetricRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"product_id", "description", "subgroup_code", "brand",
		"on_hand_quantity", "holding_days", "qty_sold", "value_sold",
		"num_sales", "demand_per_day", "stockout_days", "adjusted_demand_per_day",
		"abc_class", "stocking_category", "trend_label", "trend_factor",
		"min_final", "max_final", "planning_type", "trend_alert",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ProductID,
			rec.Description,
			strconv.Itoa(rec.SubgroupCode),
			rec.Brand,
			formatFloat(rec.OnHandQuantity),
			formatFloat(rec.HoldingDays),
			formatFloat(rec.QtySold),
			formatFloat(rec.ValueSold),
			strconv.Itoa(rec.NumSales),
			formatFloat(rec.DemandPerDay),
			strconv.Itoa(rec.StockoutDays),
			formatFloat(rec.AdjustedDemandPerDay),
			rec.ABCClass,
			rec.StockingCategory,
			rec.TrendLabel,
			formatFloat(rec.TrendFactor),
			strconv.Itoa(rec.MinFinal),
			strconv.Itoa(rec.MaxFinal),
			rec.PlanningType,
			rec.TrendAlert,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("error writing csv row for %s: %w", rec.ProductID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}

	key := fmt.Sprintf("runs/%s/metrics.csv", runDate.Format("2006-01-02"))
	return store.UploadObject(ctx, key, buf.Bytes())
}

// ExportChangesCSV archives a run's change report as csv.
func ExportChangesCSV(ctx context.Context, store ObjectStorage, runDate time.Time, changes []domain.ChangeRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"product_id", "description", "kind", "details"}); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	for _, c := range changes {
		if err := w.Write([]string{c.ProductID, c.Description, c.Kind, c.Details}); err != nil {
			return fmt.Errorf("error writing csv row for %s: %w", c.ProductID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}

	key := fmt.Sprintf("runs/%s/changes.csv", runDate.Format("2006-01-02"))
	return store.UploadObject(ctx, key, buf.Bytes())
}

// ExportLayersCSV archives the wide-form FIFO layers. Rows are ragged: each
// product carries as many (date, quantity) pairs as it has layers.
func ExportLayersCSV(ctx context.Context, store ObjectStorage, runDate time.Time, allocations []domain.WideAllocation) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	maxLayers := 0
	for _, wa := range allocations {
		if len(wa.Layers) > maxLayers {
			maxLayers = len(wa.Layers)
		}
	}

	header := []string{"product_id", "description", "on_hand_quantity", "layer_total"}
	for i := 1; i <= maxLayers; i++ {
		header = append(header,
			fmt.Sprintf("layer_%d_date", i),
			fmt.Sprintf("layer_%d_qty", i))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}

	for _, wa := range allocations {
		row := []string{
			wa.ProductID,
			wa.Description,
			formatFloat(wa.OnHandQuantity),
			formatFloat(wa.LayerTotal),
		}
		for _, layer := range wa.Layers {
			row = append(row, layer.LotDate.Format("2006-01-02"), formatFloat(layer.Quantity))
		}
		for i := len(wa.Layers); i < maxLayers; i++ {
			row = append(row, "", "")
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("error writing csv row for %s: %w", wa.ProductID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing csv: %w", err)
	}

	key := fmt.Sprintf("runs/%s/layers.csv", runDate.Format("2006-01-02"))
	return store.UploadObject(ctx, key, buf.Bytes())
}

// formatFloat keeps undefined values as empty cells instead of "NaN".
func formatFloat(v float64) string {
	if !domain.IsDefined(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
