package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/repository"
)

type resultRepository struct {
	db *DB
}

func NewResultRepository(db *DB) repository.ResultRepository {
	return &resultRepository{db: db}
}

// saveBatch is the shared same-day replace: rows for the run date are wiped
// and re-inserted inside one transaction, so reruns on the same day never
// duplicate.
func (r *resultRepository) saveBatch(ctx context.Context, table string, runDate time.Time, insert func(tx *sqlx.Tx) error) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE run_date = $1", table), runDate); err != nil {
			return fmt.Errorf("error clearing %s for run date: %w", table, err)
		}
		return insert(tx)
	})
}

func (r *resultRepository) SaveMetrics(ctx context.Context, runDate time.Time, records []domain.MetricRecord) error {
	return r.saveBatch(ctx, "replan_metrics", runDate, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO replan_metrics (
                run_date, product_id, description, subgroup_code, brand,
                supplier_1, supplier_2, supplier_3, on_hand_quantity,
                holding_days, qty_sold, value_sold, first_sale, last_sale,
                period_days, num_sales, sales_12m, sales_12m_prior,
                trend_factor, trend_label, demand_per_day, stockout_days,
                adjusted_demand_per_day, cum_value_pct, abc_class,
                stocking_category, min_base, max_base, trend_adjust_factor,
                min_adjusted, max_adjusted, min_final, max_final,
                planning_type, trend_alert, rationale
            ) VALUES (
                :run_date, :product_id, :description, :subgroup_code, :brand,
                :supplier_1, :supplier_2, :supplier_3, :on_hand_quantity,
                :holding_days, :qty_sold, :value_sold, :first_sale, :last_sale,
                :period_days, :num_sales, :sales_12m, :sales_12m_prior,
                :trend_factor, :trend_label, :demand_per_day, :stockout_days,
                :adjusted_demand_per_day, :cum_value_pct, :abc_class,
                :stocking_category, :min_base, :max_base, :trend_adjust_factor,
                :min_adjusted, :max_adjusted, :min_final, :max_final,
                :planning_type, :trend_alert, :rationale
            )
        `
		for _, rec := range records {
			row := metricRow{MetricRecord: rec, RunDate: runDate}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("error inserting metric row for %s: %w", rec.ProductID, err)
			}
		}
		return nil
	})
}

// metricRow adds the run date to a metric record for named inserts.
type metricRow struct {
	domain.MetricRecord
	RunDate time.Time `db:"run_date"`
}

func (r *resultRepository) SaveLayers(ctx context.Context, runDate time.Time, layers []domain.LotAllocation) error {
	return r.saveBatch(ctx, "replan_layers", runDate, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO replan_layers (
                run_date, product_id, description, on_hand_quantity,
                layer_index, lot_date, quantity
            ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        `
		for _, l := range layers {
			if _, err := tx.ExecContext(ctx, query,
				runDate, l.ProductID, l.Description, l.OnHandQuantity,
				l.LayerIndex, l.LotDate, l.Quantity); err != nil {
				return fmt.Errorf("error inserting layer row for %s: %w", l.ProductID, err)
			}
		}
		return nil
	})
}

func (r *resultRepository) SaveFlags(ctx context.Context, runDate time.Time, flags []domain.ReconciliationFlag) error {
	return r.saveBatch(ctx, "replan_flags", runDate, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO replan_flags (
                run_date, product_id, reason, on_hand_quantity, computed_on_hand
            ) VALUES ($1, $2, $3, $4, $5)
        `
		for _, f := range flags {
			if _, err := tx.ExecContext(ctx, query,
				runDate, f.ProductID, f.Reason, f.OnHandQuantity, f.ComputedOnHand); err != nil {
				return fmt.Errorf("error inserting flag row for %s: %w", f.ProductID, err)
			}
		}
		return nil
	})
}

func (r *resultRepository) SaveChanges(ctx context.Context, runDate time.Time, changes []domain.ChangeRecord) error {
	return r.saveBatch(ctx, "replan_changes", runDate, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO replan_changes (
                run_date, product_id, description, kind, details
            ) VALUES ($1, $2, $3, $4, $5)
        `
		for _, c := range changes {
			if _, err := tx.ExecContext(ctx, query,
				runDate, c.ProductID, c.Description, c.Kind, c.Details); err != nil {
				return fmt.Errorf("error inserting change row for %s: %w", c.ProductID, err)
			}
		}
		return nil
	})
}

func (r *resultRepository) SaveSuggestions(ctx context.Context, runDate time.Time, suggestions []domain.SuggestionRecord) error {
	return r.saveBatch(ctx, "replan_suggestions", runDate, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO replan_suggestions (
                run_date, product_id, description, min_target, max_target,
                projected_stock, pure_suggestion, suggested_qty,
                status, priority, rationale
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        `
		for _, s := range suggestions {
			if _, err := tx.ExecContext(ctx, query,
				runDate, s.ProductID, s.Description, s.MinTarget, s.MaxTarget,
				s.ProjectedStock, s.PureSuggestion, s.SuggestedQty,
				s.Status, s.Priority, s.Rationale); err != nil {
				return fmt.Errorf("error inserting suggestion row for %s: %w", s.ProductID, err)
			}
		}
		return nil
	})
}

func (r *resultRepository) GetLatestRunDate(ctx context.Context) (time.Time, error) {
	var runDate sql.NullTime
	err := r.db.GetContext(ctx, &runDate,
		"SELECT MAX(run_date) FROM replan_metrics")
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting latest run date: %w", err)
	}
	if !runDate.Valid {
		return time.Time{}, nil
	}
	return runDate.Time, nil
}

func (r *resultRepository) GetMetrics(ctx context.Context, runDate time.Time) ([]domain.MetricRecord, error) {
	query := `
        SELECT
            product_id, description, subgroup_code, brand,
            supplier_1, supplier_2, supplier_3, on_hand_quantity,
            holding_days, qty_sold, value_sold, first_sale, last_sale,
            period_days, num_sales, sales_12m, sales_12m_prior,
            trend_factor, trend_label, demand_per_day, stockout_days,
            adjusted_demand_per_day, cum_value_pct, abc_class,
            stocking_category, min_base, max_base, trend_adjust_factor,
            min_adjusted, max_adjusted, min_final, max_final,
            planning_type, trend_alert, rationale
        FROM replan_metrics
        WHERE run_date = $1
        ORDER BY product_id
    `

	var records []domain.MetricRecord
	if err := r.db.SelectContext(ctx, &records, query, runDate); err != nil {
		return nil, fmt.Errorf("error getting metrics: %w", err)
	}
	return records, nil
}

func (r *resultRepository) GetMetricByProduct(ctx context.Context, productID string) (*domain.MetricRecord, error) {
	query := `
        SELECT
            product_id, description, subgroup_code, brand,
            supplier_1, supplier_2, supplier_3, on_hand_quantity,
            holding_days, qty_sold, value_sold, first_sale, last_sale,
            period_days, num_sales, sales_12m, sales_12m_prior,
            trend_factor, trend_label, demand_per_day, stockout_days,
            adjusted_demand_per_day, cum_value_pct, abc_class,
            stocking_category, min_base, max_base, trend_adjust_factor,
            min_adjusted, max_adjusted, min_final, max_final,
            planning_type, trend_alert, rationale
        FROM replan_metrics
        WHERE product_id = $1
        ORDER BY run_date DESC
        LIMIT 1
    `

	var rec domain.MetricRecord
	if err := r.db.GetContext(ctx, &rec, query, productID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting metric for product %s: %w", productID, err)
	}
	return &rec, nil
}

func (r *resultRepository) GetChanges(ctx context.Context, runDate time.Time) ([]domain.ChangeRecord, error) {
	query := `
        SELECT product_id, description, kind, details
        FROM replan_changes
        WHERE run_date = $1
        ORDER BY product_id
    `

	var changes []domain.ChangeRecord
	if err := r.db.SelectContext(ctx, &changes, query, runDate); err != nil {
		return nil, fmt.Errorf("error getting changes: %w", err)
	}
	return changes, nil
}

func (r *resultRepository) GetFlags(ctx context.Context, runDate time.Time) ([]domain.ReconciliationFlag, error) {
	query := `
        SELECT product_id, reason, on_hand_quantity, computed_on_hand
        FROM replan_flags
        WHERE run_date = $1
        ORDER BY product_id
    `

	var flags []domain.ReconciliationFlag
	if err := r.db.SelectContext(ctx, &flags, query, runDate); err != nil {
		return nil, fmt.Errorf("error getting flags: %w", err)
	}
	return flags, nil
}
