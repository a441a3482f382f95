package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/repository"
)

// sourceRepository reads the ERP mirror. The mirror is a plain Postgres
// replica of the retail system, refreshed outside this service.
type sourceRepository struct {
	db      *sqlx.DB
	company int
}

// NewSourceDB opens a connection to the ERP mirror through the pgx driver.
func NewSourceDB(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("could not connect to source database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func NewSourceRepository(db *sqlx.DB, company int) repository.SourceRepository {
	return &sourceRepository{db: db, company: company}
}

func (r *sourceRepository) GetProductSnapshots(ctx context.Context, filter repository.MovementFilter) ([]domain.ProductSnapshot, error) {
	query := `
        SELECT
            p.product_id,
            p.description,
            p.subgroup_code,
            COALESCE(s.on_hand_quantity, 0) AS on_hand_quantity,
            COALESCE(p.brand, '') AS brand,
            COALESCE(p.supplier_1, '') AS supplier_1,
            COALESCE(p.supplier_2, '') AS supplier_2,
            COALESCE(p.supplier_3, '') AS supplier_3
        FROM products p
        LEFT JOIN stock_positions s
            ON s.product_id = p.product_id AND s.company_id = $1
        WHERE p.active = true
    `

	args := []interface{}{r.company}
	if filter.Brand != "" {
		query += fmt.Sprintf(" AND p.brand ILIKE $%d", len(args)+1)
		args = append(args, "%"+filter.Brand+"%")
	}
	query += " ORDER BY p.product_id"

	var snapshots []domain.ProductSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("error getting product snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *sourceRepository) GetOutboundTransactions(ctx context.Context, filter repository.MovementFilter) ([]domain.OutboundTransaction, error) {
	query := `
        SELECT
            m.product_id,
            m.moved_at,
            m.quantity,
            COALESCE(m.returned_quantity, 0) AS returned_quantity,
            COALESCE(m.liquid_value, 0) AS liquid_value,
            m.origin_code
        FROM stock_movements m
        WHERE m.company_id = $1
          AND m.direction = 'OUT'
    `

	args := []interface{}{r.company}
	var conditions []string
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("m.moved_at >= $%d", len(args)+1))
		args = append(args, filter.Since)
	}
	if filter.Brand != "" {
		conditions = append(conditions, fmt.Sprintf(
			"m.product_id IN (SELECT product_id FROM products WHERE brand ILIKE $%d)", len(args)+1))
		args = append(args, "%"+filter.Brand+"%")
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.product_id, m.moved_at"

	var txs []domain.OutboundTransaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, fmt.Errorf("error getting outbound transactions: %w", err)
	}
	return txs, nil
}

func (r *sourceRepository) GetInboundLots(ctx context.Context, filter repository.MovementFilter) ([]domain.InboundLot, error) {
	query := `
        SELECT
            m.product_id,
            m.moved_at AS received_at,
            m.quantity,
            m.sequence_no,
            m.origin_code
        FROM stock_movements m
        WHERE m.company_id = $1
          AND m.direction = 'IN'
          AND m.quantity > 0
    `

	args := []interface{}{r.company}
	var conditions []string
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("m.moved_at >= $%d", len(args)+1))
		args = append(args, filter.Since)
	}
	if filter.Brand != "" {
		conditions = append(conditions, fmt.Sprintf(
			"m.product_id IN (SELECT product_id FROM products WHERE brand ILIKE $%d)", len(args)+1))
		args = append(args, "%"+filter.Brand+"%")
	}
	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.product_id, m.moved_at, m.sequence_no"

	var lots []domain.InboundLot
	if err := r.db.SelectContext(ctx, &lots, query, args...); err != nil {
		return nil, fmt.Errorf("error getting inbound lots: %w", err)
	}
	return lots, nil
}

func (r *sourceRepository) GetPendingOrderLines(ctx context.Context, quotationID string) ([]domain.PendingOrderLine, error) {
	query := `
        SELECT
            l.product_id,
            l.quantity
        FROM quotation_lines l
        JOIN quotations q ON q.quotation_id = l.quotation_id
        WHERE q.company_id = $1
          AND l.quotation_id = $2
          AND q.status = 'OPEN'
        ORDER BY l.product_id
    `

	var lines []domain.PendingOrderLine
	if err := r.db.SelectContext(ctx, &lines, query, r.company, quotationID); err != nil {
		return nil, fmt.Errorf("error getting pending order lines: %w", err)
	}
	return lines, nil
}
