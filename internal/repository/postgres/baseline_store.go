package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acstore/replenishment/internal/replan/report"
)

// baselineStore keeps the previous run's classification snapshot in a single
// json row, replaced atomically. The tracked-field list travels with the
// snapshot so the reporter can refuse stale layouts.
type baselineStore struct {
	db *DB
}

func NewBaselineStore(db *DB) report.Store {
	return &baselineStore{db: db}
}

func (s *baselineStore) Load(ctx context.Context) (*report.Baseline, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload,
		"SELECT payload FROM replan_baseline WHERE id = 1")
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading baseline: %w", err)
	}

	var baseline report.Baseline
	if err := json.Unmarshal(payload, &baseline); err != nil {
		return nil, fmt.Errorf("error decoding baseline: %w", err)
	}
	return &baseline, nil
}

func (s *baselineStore) Replace(ctx context.Context, baseline report.Baseline) error {
	payload, err := json.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("error encoding baseline: %w", err)
	}

	return s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            INSERT INTO replan_baseline (id, payload, updated_at)
            VALUES (1, $1, NOW())
            ON CONFLICT (id) DO UPDATE
            SET payload = EXCLUDED.payload, updated_at = NOW()
        `
		if _, err := tx.ExecContext(ctx, query, payload); err != nil {
			return fmt.Errorf("error replacing baseline: %w", err)
		}
		return nil
	})
}
