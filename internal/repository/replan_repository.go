// internal/repository/replan_repository.go
package repository

import (
	"context"
	"time"

	"github.com/acstore/replenishment/internal/domain"
)

// MovementFilter narrows the extraction to part of the catalogue.
type MovementFilter struct {
	Brand string
	Since time.Time
}

// SourceRepository extracts the raw movement history from the ERP mirror.
type SourceRepository interface {
	GetProductSnapshots(ctx context.Context, filter MovementFilter) ([]domain.ProductSnapshot, error)
	GetOutboundTransactions(ctx context.Context, filter MovementFilter) ([]domain.OutboundTransaction, error)
	GetInboundLots(ctx context.Context, filter MovementFilter) ([]domain.InboundLot, error)
	GetPendingOrderLines(ctx context.Context, quotationID string) ([]domain.PendingOrderLine, error)
}

// ResultRepository persists the tables a planning run produces and serves
// them back to the API.
type ResultRepository interface {
	SaveMetrics(ctx context.Context, runDate time.Time, records []domain.MetricRecord) error
	SaveLayers(ctx context.Context, runDate time.Time, layers []domain.LotAllocation) error
	SaveFlags(ctx context.Context, runDate time.Time, flags []domain.ReconciliationFlag) error
	SaveChanges(ctx context.Context, runDate time.Time, changes []domain.ChangeRecord) error
	SaveSuggestions(ctx context.Context, runDate time.Time, suggestions []domain.SuggestionRecord) error

	GetLatestRunDate(ctx context.Context) (time.Time, error)
	GetMetrics(ctx context.Context, runDate time.Time) ([]domain.MetricRecord, error)
	GetMetricByProduct(ctx context.Context, productID string) (*domain.MetricRecord, error)
	GetChanges(ctx context.Context, runDate time.Time) ([]domain.ChangeRecord, error)
	GetFlags(ctx context.Context, runDate time.Time) ([]domain.ReconciliationFlag, error)
}
