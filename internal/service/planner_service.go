package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/batch"
	"github.com/acstore/replenishment/internal/replan/report"
	"github.com/acstore/replenishment/internal/replan/suggest"
	"github.com/acstore/replenishment/internal/repository"
	"github.com/acstore/replenishment/internal/storage"
	"github.com/acstore/replenishment/pkg/logger"
)

// PlannerService drives a full planning cycle: extraction from the ERP
// mirror, the batch computation, general-mode suggestions for the whole
// catalogue, and optional csv archival.
type PlannerService struct {
	source  repository.SourceRepository
	results repository.ResultRepository
	store   report.Store
	archive storage.ObjectStorage
	replan  *ReplanService
	workers int
	log     zerolog.Logger
}

func NewPlannerService(
	source repository.SourceRepository,
	results repository.ResultRepository,
	store report.Store,
	archive storage.ObjectStorage,
	replan *ReplanService,
	workers int,
) *PlannerService {
	return &PlannerService{
		source:  source,
		results: results,
		store:   store,
		archive: archive,
		replan:  replan,
		workers: workers,
		log:     logger.For("planner"),
	}
}

// RunOptions narrows and tunes one planning cycle.
type RunOptions struct {
	Brand        string
	CoverageDays int
}

// resultSink persists a run's tables through the result repository. All
// tables share the run date, so a rerun on the same day replaces cleanly.
type resultSink struct {
	results repository.ResultRepository
}

func (s *resultSink) SaveRun(ctx context.Context, result batch.Result) error {
	runDate := result.RunDate
	if err := s.results.SaveMetrics(ctx, runDate, result.Metrics); err != nil {
		return err
	}
	if err := s.results.SaveLayers(ctx, runDate, result.Layers); err != nil {
		return err
	}
	if err := s.results.SaveFlags(ctx, runDate, result.Flags); err != nil {
		return err
	}
	return s.results.SaveChanges(ctx, runDate, result.Changes)
}

// Run executes one planning cycle end to end.
func (p *PlannerService) Run(ctx context.Context, opts RunOptions) (*batch.Result, error) {
	filter := repository.MovementFilter{Brand: opts.Brand}

	products, err := p.source.GetProductSnapshots(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "extracting product snapshots")
	}
	outbound, err := p.source.GetOutboundTransactions(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "extracting outbound transactions")
	}
	inbound, err := p.source.GetInboundLots(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "extracting inbound lots")
	}

	runner := batch.New(time.Now(), p.store, &resultSink{results: p.results}, logger.For("batch"), p.workers)
	result, err := runner.Run(ctx, batch.Inputs{
		Products: products,
		Outbound: outbound,
		Inbound:  inbound,
	})
	if err != nil {
		return nil, err
	}

	suggestions, err := p.planningSuggestions(result.Metrics, opts.CoverageDays)
	if err != nil {
		return nil, err
	}
	if err := p.results.SaveSuggestions(ctx, result.RunDate, suggestions); err != nil {
		return nil, errors.Wrap(err, "saving suggestions")
	}

	if p.archive != nil {
		if err := storage.ExportMetricsCSV(ctx, p.archive, result.RunDate, result.Metrics); err != nil {
			p.log.Warn().Err(err).Msg("metrics csv archival failed")
		}
		if err := storage.ExportChangesCSV(ctx, p.archive, result.RunDate, result.Changes); err != nil {
			p.log.Warn().Err(err).Msg("changes csv archival failed")
		}
		if err := storage.ExportLayersCSV(ctx, p.archive, result.RunDate, result.WideLayers); err != nil {
			p.log.Warn().Err(err).Msg("layers csv archival failed")
		}
	}

	if p.replan != nil {
		p.replan.InvalidateSuggestions(ctx)
	}

	return result, nil
}

// planningSuggestions evaluates the whole catalogue in general planning mode.
func (p *PlannerService) planningSuggestions(records []domain.MetricRecord, coverageDays int) ([]domain.SuggestionRecord, error) {
	params := suggest.Params{CoverageDays: coverageDays}

	suggestions := make([]domain.SuggestionRecord, 0, len(records))
	for _, rec := range records {
		out, err := suggest.Evaluate(suggest.FromMetricRecord(rec, 0), params)
		if err != nil {
			return nil, errors.Wrapf(err, "suggesting for product %s", rec.ProductID)
		}
		suggestions = append(suggestions, out)
	}
	return suggestions, nil
}
