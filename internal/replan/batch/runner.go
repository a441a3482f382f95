// Package batch orchestrates one full planning run: lot matching, metric
// aggregation and layer resolution fan out across a worker pool, then the
// global ABC ranking, the change report and persistence run serially.
package batch

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/fifo"
	"github.com/acstore/replenishment/internal/replan/layers"
	"github.com/acstore/replenishment/internal/replan/metrics"
	"github.com/acstore/replenishment/internal/replan/report"
)

// Inputs is the raw material of one run, as extracted from the source system.
type Inputs struct {
	Products []domain.ProductSnapshot
	Outbound []domain.OutboundTransaction
	Inbound  []domain.InboundLot
}

// Result collects everything one run produces.
type Result struct {
	RunDate    time.Time
	Metrics    []domain.MetricRecord
	Layers     []domain.LotAllocation
	WideLayers []domain.WideAllocation
	Flags      []domain.ReconciliationFlag
	Changes    []domain.ChangeRecord
}

// Sink persists the tables of a finished run.
type Sink interface {
	SaveRun(ctx context.Context, result Result) error
}

// Runner executes planning runs. Zero value is not usable; construct with New.
type Runner struct {
	engine  *metrics.Engine
	runDate time.Time
	store   report.Store
	sink    Sink
	log     zerolog.Logger
	workers int
}

// New builds a runner anchored at the given reference date. workers bounds
// the per-product fan-out; values below 1 fall back to the CPU count.
func New(now time.Time, store report.Store, sink Sink, log zerolog.Logger, workers int) *Runner {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		engine: metrics.NewEngine(now),
		// The run date keys persistence: a rerun on the same day must land
		// on the same value so the delete-then-insert replace matches.
		runDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		store:   store,
		sink:    sink,
		log:     log,
		workers: workers,
	}
}

// productWork is the per-product slice of the input tables.
type productWork struct {
	snapshot domain.ProductSnapshot
	sales    []domain.OutboundTransaction
	lots     []domain.InboundLot
}

// productResult is what one worker produces for one product.
type productResult struct {
	aggregate metrics.ProductAggregate
	hasMetric bool
	layers    []domain.LotAllocation
	flag      *domain.ReconciliationFlag
}

// Run executes one complete planning run and persists it. The stored baseline
// is only replaced after the run's tables were saved, so a failed save leaves
// the previous baseline untouched for the next attempt.
func (r *Runner) Run(ctx context.Context, in Inputs) (*Result, error) {
	started := time.Now()
	work := groupByProduct(in)

	r.log.Info().
		Int("products", len(work)).
		Int("outbound_rows", len(in.Outbound)).
		Int("inbound_rows", len(in.Inbound)).
		Int("workers", r.workers).
		Msg("starting planning run")

	results := make([]productResult, len(work))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range work {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processProduct(work[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "per-product phase")
	}

	result := &Result{RunDate: r.runDate}
	var aggregates []metrics.ProductAggregate
	for _, pr := range results {
		if pr.hasMetric {
			aggregates = append(aggregates, pr.aggregate)
		}
		result.Layers = append(result.Layers, pr.layers...)
		if pr.flag != nil {
			result.Flags = append(result.Flags, *pr.flag)
		}
	}

	result.Metrics = r.engine.Finalize(aggregates)
	sort.Slice(result.Metrics, func(i, j int) bool {
		return result.Metrics[i].ProductID < result.Metrics[j].ProductID
	})
	result.WideLayers = layers.WideForm(result.Layers)

	baseline, err := r.store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading baseline")
	}
	result.Changes, err = report.Diff(baseline, result.Metrics)
	if err != nil {
		return nil, errors.Wrap(err, "diffing against baseline")
	}

	if err := r.sink.SaveRun(ctx, *result); err != nil {
		return nil, errors.Wrap(err, "saving run")
	}
	if err := r.store.Replace(ctx, report.BaselineFrom(result.Metrics)); err != nil {
		return nil, errors.Wrap(err, "replacing baseline")
	}

	r.log.Info().
		Int("metric_rows", len(result.Metrics)).
		Int("layer_rows", len(result.Layers)).
		Int("flags", len(result.Flags)).
		Int("changes", len(result.Changes)).
		Dur("elapsed", time.Since(started)).
		Msg("planning run finished")

	return result, nil
}

// processProduct runs the independent per-product computations: lot matching,
// metric aggregation and layer resolution.
func (r *Runner) processProduct(w productWork) productResult {
	matched := fifo.MatchProduct(w.sales, w.lots)

	var pr productResult
	pr.aggregate, pr.hasMetric = r.engine.Aggregate(metrics.ProductInput{
		Snapshot: w.snapshot,
		Sales:    matched,
		Lots:     w.lots,
	})

	var totalOut float64
	for _, s := range w.sales {
		totalOut += s.NetQuantity()
	}
	pr.layers, pr.flag = layers.Resolve(w.snapshot, w.lots, totalOut)

	return pr
}

// groupByProduct splits the flat input tables into per-product work units,
// dropping outbound rows with non-positive net quantity and inbound rows with
// non-positive quantity. Output order follows product id so runs are
// deterministic.
func groupByProduct(in Inputs) []productWork {
	byID := make(map[string]*productWork, len(in.Products))
	for _, p := range in.Products {
		byID[p.ProductID] = &productWork{snapshot: p}
	}

	for _, tx := range in.Outbound {
		w, ok := byID[tx.ProductID]
		if !ok || tx.NetQuantity() <= 0 {
			continue
		}
		w.sales = append(w.sales, tx)
	}
	for _, lot := range in.Inbound {
		w, ok := byID[lot.ProductID]
		if !ok || lot.Quantity <= 0 {
			continue
		}
		w.lots = append(w.lots, lot)
	}

	work := make([]productWork, 0, len(byID))
	for _, w := range byID {
		work = append(work, *w)
	}
	sort.Slice(work, func(i, j int) bool {
		return work[i].snapshot.ProductID < work[j].snapshot.ProductID
	})
	return work
}
