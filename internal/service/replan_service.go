package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/acstore/replenishment/internal/cache"
	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/replan/suggest"
	"github.com/acstore/replenishment/internal/repository"
)

// ReplanService serves planning results and on-demand purchase suggestions
// from the latest batch run.
type ReplanService struct {
	results repository.ResultRepository
	source  repository.SourceRepository
	cache   cache.SuggestionCache
}

func NewReplanService(results repository.ResultRepository, source repository.SourceRepository, cacheImpl cache.SuggestionCache) *ReplanService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSuggestionCache()
	}
	return &ReplanService{results: results, source: source, cache: cacheImpl}
}

// SuggestProduct evaluates one product against the latest metrics. A non-empty
// quotationID switches to order analysis: the quotation's pending quantity for
// the product enters the projected stock.
func (s *ReplanService) SuggestProduct(ctx context.Context, productID string, coverageDays int, quotationID string) (*domain.SuggestionRecord, error) {
	if cached, ok, err := s.cache.Get(ctx, productID, coverageDays, quotationID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("replan: cache get suggestion failed")
	}

	rec, err := s.results.GetMetricByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		// No metric row: the engine reports the product as data-less
		// instead of erroring out.
		out, err := suggest.Evaluate(suggest.Input{ProductID: productID}, suggest.Params{CoverageDays: coverageDays})
		if err != nil {
			return nil, err
		}
		return &out, nil
	}

	var pendingQty float64
	analyzeOrder := quotationID != ""
	if analyzeOrder {
		lines, err := s.source.GetPendingOrderLines(ctx, quotationID)
		if err != nil {
			return nil, errors.Wrapf(err, "loading quotation %s", quotationID)
		}
		for _, line := range lines {
			if line.ProductID == productID {
				pendingQty += line.Quantity
			}
		}
	}

	out, err := suggest.Evaluate(
		suggest.FromMetricRecord(*rec, pendingQty),
		suggest.Params{CoverageDays: coverageDays, AnalyzeOrder: analyzeOrder},
	)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, productID, coverageDays, quotationID, out); err != nil {
		log.Warn().Err(err).Msg("replan: cache set suggestion failed")
	}

	return &out, nil
}

// SuggestQuotation evaluates every line of a pending quotation.
func (s *ReplanService) SuggestQuotation(ctx context.Context, quotationID string, coverageDays int) ([]domain.SuggestionRecord, error) {
	lines, err := s.source.GetPendingOrderLines(ctx, quotationID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading quotation %s", quotationID)
	}
	if len(lines) == 0 {
		return nil, errors.Errorf("cotação %s sem linhas pendentes", quotationID)
	}

	records := make([]domain.SuggestionRecord, 0, len(lines))
	for _, line := range lines {
		rec, err := s.results.GetMetricByProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}

		in := suggest.Input{ProductID: line.ProductID, PendingQty: line.Quantity}
		if rec != nil {
			in = suggest.FromMetricRecord(*rec, line.Quantity)
		}

		out, err := suggest.Evaluate(in, suggest.Params{CoverageDays: coverageDays, AnalyzeOrder: true})
		if err != nil {
			return nil, err
		}
		records = append(records, out)
	}

	return records, nil
}

// LatestMetrics returns the metric rows of the most recent run. A non-empty
// brand narrows the result to products whose brand contains it, matched
// case-insensitively.
func (s *ReplanService) LatestMetrics(ctx context.Context, brand string) ([]domain.MetricRecord, time.Time, error) {
	runDate, err := s.results.GetLatestRunDate(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if runDate.IsZero() {
		return nil, time.Time{}, nil
	}

	records, err := s.results.GetMetrics(ctx, runDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	if brand != "" {
		needle := strings.ToLower(brand)
		filtered := records[:0]
		for _, rec := range records {
			if strings.Contains(strings.ToLower(rec.Brand), needle) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	return records, runDate, nil
}

// LatestChanges returns the change report of the most recent run.
func (s *ReplanService) LatestChanges(ctx context.Context) ([]domain.ChangeRecord, time.Time, error) {
	runDate, err := s.results.GetLatestRunDate(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if runDate.IsZero() {
		return nil, time.Time{}, nil
	}

	changes, err := s.results.GetChanges(ctx, runDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	return changes, runDate, nil
}

// LatestFlags returns the reconciliation flags of the most recent run.
func (s *ReplanService) LatestFlags(ctx context.Context) ([]domain.ReconciliationFlag, time.Time, error) {
	runDate, err := s.results.GetLatestRunDate(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if runDate.IsZero() {
		return nil, time.Time{}, nil
	}

	flags, err := s.results.GetFlags(ctx, runDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	return flags, runDate, nil
}

// InvalidateSuggestions clears memoized suggestions, called after each batch
// run so stale evaluations never outlive their inputs.
func (s *ReplanService) InvalidateSuggestions(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("replan: cache invalidation failed")
	}
}
