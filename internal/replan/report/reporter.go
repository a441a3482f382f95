// Package report diffs a planning run against the previous run's baseline and
// classifies every product as new, removed, changed or untouched.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/acstore/replenishment/internal/domain"
)

// trackedFields are the record fields whose change is worth reporting.
// A baseline that does not carry all of them cannot be diffed safely.
var trackedFields = []string{"min_final", "max_final", "abc_class", "stocking_category"}

// BaselineRecord is the subset of a metric record persisted for comparison
// with the next run.
type BaselineRecord struct {
	ProductID        string `db:"product_id" json:"product_id"`
	Description      string `db:"description" json:"description"`
	MinFinal         int    `db:"min_final" json:"min_final"`
	MaxFinal         int    `db:"max_final" json:"max_final"`
	ABCClass         string `db:"abc_class" json:"abc_class"`
	StockingCategory string `db:"stocking_category" json:"stocking_category"`
}

// Baseline is the snapshot of the previous run. TrackedFields records which
// fields the snapshot was built with, so that a schema drift between runs is
// detected instead of silently diffing stale columns.
type Baseline struct {
	TrackedFields []string         `json:"tracked_fields"`
	Records       []BaselineRecord `json:"records"`
}

// Store persists baselines across runs.
type Store interface {
	// Load returns the previous baseline, or nil when no run happened yet.
	Load(ctx context.Context) (*Baseline, error)
	// Replace atomically swaps the stored baseline for the given one.
	Replace(ctx context.Context, baseline Baseline) error
}

// BaselineFrom projects the records of a finished run into a baseline.
func BaselineFrom(records []domain.MetricRecord) Baseline {
	b := Baseline{TrackedFields: trackedFields}
	for _, rec := range records {
		b.Records = append(b.Records, BaselineRecord{
			ProductID:        rec.ProductID,
			Description:      rec.Description,
			MinFinal:         rec.MinFinal,
			MaxFinal:         rec.MaxFinal,
			ABCClass:         rec.ABCClass,
			StockingCategory: rec.StockingCategory,
		})
	}
	return b
}

// Diff compares the current run against the previous baseline. A nil baseline
// means every product is new. Products present in both runs with identical
// tracked fields produce no entry. The result is ordered by product id.
func Diff(baseline *Baseline, current []domain.MetricRecord) ([]domain.ChangeRecord, error) {
	if baseline != nil {
		if err := checkTracked(baseline.TrackedFields); err != nil {
			return nil, err
		}
	}

	prev := make(map[string]BaselineRecord)
	if baseline != nil {
		for _, rec := range baseline.Records {
			prev[rec.ProductID] = rec
		}
	}

	cur := make(map[string]BaselineRecord, len(current))
	for _, rec := range current {
		cur[rec.ProductID] = BaselineRecord{
			ProductID:        rec.ProductID,
			Description:      rec.Description,
			MinFinal:         rec.MinFinal,
			MaxFinal:         rec.MaxFinal,
			ABCClass:         rec.ABCClass,
			StockingCategory: rec.StockingCategory,
		}
	}

	var changes []domain.ChangeRecord

	for id, now := range cur {
		before, existed := prev[id]
		if !existed {
			changes = append(changes, domain.ChangeRecord{
				ProductID:   id,
				Description: now.Description,
				Kind:        domain.ChangeNew,
				Details: fmt.Sprintf("Min: %d; Max: %d; ABC: %s; Cat: %s",
					now.MinFinal, now.MaxFinal, now.ABCClass, now.StockingCategory),
			})
			continue
		}
		if details := describeChanges(before, now); details != "" {
			changes = append(changes, domain.ChangeRecord{
				ProductID:   id,
				Description: now.Description,
				Kind:        domain.ChangeAltered,
				Details:     details,
			})
		}
	}

	for id, before := range prev {
		if _, stillThere := cur[id]; !stillThere {
			changes = append(changes, domain.ChangeRecord{
				ProductID:   id,
				Description: before.Description,
				Kind:        domain.ChangeRemoved,
				Details: fmt.Sprintf("Min: %d; Max: %d; ABC: %s; Cat: %s",
					before.MinFinal, before.MaxFinal, before.ABCClass, before.StockingCategory),
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].ProductID < changes[j].ProductID
	})
	return changes, nil
}

// checkTracked fails when the stored baseline was built with a different set
// of tracked fields than this build compares.
func checkTracked(stored []string) error {
	have := make(map[string]bool, len(stored))
	for _, f := range stored {
		have[f] = true
	}
	for _, f := range trackedFields {
		if !have[f] {
			return errors.Errorf("baseline incompatível: campo rastreado %q ausente no snapshot anterior", f)
		}
	}
	return nil
}

func describeChanges(before, now BaselineRecord) string {
	var parts []string
	if before.MinFinal != now.MinFinal {
		parts = append(parts, fmt.Sprintf("Min: %d -> %d", before.MinFinal, now.MinFinal))
	}
	if before.MaxFinal != now.MaxFinal {
		parts = append(parts, fmt.Sprintf("Max: %d -> %d", before.MaxFinal, now.MaxFinal))
	}
	if before.ABCClass != now.ABCClass {
		parts = append(parts, fmt.Sprintf("ABC: %s -> %s", before.ABCClass, now.ABCClass))
	}
	if before.StockingCategory != now.StockingCategory {
		parts = append(parts, fmt.Sprintf("Cat: %s -> %s", before.StockingCategory, now.StockingCategory))
	}
	return strings.Join(parts, "; ")
}
