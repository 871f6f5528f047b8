// Package usecase orchestrates the pipeline stages: aggregation across
// feeds, gatekeeping, scoring, admission into the catalog, enrichment,
// and cleanup, each driving a durable job record.
package usecase

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"SaasScout/internal/domain"
	"SaasScout/internal/metrics"
	"SaasScout/internal/ports"
)

// SourceResult is the per-feed outcome of one aggregation run. A failed
// feed carries its error and an empty candidate list.
type SourceResult struct {
	Source     string
	Candidates []domain.CandidateRecord
	Err        error
}

// Aggregator fans out across the configured source adapters.
type Aggregator struct {
	adapters []ports.SourceAdapter
	logger   *slog.Logger
}

// NewAggregator wires the adapter set.
func NewAggregator(adapters []ports.SourceAdapter, logger *slog.Logger) *Aggregator {
	return &Aggregator{adapters: adapters, logger: logger}
}

// Collect fetches every feed concurrently. One feed failing never affects
// the others; its result records the error instead. Candidates are
// deduplicated across feeds by dedup key, first sighting wins, so the
// launch-board entry for a product shadows its forum repost.
func (a *Aggregator) Collect(ctx context.Context) ([]domain.CandidateRecord, []SourceResult) {
	results := make([]SourceResult, len(a.adapters))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range a.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			candidates, err := adapter.Fetch(gctx)
			mu.Lock()
			results[i] = SourceResult{Source: adapter.Name(), Candidates: candidates, Err: err}
			mu.Unlock()
			if err != nil {
				a.warn("feed failed", "feed", adapter.Name(), "error", err)
				return nil
			}
			metrics.CandidatesAggregated.WithLabelValues(adapter.Name()).Add(float64(len(candidates)))
			a.debug("feed fetched", "feed", adapter.Name(), "count", len(candidates))
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{}
	var merged []domain.CandidateRecord
	for _, res := range results {
		for _, cand := range res.Candidates {
			key := cand.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, cand)
		}
	}
	return merged, results
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Aggregator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
