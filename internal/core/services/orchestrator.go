package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
	"github.com/custodia-labs/eolscan/internal/logger"
)

// Ensure Orchestrator implements the interfaces.
var (
	_ driving.LookupService = (*Orchestrator)(nil)
	_ driving.CacheAdmin    = (*Orchestrator)(nil)
)

// ProgressFunc is called after each distinct query resolves.
type ProgressFunc func(done, total int)

// queryGroup is every record in a batch sharing one query key.
type queryGroup struct {
	query    domain.NormalizedQuery
	variants []domain.Variant
	invalid  bool
	indices  []int

	result domain.LookupResult
	hit    bool
}

// Orchestrator dedups inventory batches into distinct queries, resolves each
// once through the cache and search engine, and writes results back to every
// record sharing the query.
type Orchestrator struct {
	normaliser *Normaliser
	engine     *SearchEngine
	cache      *ResultCache
	metrics    driven.MetricsRecorder
	settings   domain.EngineSettings

	mu       sync.RWMutex
	progress ProgressFunc
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator. The cache and metrics recorder
// are optional (can be nil); without a cache every query goes straight to
// the engine.
func NewOrchestrator(
	engine *SearchEngine,
	cache *ResultCache,
	settings domain.EngineSettings,
	metrics driven.MetricsRecorder,
) *Orchestrator {
	return &Orchestrator{
		normaliser: NewNormaliser(),
		engine:     engine,
		cache:      cache,
		metrics:    metrics,
		settings:   settings.WithDefaults(),
		now:        time.Now,
	}
}

// SetProgress registers a progress callback for batch runs.
func (o *Orchestrator) SetProgress(fn ProgressFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = fn
}

// SetClock replaces the time source used for risk classification.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now = now
}

// Enrich resolves every record in the batch. Output order matches input
// order. Individual failures degrade to RiskUnknown; the returned error is
// non-nil only for misconfiguration or when ctx is cancelled.
func (o *Orchestrator) Enrich(
	ctx context.Context, records []domain.SoftwareRecord,
) ([]domain.EnrichedRecord, domain.BatchSummary, error) {
	summary := domain.BatchSummary{RunID: uuid.New().String()}
	if o.engine == nil {
		return nil, summary, domain.ErrNoSources
	}

	start := time.Now()
	logger.Section("Batch " + summary.RunID)

	groups := o.group(records)
	summary.Distinct = len(groups)
	logger.Info("Batch: %d records, %d distinct queries", len(records), len(groups))

	o.mu.RLock()
	progress, now := o.progress, o.now
	o.mu.RUnlock()

	var (
		done   int
		doneMu sync.Mutex
	)

	g := new(errgroup.Group)
	g.SetLimit(o.settings.MaxConcurrentQueries)
	for _, grp := range groups {
		g.Go(func() error {
			grp.result, grp.hit = o.resolve(ctx, grp, now)

			doneMu.Lock()
			done++
			n := done
			doneMu.Unlock()
			if progress != nil {
				progress(n, len(groups))
			}
			return nil
		})
	}
	_ = g.Wait()

	at := now()
	out := make([]domain.EnrichedRecord, len(records))
	for _, grp := range groups {
		if grp.hit {
			summary.CacheHits++
		}
		for _, i := range grp.indices {
			out[i] = domain.Enrich(records[i], grp.query.Key(), grp.result, at)
			summary.Add(out[i])
			if !grp.result.Found {
				summary.Unresolved++
			}
		}
	}
	summary.Duration = time.Since(start)

	logger.Info("Batch done in %s: critical=%d high=%d medium=%d low=%d unknown=%d",
		summary.Duration, summary.Critical, summary.High, summary.Medium, summary.Low, summary.Unknown)

	if err := ctx.Err(); err != nil {
		return out, summary, fmt.Errorf("batch %s: %w", summary.RunID, err)
	}
	return out, summary, nil
}

// Lookup resolves a single software identity.
func (o *Orchestrator) Lookup(ctx context.Context, rec domain.SoftwareRecord) (domain.EnrichedRecord, error) {
	out, _, err := o.Enrich(ctx, []domain.SoftwareRecord{rec})
	if err != nil {
		return domain.EnrichedRecord{}, err
	}
	return out[0], nil
}

// FlushCache drops every cached result.
func (o *Orchestrator) FlushCache(ctx context.Context) error {
	if o.cache == nil {
		return nil
	}
	return o.cache.Flush(ctx)
}

// CacheStats reports cache counters.
func (o *Orchestrator) CacheStats(ctx context.Context) (driving.CacheStats, error) {
	if o.cache == nil {
		return driving.CacheStats{}, nil
	}
	return o.cache.Stats(ctx)
}

// group normalises records and buckets them by query key, keeping first-seen
// order so runs over the same input are reproducible.
func (o *Orchestrator) group(records []domain.SoftwareRecord) []*queryGroup {
	byKey := make(map[string]*queryGroup)
	var ordered []*queryGroup

	for i, rec := range records {
		q, variants, err := o.normaliser.Normalise(rec)
		invalid := err != nil
		if invalid {
			logger.Debug("Record %d (%s/%q): %v", i, rec.Computer, rec.Name, err)
		}

		key := q.Key()
		grp, ok := byKey[key]
		if !ok {
			grp = &queryGroup{query: q, variants: variants, invalid: invalid}
			byKey[key] = grp
			ordered = append(ordered, grp)
		}
		grp.indices = append(grp.indices, i)
	}
	return ordered
}

// resolve produces the result for one group. It never fails: errors are
// logged and degrade to not-found.
func (o *Orchestrator) resolve(
	ctx context.Context, grp *queryGroup, now func() time.Time,
) (domain.LookupResult, bool) {
	if grp.invalid {
		return domain.NotFound(""), false
	}

	start := time.Now()
	search := func(ctx context.Context) (domain.LookupResult, error) {
		return o.engine.Search(ctx, grp.query, grp.variants)
	}

	var (
		result domain.LookupResult
		hit    bool
		err    error
	)
	if o.cache != nil {
		result, hit, err = o.cache.Resolve(ctx, grp.query, search)
	} else {
		result, err = search(ctx)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("Query %s failed: %v", grp.query.Key(), err)
		}
		result, hit = domain.NotFound(""), false
	}

	if o.metrics != nil {
		strategy := ""
		if result.Found {
			strategy = result.Strategy.String()
		}
		o.metrics.QueryResolved(string(domain.Classify(result.EOLDate, now())), strategy, time.Since(start))
	}
	return result, hit
}
