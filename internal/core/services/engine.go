package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/logger"
)

// Source call outcomes reported to the metrics recorder.
const (
	outcomeFound     = "found"
	outcomeNotFound  = "not_found"
	outcomeTimeout   = "timeout"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

// candidate is a found result together with what is needed to rank it.
type candidate struct {
	result   domain.LookupResult
	specific bool
	rank     int
}

// better reports whether a outranks b: higher confidence, then a specific
// source, then an earlier strategy, then an earlier routed position.
func (a candidate) better(b candidate) bool {
	if a.result.Confidence != b.result.Confidence {
		return a.result.Confidence > b.result.Confidence
	}
	if a.specific != b.specific {
		return a.specific
	}
	if a.result.Strategy != b.result.Strategy {
		return a.result.Strategy < b.result.Strategy
	}
	return a.rank < b.rank
}

// callOutcome is what one source call sends back to its strategy.
type callOutcome struct {
	routed RoutedSource
	result domain.LookupResult
	err    error
}

// SearchEngine runs the confidence-gated search for a single query.
type SearchEngine struct {
	router   *SourceRouter
	settings domain.EngineSettings
	calls    *semaphore.Weighted
	metrics  driven.MetricsRecorder
}

// NewSearchEngine creates a search engine over the router's sources.
// The metrics recorder is optional (can be nil). An empty router is a
// configuration error.
func NewSearchEngine(
	router *SourceRouter,
	settings domain.EngineSettings,
	metrics driven.MetricsRecorder,
) (*SearchEngine, error) {
	if router.Len() == 0 {
		return nil, domain.ErrNoSources
	}
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &SearchEngine{
		router:   router,
		settings: settings,
		calls:    semaphore.NewWeighted(int64(settings.MaxConcurrentCalls)),
		metrics:  metrics,
	}, nil
}

// Search resolves q by trying each strategy's variant against the routed
// sources until a result clears its source's confidence threshold. The
// returned result is always the best found so far across strategies and
// tiers, so a qualifying answer never displaces a better one already seen.
// When nothing is found at all, a not-found result with zero confidence.
//
// Per-source failures are absorbed. The returned error is non-nil only if
// ctx itself is done before any result was found.
func (e *SearchEngine) Search(
	ctx context.Context, q domain.NormalizedQuery, variants []domain.Variant,
) (domain.LookupResult, error) {
	if q.IsDegenerate() || len(variants) == 0 {
		return domain.NotFound(""), nil
	}

	routed := e.router.Route(q)
	if len(routed) == 0 {
		logger.Debug("No sources routed for %s", q.Key())
		return domain.NotFound(""), nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.settings.QueryDeadline)
	defer cancel()

	specific, generic := splitTiers(routed)

	var best *candidate
	for _, strategy := range domain.Strategies {
		v, ok := domain.VariantFor(variants, strategy)
		if !ok {
			continue
		}

		for _, tier := range [][]RoutedSource{specific, generic} {
			if len(tier) == 0 {
				continue
			}
			winner, tierBest := e.runTier(ctx, tier, v)
			if tierBest != nil && (best == nil || tierBest.better(*best)) {
				best = tierBest
			}
			if winner != nil {
				// A qualifying answer ends the search, but an earlier
				// non-qualifying one may still outrank it.
				if best.better(*winner) {
					winner = best
				}
				logger.Debug("Query %s resolved by %s (%s, %.2f)",
					q.Key(), winner.result.SourceID, winner.result.Strategy, winner.result.Confidence)
				return winner.result, nil
			}
			if ctx.Err() != nil {
				break
			}
		}
		if ctx.Err() != nil {
			logger.Warn("Query %s stopped at %s: %v", q.Key(), strategy, ctx.Err())
			break
		}
	}

	if best != nil {
		logger.Debug("Query %s best effort from %s (%.2f)", q.Key(), best.result.SourceID, best.result.Confidence)
		return best.result, nil
	}
	if err := ctx.Err(); err != nil && errors.Is(err, context.Canceled) {
		return domain.NotFound(""), err
	}
	return domain.NotFound(""), nil
}

// splitTiers separates routed sources into specific and generic tiers,
// preserving route order.
func splitTiers(routed []RoutedSource) (specific, generic []RoutedSource) {
	for _, rs := range routed {
		if rs.Specific {
			specific = append(specific, rs)
		} else {
			generic = append(generic, rs)
		}
	}
	return specific, generic
}

// runTier fans v out to every source in the tier concurrently. It returns
// the winning candidate as soon as one clears its threshold, cancelling the
// remaining calls, or else the best found candidate of the tier.
func (e *SearchEngine) runTier(ctx context.Context, tier []RoutedSource, v domain.Variant) (winner, best *candidate) {
	tierCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan callOutcome, len(tier))
	for _, rs := range tier {
		go func(rs RoutedSource) {
			outcomes <- e.call(tierCtx, rs, v)
		}(rs)
	}

	consider := func(o callOutcome) {
		if o.err != nil || !o.result.Found {
			return
		}
		c := candidate{result: o.result, specific: o.routed.Specific, rank: o.routed.Rank}
		if best == nil || c.better(*best) {
			best = &c
		}
		if c.result.Confidence >= o.routed.Threshold && (winner == nil || c.better(*winner)) {
			winner = &c
		}
	}

	for received := 0; received < len(tier); received++ {
		consider(<-outcomes)
		if winner == nil {
			continue
		}

		// Stop outstanding calls, then rank whatever already finished so the
		// winner is decided by the tie-break rules rather than arrival order.
		cancel()
	drain:
		for n := received + 1; n < len(tier); n++ {
			select {
			case o := <-outcomes:
				consider(o)
			default:
				break drain
			}
		}
		return winner, best
	}
	return nil, best
}

// call runs one bounded, timed source lookup. Sources that ignore their
// context are abandoned at the timeout; their late answer is discarded.
func (e *SearchEngine) call(ctx context.Context, rs RoutedSource, v domain.Variant) callOutcome {
	id := rs.Source.ID()
	out := callOutcome{routed: rs, result: domain.NotFound(id)}

	if err := e.calls.Acquire(ctx, 1); err != nil {
		out.err = err
		e.recordCall(id, outcomeCancelled, 0)
		return out
	}
	defer e.calls.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, e.settings.SourceTimeout)
	defer cancel()

	type answer struct {
		result domain.LookupResult
		err    error
	}
	done := make(chan answer, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- answer{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := rs.Source.Lookup(callCtx, v)
		done <- answer{result: res, err: err}
	}()

	select {
	case a := <-done:
		out.result, out.err = a.result, a.err
	case <-callCtx.Done():
		out.err = callCtx.Err()
	}
	elapsed := time.Since(start)

	if out.err != nil {
		out.err = classifySourceError(ctx, callCtx, out.err)
		out.result = domain.NotFound(id)
		outcome := outcomeError
		switch {
		case errors.Is(out.err, domain.ErrSourceTimeout):
			outcome = outcomeTimeout
		case errors.Is(out.err, context.Canceled):
			outcome = outcomeCancelled
		}
		if outcome != outcomeCancelled {
			logger.Warn("Source %s failed for %q (%s): %v", id, v.Name, v.Strategy, out.err)
		}
		e.recordCall(id, outcome, elapsed)
		return out
	}

	res := out.result.Normalise()
	if res.SourceID == "" {
		res.SourceID = id
	}
	res.Strategy = v.Strategy
	out.result = res

	if res.Found {
		e.recordCall(id, outcomeFound, elapsed)
	} else {
		e.recordCall(id, outcomeNotFound, elapsed)
	}
	return out
}

// classifySourceError maps a raw call error onto the source error taxonomy.
// Cancellation by the engine is passed through unchanged.
func classifySourceError(parent, callCtx context.Context, err error) error {
	switch {
	case parent.Err() != nil && errors.Is(parent.Err(), context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded), callCtx.Err() == context.DeadlineExceeded:
		return fmt.Errorf("%w: %w", domain.ErrSourceTimeout, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrSourceError, err)
	}
}

func (e *SearchEngine) recordCall(sourceID, outcome string, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.SourceCall(sourceID, outcome, elapsed)
	}
}
