package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

// mockSource is a configurable driven.LookupSource.
type mockSource struct {
	id       string
	affinity driven.SourceAffinity

	// respond produces the answer for a variant. Nil means not found.
	respond func(ctx context.Context, v domain.Variant) (domain.LookupResult, error)

	calls  atomic.Int64
	closed atomic.Bool

	mu       sync.Mutex
	variants []domain.Variant
}

func newSpecificSource(id string, keywords ...string) *mockSource {
	return &mockSource{id: id, affinity: driven.SourceAffinity{Specific: true, Keywords: keywords}}
}

func newGenericSource(id string) *mockSource {
	return &mockSource{id: id}
}

// answering makes the source return a found result for every variant.
func (m *mockSource) answering(confidence float64, eol time.Time) *mockSource {
	m.respond = func(_ context.Context, _ domain.Variant) (domain.LookupResult, error) {
		return domain.LookupResult{
			Found:      true,
			Cycle:      "1.0",
			EOLDate:    domain.Date(eol),
			Confidence: confidence,
		}, nil
	}
	return m
}

// failing makes the source return err for every variant.
func (m *mockSource) failing(err error) *mockSource {
	m.respond = func(_ context.Context, _ domain.Variant) (domain.LookupResult, error) {
		return domain.LookupResult{}, err
	}
	return m
}

// blocking makes the source hang, ignoring its context, until release is closed.
func (m *mockSource) blocking(release <-chan struct{}) *mockSource {
	m.respond = func(_ context.Context, _ domain.Variant) (domain.LookupResult, error) {
		<-release
		return domain.LookupResult{Found: true, Confidence: 1}, nil
	}
	return m
}

func (m *mockSource) ID() string                      { return m.id }
func (m *mockSource) Affinity() driven.SourceAffinity { return m.affinity }
func (m *mockSource) callCount() int64                { return m.calls.Load() }

func (m *mockSource) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *mockSource) Lookup(ctx context.Context, v domain.Variant) (domain.LookupResult, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.variants = append(m.variants, v)
	m.mu.Unlock()

	if m.respond == nil {
		return domain.NotFound(m.id), nil
	}
	return m.respond(ctx, v)
}

func (m *mockSource) seen() []domain.Variant {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Variant, len(m.variants))
	copy(out, m.variants)
	return out
}

// mockMetrics records calls made to driven.MetricsRecorder.
type mockMetrics struct {
	mu       sync.Mutex
	calls    map[string]int
	cache    map[string]int
	resolved map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		calls:    make(map[string]int),
		cache:    make(map[string]int),
		resolved: make(map[string]int),
	}
}

func (m *mockMetrics) SourceCall(sourceID, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[sourceID+"/"+outcome]++
}

func (m *mockMetrics) CacheLookup(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[outcome]++
}

func (m *mockMetrics) QueryResolved(risk, _ string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved[risk]++
}

func (m *mockMetrics) sourceCalls(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func (m *mockMetrics) cacheLookups(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[outcome]
}

// failingResultStore is a driven.ResultStore whose every operation fails.
type failingResultStore struct {
	err error
}

func (s failingResultStore) Get(context.Context, string) (*domain.CacheEntry, error) {
	return nil, s.err
}
func (s failingResultStore) Put(context.Context, domain.CacheEntry) error { return s.err }
func (s failingResultStore) Delete(context.Context, string) error         { return s.err }
func (s failingResultStore) Purge(context.Context) (int, error)           { return 0, s.err }
func (s failingResultStore) PurgeExpired(context.Context) (int, error)    { return 0, s.err }
func (s failingResultStore) Count(context.Context) (int, error)           { return 0, s.err }

// testSettings returns engine settings with short timeouts for tests.
func testSettings() domain.EngineSettings {
	s := domain.DefaultEngineSettings()
	s.SourceTimeout = 200 * time.Millisecond
	s.QueryDeadline = 2 * time.Second
	return s
}

// newTestEngine builds an engine over the given sources.
func newTestEngine(metrics driven.MetricsRecorder, sources ...driven.LookupSource) (*SearchEngine, error) {
	reg, err := NewSourceRegistry(sources...)
	if err != nil {
		return nil, err
	}
	return NewSearchEngine(NewSourceRouter(reg), testSettings(), metrics)
}

func (m *mockMetrics) resolvedCount(risk string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolved[risk]
}
