package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eolscan/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

var orchestratorNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestOrchestrator(t *testing.T, sources ...*mockSource) *Orchestrator {
	t.Helper()
	engine, err := newTestEngine(nil, toLookupSources(sources)...)
	require.NoError(t, err)
	o := NewOrchestrator(engine, NewResultCache(testSettings(), memory.NewResultStore(), nil), testSettings(), nil)
	o.SetClock(func() time.Time { return orchestratorNow })
	return o
}

func toLookupSources(sources []*mockSource) []driven.LookupSource {
	out := make([]driven.LookupSource, len(sources))
	for i, s := range sources {
		out[i] = s
	}
	return out
}

func TestOrchestrator_Enrich_DedupsQueries(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.95, orchestratorNow.AddDate(0, 0, -10))
	o := newTestOrchestrator(t, distro)

	records := make([]domain.SoftwareRecord, 100)
	for i := range records {
		records[i] = domain.SoftwareRecord{Computer: "host", Name: "Ubuntu", Version: "20.04"}
	}

	out, summary, err := o.Enrich(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, out, 100)
	assert.Equal(t, int64(1), distro.callCount())
	assert.Equal(t, 100, summary.Total)
	assert.Equal(t, 1, summary.Distinct)
	assert.Equal(t, 100, summary.Critical)
	assert.NotEmpty(t, summary.RunID)
	for _, rec := range out {
		assert.Equal(t, domain.RiskCritical, rec.RiskLevel)
		assert.Equal(t, "distro", rec.SourceID)
	}
}

func TestOrchestrator_Enrich_SecondRunUsesCache(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.95, orchestratorNow.AddDate(1, 0, 0))
	generic := newGenericSource("generic").answering(0.85, orchestratorNow.AddDate(3, 0, 0))
	o := newTestOrchestrator(t, distro, generic)

	records := []domain.SoftwareRecord{
		{Computer: "a", Name: "Ubuntu", Version: "20.04"},
		{Computer: "b", Name: "nginx", Version: "1.24.0"},
	}

	first, _, err := o.Enrich(context.Background(), records)
	require.NoError(t, err)
	callsAfterFirst := distro.callCount() + generic.callCount()

	second, summary, err := o.Enrich(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, distro.callCount()+generic.callCount())
	assert.Equal(t, 2, summary.CacheHits)
	for i := range first {
		assert.Equal(t, first[i].RiskLevel, second[i].RiskLevel)
		assert.Equal(t, first[i].EOLDate, second[i].EOLDate)
		assert.Equal(t, first[i].SourceID, second[i].SourceID)
	}
}

func TestOrchestrator_Enrich_PreservesOrderAndCounts(t *testing.T) {
	eol := map[string]time.Time{
		"ubuntu": orchestratorNow.AddDate(0, 0, -1), // critical
		"debian": orchestratorNow.AddDate(0, 0, 30), // high
		"centos": orchestratorNow.AddDate(1, 0, 0),  // medium
		"alpine": orchestratorNow.AddDate(5, 0, 0),  // low
	}
	distro := newSpecificSource("distro", "ubuntu", "debian", "centos", "alpine")
	distro.respond = func(_ context.Context, v domain.Variant) (domain.LookupResult, error) {
		d, ok := eol[ProductKey(v.Name, "")]
		if !ok {
			return domain.NotFound("distro"), nil
		}
		return domain.LookupResult{Found: true, EOLDate: domain.Date(d), Confidence: 0.95}, nil
	}
	o := newTestOrchestrator(t, distro, newGenericSource("generic"))

	records := []domain.SoftwareRecord{
		{Computer: "1", Name: "Alpine", Version: "3.18"},
		{Computer: "2", Name: "Ubuntu", Version: "18.04"},
		{Computer: "3", Name: "Mystery Tool", Version: "0.1"},
		{Computer: "4", Name: "Debian", Version: "10"},
		{Computer: "5", Name: "CentOS", Version: "7"},
		{Computer: "6", Name: "", Version: "1.0"},
		{Computer: "7", Name: "Ubuntu", Version: "18.04"},
	}

	out, summary, err := o.Enrich(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, out, len(records))

	for i, rec := range out {
		assert.Equal(t, records[i].Computer, rec.Computer)
	}
	assert.Equal(t, domain.RiskLow, out[0].RiskLevel)
	assert.Equal(t, domain.RiskCritical, out[1].RiskLevel)
	assert.Equal(t, domain.RiskUnknown, out[2].RiskLevel)
	assert.Equal(t, domain.RiskHigh, out[3].RiskLevel)
	assert.Equal(t, domain.RiskMedium, out[4].RiskLevel)
	assert.Equal(t, domain.RiskUnknown, out[5].RiskLevel)
	assert.Equal(t, domain.DegenerateProductKey+"@", out[5].QueryKey)

	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 6, summary.Distinct)
	assert.Equal(t, 2, summary.Critical)
	assert.Equal(t, 1, summary.High)
	assert.Equal(t, 1, summary.Medium)
	assert.Equal(t, 1, summary.Low)
	assert.Equal(t, 2, summary.Unknown)
	assert.Equal(t, 2, summary.Unresolved)
}

func TestOrchestrator_Enrich_PartialFailuresDegrade(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	hung := newSpecificSource("hung", "ubuntu").blocking(release)
	o := newTestOrchestrator(t, hung)

	out, summary, err := o.Enrich(context.Background(), []domain.SoftwareRecord{
		{Computer: "a", Name: "Ubuntu", Version: "20.04"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RiskUnknown, out[0].RiskLevel)
	assert.Zero(t, out[0].ResolutionConfidence)
	assert.Equal(t, 1, summary.Unresolved)
}

func TestOrchestrator_Enrich_Progress(t *testing.T) {
	o := newTestOrchestrator(t, newGenericSource("generic").answering(0.9, orchestratorNow))

	var mu sync.Mutex
	var calls []int
	o.SetProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	})

	_, _, err := o.Enrich(context.Background(), []domain.SoftwareRecord{
		{Name: "a", Version: "1"}, {Name: "b", Version: "1"}, {Name: "c", Version: "1"}, {Name: "a", Version: "1"},
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, calls)
}

func TestOrchestrator_Enrich_EmptyBatch(t *testing.T) {
	o := newTestOrchestrator(t, newGenericSource("generic"))

	out, summary, err := o.Enrich(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, summary.Total)
}

func TestOrchestrator_Enrich_NoEngine(t *testing.T) {
	o := NewOrchestrator(nil, nil, testSettings(), nil)

	_, _, err := o.Enrich(context.Background(), []domain.SoftwareRecord{{Name: "x"}})
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestOrchestrator_Enrich_Cancelled(t *testing.T) {
	o := newTestOrchestrator(t, newGenericSource("generic").answering(0.9, orchestratorNow))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _, err := o.Enrich(ctx, []domain.SoftwareRecord{{Name: "nginx", Version: "1.0"}})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 1)
	assert.Equal(t, domain.RiskUnknown, out[0].RiskLevel)
}

func TestOrchestrator_Lookup(t *testing.T) {
	o := newTestOrchestrator(t, newGenericSource("generic").answering(0.9, orchestratorNow.AddDate(0, 2, 0)))

	rec, err := o.Lookup(context.Background(), domain.SoftwareRecord{Name: "nginx", Version: "1.24"})

	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, rec.RiskLevel)
	assert.Equal(t, "nginx@1.24", rec.QueryKey)
}

func TestOrchestrator_CacheAdmin(t *testing.T) {
	o := newTestOrchestrator(t, newGenericSource("generic").answering(0.9, orchestratorNow))
	ctx := context.Background()

	_, _, err := o.Enrich(ctx, []domain.SoftwareRecord{{Name: "nginx", Version: "1.0"}})
	require.NoError(t, err)

	stats, err := o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Misses)

	require.NoError(t, o.FlushCache(ctx))
	stats, err = o.CacheStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestOrchestrator_Enrich_MetricsUseClock(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.95, orchestratorNow.AddDate(0, 0, 10))
	engine, err := newTestEngine(nil, distro)
	require.NoError(t, err)
	metrics := newMockMetrics()
	o := NewOrchestrator(engine, nil, testSettings(), metrics)
	o.SetClock(func() time.Time { return orchestratorNow })

	out, _, err := o.Enrich(context.Background(), []domain.SoftwareRecord{{Name: "Ubuntu", Version: "20.04"}})

	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, out[0].RiskLevel)
	assert.Equal(t, 1, metrics.resolvedCount(string(domain.RiskHigh)))
	assert.Zero(t, metrics.resolvedCount(string(domain.RiskCritical)))
}
