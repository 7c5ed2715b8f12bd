package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

var testEOL = time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)

func normalise(t *testing.T, name, version string) (domain.NormalizedQuery, []domain.Variant) {
	t.Helper()
	q, variants, err := NewNormaliser().Normalise(domain.SoftwareRecord{Name: name, Version: version})
	require.NoError(t, err)
	return q, variants
}

func TestNewSearchEngine_NoSources(t *testing.T) {
	_, err := newTestEngine(nil)
	assert.ErrorIs(t, err, domain.ErrNoSources)
}

func TestNewSearchEngine_InvalidSettings(t *testing.T) {
	reg, err := NewSourceRegistry(newGenericSource("g"))
	require.NoError(t, err)

	settings := testSettings()
	settings.QueryDeadline = settings.SourceTimeout / 2
	_, err = NewSearchEngine(NewSourceRouter(reg), settings, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchEngine_Search_SpecialistEndsSearch(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.95, testEOL)
	generic := newGenericSource("generic").answering(0.99, testEOL)
	metrics := newMockMetrics()
	engine, err := newTestEngine(metrics, generic, distro)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "distro", res.SourceID)
	assert.Equal(t, 0.95, res.Confidence)
	assert.Equal(t, domain.StrategyExact, res.Strategy)
	assert.Equal(t, int64(1), distro.callCount())
	assert.Equal(t, int64(0), generic.callCount())
	assert.Equal(t, 1, metrics.sourceCalls("distro/found"))
}

func TestSearchEngine_Search_NothingFound(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu")
	generic := newGenericSource("generic")
	engine, err := newTestEngine(nil, distro, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.EOLDate)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, int64(3), distro.callCount())
	assert.Equal(t, int64(3), generic.callCount())
}

func TestSearchEngine_Search_DegenerateQuery(t *testing.T) {
	generic := newGenericSource("generic").answering(1, testEOL)
	engine, err := newTestEngine(nil, generic)
	require.NoError(t, err)

	q, variants, _ := NewNormaliser().Normalise(domain.SoftwareRecord{})
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, int64(0), generic.callCount())
}

func TestSearchEngine_Search_SurvivesSlowAndFailingSources(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	hung := newSpecificSource("hung", "ubuntu").blocking(release)
	broken := newSpecificSource("broken", "ubuntu").failing(errors.New("boom"))
	generic := newGenericSource("generic").answering(0.85, testEOL)
	metrics := newMockMetrics()
	engine, err := newTestEngine(metrics, hung, broken, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	start := time.Now()
	res, err := engine.Search(context.Background(), q, variants)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "generic", res.SourceID)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 1, metrics.sourceCalls("hung/timeout"))
	assert.Equal(t, 1, metrics.sourceCalls("broken/error"))
}

func TestSearchEngine_Search_PanickingSource(t *testing.T) {
	bad := newSpecificSource("bad", "ubuntu")
	bad.respond = func(context.Context, domain.Variant) (domain.LookupResult, error) {
		panic("nil map")
	}
	generic := newGenericSource("generic").answering(0.9, testEOL)
	metrics := newMockMetrics()
	engine, err := newTestEngine(metrics, bad, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.Equal(t, "generic", res.SourceID)
	assert.Equal(t, 1, metrics.sourceCalls("bad/error"))
}

func TestSearchEngine_Search_BestEffortAcrossStrategies(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu")
	distro.respond = func(_ context.Context, v domain.Variant) (domain.LookupResult, error) {
		conf := 0.5
		if v.Strategy == domain.StrategyNormalized {
			conf = 0.85
		}
		return domain.LookupResult{Found: true, Cycle: "20.04", EOLDate: domain.Date(testEOL), Confidence: conf}, nil
	}
	engine, err := newTestEngine(nil, distro)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 0.85, res.Confidence)
	assert.Equal(t, domain.StrategyNormalized, res.Strategy)
	assert.Equal(t, int64(3), distro.callCount())
}

func TestSearchEngine_Search_GenericThresholdIsLower(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.81, testEOL)
	generic := newGenericSource("generic").answering(0.82, testEOL)
	engine, err := newTestEngine(nil, distro, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.Equal(t, "generic", res.SourceID)
	assert.Equal(t, domain.StrategyExact, res.Strategy)
	assert.Equal(t, int64(1), generic.callCount())
}

func TestSearchEngine_Search_QualifyingResultKeepsBetterBest(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.89, testEOL)
	generic := newGenericSource("generic").answering(0.80, testEOL)
	engine, err := newTestEngine(nil, distro, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.Equal(t, "distro", res.SourceID)
	assert.Equal(t, 0.89, res.Confidence)
	assert.Equal(t, domain.StrategyExact, res.Strategy)
	assert.Equal(t, int64(1), distro.callCount())
	assert.Equal(t, int64(1), generic.callCount())
}

func TestSearchEngine_Search_EqualConfidencePrefersSpecific(t *testing.T) {
	distro := newSpecificSource("distro", "ubuntu").answering(0.85, testEOL)
	generic := newGenericSource("generic").answering(0.85, testEOL)
	engine, err := newTestEngine(nil, generic, distro)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.Equal(t, "distro", res.SourceID)
	assert.Equal(t, int64(1), generic.callCount())
}

func TestSearchEngine_Search_ProductNamedUnknownIsSearched(t *testing.T) {
	generic := newGenericSource("generic").answering(0.9, testEOL)
	engine, err := newTestEngine(nil, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Unknown", "1.0")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, int64(1), generic.callCount())
}

func TestSearchEngine_Search_ClampsConfidence(t *testing.T) {
	generic := newGenericSource("generic").answering(1.7, testEOL)
	engine, err := newTestEngine(nil, generic)
	require.NoError(t, err)

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(context.Background(), q, variants)

	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestSearchEngine_Search_CancelledContext(t *testing.T) {
	generic := newGenericSource("generic").answering(0.9, testEOL)
	engine, err := newTestEngine(nil, generic)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q, variants := normalise(t, "Ubuntu", "20.04")
	res, err := engine.Search(ctx, q, variants)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Found)
}

func TestCandidate_Better(t *testing.T) {
	mk := func(conf float64, specific bool, s domain.Strategy, rank int) candidate {
		return candidate{
			result:   domain.LookupResult{Found: true, Confidence: conf, Strategy: s},
			specific: specific,
			rank:     rank,
		}
	}

	assert.True(t, mk(0.9, false, domain.StrategyNormalized, 5).better(mk(0.8, true, domain.StrategyExact, 0)))
	assert.True(t, mk(0.9, true, domain.StrategyNormalized, 5).better(mk(0.9, false, domain.StrategyExact, 0)))
	assert.True(t, mk(0.9, true, domain.StrategyExact, 5).better(mk(0.9, true, domain.StrategyNameOnly, 0)))
	assert.True(t, mk(0.9, true, domain.StrategyExact, 0).better(mk(0.9, true, domain.StrategyExact, 1)))
	assert.False(t, mk(0.9, true, domain.StrategyExact, 1).better(mk(0.9, true, domain.StrategyExact, 1)))
}
