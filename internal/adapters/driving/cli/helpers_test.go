package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
)

// mockLookupService is a mock implementation of driving.LookupService.
type mockLookupService struct {
	records []domain.EnrichedRecord
	summary domain.BatchSummary
	err     error

	gotBatch  []domain.SoftwareRecord
	gotRecord domain.SoftwareRecord
}

func (m *mockLookupService) Enrich(
	_ context.Context,
	records []domain.SoftwareRecord,
) ([]domain.EnrichedRecord, domain.BatchSummary, error) {
	m.gotBatch = records
	return m.records, m.summary, m.err
}

func (m *mockLookupService) Lookup(_ context.Context, rec domain.SoftwareRecord) (domain.EnrichedRecord, error) {
	m.gotRecord = rec
	if m.err != nil {
		return domain.EnrichedRecord{}, m.err
	}
	if len(m.records) == 0 {
		return domain.EnrichedRecord{SoftwareRecord: rec, RiskLevel: domain.RiskUnknown}, nil
	}
	return m.records[0], nil
}

// mockCacheAdmin is a mock implementation of driving.CacheAdmin.
type mockCacheAdmin struct {
	stats   driving.CacheStats
	err     error
	flushed bool
}

func (m *mockCacheAdmin) FlushCache(_ context.Context) error {
	m.flushed = true
	return m.err
}

func (m *mockCacheAdmin) CacheStats(_ context.Context) (driving.CacheStats, error) {
	return m.stats, m.err
}

// mockSourceCatalog is a mock implementation of driving.SourceCatalog.
type mockSourceCatalog struct {
	sources []driving.SourceInfo
}

func (m *mockSourceCatalog) Sources() []driving.SourceInfo {
	return m.sources
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	engine  domain.EngineSettings
	sources domain.SourceSettings
	set     map[string]string
	err     error
}

func (m *mockSettingsService) Engine() domain.EngineSettings  { return m.engine }
func (m *mockSettingsService) Sources() domain.SourceSettings { return m.sources }
func (m *mockSettingsService) Keys() []string                 { return []string{"cache.ttl", "engine.source_timeout"} }

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

// testEnv holds the mocks wired into the CLI for one test.
type testEnv struct {
	lookup   *mockLookupService
	cache    *mockCacheAdmin
	catalog  *mockSourceCatalog
	settings *mockSettingsService
	closed   int
	opts     Options
}

var (
	pastEOL   = time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
	futureEOL = time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
)

// setupTestServices installs mock services and returns a cleanup func.
func setupTestServices() (*testEnv, func()) {
	env := &testEnv{
		lookup: &mockLookupService{
			records: []domain.EnrichedRecord{
				{
					SoftwareRecord:       domain.SoftwareRecord{Computer: "web-01", Name: "CentOS", Version: "7"},
					QueryKey:             "centos@7",
					EOLDate:              &pastEOL,
					RiskLevel:            domain.RiskCritical,
					ResolutionConfidence: 0.95,
					SourceID:             "endoflife-distro",
				},
				{
					SoftwareRecord:       domain.SoftwareRecord{Computer: "web-02", Name: "Debian", Version: "12"},
					QueryKey:             "debian@12",
					EOLDate:              &futureEOL,
					RiskLevel:            domain.RiskLow,
					ResolutionConfidence: 0.95,
					SourceID:             "endoflife-distro",
				},
			},
			summary: domain.BatchSummary{RunID: "run-1", Total: 2, Distinct: 2, Critical: 1, Low: 1},
		},
		cache: &mockCacheAdmin{stats: driving.CacheStats{Entries: 2, Hits: 5, Misses: 2, Persistent: true, Persisted: 7}},
		catalog: &mockSourceCatalog{sources: []driving.SourceInfo{
			{ID: "microsoft", Position: 0, Affinity: driven.SourceAffinity{Specific: true, Keywords: []string{"windows", "sql server"}}},
			{ID: "endoflife-generic", Position: 1},
		}},
		settings: &mockSettingsService{
			engine:  domain.DefaultEngineSettings(),
			sources: domain.DefaultSourceSettings(),
		},
	}

	SetFactory(Factory{
		Settings: func(opts Options) (driving.SettingsService, error) {
			env.opts = opts
			return env.settings, nil
		},
		Runtime: func(_ context.Context, opts Options) (*Runtime, error) {
			env.opts = opts
			return &Runtime{
				Lookup:  env.lookup,
				Cache:   env.cache,
				Sources: env.catalog,
				Close: func() error {
					env.closed++
					return nil
				},
			}, nil
		},
	})

	return env, func() {
		SetFactory(Factory{})
		resetFlags()
	}
}

// setupFailingRuntime installs a factory whose runtime cannot be built.
func setupFailingRuntime(err error) func() {
	SetFactory(Factory{
		Runtime: func(context.Context, Options) (*Runtime, error) { return nil, err },
	})
	return func() {
		SetFactory(Factory{})
		resetFlags()
	}
}

// resetFlags restores package-level flag variables between tests.
func resetFlags() {
	verbose, configDir, noPersist = false, "", false
	scanInput, scanOutput, scanFormat = "-", "", formatAuto
	scanMinRisk, scanFailOn, scanMetricsAddr, scanNoProgress = "", "", "", false
	lookupPublisher, lookupJSON = "", false
	cacheStatsJSON, sourcesJSON = false, false
}

// execute runs the root command with args and optional stdin.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

var errBoom = errors.New("boom")
