package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/eolscan/internal/core/domain"
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

// mockSourceCatalog is a mock implementation of driving.SourceCatalog.
type mockSourceCatalog struct {
	sources []driving.SourceInfo
}

func (m *mockSourceCatalog) Sources() []driving.SourceInfo {
	return m.sources
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

func enriched(name, version string, risk domain.RiskLevel, eol *time.Time) domain.EnrichedRecord {
	return domain.EnrichedRecord{
		SoftwareRecord:       domain.SoftwareRecord{Computer: "host-1", Name: name, Version: version},
		QueryKey:             name + "@" + version,
		EOLDate:              eol,
		RiskLevel:            risk,
		ResolutionConfidence: 0.95,
		SourceID:             "endoflife-distro",
	}
}
