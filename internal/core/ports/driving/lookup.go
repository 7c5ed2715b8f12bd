package driving

import (
	"context"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

// LookupService resolves end-of-life data for inventory records.
type LookupService interface {
	// Enrich resolves every record in the batch. Individual failures
	// degrade to RiskUnknown; only misconfiguration returns an error.
	Enrich(ctx context.Context, records []domain.SoftwareRecord) ([]domain.EnrichedRecord, domain.BatchSummary, error)

	// Lookup resolves a single software identity.
	Lookup(ctx context.Context, rec domain.SoftwareRecord) (domain.EnrichedRecord, error)
}

// CacheAdmin exposes administrative cache operations.
type CacheAdmin interface {
	// FlushCache drops every cached result, in memory and on disk.
	FlushCache(ctx context.Context) error

	// CacheStats reports cache counters.
	CacheStats(ctx context.Context) (CacheStats, error)
}

// CacheStats describes the state of the result cache.
type CacheStats struct {
	Entries    int   `json:"entries"`
	Persisted  int   `json:"persisted"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Shared     int64 `json:"shared"`
	Evictions  int64 `json:"evictions"`
	Persistent bool  `json:"persistent"`
}

// SourceCatalog lists the registered lookup sources.
type SourceCatalog interface {
	// Sources returns source descriptions in registration order.
	Sources() []SourceInfo
}

// SourceInfo describes one registered lookup source.
type SourceInfo struct {
	ID       string                `json:"id"`
	Position int                   `json:"position"`
	Affinity driven.SourceAffinity `json:"affinity"`
}
