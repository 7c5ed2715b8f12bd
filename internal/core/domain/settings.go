package domain

import (
	"fmt"
	"time"
)

// Engine defaults used when the configuration is silent.
const (
	DefaultMaxConcurrentQueries = 8
	DefaultMaxConcurrentCalls   = 16
	DefaultSourceTimeout        = 10 * time.Second
	DefaultQueryDeadline        = 30 * time.Second
	DefaultCacheTTL             = 24 * time.Hour
	DefaultNegativeCacheTTL     = time.Hour
	DefaultCacheCapacity        = 50000
)

// Confidence thresholds that end a search early.
const (
	SpecificThreshold = 0.90
	GenericThreshold  = 0.80
)

// EngineSettings configures the search engine, cache, and orchestrator.
type EngineSettings struct {
	// MaxConcurrentQueries bounds distinct queries resolved in parallel.
	MaxConcurrentQueries int

	// MaxConcurrentCalls bounds source calls in flight across all queries.
	MaxConcurrentCalls int

	// SourceTimeout bounds a single source call.
	SourceTimeout time.Duration

	// QueryDeadline bounds all strategies for one query.
	QueryDeadline time.Duration

	// CacheTTL is how long a found result stays fresh.
	CacheTTL time.Duration

	// NegativeCacheTTL is how long a not-found result stays fresh.
	NegativeCacheTTL time.Duration

	// CacheCapacity bounds the number of in-memory entries.
	CacheCapacity int

	// PersistCache enables the on-disk cache tier.
	PersistCache bool
}

// DefaultEngineSettings returns settings with all defaults applied.
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		MaxConcurrentQueries: DefaultMaxConcurrentQueries,
		MaxConcurrentCalls:   DefaultMaxConcurrentCalls,
		SourceTimeout:        DefaultSourceTimeout,
		QueryDeadline:        DefaultQueryDeadline,
		CacheTTL:             DefaultCacheTTL,
		NegativeCacheTTL:     DefaultNegativeCacheTTL,
		CacheCapacity:        DefaultCacheCapacity,
		PersistCache:         true,
	}
}

// WithDefaults fills zero fields from DefaultEngineSettings.
func (s EngineSettings) WithDefaults() EngineSettings {
	d := DefaultEngineSettings()
	if s.MaxConcurrentQueries <= 0 {
		s.MaxConcurrentQueries = d.MaxConcurrentQueries
	}
	if s.MaxConcurrentCalls <= 0 {
		s.MaxConcurrentCalls = d.MaxConcurrentCalls
	}
	if s.SourceTimeout <= 0 {
		s.SourceTimeout = d.SourceTimeout
	}
	if s.QueryDeadline <= 0 {
		s.QueryDeadline = d.QueryDeadline
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = d.CacheTTL
	}
	if s.NegativeCacheTTL <= 0 {
		s.NegativeCacheTTL = d.NegativeCacheTTL
	}
	if s.CacheCapacity <= 0 {
		s.CacheCapacity = d.CacheCapacity
	}
	return s
}

// Validate checks settings for values that cannot work.
func (s EngineSettings) Validate() error {
	if s.QueryDeadline < s.SourceTimeout {
		return fmt.Errorf("%w: query deadline %s shorter than source timeout %s",
			ErrInvalidInput, s.QueryDeadline, s.SourceTimeout)
	}
	return nil
}

// Source defaults used when the configuration is silent.
const (
	DefaultEndOfLifeBaseURL = "https://endoflife.date"
	DefaultEndOfLifeRate    = 5.0
)

// SourceSettings configures the built-in lookup sources.
type SourceSettings struct {
	// EndOfLifeBaseURL is the root of the endoflife.date API.
	EndOfLifeBaseURL string

	// EndOfLifeRate is the request rate (per second) towards endoflife.date.
	EndOfLifeRate float64

	// GitHubToken authenticates the release source. Optional.
	GitHubToken string

	// GitHubRepos maps product keys to "owner/repo".
	GitHubRepos map[string]string

	// LocalPath is the administrator overrides file. Empty disables the source.
	LocalPath string

	// Disabled lists source IDs that must not be registered.
	Disabled []string
}

// DefaultSourceSettings returns source settings with defaults applied.
func DefaultSourceSettings() SourceSettings {
	return SourceSettings{
		EndOfLifeBaseURL: DefaultEndOfLifeBaseURL,
		EndOfLifeRate:    DefaultEndOfLifeRate,
		GitHubRepos:      map[string]string{},
	}
}

// IsDisabled reports whether a source ID was disabled by configuration.
func (s SourceSettings) IsDisabled(id string) bool {
	for _, d := range s.Disabled {
		if d == id {
			return true
		}
	}
	return false
}
