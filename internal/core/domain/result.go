package domain

import "time"

// LookupResult is what a lookup source reports for one variant.
// Results are never mutated after creation; refreshes replace them.
type LookupResult struct {
	Found         bool       `json:"found"`
	Cycle         string     `json:"cycle,omitempty"`
	EOLDate       *time.Time `json:"eol_date,omitempty"`
	LatestVersion string     `json:"latest_version,omitempty"`
	IsLTS         bool       `json:"is_lts"`
	Confidence    float64    `json:"confidence"`
	SourceID      string     `json:"source_id,omitempty"`
	Strategy      Strategy   `json:"strategy"`
}

// NotFound returns the canonical "no data" result for a source.
func NotFound(sourceID string) LookupResult {
	return LookupResult{SourceID: sourceID}
}

// Normalise enforces the result invariants: a not-found result carries no
// EOL date and no confidence, and confidence is clamped to [0, 1].
func (r LookupResult) Normalise() LookupResult {
	if !r.Found {
		r.EOLDate = nil
		r.Confidence = 0
		return r
	}
	switch {
	case r.Confidence < 0:
		r.Confidence = 0
	case r.Confidence > 1:
		r.Confidence = 1
	}
	return r
}

// Date truncates t to a UTC calendar day and returns a pointer to it.
func Date(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// CacheEntry is a resolved result held by the result cache.
type CacheEntry struct {
	Query     NormalizedQuery
	Result    LookupResult
	ExpiresAt time.Time
}

// Expired reports whether the entry is stale at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
