package driven

import (
	"context"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

// LookupSource answers lifecycle queries for one vendor or product family,
// or acts as a generic fallback. Each implementation lives under
// internal/sources and is registered once at startup.
//
// Implementations must be safe for concurrent use and must return promptly
// when ctx is done. "Not found" is a normal result (Found == false) with a
// nil error; errors are reserved for failures.
type LookupSource interface {
	// ID returns a stable identifier reported in LookupResult.SourceID.
	ID() string

	// Affinity declares which products the source claims.
	// It is read once at registration and must not change afterwards.
	Affinity() SourceAffinity

	// Lookup resolves a single variant.
	Lookup(ctx context.Context, v domain.Variant) (domain.LookupResult, error)
}

// SourceAffinity is the static routing declaration of a lookup source.
type SourceAffinity struct {
	// Specific marks a vendor-specific source. Specific sources are only
	// routed queries matching one of their keywords and must reach a
	// higher confidence before they end a search.
	Specific bool

	// Keywords are lower-case product or vendor terms the source claims,
	// e.g. "ubuntu" or "sql server". Ignored for generic sources.
	Keywords []string
}

// Threshold returns the confidence at which a result from this source ends
// a search.
func (a SourceAffinity) Threshold() float64 {
	if a.Specific {
		return domain.SpecificThreshold
	}
	return domain.GenericThreshold
}

// Closer is implemented by sources holding resources (watchers, clients).
type Closer interface {
	Close() error
}
