package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
)

// Ensure SourceRegistry implements the interface.
var _ driving.SourceCatalog = (*SourceRegistry)(nil)

// registeredSource is a lookup source with its affinity captured at
// registration time.
type registeredSource struct {
	source   driven.LookupSource
	affinity driven.SourceAffinity
	position int
}

// SourceRegistry holds the lookup sources known to the engine, in
// registration order.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources []registeredSource
	ids     map[string]bool
}

// NewSourceRegistry creates a registry and registers the given sources in order.
func NewSourceRegistry(sources ...driven.LookupSource) (*SourceRegistry, error) {
	r := &SourceRegistry{ids: make(map[string]bool)}
	for _, s := range sources {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a source. IDs must be unique.
func (r *SourceRegistry) Register(source driven.LookupSource) error {
	if source == nil {
		return fmt.Errorf("%w: nil lookup source", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := source.ID()
	if id == "" {
		return fmt.Errorf("%w: lookup source without id", domain.ErrInvalidInput)
	}
	if r.ids[id] {
		return fmt.Errorf("%w: duplicate lookup source %q", domain.ErrInvalidInput, id)
	}

	aff := source.Affinity()
	keywords := make([]string, 0, len(aff.Keywords))
	for _, kw := range aff.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	aff.Keywords = keywords

	r.ids[id] = true
	r.sources = append(r.sources, registeredSource{
		source:   source,
		affinity: aff,
		position: len(r.sources),
	})
	return nil
}

// Len returns the number of registered sources.
func (r *SourceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

// Sources returns source descriptions in registration order.
func (r *SourceRegistry) Sources() []driving.SourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]driving.SourceInfo, len(r.sources))
	for i, s := range r.sources {
		out[i] = driving.SourceInfo{
			ID:       s.source.ID(),
			Position: s.position,
			Affinity: s.affinity,
		}
	}
	return out
}

// Close releases resources held by sources that implement driven.Closer.
func (r *SourceRegistry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, s := range r.sources {
		if c, ok := s.source.(driven.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.source.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func (r *SourceRegistry) snapshot() []registeredSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]registeredSource, len(r.sources))
	copy(out, r.sources)
	return out
}

// RoutedSource is a source selected for a query, with the data the engine
// needs to gate and rank its results.
type RoutedSource struct {
	Source      driven.LookupSource
	Specific    bool
	Threshold   float64
	Specificity int
	Rank        int
}

// SourceRouter orders the registered sources for a query. It performs no I/O.
type SourceRouter struct {
	registry *SourceRegistry
}

// NewSourceRouter creates a router over a registry.
func NewSourceRouter(registry *SourceRegistry) *SourceRouter {
	return &SourceRouter{registry: registry}
}

// Len returns the number of sources the router can choose from.
func (r *SourceRouter) Len() int {
	if r == nil || r.registry == nil {
		return 0
	}
	return r.registry.Len()
}

// Route returns the candidate sources for q: specific sources whose keywords
// match, most specific first, then every generic source. Ties keep
// registration order.
func (r *SourceRouter) Route(q domain.NormalizedQuery) []RoutedSource {
	if r.Len() == 0 {
		return nil
	}

	var specific, generic []RoutedSource
	for _, s := range r.registry.snapshot() {
		if !s.affinity.Specific {
			generic = append(generic, RoutedSource{
				Source:    s.source,
				Threshold: s.affinity.Threshold(),
			})
			continue
		}
		score := matchScore(q, s.affinity.Keywords)
		if score == 0 {
			continue
		}
		specific = append(specific, RoutedSource{
			Source:      s.source,
			Specific:    true,
			Threshold:   s.affinity.Threshold(),
			Specificity: score,
		})
	}

	sort.SliceStable(specific, func(i, j int) bool {
		return specific[i].Specificity > specific[j].Specificity
	})

	routed := append(specific, generic...)
	for i := range routed {
		routed[i].Rank = i
	}
	return routed
}

// matchScore returns the length of the longest keyword found in the product
// key on word boundaries. A keyword equal to the vendor hint scores 1.
func matchScore(q domain.NormalizedQuery, keywords []string) int {
	padded := " " + strings.NewReplacer("-", " ", "_", " ").Replace(q.ProductKey) + " "

	best := 0
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") && len(kw) > best {
			best = len(kw)
		}
		if best == 0 && q.VendorHint != "" && kw == q.VendorHint {
			best = 1
		}
	}
	return best
}
