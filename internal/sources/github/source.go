package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

const (
	// SourceID identifies this source in results.
	SourceID = "github"

	// Confidence is reported with every result; releases carry no EOL date.
	Confidence = 0.40

	// ReleaseTTL is how long a fetched release is reused.
	ReleaseTTL = time.Hour
)

type repoRef struct {
	owner string
	name  string
}

type cachedRelease struct {
	release   *Release
	fetchedAt time.Time
}

// Source reports the latest GitHub release of configured products.
type Source struct {
	client   *Client
	repos    map[string]repoRef
	keywords []string

	mu       sync.Mutex
	releases map[repoRef]cachedRelease
	now      func() time.Time
}

// Ensure Source implements the interface.
var _ driven.LookupSource = (*Source)(nil)

// New creates a source for the given product to "owner/repo" mapping.
func New(client *Client, repos map[string]string) (*Source, error) {
	s := &Source{
		client:   client,
		repos:    make(map[string]repoRef, len(repos)),
		releases: make(map[repoRef]cachedRelease),
		now:      time.Now,
	}
	for product, ref := range repos {
		owner, name, ok := strings.Cut(ref, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRepo, ref)
		}
		product = words(product)
		if product == "" {
			return nil, fmt.Errorf("%w: empty product for %q", ErrInvalidRepo, ref)
		}
		s.repos[product] = repoRef{owner: owner, name: name}
		s.keywords = append(s.keywords, product)
	}
	sort.Slice(s.keywords, func(i, j int) bool {
		if len(s.keywords[i]) != len(s.keywords[j]) {
			return len(s.keywords[i]) > len(s.keywords[j])
		}
		return s.keywords[i] < s.keywords[j]
	})
	return s, nil
}

// ID returns the source identifier.
func (s *Source) ID() string { return SourceID }

// Affinity returns the routing declaration.
func (s *Source) Affinity() driven.SourceAffinity {
	return driven.SourceAffinity{Specific: true, Keywords: s.keywords}
}

// Lookup reports the latest release of the repository mapped to the
// variant's product.
func (s *Source) Lookup(ctx context.Context, v domain.Variant) (domain.LookupResult, error) {
	ref, ok := s.repoFor(v.Name)
	if !ok {
		return domain.NotFound(SourceID), nil
	}

	rel, err := s.latest(ctx, ref)
	if err != nil {
		if IsRateLimited(err) {
			return domain.NotFound(SourceID), fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
		return domain.NotFound(SourceID), err
	}
	if rel == nil {
		return domain.NotFound(SourceID), nil
	}

	return domain.LookupResult{
		Found:         true,
		LatestVersion: strings.TrimPrefix(rel.Tag, "v"),
		Confidence:    Confidence,
		SourceID:      SourceID,
	}, nil
}

func (s *Source) repoFor(name string) (repoRef, bool) {
	padded := " " + words(name) + " "
	for _, kw := range s.keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return s.repos[kw], true
		}
	}
	return repoRef{}, false
}

// latest returns the cached or freshly fetched release; nil means the
// repository has none.
func (s *Source) latest(ctx context.Context, ref repoRef) (*Release, error) {
	s.mu.Lock()
	cached, ok := s.releases[ref]
	s.mu.Unlock()
	if ok && s.now().Sub(cached.fetchedAt) < ReleaseTTL {
		return cached.release, nil
	}

	rel, err := s.client.LatestRelease(ctx, ref.owner, ref.name)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}

	s.mu.Lock()
	s.releases[ref] = cachedRelease{release: rel, fetchedAt: s.now()}
	s.mu.Unlock()
	return rel, nil
}

func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '+'
	})
	return strings.Join(fields, " ")
}
