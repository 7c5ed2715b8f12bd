package microsoft

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

// SourceID identifies this source in results.
const SourceID = "microsoft"

// Confidences reported per match kind.
const (
	ExactConfidence  = 0.95
	PrefixConfidence = 0.80
)

//go:embed lifecycle.json
var lifecycleJSON []byte

// keywords are the product families the source claims.
var keywords = []string{
	"windows", "windows server", "sql server", "office", "exchange",
	"sharepoint", "visual studio", "net framework",
}

// Entry is one release in the lifecycle table.
type Entry struct {
	Product  string   `json:"product"`
	Family   string   `json:"family"`
	Match    []string `json:"match"`
	Versions []string `json:"versions"`
	Cycle    string   `json:"cycle"`
	EOL      string   `json:"eol"`
	Latest   string   `json:"latest,omitempty"`
	LTS      bool     `json:"lts,omitempty"`

	eol time.Time
}

// Source answers lookups from the embedded lifecycle table.
type Source struct {
	entries []Entry
}

// Ensure Source implements the interface.
var _ driven.LookupSource = (*Source)(nil)

// New creates a source over the embedded table.
func New() (*Source, error) {
	return NewFromJSON(lifecycleJSON)
}

// NewFromJSON creates a source over a custom table.
func NewFromJSON(data []byte) (*Source, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse lifecycle table: %w", err)
	}
	for i := range entries {
		t, err := time.Parse("2006-01-02", entries[i].EOL)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", entries[i].Product, err)
		}
		entries[i].eol = t
	}
	return &Source{entries: entries}, nil
}

// ID returns the source identifier.
func (s *Source) ID() string { return SourceID }

// Affinity returns the routing declaration.
func (s *Source) Affinity() driven.SourceAffinity {
	return driven.SourceAffinity{Specific: true, Keywords: keywords}
}

// Len returns the number of releases in the table.
func (s *Source) Len() int { return len(s.entries) }

// Lookup resolves a variant against the table. It performs no I/O.
func (s *Source) Lookup(ctx context.Context, v domain.Variant) (domain.LookupResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotFound(SourceID), err
	}

	padded := " " + words(v.Name) + " "

	if e, ok := s.byName(padded); ok {
		return e.result(ExactConfidence), nil
	}
	if e, ok := s.byBuild(padded, strings.TrimSpace(v.Version)); ok {
		return e.result(PrefixConfidence), nil
	}
	return domain.NotFound(SourceID), nil
}

// byName finds the entry whose longest match phrase occurs in the name.
func (s *Source) byName(padded string) (Entry, bool) {
	var best Entry
	bestLen := 0
	for _, e := range s.entries {
		for _, m := range e.Match {
			if len(m) > bestLen && strings.Contains(padded, " "+m+" ") {
				best, bestLen = e, len(m)
			}
		}
	}
	return best, bestLen > 0
}

// byBuild finds the entry of the most specific family in the name whose
// build prefix matches version.
func (s *Source) byBuild(padded, version string) (Entry, bool) {
	if version == "" {
		return Entry{}, false
	}

	var best Entry
	bestFamily, bestPrefix := 0, 0
	for _, e := range s.entries {
		if !strings.Contains(padded, " "+e.Family+" ") {
			continue
		}
		for _, p := range e.Versions {
			if version != p && !strings.HasPrefix(version, p+".") {
				continue
			}
			if len(e.Family) > bestFamily || (len(e.Family) == bestFamily && len(p) > bestPrefix) {
				best, bestFamily, bestPrefix = e, len(e.Family), len(p)
			}
		}
	}
	return best, bestFamily > 0
}

func (e Entry) result(confidence float64) domain.LookupResult {
	return domain.LookupResult{
		Found:         true,
		Cycle:         e.Cycle,
		EOLDate:       domain.Date(e.eol),
		LatestVersion: e.Latest,
		IsLTS:         e.LTS,
		Confidence:    confidence,
		SourceID:      SourceID,
	}
}

func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "."); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}
