package local

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
)

// Entry is one product in the overrides file.
type Entry struct {
	Name    string         `toml:"name"`
	Version string         `toml:"version,omitempty"`
	Cycle   string         `toml:"cycle,omitempty"`
	EOL     toml.LocalDate `toml:"eol"`
	Latest  string         `toml:"latest,omitempty"`
	LTS     bool           `toml:"lts,omitempty"`
}

// EOLDate returns the entry's end-of-life date in UTC.
func (e Entry) EOLDate() time.Time {
	return e.EOL.AsTime(time.UTC)
}

type overridesFile struct {
	Product []Entry `toml:"product"`
}

// Load reads and validates an overrides file. An empty file is an error.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	// A zero-length file is usually caught mid-write.
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("read overrides: %s is empty", path)
	}
	return Parse(data)
}

// Parse decodes and validates overrides. Names are normalised to lower-case
// words so they compare equal to product names from inventories.
func Parse(data []byte) ([]Entry, error) {
	var f overridesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	entries := make([]Entry, 0, len(f.Product))
	for i, e := range f.Product {
		e.Name = words(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("parse overrides: product %d has no name", i+1)
		}
		if e.EOL.Year == 0 {
			return nil, fmt.Errorf("parse overrides: product %q has no eol date", e.Name)
		}
		e.Version = strings.TrimSpace(e.Version)
		e.Cycle = strings.TrimSpace(e.Cycle)
		entries = append(entries, e)
	}
	return entries, nil
}

func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '+'
	})
	return strings.Join(fields, " ")
}
