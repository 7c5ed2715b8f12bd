package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/eolscan/internal/core/domain"
	"github.com/custodia-labs/eolscan/internal/logger"
)

var (
	// bracketNoise matches parenthesised architecture, bitness and locale tags.
	bracketNoise = regexp.MustCompile(
		`\((?:(?:64|32)[- ]?bits?|x64|x86|x86_64|amd64|arm64|i386|[a-z]{2}-[a-z]{2})\)`)

	// versionPrefix extracts the leading dotted-numeric part of a version.
	versionPrefix = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)`)

	// numericToken matches a bare version-like token.
	numericToken = regexp.MustCompile(`^v?\d+(?:\.\d+)*$`)
)

// noiseTokens are dropped wherever they appear in a product name.
var noiseTokens = map[string]bool{
	"x64": true, "x86": true, "x86_64": true, "amd64": true, "arm64": true, "i386": true,
	"64-bit": true, "32-bit": true, "64bit": true, "32bit": true,
}

// trademarks are removed before tokenising.
var trademarks = strings.NewReplacer(
	"™", "", "®", "", "©", "",
	"(tm)", "", "(r)", "", "(c)", "",
)

// corporateSuffixes are ignored when deriving the vendor hint.
var corporateSuffixes = map[string]bool{
	"the": true, "inc": true, "corporation": true, "corp": true, "co": true,
	"llc": true, "ltd": true, "limited": true, "gmbh": true, "foundation": true,
	"project": true, "software": true, "systems": true, "technologies": true,
}

// Normaliser canonicalises raw inventory identities into queries.
// It is stateless, pure and deterministic.
type Normaliser struct{}

// NewNormaliser creates a new normaliser.
func NewNormaliser() *Normaliser {
	return &Normaliser{}
}

// Normalise builds the query and its ordered lookup variants for a record.
// Malformed input yields the degenerate query, no variants and an error
// wrapping domain.ErrInvalidQuery; it never panics.
func (n *Normaliser) Normalise(rec domain.SoftwareRecord) (q domain.NormalizedQuery, variants []domain.Variant, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Normaliser recovered from panic for %q: %v", rec.Name, r)
			q = degenerateQuery()
			variants = nil
			err = fmt.Errorf("%w: %v", domain.ErrInvalidQuery, r)
		}
	}()

	rawName := collapseSpaces(stripControl(rec.Name))
	rawVersion := collapseSpaces(stripControl(rec.Version))

	version := CleanVersion(rawVersion)
	key := ProductKey(rawName, version)
	if key == "" {
		return degenerateQuery(), nil, fmt.Errorf("%w: empty product name %q", domain.ErrInvalidQuery, rec.Name)
	}

	q = domain.NormalizedQuery{
		ProductKey: key,
		Version:    version,
		VendorHint: VendorHint(rec.Publisher),
	}

	if rawVersion != "" {
		variants = append(variants, domain.Variant{
			Strategy: domain.StrategyExact,
			Name:     rawName,
			Version:  rawVersion,
		})
	}
	variants = append(variants,
		domain.Variant{Strategy: domain.StrategyNameOnly, Name: rawName},
		domain.Variant{Strategy: domain.StrategyNormalized, Name: key, Version: Cycle(version)},
	)

	return q, variants, nil
}

func degenerateQuery() domain.NormalizedQuery {
	return domain.NormalizedQuery{ProductKey: domain.DegenerateProductKey}
}

// ProductKey lower-cases a product name and strips trademark, architecture
// and locale noise, plus a trailing token repeating the version.
func ProductKey(name, version string) string {
	s := strings.ToLower(name)
	s = trademarks.Replace(s)
	s = bracketNoise.ReplaceAllString(s, " ")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.', r == '+', r == '#', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, t := range tokens {
		t = strings.Trim(t, "-_.")
		if t == "" || noiseTokens[t] {
			continue
		}
		kept = append(kept, t)
	}

	// "python 3.8.10" with version 3.8.10 is just "python".
	for len(kept) > 1 {
		last := strings.TrimPrefix(kept[len(kept)-1], "v")
		if !numericToken.MatchString(last) || version == "" || !versionHasPrefix(version, last) {
			break
		}
		kept = kept[:len(kept)-1]
	}

	return strings.Join(kept, " ")
}

// CleanVersion returns the leading dotted-numeric part of a raw version,
// or "" when there is none.
func CleanVersion(raw string) string {
	m := versionPrefix.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return ""
	}
	return m[1]
}

// Cycle reduces a clean version to major.minor, or major when there is no minor.
func Cycle(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return parts[0]
}

// VendorHint returns the first significant token of a publisher name.
func VendorHint(publisher string) string {
	s := trademarks.Replace(strings.ToLower(publisher))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if !corporateSuffixes[f] {
			return f
		}
	}
	return ""
}

// versionHasPrefix reports whether token equals version or is a dotted prefix of it.
func versionHasPrefix(version, token string) bool {
	return version == token || strings.HasPrefix(version, token+".")
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return ' '
		}
		return r
	}, s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
