package domain

// DegenerateProductKey is the product key assigned to input that cannot be
// normalised. Records mapped to it resolve to Unknown. The angle brackets
// never survive product key normalisation, so no real product collides.
const DegenerateProductKey = "<unknown>"

// NormalizedQuery is the canonical identity of a piece of software.
// It is immutable once built and doubles as the cache and dedup key.
type NormalizedQuery struct {
	// ProductKey is the lower-cased, noise-stripped product name.
	ProductKey string `json:"product_key"`

	// Version is the leading dotted-numeric part of the raw version.
	Version string `json:"version"`

	// VendorHint is the first significant token of the publisher.
	VendorHint string `json:"vendor_hint,omitempty"`
}

// Key returns the dedup key. VendorHint is deliberately excluded so that
// records with equal product and version always share a key.
func (q NormalizedQuery) Key() string {
	return q.ProductKey + "@" + q.Version
}

// IsDegenerate reports whether the query came from malformed input.
func (q NormalizedQuery) IsDegenerate() bool {
	return q.ProductKey == "" || q.ProductKey == DegenerateProductKey
}

// Strategy is one of the progressively looser search passes.
type Strategy int

// Search strategies, in the order the engine tries them.
const (
	StrategyExact Strategy = iota
	StrategyNameOnly
	StrategyNormalized
)

// Strategies lists every strategy in engine order.
var Strategies = []Strategy{StrategyExact, StrategyNameOnly, StrategyNormalized}

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyNameOnly:
		return "name-only"
	case StrategyNormalized:
		return "normalized"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "exact":
		*s = StrategyExact
	case "name-only":
		*s = StrategyNameOnly
	case "normalized":
		*s = StrategyNormalized
	default:
		return ErrInvalidInput
	}
	return nil
}

// Variant is one (name, version) pair submitted to lookup sources.
type Variant struct {
	Strategy Strategy
	Name     string
	Version  string
}

// VariantFor returns the variant for the given strategy, if present.
func VariantFor(variants []Variant, s Strategy) (Variant, bool) {
	for _, v := range variants {
		if v.Strategy == s {
			return v, true
		}
	}
	return Variant{}, false
}
