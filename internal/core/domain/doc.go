// Package domain defines the core business entities for eolscan.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SoftwareRecord: One inventory row supplied by a collector
//   - NormalizedQuery: The canonical identity used for dedup and caching
//   - Variant: A single lookup attempt under one search strategy
//   - LookupResult: What a lookup source reports for a variant
//   - RiskLevel: The risk tier derived from an end-of-life date
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
