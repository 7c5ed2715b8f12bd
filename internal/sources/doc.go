// Package sources provides implementations of the LookupSource interface
// for the lifecycle data providers eolscan knows about. Each source answers
// end-of-life queries for a product family (or acts as a generic fallback)
// and reports a self-assessed confidence with every result.
//
// Sources are built once from configuration by [Builtin] and registered
// with the SourceRegistry at startup, in the order returned.
package sources
