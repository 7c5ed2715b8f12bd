// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters):
//
//   - Normaliser: raw inventory identity to query key and lookup variants
//   - SourceRegistry / SourceRouter: which lookup sources see which query
//   - SearchEngine: confidence-gated fan-out across strategies
//   - ResultCache: memoisation with TTL and single-flight per key
//   - Orchestrator: batch dedup, resolution and write-back
//
// Services depend only on domain, ports, the logger and small concurrency
// helpers from golang.org/x/sync.
package services
