package driven

import "time"

// MetricsRecorder receives instrumentation events from the core.
// Implementations must be safe for concurrent use and must not block.
type MetricsRecorder interface {
	// SourceCall records one lookup source invocation and its outcome
	// ("found", "not_found", "timeout", "error", "cancelled").
	SourceCall(sourceID, outcome string, elapsed time.Duration)

	// CacheLookup records a cache probe ("hit", "miss", "shared", "bypass").
	CacheLookup(outcome string)

	// QueryResolved records a finished query with its final risk tier,
	// the strategy that produced it, and total resolution time.
	QueryResolved(risk, strategy string, elapsed time.Duration)
}
