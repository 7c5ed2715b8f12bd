package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery indicates a record could not be normalised.
	// Affected records degrade to Unknown rather than failing the batch.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoSources indicates the engine has no lookup sources registered.
	// This is the only failure that surfaces to callers of a batch run.
	ErrNoSources = errors.New("no lookup sources registered")

	// Source Errors.

	// ErrSourceTimeout indicates a lookup source did not answer within its deadline.
	ErrSourceTimeout = errors.New("lookup source timed out")

	// ErrSourceError indicates a lookup source failed internally.
	ErrSourceError = errors.New("lookup source failed")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Cache Errors.

	// ErrCacheUnavailable indicates the persistent cache tier could not be used.
	// Resolution falls back to the sources directly.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// IsSourceFailure reports whether err is a non-fatal per-source failure.
func IsSourceFailure(err error) bool {
	return errors.Is(err, ErrSourceTimeout) || errors.Is(err, ErrSourceError)
}
