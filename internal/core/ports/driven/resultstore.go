package driven

import (
	"context"

	"github.com/custodia-labs/eolscan/internal/core/domain"
)

// ResultStore is the persistent tier behind the in-memory result cache.
// Entries survive process restarts; expiry is evaluated by the caller.
type ResultStore interface {
	// Get returns the entry for key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)

	// Put stores or replaces the entry under its query key.
	Put(ctx context.Context, entry domain.CacheEntry) error

	// Delete removes a single entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Purge removes every entry and returns how many were removed.
	Purge(ctx context.Context) (int, error)

	// PurgeExpired removes entries that expired before the store's clock.
	PurgeExpired(ctx context.Context) (int, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}
