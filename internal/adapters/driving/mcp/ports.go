package mcp

import (
	"github.com/custodia-labs/eolscan/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Lookup resolves software records.
	Lookup driving.LookupService

	// Sources lists the registered lookup sources. Optional.
	Sources driving.SourceCatalog

	// Cache exposes cache statistics. Optional.
	Cache driving.CacheAdmin
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Lookup == nil {
		return ErrMissingLookupService
	}
	return nil
}
