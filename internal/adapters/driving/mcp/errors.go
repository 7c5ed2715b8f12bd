// Package mcp provides an MCP (Model Context Protocol) server adapter for eolscan.
// It lets AI assistants resolve end-of-life dates and risk tiers for software
// through the same lookup pipeline as the CLI.
package mcp

import "errors"

// ErrMissingLookupService is returned when the lookup service is not provided.
var ErrMissingLookupService = errors.New("mcp: lookup service is required")

// ErrEmptyInventory is returned when scan_inventory is called without records.
var ErrEmptyInventory = errors.New("mcp: inventory has no records")
