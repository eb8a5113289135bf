package mcp

import (
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query routes queries and retrieves documents.
	Query driving.QueryService

	// Build exposes router build history. Optional.
	Build driving.BuildService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
