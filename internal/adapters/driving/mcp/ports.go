package mcp

import (
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Skills lists, inspects, installs and removes skills.
	Skills driving.SkillService

	// Providers backs the providers resource.
	Providers driving.ProviderRegistry
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Skills == nil {
		return ErrMissingSkillService
	}
	// Providers is optional; the resource then lists nothing.
	return nil
}
