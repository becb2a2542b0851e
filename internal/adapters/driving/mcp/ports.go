package mcp

import (
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
	"github.com/custodia-labs/convo-analyzer/internal/reporting"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Items provides read access to stored items.
	Items driving.ItemService

	// Analyzer runs analysis and duplicate detection. Optional: the
	// analyze_files and find_duplicates tools are only offered when set.
	Analyzer driving.Analyzer

	// Report controls the report resources.
	Report reporting.Options
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Items == nil {
		return ErrMissingItemService
	}
	return nil
}
