// Package tui provides an interactive terminal user interface for browsing
// analysed items. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Items provides read access to stored items.
	Items driving.ItemService

	// Filter is the initial item filter. Zero matches everything.
	Filter domain.ItemFilter
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Items == nil {
		return ErrMissingItemService
	}
	return nil
}
