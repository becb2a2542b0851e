// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewItems is the filterable item list.
	ViewItems ViewType = iota
	// ViewDetail shows one item and its related items.
	ViewDetail
	// ViewStats shows aggregate counts.
	ViewStats
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewItems:
		return "items"
	case ViewDetail:
		return "detail"
	case ViewStats:
		return "stats"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ItemsRequested asks for the item list to be reloaded with a filter.
type ItemsRequested struct {
	Filter domain.ItemFilter
}

// ItemsLoaded carries the result of an item query.
type ItemsLoaded struct {
	Items []domain.Item
	Err   error
}

// ItemSelected is sent when an item is opened from the list.
type ItemSelected struct {
	Item domain.Item
}

// RelatedLoaded carries the linked items of ItemID.
type RelatedLoaded struct {
	ItemID  int64
	Related []driving.RelatedItem
	Err     error
}

// StatsLoaded carries aggregate counts.
type StatsLoaded struct {
	Stats *domain.Stats
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
