package tui

import "errors"

// ErrMissingItemService is returned when the item service is not provided.
var ErrMissingItemService = errors.New("tui: item service is required")
