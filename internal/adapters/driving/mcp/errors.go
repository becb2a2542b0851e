// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants query analysed items, statistics and reports.
package mcp

import "errors"

// ErrMissingItemService is returned when the item service is not provided.
var ErrMissingItemService = errors.New("mcp: item service is required")
