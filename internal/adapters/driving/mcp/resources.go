package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/reporting"
)

const (
	// uriScheme is the custom URI scheme for analyser resources.
	uriScheme = "analyzer://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Item counts by type, priority and status",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "report/markdown",
		Name:        "report-markdown",
		Description: "Full analysis report as markdown",
		MIMEType:    "text/markdown",
	}, s.handleReportResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "report/json",
		Name:        "report-json",
		Description: "Full analysis report as JSON",
		MIMEType:    "application/json",
	}, s.handleReportResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "items/{itemId}",
		Name:        "item",
		Description: "A single extracted item",
		MIMEType:    "application/json",
	}, s.handleItemResource)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Items.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

// handleReportResource renders the report in the format named by the URI.
func (s *Server) handleReportResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := strings.TrimPrefix(req.Params.URI, uriScheme+"report/")
	format, err := reporting.ParseFormat(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	items, err := s.ports.Items.List(ctx, domain.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	stats, err := s.ports.Items.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	out, err := reporting.Render(format, reporting.Report{Items: items, Stats: stats}, s.ports.Report)
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}

	mime := "text/markdown"
	if format == reporting.FormatJSON {
		mime = "application/json"
	}
	return textResult(req.Params.URI, mime, string(out)), nil
}

func (s *Server) handleItemResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractItemID(req.Params.URI)
	if id <= 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	item, err := s.ports.Items.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	data, err := json.MarshalIndent(toItemOutput(item), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling item: %w", err)
	}
	return textResult(req.Params.URI, "application/json", string(data)), nil
}

func textResult(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mime,
			Text:     text,
		}},
	}
}

// extractItemID extracts the item ID from a URI like analyzer://items/{itemId}.
// Returns 0 when the URI does not name an item.
func extractItemID(uri string) int64 {
	const prefix = uriScheme + "items/"

	if !strings.HasPrefix(uri, prefix) {
		return 0
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
