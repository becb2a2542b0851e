package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// defaultListLimit caps list_items when no limit is given.
const defaultListLimit = 20

// ListItemsInput is the input schema for the list_items tool.
type ListItemsInput struct {
	Type              string `json:"type,omitempty" jsonschema:"item type: TODO, BUG, FEATURE or PROJECT"`
	Priority          string `json:"priority,omitempty" jsonschema:"priority: high, medium or low"`
	Status            string `json:"status,omitempty" jsonschema:"status: open, in_progress, completed or duplicate"`
	Source            string `json:"source,omitempty" jsonschema:"only items extracted from this source file"`
	Limit             int    `json:"limit,omitempty" jsonschema:"maximum number of items to return (default 20)"`
	IncludeDuplicates bool   `json:"include_duplicates,omitempty" jsonschema:"also return items flagged as duplicates"`
}

// ItemOutput is one item as returned by the tools.
type ItemOutput struct {
	ID            int64    `json:"id"`
	Type          string   `json:"type"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority"`
	PriorityScore float64  `json:"priority_score"`
	Confidence    float64  `json:"confidence"`
	Status        string   `json:"status"`
	SourceFile    string   `json:"source_file"`
	SourceLine    *int     `json:"source_line,omitempty"`
	SourceContext string   `json:"source_context,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	DuplicateOf   *int64   `json:"duplicate_of,omitempty"`
}

// ListItemsOutput is the output schema for the list_items tool.
type ListItemsOutput struct {
	Items []ItemOutput `json:"items"`
	Count int          `json:"count"`
}

// GetItemInput is the input schema for the get_item tool.
type GetItemInput struct {
	ID int64 `json:"id" jsonschema:"the item id"`
}

// RelatedOutput is one linked item.
type RelatedOutput struct {
	Item            ItemOutput `json:"item"`
	Relationship    string     `json:"relationship"`
	SimilarityScore *float64   `json:"similarity_score,omitempty"`
}

// GetItemOutput is the output schema for the get_item tool.
type GetItemOutput struct {
	Item     ItemOutput          `json:"item"`
	Entities map[string][]string `json:"entities,omitempty"`
	Related  []RelatedOutput     `json:"related"`
}

// RelatedItemsInput is the input schema for the related_items tool.
type RelatedItemsInput struct {
	ID int64 `json:"id" jsonschema:"the item whose links to follow"`
}

// RelatedItemsOutput is the output schema for the related_items tool.
type RelatedItemsOutput struct {
	Related []RelatedOutput `json:"related"`
	Count   int             `json:"count"`
}

// StatsInput is the empty input schema for the stats tool.
type StatsInput struct{}

// AnalyzeInput is the input schema for the analyze_files tool.
type AnalyzeInput struct {
	Paths []string `json:"paths" jsonschema:"files or directories to analyse"`
}

// AnalyzeOutput is the output schema for the analyze_files tool.
type AnalyzeOutput struct {
	SourcesProcessed  int      `json:"sources_processed"`
	ItemsExtracted    int      `json:"items_extracted"`
	ItemsDeduplicated int      `json:"items_deduplicated"`
	DurationSeconds   float64  `json:"duration_seconds"`
	Errors            []string `json:"errors,omitempty"`
}

// DuplicatesInput is the empty input schema for the find_duplicates tool.
type DuplicatesInput struct{}

// DuplicateGroupOutput is one canonical item and its duplicates.
type DuplicateGroupOutput struct {
	Primary      ItemOutput   `json:"primary"`
	Duplicates   []ItemOutput `json:"duplicates"`
	Similarities []float64    `json:"similarities"`
}

// DuplicatesOutput is the output schema for the find_duplicates tool.
type DuplicatesOutput struct {
	Groups []DuplicateGroupOutput `json:"groups"`
	Count  int                    `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_items",
		Description: "List extracted action items, highest priority first",
	}, s.handleListItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_item",
		Description: "Get one item with its entities and related items",
	}, s.handleGetItem)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "related_items",
		Description: "Items linked to an item as duplicates or by shared entities",
	}, s.handleRelatedItems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Counts of items by type, priority and status",
	}, s.handleStats)

	if s.ports.Analyzer == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_files",
		Description: "Extract action items from conversation and code files",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: "Show the duplicate groups deduplication would form, without changing anything",
	}, s.handleFindDuplicates)
}

func (s *Server) handleListItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListItemsInput,
) (*mcp.CallToolResult, ListItemsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	filter := domain.ItemFilter{
		Type:              domain.ItemType(input.Type),
		Priority:          domain.Priority(input.Priority),
		Status:            domain.Status(input.Status),
		SourceFile:        input.Source,
		Limit:             limit,
		ExcludeDuplicates: !input.IncludeDuplicates,
	}

	items, err := s.ports.Items.List(ctx, filter)
	if err != nil {
		return nil, ListItemsOutput{}, err
	}

	output := ListItemsOutput{
		Items: make([]ItemOutput, len(items)),
		Count: len(items),
	}
	for i := range items {
		output.Items[i] = toItemOutput(&items[i])
	}
	return nil, output, nil
}

func (s *Server) handleGetItem(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetItemInput,
) (*mcp.CallToolResult, GetItemOutput, error) {
	item, err := s.ports.Items.Get(ctx, input.ID)
	if err != nil {
		return nil, GetItemOutput{}, err
	}

	related, err := s.related(ctx, input.ID)
	if err != nil {
		return nil, GetItemOutput{}, err
	}

	return nil, GetItemOutput{
		Item:     toItemOutput(item),
		Entities: item.Entities,
		Related:  related,
	}, nil
}

func (s *Server) handleRelatedItems(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RelatedItemsInput,
) (*mcp.CallToolResult, RelatedItemsOutput, error) {
	if _, err := s.ports.Items.Get(ctx, input.ID); err != nil {
		return nil, RelatedItemsOutput{}, err
	}

	related, err := s.related(ctx, input.ID)
	if err != nil {
		return nil, RelatedItemsOutput{}, err
	}
	return nil, RelatedItemsOutput{Related: related, Count: len(related)}, nil
}

func (s *Server) related(ctx context.Context, id int64) ([]RelatedOutput, error) {
	related, err := s.ports.Items.Related(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading related items: %w", err)
	}

	out := make([]RelatedOutput, len(related))
	for i := range related {
		out[i] = RelatedOutput{
			Item:            toItemOutput(&related[i].Item),
			Relationship:    string(related[i].Type),
			SimilarityScore: related[i].SimilarityScore,
		}
	}
	return out, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.Stats, error) {
	stats, err := s.ports.Items.Stats(ctx)
	if err != nil {
		return nil, domain.Stats{}, err
	}
	return nil, *stats, nil
}

func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if len(input.Paths) == 0 {
		return nil, AnalyzeOutput{}, fmt.Errorf("%w: no paths given", domain.ErrInvalidInput)
	}

	var files []string
	for _, path := range input.Paths {
		found, err := s.ports.Analyzer.Discover(path)
		if err != nil {
			return nil, AnalyzeOutput{}, err
		}
		files = append(files, found...)
	}

	start := time.Now()
	result, err := s.ports.Analyzer.AnalyzeFiles(ctx, files)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	duration := result.DurationSeconds()
	if duration == 0 {
		duration = time.Since(start).Seconds()
	}

	return nil, AnalyzeOutput{
		SourcesProcessed:  result.SourcesProcessed,
		ItemsExtracted:    result.ItemsExtracted,
		ItemsDeduplicated: result.ItemsDeduplicated,
		DurationSeconds:   duration,
		Errors:            result.Errors,
	}, nil
}

func (s *Server) handleFindDuplicates(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ DuplicatesInput,
) (*mcp.CallToolResult, DuplicatesOutput, error) {
	groups, err := s.ports.Analyzer.FindDuplicates(ctx)
	if err != nil {
		return nil, DuplicatesOutput{}, err
	}

	output := DuplicatesOutput{
		Groups: make([]DuplicateGroupOutput, len(groups)),
		Count:  len(groups),
	}
	for i, g := range groups {
		dups := make([]ItemOutput, len(g.Duplicates))
		for j := range g.Duplicates {
			dups[j] = toItemOutput(&g.Duplicates[j])
		}
		output.Groups[i] = DuplicateGroupOutput{
			Primary:      toItemOutput(&g.Primary),
			Duplicates:   dups,
			Similarities: g.Similarities,
		}
	}
	return nil, output, nil
}

func toItemOutput(item *domain.Item) ItemOutput {
	return ItemOutput{
		ID:            item.ID,
		Type:          string(item.Type),
		Description:   item.Description,
		Priority:      string(item.Priority),
		PriorityScore: item.PriorityScore,
		Confidence:    item.Confidence,
		Status:        string(item.Status),
		SourceFile:    item.SourceFile,
		SourceLine:    item.SourceLine,
		SourceContext: item.SourceContext,
		Tags:          item.Tags,
		DuplicateOf:   item.DuplicateOf,
	}
}
