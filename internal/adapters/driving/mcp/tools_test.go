package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

func TestServer_handleListItems(t *testing.T) {
	ctx := context.Background()

	t.Run("returns items and applies defaults", func(t *testing.T) {
		items := &mockItemService{items: sampleItems()}
		server, err := NewServer(&Ports{Items: items})
		require.NoError(t, err)

		_, output, err := server.handleListItems(ctx, nil, ListItemsInput{Type: "BUG"})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "Login times out", output.Items[0].Description)
		assert.Equal(t, 12, *output.Items[1].SourceLine)

		assert.Equal(t, domain.ItemTypeBug, items.lastFilter.Type)
		assert.Equal(t, defaultListLimit, items.lastFilter.Limit)
		assert.True(t, items.lastFilter.ExcludeDuplicates)
	})

	t.Run("include duplicates and explicit limit", func(t *testing.T) {
		items := &mockItemService{}
		server, err := NewServer(&Ports{Items: items})
		require.NoError(t, err)

		_, output, err := server.handleListItems(ctx, nil, ListItemsInput{Limit: 5, IncludeDuplicates: true})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 5, items.lastFilter.Limit)
		assert.False(t, items.lastFilter.ExcludeDuplicates)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Items: &mockItemService{err: domain.ErrInvalidInput}})
		require.NoError(t, err)

		_, _, err = server.handleListItems(ctx, nil, ListItemsInput{Priority: "urgent"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleGetItem(t *testing.T) {
	ctx := context.Background()

	items := &mockItemService{
		items: sampleItems(),
		related: []driving.RelatedItem{{
			Item:            sampleItems()[1],
			Type:            domain.RelationshipRelated,
			SimilarityScore: domain.Float64Ptr(0.4),
		}},
	}
	server, err := NewServer(&Ports{Items: items})
	require.NoError(t, err)

	_, output, err := server.handleGetItem(ctx, nil, GetItemInput{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), output.Item.ID)
	assert.Equal(t, []string{"login"}, output.Entities[domain.EntityComponents])
	require.Len(t, output.Related, 1)
	assert.Equal(t, "related", output.Related[0].Relationship)
	assert.Equal(t, int64(2), output.Related[0].Item.ID)

	_, _, err = server.handleGetItem(ctx, nil, GetItemInput{ID: 404})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleRelatedItems(t *testing.T) {
	ctx := context.Background()

	items := &mockItemService{
		items: sampleItems(),
		related: []driving.RelatedItem{{
			Item:            sampleItems()[1],
			Type:            domain.RelationshipDuplicate,
			SimilarityScore: domain.Float64Ptr(0.92),
		}},
	}
	server, err := NewServer(&Ports{Items: items})
	require.NoError(t, err)

	_, output, err := server.handleRelatedItems(ctx, nil, RelatedItemsInput{ID: 1})
	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, "duplicate", output.Related[0].Relationship)
	assert.InDelta(t, 0.92, *output.Related[0].SimilarityScore, 1e-9)

	_, _, err = server.handleRelatedItems(ctx, nil, RelatedItemsInput{ID: 404})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleStats(t *testing.T) {
	items := &mockItemService{stats: &domain.Stats{TotalItems: 4, ByType: map[string]int{"BUG": 4}}}
	server, err := NewServer(&Ports{Items: items})
	require.NoError(t, err)

	_, output, err := server.handleStats(context.Background(), nil, StatsInput{})

	require.NoError(t, err)
	assert.Equal(t, 4, output.TotalItems)
	assert.Equal(t, 4, output.ByType["BUG"])
}

func TestServer_handleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("expands paths and reports the result", func(t *testing.T) {
		analyzer := &mockAnalyzer{
			discovered: map[string][]string{"chats": {"chats/a.md", "chats/b.json"}},
			result: &domain.AnalysisResult{
				SourcesProcessed: 3, ItemsExtracted: 5, ItemsDeduplicated: 1,
				Errors: []string{"app.py: boom"}, Duration: 2 * time.Second,
			},
		}
		server, err := NewServer(&Ports{Items: &mockItemService{}, Analyzer: analyzer})
		require.NoError(t, err)

		_, output, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Paths: []string{"chats", "app.py"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"chats/a.md", "chats/b.json", "app.py"}, analyzer.analyzed)
		assert.Equal(t, 5, output.ItemsExtracted)
		assert.Equal(t, 1, output.ItemsDeduplicated)
		assert.InDelta(t, 2.0, output.DurationSeconds, 1e-9)
		assert.Equal(t, []string{"app.py: boom"}, output.Errors)
	})

	t.Run("requires paths", func(t *testing.T) {
		server, err := NewServer(&Ports{Items: &mockItemService{}, Analyzer: &mockAnalyzer{}})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("propagates analysis errors", func(t *testing.T) {
		analyzer := &mockAnalyzer{err: domain.ErrAnalysisInProgress}
		server, err := NewServer(&Ports{Items: &mockItemService{}, Analyzer: analyzer})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{Paths: []string{"a.md"}})

		assert.ErrorIs(t, err, domain.ErrAnalysisInProgress)
	})
}

func TestServer_handleFindDuplicates(t *testing.T) {
	items := sampleItems()
	analyzer := &mockAnalyzer{groups: []domain.DuplicateGroup{{
		Primary:      items[0],
		Duplicates:   []domain.Item{items[1]},
		Similarities: []float64{0.93},
	}}}
	server, err := NewServer(&Ports{Items: &mockItemService{}, Analyzer: analyzer})
	require.NoError(t, err)

	_, output, err := server.handleFindDuplicates(context.Background(), nil, DuplicatesInput{})

	require.NoError(t, err)
	require.Equal(t, 1, output.Count)
	assert.Equal(t, int64(1), output.Groups[0].Primary.ID)
	assert.Equal(t, int64(2), output.Groups[0].Duplicates[0].ID)
	assert.Equal(t, []float64{0.93}, output.Groups[0].Similarities)

	analyzer.err = errors.New("embedding service unavailable")
	_, _, err = server.handleFindDuplicates(context.Background(), nil, DuplicatesInput{})
	assert.Error(t, err)
}
