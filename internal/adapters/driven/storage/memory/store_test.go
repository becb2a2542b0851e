package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func newItem(desc string, score float64) *domain.Item {
	return &domain.Item{
		Type:          domain.ItemTypeTODO,
		Description:   desc,
		Priority:      domain.PriorityMedium,
		PriorityScore: score,
		Confidence:    0.9,
		SourceType:    domain.SourceTypeConversation,
		SourceFile:    "chat.md",
	}
}

func TestNewStore(t *testing.T) {
	store := NewStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.items)
	assert.NotNil(t, store.sources)
}

func TestStore_SaveAndGetItem(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	item := newItem("write docs", 0.5)
	item.Tags = []string{"docs"}
	id, err := store.SaveItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, domain.StatusOpen, item.Status)

	// Mutating the caller's copy must not leak into the store.
	item.Tags[0] = "mutated"

	got, err := store.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, got.Tags)

	_, err = store.GetItem(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveItem_Invalid(t *testing.T) {
	store := NewStore()
	item := newItem("bad", 0.5)
	item.Priority = "urgent"

	_, err := store.SaveItem(context.Background(), item)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_GetItems_Order(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := newItem("first", 0.5)
	first.CreatedAt = base
	second := newItem("second", 0.5)
	second.CreatedAt = base
	top := newItem("top", 0.9)
	top.CreatedAt = base
	for _, it := range []*domain.Item{first, second, top} {
		_, err := store.SaveItem(ctx, it)
		require.NoError(t, err)
	}

	items, err := store.GetItems(ctx, domain.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "top", items[0].Description)
	assert.Equal(t, "first", items[1].Description)
	assert.Equal(t, "second", items[2].Description)

	limited, err := store.GetItems(ctx, domain.ItemFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_MarkDuplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a, _ := store.SaveItem(ctx, newItem("a", 0.5))
	b, _ := store.SaveItem(ctx, newItem("b", 0.5))

	require.NoError(t, store.MarkDuplicate(ctx, b, a))
	got, err := store.GetItem(ctx, b)
	require.NoError(t, err)
	assert.True(t, got.IsDuplicate)
	assert.Equal(t, domain.StatusDuplicate, got.Status)
	assert.Equal(t, a, *got.DuplicateOf)

	items, err := store.GetItems(ctx, domain.ItemFilter{ExcludeDuplicates: true})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	assert.ErrorIs(t, store.MarkDuplicate(ctx, a, a), domain.ErrInvalidInput)
}

func TestStore_UpdateItem(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.UpdateItem(ctx, newItem("x", 0.5)), domain.ErrInvalidInput)

	item := newItem("x", 0.5)
	_, err := store.SaveItem(ctx, item)
	require.NoError(t, err)
	item.Description = "y"
	require.NoError(t, store.UpdateItem(ctx, item))

	got, _ := store.GetItem(ctx, item.ID)
	assert.Equal(t, "y", got.Description)
}

func TestStore_SourceUpsert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveSource(ctx, &domain.Source{FilePath: "b.md", FileHash: "1"}))
	require.NoError(t, store.SaveSource(ctx, &domain.Source{FilePath: "a.md", FileHash: "1"}))
	require.NoError(t, store.SaveSource(ctx, &domain.Source{FilePath: "b.md", FileHash: "2"}))

	sources, err := store.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a.md", sources[0].FilePath)
	assert.Equal(t, "2", sources[1].FileHash)
	assert.Equal(t, int64(1), sources[1].ID)
}

func TestStore_Relationships(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	rel := domain.Relationship{ItemID1: 1, ItemID2: 2, Type: domain.RelationshipRelated}
	require.NoError(t, store.SaveRelationship(ctx, rel))
	require.NoError(t, store.SaveRelationship(ctx, rel))

	related, err := store.GetRelatedItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, int64(1), related[0].ItemID)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRelationships)
}

func TestStore_Embeddings(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveEmbedding(ctx, 1, []float32{1, 0}, "m"))
	require.NoError(t, store.SaveEmbedding(ctx, 1, []float32{0, 1}, "m"))

	v, err := store.GetEmbedding(ctx, 1, "m")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, v)

	all, err := store.GetAllEmbeddings(ctx, "m")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_Runs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	run := &domain.ExtractionRun{ModelName: "nuextract"}
	require.NoError(t, store.StartRun(ctx, run))
	assert.NotEmpty(t, run.RunID)

	run.ItemsExtracted = 2
	require.NoError(t, store.FinishRun(ctx, run))

	runs := store.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 2, runs[0].ItemsExtracted)

	assert.ErrorIs(t, store.FinishRun(ctx, &domain.ExtractionRun{ID: 42}), domain.ErrInvalidInput)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.SaveItem(ctx, newItem("concurrent", 0.5))
			_, _ = store.GetItems(ctx, domain.ItemFilter{})
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.TotalItems)
}

func TestStore_Maintenance(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	assert.NoError(t, store.Vacuum(ctx))
	assert.ErrorIs(t, store.Backup(ctx, "x.db"), domain.ErrNotImplemented)
	assert.NoError(t, store.Close())
}
