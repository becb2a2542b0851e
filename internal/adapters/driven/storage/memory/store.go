package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

type relKey struct {
	a, b int64
	t    domain.RelationshipType
}

type embKey struct {
	item  int64
	model string
}

// Store is an in-memory implementation of driven.Store.
type Store struct {
	mu            sync.RWMutex
	nextItemID    int64
	nextSourceID  int64
	nextRunID     int64
	items         map[int64]domain.Item
	sources       map[string]domain.Source
	relationships []domain.Relationship
	relIndex      map[relKey]struct{}
	embeddings    map[embKey][]float32
	runs          map[int64]domain.ExtractionRun
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		items:      make(map[int64]domain.Item),
		sources:    make(map[string]domain.Source),
		relIndex:   make(map[relKey]struct{}),
		embeddings: make(map[embKey][]float32),
		runs:       make(map[int64]domain.ExtractionRun),
	}
}

// SaveItem inserts the item and assigns its id.
func (s *Store) SaveItem(_ context.Context, item *domain.Item) (int64, error) {
	if !item.Type.IsValid() || !item.Priority.IsValid() {
		return 0, fmt.Errorf("%w: invalid type or priority", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if item.ExtractedAt.IsZero() {
		item.ExtractedAt = now
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = domain.StatusOpen
	}

	s.nextItemID++
	item.ID = s.nextItemID
	s.items[item.ID] = cloneItem(*item)
	return item.ID, nil
}

// UpdateItem overwrites an existing item.
func (s *Store) UpdateItem(_ context.Context, item *domain.Item) error {
	if !item.HasID() {
		return fmt.Errorf("%w: item must have an id to update", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	s.items[item.ID] = cloneItem(*item)
	return nil
}

// GetItem retrieves an item by id.
func (s *Store) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneItem(item)
	return &c, nil
}

// GetItems returns items matching the filter in store order.
func (s *Store) GetItems(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.Priority != "" && item.Priority != filter.Priority {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.SourceFile != "" && item.SourceFile != filter.SourceFile {
			continue
		}
		if filter.ExcludeDuplicates && item.IsDuplicate {
			continue
		}
		result = append(result, cloneItem(item))
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// MarkDuplicate flags id as a duplicate of canonicalID.
func (s *Store) MarkDuplicate(_ context.Context, id, canonicalID int64) error {
	if id == canonicalID {
		return fmt.Errorf("%w: item %d cannot duplicate itself", domain.ErrInvalidInput, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	item.IsDuplicate = true
	item.DuplicateOf = domain.Int64Ptr(canonicalID)
	item.Status = domain.StatusDuplicate
	item.UpdatedAt = time.Now().UTC()
	s.items[id] = item
	return nil
}

// SaveSource upserts the ledger row for source.FilePath.
func (s *Store) SaveSource(_ context.Context, source *domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sources[source.FilePath]; ok {
		source.ID = existing.ID
		source.CreatedAt = existing.CreatedAt
	} else {
		s.nextSourceID++
		source.ID = s.nextSourceID
		if source.CreatedAt.IsZero() {
			source.CreatedAt = time.Now().UTC()
		}
	}
	if source.LastProcessed.IsZero() {
		source.LastProcessed = time.Now().UTC()
	}
	if source.ProcessingStatus == "" {
		source.ProcessingStatus = domain.ProcessingSuccess
	}
	s.sources[source.FilePath] = *source
	return nil
}

// GetSourceByPath retrieves the ledger row for a file.
func (s *Store) GetSourceByPath(_ context.Context, path string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.sources[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// ListSources returns every ledger row ordered by path.
func (s *Store) ListSources(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Source, 0, len(s.sources))
	for _, source := range s.sources {
		result = append(result, source)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FilePath < result[j].FilePath })
	return result, nil
}

// SaveRelationship inserts the link, ignoring an existing identical triple.
func (s *Store) SaveRelationship(_ context.Context, rel domain.Relationship) error {
	if !rel.Type.IsValid() {
		return fmt.Errorf("%w: relationship type %q", domain.ErrInvalidInput, rel.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := relKey{a: rel.ItemID1, b: rel.ItemID2, t: rel.Type}
	if _, exists := s.relIndex[key]; exists {
		return nil
	}
	rel.ID = int64(len(s.relationships) + 1)
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}
	s.relIndex[key] = struct{}{}
	s.relationships = append(s.relationships, rel)
	return nil
}

// GetRelatedItems returns links in either direction, seen from id.
func (s *Store) GetRelatedItems(_ context.Context, id int64) ([]domain.RelatedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[domain.RelatedItem]struct{})
	var related []domain.RelatedItem
	add := func(r domain.RelatedItem) {
		key := r
		key.SimilarityScore = nil
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		related = append(related, r)
	}

	for _, rel := range s.relationships {
		switch id {
		case rel.ItemID1:
			add(domain.RelatedItem{ItemID: rel.ItemID2, Type: rel.Type, SimilarityScore: rel.SimilarityScore})
		case rel.ItemID2:
			add(domain.RelatedItem{ItemID: rel.ItemID1, Type: rel.Type, SimilarityScore: rel.SimilarityScore})
		}
	}
	sort.SliceStable(related, func(i, j int) bool { return related[i].ItemID < related[j].ItemID })
	return related, nil
}

// SaveEmbedding stores the vector for (itemID, model).
func (s *Store) SaveEmbedding(_ context.Context, itemID int64, vector []float32, model string) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings[embKey{item: itemID, model: model}] = append([]float32(nil), vector...)
	return nil
}

// GetEmbedding returns the vector for (itemID, model).
func (s *Store) GetEmbedding(_ context.Context, itemID int64, model string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.embeddings[embKey{item: itemID, model: model}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]float32(nil), v...), nil
}

// GetAllEmbeddings returns every vector for the model keyed by item id.
func (s *Store) GetAllEmbeddings(_ context.Context, model string) (map[int64][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64][]float32)
	for k, v := range s.embeddings {
		if k.model == model {
			result[k.item] = append([]float32(nil), v...)
		}
	}
	return result, nil
}

// StartRun records a running run.
func (s *Store) StartRun(_ context.Context, run *domain.ExtractionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = domain.RunStatusRunning
	s.nextRunID++
	run.ID = s.nextRunID
	s.runs[run.ID] = *run
	return nil
}

// FinishRun records the final state of a run.
func (s *Store) FinishRun(_ context.Context, run *domain.ExtractionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		return fmt.Errorf("%w: run was never started", domain.ErrInvalidInput)
	}
	if run.Status == "" || run.Status == domain.RunStatusRunning {
		run.Status = domain.RunStatusCompleted
	}
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	if run.Duration == 0 {
		run.Duration = completed.Sub(run.StartedAt)
	}
	s.runs[run.ID] = *run
	return nil
}

// Runs returns the recorded runs in start order.
func (s *Store) Runs() []domain.ExtractionRun {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ExtractionRun, 0, len(s.runs))
	for id := int64(1); id <= s.nextRunID; id++ {
		if run, ok := s.runs[id]; ok {
			result = append(result, run)
		}
	}
	return result
}

// Stats returns aggregate counts.
func (s *Store) Stats(_ context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Stats{
		TotalItems:         len(s.items),
		ByType:             make(map[string]int),
		ByPriority:         make(map[string]int),
		ByStatus:           make(map[string]int),
		TotalSources:       len(s.sources),
		TotalRelationships: len(s.relationships),
	}
	for _, item := range s.items {
		stats.ByType[string(item.Type)]++
		stats.ByPriority[string(item.Priority)]++
		stats.ByStatus[string(item.Status)]++
	}
	return stats, nil
}

// Vacuum is a no-op for the in-memory store.
func (s *Store) Vacuum(_ context.Context) error {
	return nil
}

// Backup is not supported for the in-memory store.
func (s *Store) Backup(_ context.Context, _ string) error {
	return domain.ErrNotImplemented
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// cloneItem copies the reference-typed fields so callers cannot mutate stored state.
func cloneItem(item domain.Item) domain.Item {
	if item.Tags != nil {
		item.Tags = append([]string(nil), item.Tags...)
	}
	if item.Entities != nil {
		entities := make(domain.Entities, len(item.Entities))
		for k, v := range item.Entities {
			entities[k] = append([]string(nil), v...)
		}
		item.Entities = entities
	}
	if item.Metadata != nil {
		meta := make(map[string]any, len(item.Metadata))
		for k, v := range item.Metadata {
			meta[k] = v
		}
		item.Metadata = meta
	}
	if item.SourceLine != nil {
		item.SourceLine = domain.IntPtr(*item.SourceLine)
	}
	if item.DuplicateOf != nil {
		item.DuplicateOf = domain.Int64Ptr(*item.DuplicateOf)
	}
	return item
}
