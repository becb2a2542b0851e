package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// DedupOutcome is the result of one deduplication query.
type DedupOutcome struct {
	Groups []domain.DuplicateGroup

	// Vectors is parallel to the input items. Nil when fuzzy matching was used.
	Vectors [][]float32

	// Computed lists the indexes whose vectors were freshly embedded.
	Computed []int

	// Fuzzy is true when text ratio replaced embedding similarity.
	Fuzzy bool
}

// Deduplicator groups items that describe the same thing. It has no side effects.
type Deduplicator struct {
	cfg      domain.DeduplicationConfig
	embedder driven.EmbeddingService
}

// NewDeduplicator creates a deduplicator. embedder may be nil, in which case
// grouping falls back to fuzzy text ratio.
func NewDeduplicator(cfg domain.DeduplicationConfig, embedder driven.EmbeddingService) *Deduplicator {
	return &Deduplicator{cfg: cfg, embedder: embedder}
}

// Enabled reports whether deduplication is switched on.
func (d *Deduplicator) Enabled() bool {
	return d.cfg.Enabled
}

// ModelName returns the embedding model name, or "" without an embedder.
func (d *Deduplicator) ModelName() string {
	if d.embedder == nil {
		return ""
	}
	return d.embedder.ModelName()
}

// FindDuplicates groups items by description similarity.
func (d *Deduplicator) FindDuplicates(ctx context.Context, items []domain.Item) ([]domain.DuplicateGroup, error) {
	outcome, err := d.Analyze(ctx, items, nil)
	if err != nil {
		return nil, err
	}
	return outcome.Groups, nil
}

// Analyze groups items and reports the vectors it used. cached maps item ids
// to previously stored vectors; a cached vector is reused only when the
// item's EmbeddingHash matches its current description.
func (d *Deduplicator) Analyze(ctx context.Context, items []domain.Item, cached map[int64][]float32) (DedupOutcome, error) {
	if !d.cfg.Enabled || len(items) < 2 {
		return DedupOutcome{}, nil
	}

	if d.embedder == nil {
		return d.fuzzyOutcome(items), nil
	}

	vectors, computed, err := d.embed(ctx, items, cached)
	if err != nil {
		if ctx.Err() != nil {
			return DedupOutcome{}, err
		}
		logger.Warn("Embedding failed, falling back to fuzzy matching: %v", err)
		return d.fuzzyOutcome(items), nil
	}

	matrix := SimilarityMatrix(vectors)
	return DedupOutcome{
		Groups:   GroupBySimilarity(items, matrix, d.cfg.SimilarityThreshold),
		Vectors:  vectors,
		Computed: computed,
	}, nil
}

func (d *Deduplicator) fuzzyOutcome(items []domain.Item) DedupOutcome {
	return DedupOutcome{
		Groups: GroupBySimilarity(items, FuzzyMatrix(items), d.cfg.FuzzyThreshold),
		Fuzzy:  true,
	}
}

func (d *Deduplicator) embed(
	ctx context.Context, items []domain.Item, cached map[int64][]float32,
) ([][]float32, []int, error) {
	vectors := make([][]float32, len(items))
	var missing []int
	var texts []string
	for i, item := range items {
		if vec, ok := cached[item.ID]; ok && item.HasID() && item.EmbeddingHash == EmbeddingHash(item.Description) {
			vectors[i] = vec
			continue
		}
		missing = append(missing, i)
		texts = append(texts, item.Description)
	}

	if len(texts) > 0 {
		logger.Debug("Embedding %d descriptions", len(texts))
		embedded, err := d.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, nil, fmt.Errorf("embed descriptions: %w", err)
		}
		if len(embedded) != len(texts) {
			return nil, nil, fmt.Errorf("%w: got %d embeddings for %d texts",
				domain.ErrEmbeddingUnavailable, len(embedded), len(texts))
		}
		for j, idx := range missing {
			vectors[idx] = embedded[j]
		}
	}
	return vectors, missing, nil
}

// GroupBySimilarity runs a greedy forward pass over matrix: each unclaimed
// item absorbs every later unclaimed item at or above threshold, and is
// claimed only if it absorbed at least one.
func GroupBySimilarity(items []domain.Item, matrix [][]float64, threshold float64) []domain.DuplicateGroup {
	claimed := make([]bool, len(items))
	var groups []domain.DuplicateGroup

	for i := range items {
		if claimed[i] {
			continue
		}
		var group domain.DuplicateGroup
		for j := i + 1; j < len(items); j++ {
			if claimed[j] || matrix[i][j] < threshold {
				continue
			}
			group.Duplicates = append(group.Duplicates, items[j])
			group.Similarities = append(group.Similarities, matrix[i][j])
			claimed[j] = true
		}
		if len(group.Duplicates) > 0 {
			group.Primary = items[i]
			claimed[i] = true
			groups = append(groups, group)
		}
	}
	return groups
}

// SimilarityMatrix returns the pairwise cosine similarity of vectors.
func SimilarityMatrix(vectors [][]float32) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		matrix[i][i] = 1
		for j := i + 1; j < n; j++ {
			sim := CosineSimilarity(vectors[i], vectors[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

// FuzzyMatrix returns the pairwise text ratio of item descriptions.
func FuzzyMatrix(items []domain.Item) [][]float64 {
	n := len(items)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		matrix[i][i] = 1
		for j := i + 1; j < n; j++ {
			ratio := FuzzyRatio(items[i].Description, items[j].Description)
			matrix[i][j] = ratio
			matrix[j][i] = ratio
		}
	}
	return matrix
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors give 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FindExactDuplicates pairs each item with the first earlier item whose
// description is equal after trimming and lowercasing.
func FindExactDuplicates(items []domain.Item) []domain.SimilarPair {
	seen := make(map[string]domain.Item, len(items))
	var pairs []domain.SimilarPair
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Description))
		if first, ok := seen[key]; ok {
			pairs = append(pairs, domain.SimilarPair{First: first, Second: item, Similarity: 1})
			continue
		}
		seen[key] = item
	}
	return pairs
}

// FindFuzzyDuplicates returns every pair whose description ratio is at or
// above threshold.
func FindFuzzyDuplicates(items []domain.Item, threshold float64) []domain.SimilarPair {
	var pairs []domain.SimilarPair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			ratio := FuzzyRatio(items[i].Description, items[j].Description)
			if ratio >= threshold {
				pairs = append(pairs, domain.SimilarPair{First: items[i], Second: items[j], Similarity: ratio})
			}
		}
	}
	return pairs
}

// FuzzyRatio returns the case-insensitive character similarity of a and b
// in [0,1], as computed by a sequence matcher.
func FuzzyRatio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// MergeDuplicates picks the canonical item of each group under keep and
// maps every other member's id to it. Members without an id are skipped.
func MergeDuplicates(groups []domain.DuplicateGroup, keep domain.KeepPolicy) (map[int64]int64, error) {
	merged := make(map[int64]int64)
	for _, group := range groups {
		members := append([]domain.Item{group.Primary}, group.Duplicates...)

		canonical, err := pickCanonical(members, keep)
		if err != nil {
			return nil, err
		}
		if !canonical.HasID() {
			continue
		}
		for _, item := range members {
			if item.HasID() && item.ID != canonical.ID {
				merged[item.ID] = canonical.ID
			}
		}
	}
	return merged, nil
}

func pickCanonical(members []domain.Item, keep domain.KeepPolicy) (domain.Item, error) {
	best := members[0]
	switch keep {
	case domain.KeepFirst, "":
	case domain.KeepHighestConfidence:
		for _, item := range members[1:] {
			if item.Confidence > best.Confidence {
				best = item
			}
		}
	case domain.KeepNewest:
		for _, item := range members[1:] {
			if item.CreatedAt.After(best.CreatedAt) {
				best = item
			}
		}
	default:
		return domain.Item{}, errors.Join(domain.ErrUnsupportedType, fmt.Errorf("keep policy %q", keep))
	}
	return best, nil
}

// EmbeddingHash identifies the text an embedding was computed from.
func EmbeddingHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
