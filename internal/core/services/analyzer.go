package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// Ensure AnalyzerService implements the interface.
var _ driving.Analyzer = (*AnalyzerService)(nil)

// RelatedReason is recorded on relationships created by entity linking.
const RelatedReason = "shared entities"

// AnalyzerService runs extraction, scoring, deduplication and linking.
// It is the single writer of the store for the duration of a batch.
type AnalyzerService struct {
	cfg       domain.Config
	store     driven.Store
	parser    driven.SourceParser
	pipeline  driven.ChunkPipeline
	extractor *Extractor
	scorer    *PriorityScorer
	dedup     *Deduplicator
	linker    *EntityLinker
	gitSince  time.Time
	now       func() time.Time
}

// NewAnalyzerService creates an analyzer. dedup may be nil to skip deduplication.
func NewAnalyzerService(
	cfg domain.Config,
	store driven.Store,
	parser driven.SourceParser,
	extractor *Extractor,
	dedup *Deduplicator,
) *AnalyzerService {
	if dedup == nil {
		disabled := cfg.Intelligence.Deduplication
		disabled.Enabled = false
		dedup = NewDeduplicator(disabled, nil)
	}
	return &AnalyzerService{
		cfg:       cfg,
		store:     store,
		parser:    parser,
		extractor: extractor,
		scorer:    NewPriorityScorer(cfg.Intelligence.PriorityScoring),
		dedup:     dedup,
		linker:    NewEntityLinker(cfg.Intelligence.EntityLinking),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetPipeline sets the chunk post-processing pipeline.
func (a *AnalyzerService) SetPipeline(p driven.ChunkPipeline) {
	a.pipeline = p
}

// SetGitSince sets the start of the commit window used by AnalyzeGit.
func (a *AnalyzerService) SetGitSince(t time.Time) {
	a.gitSince = t
}

// AnalyzeFiles processes each path in order, then deduplicates and links.
func (a *AnalyzerService) AnalyzeFiles(ctx context.Context, paths []string) (*domain.AnalysisResult, error) {
	return a.run(ctx, func(ctx context.Context, log *zap.SugaredLogger, result *domain.AnalysisResult) error {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Debugw("processing file", "file", path, "index", i+1, "total", len(paths))
			if err := a.processFile(ctx, path, result); err != nil {
				return err
			}
		}
		return nil
	})
}

// AnalyzeGit processes the commit messages of the repository at repoPath.
func (a *AnalyzerService) AnalyzeGit(ctx context.Context, repoPath string) (*domain.AnalysisResult, error) {
	return a.run(ctx, func(ctx context.Context, log *zap.SugaredLogger, result *domain.AnalysisResult) error {
		log.Debugw("processing repository", "repo", repoPath, "branch", a.cfg.Sources.Git.Branch)
		return a.processRepo(ctx, repoPath, result)
	})
}

type batchFunc func(ctx context.Context, log *zap.SugaredLogger, result *domain.AnalysisResult) error

func (a *AnalyzerService) run(ctx context.Context, process batchFunc) (*domain.AnalysisResult, error) {
	start := a.now()
	run := &domain.ExtractionRun{
		RunID:         uuid.NewString(),
		ModelName:     a.extractor.ModelName(),
		PromptVersion: a.promptVersion(),
		Status:        domain.RunStatusRunning,
		Config:        a.configSnapshot(),
		StartedAt:     start,
	}
	log := logger.With("run_id", run.RunID)

	logger.Section("Analysis")
	if err := a.store.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	result := &domain.AnalysisResult{ByType: map[string]int{}, Errors: []string{}}
	err := process(ctx, log, result)
	if err == nil && a.dedup.Enabled() && result.ItemsExtracted > 0 {
		err = a.deduplicate(ctx, log, result)
	}
	if err == nil && a.linker.Enabled() {
		err = a.link(ctx, log)
	}
	if err == nil {
		err = a.fillStats(ctx, result)
	}
	result.Duration = a.now().Sub(start)

	run.SourcesProcessed = result.SourcesProcessed
	run.ItemsExtracted = result.ItemsExtracted
	run.Duration = result.Duration
	run.Status = domain.RunStatusCompleted
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.ErrorMessage = err.Error()
	}
	// The run is finished even when ctx was cancelled.
	if finishErr := a.store.FinishRun(context.WithoutCancel(ctx), run); finishErr != nil {
		log.Warnw("finish run", "error", finishErr)
	}

	if failures := a.extractor.Failures(); len(failures) > 0 {
		log.Infow("discarded model responses", "count", len(failures))
	}
	log.Infow("analysis finished",
		"sources", result.SourcesProcessed,
		"items", result.ItemsExtracted,
		"duplicates", result.ItemsDeduplicated,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result, err
}

// processFile returns an error only when the batch must stop. File-level
// failures are recorded in result.
func (a *AnalyzerService) processFile(ctx context.Context, path string, result *domain.AnalysisResult) error {
	hash, err := HashFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Error processing %s: %v", path, err))
		return nil
	}

	if unchanged, err := a.unchanged(ctx, path, hash); err != nil {
		return err
	} else if unchanged {
		logger.Debug("Skipping unchanged %s", path)
		return nil
	}

	sourceType, ok := a.parser.Detect(path)
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("No parser for %s", path))
		return nil
	}

	count, err := a.extractFile(ctx, path, sourceType)
	return a.finishSource(ctx, path, sourceType, hash, count, err, result)
}

func (a *AnalyzerService) processRepo(ctx context.Context, repoPath string, result *domain.AnalysisResult) error {
	branch := a.cfg.Sources.Git.Branch
	chunks, head, err := a.parser.ParseGit(ctx, repoPath, branch, a.gitSince)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result.Errors = append(result.Errors, fmt.Sprintf("Error processing %s: %v", repoPath, err))
		return nil
	}

	if unchanged, err := a.unchanged(ctx, repoPath, head); err != nil {
		return err
	} else if unchanged {
		logger.Debug("Skipping %s, HEAD unchanged", repoPath)
		return nil
	}

	count, err := a.extractChunks(ctx, chunks)
	return a.finishSource(ctx, repoPath, domain.SourceTypeGit, head, count, err, result)
}

func (a *AnalyzerService) unchanged(ctx context.Context, path, hash string) (bool, error) {
	existing, err := a.store.GetSourceByPath(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get source %s: %w", path, err)
	}
	return existing.FileHash == hash && existing.ProcessingStatus == domain.ProcessingSuccess, nil
}

func (a *AnalyzerService) extractFile(ctx context.Context, path string, sourceType domain.SourceType) (int, error) {
	chunks, err := a.parser.ParseFile(ctx, path)
	if err != nil {
		return 0, err
	}
	logger.Debug("Parsed %s as %s into %d chunks", path, sourceType, len(chunks))
	return a.extractChunks(ctx, chunks)
}

// extractChunks extracts, scores and saves the items of chunks.
func (a *AnalyzerService) extractChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if a.pipeline != nil {
		processed, err := a.pipeline.Process(ctx, chunks)
		if err != nil {
			return 0, fmt.Errorf("post-process chunks: %w", err)
		}
		chunks = processed
	}

	items, err := a.extractor.ExtractAll(ctx, chunks)
	if err != nil {
		return 0, err
	}

	// Nothing is saved unless every item of the file is valid.
	for i := range items {
		item := &items[i]
		a.scorer.Apply(item)
		if err := ValidateItem(*item); err != nil {
			return 0, fmt.Errorf("item %q: %w", item.Description, err)
		}
	}
	for i := range items {
		if _, err := a.store.SaveItem(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("save item: %w", err)
		}
	}
	return len(items), nil
}

func (a *AnalyzerService) finishSource(
	ctx context.Context,
	path string,
	sourceType domain.SourceType,
	hash string,
	count int,
	procErr error,
	result *domain.AnalysisResult,
) error {
	if procErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	source := &domain.Source{
		SourceType:       sourceType,
		FilePath:         path,
		FileHash:         hash,
		ItemsCount:       count,
		LastProcessed:    a.now(),
		ProcessingStatus: domain.ProcessingSuccess,
	}
	if procErr != nil {
		source.ProcessingStatus = domain.ProcessingFailed
		source.ErrorMessage = procErr.Error()
		result.Errors = append(result.Errors, fmt.Sprintf("Error processing %s: %v", path, procErr))
	}
	if err := a.store.SaveSource(ctx, source); err != nil {
		return fmt.Errorf("save source %s: %w", path, err)
	}

	if procErr == nil {
		result.SourcesProcessed++
		result.ItemsExtracted += count
		logger.Info("Processed %s: %d items", path, count)
	}
	return nil
}

// deduplicate groups the non-duplicate corpus and marks every non-canonical member.
func (a *AnalyzerService) deduplicate(ctx context.Context, log *zap.SugaredLogger, result *domain.AnalysisResult) error {
	logger.Section("Deduplication")
	items, err := a.store.GetItems(ctx, domain.ItemFilter{ExcludeDuplicates: true})
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	model := a.dedup.ModelName()
	var cached map[int64][]float32
	if model != "" {
		if cached, err = a.store.GetAllEmbeddings(ctx, model); err != nil {
			return fmt.Errorf("load embeddings: %w", err)
		}
	}

	outcome, err := a.dedup.Analyze(ctx, items, cached)
	if err != nil {
		return err
	}
	if err := a.saveEmbeddings(ctx, items, outcome, model); err != nil {
		return err
	}

	merged, err := MergeDuplicates(outcome.Groups, a.cfg.Intelligence.Deduplication.Keep)
	if err != nil {
		return err
	}

	for _, id := range sortedKeys(merged) {
		canonical := merged[id]
		if err := a.markDuplicate(ctx, id, canonical); err != nil {
			return err
		}
		rel := domain.Relationship{
			ItemID1:         id,
			ItemID2:         canonical,
			Type:            domain.RelationshipDuplicate,
			SimilarityScore: pairSimilarity(outcome.Groups, id, canonical),
			Reason:          "duplicate description",
		}
		if err := a.store.SaveRelationship(ctx, rel); err != nil {
			return fmt.Errorf("save relationship: %w", err)
		}
		result.ItemsDeduplicated++
	}

	if err := a.rescoreCanonicals(ctx, merged); err != nil {
		return err
	}

	log.Infow("deduplication finished",
		"groups", len(outcome.Groups),
		"duplicates", result.ItemsDeduplicated,
		"fuzzy", outcome.Fuzzy,
	)
	return nil
}

// markDuplicate flags id and re-points anything that pointed at id, so no
// duplicate ever references another duplicate.
func (a *AnalyzerService) markDuplicate(ctx context.Context, id, canonical int64) error {
	if err := a.store.MarkDuplicate(ctx, id, canonical); err != nil {
		return fmt.Errorf("mark duplicate %d: %w", id, err)
	}
	dups, err := a.store.GetItems(ctx, domain.ItemFilter{Status: domain.StatusDuplicate})
	if err != nil {
		return fmt.Errorf("load duplicates: %w", err)
	}
	for _, dup := range dups {
		if dup.DuplicateOf != nil && *dup.DuplicateOf == id {
			if err := a.store.MarkDuplicate(ctx, dup.ID, canonical); err != nil {
				return fmt.Errorf("re-point duplicate %d: %w", dup.ID, err)
			}
		}
	}
	return nil
}

// rescoreCanonicals rescores each canonical touched by this pass, using the
// number of items that now point at it, plus itself, as the mention count.
func (a *AnalyzerService) rescoreCanonicals(ctx context.Context, merged map[int64]int64) error {
	if len(merged) == 0 {
		return nil
	}
	dups, err := a.store.GetItems(ctx, domain.ItemFilter{Status: domain.StatusDuplicate})
	if err != nil {
		return fmt.Errorf("load duplicates: %w", err)
	}
	mentions := make(map[int64]int)
	for _, canonical := range merged {
		mentions[canonical] = 1
	}
	for _, dup := range dups {
		if dup.DuplicateOf == nil {
			continue
		}
		if _, ok := mentions[*dup.DuplicateOf]; ok {
			mentions[*dup.DuplicateOf]++
		}
	}

	for _, id := range sortedKeys(mentions) {
		item, err := a.store.GetItem(ctx, id)
		if err != nil {
			return fmt.Errorf("get canonical %d: %w", id, err)
		}
		item.Priority, item.PriorityScore = a.scorer.Recalculate(*item, mentions[id])
		if err := a.store.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update canonical %d: %w", id, err)
		}
	}
	return nil
}

func (a *AnalyzerService) saveEmbeddings(ctx context.Context, items []domain.Item, outcome DedupOutcome, model string) error {
	if outcome.Vectors == nil || model == "" {
		return nil
	}
	for _, idx := range outcome.Computed {
		item := items[idx]
		if !item.HasID() {
			continue
		}
		if err := a.store.SaveEmbedding(ctx, item.ID, outcome.Vectors[idx], model); err != nil {
			return fmt.Errorf("save embedding %d: %w", item.ID, err)
		}
		item.EmbeddingHash = EmbeddingHash(item.Description)
		if err := a.store.UpdateItem(ctx, &item); err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}
	}
	return nil
}

// link annotates every item with its entities and related ids.
func (a *AnalyzerService) link(ctx context.Context, log *zap.SugaredLogger) error {
	logger.Section("Entity Linking")
	items, err := a.store.GetItems(ctx, domain.ItemFilter{})
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	links := a.linker.LinkItems(items)
	linked := 0
	for i := range items {
		item := &items[i]
		l, ok := links[item.ID]
		if !ok {
			continue
		}
		item.Entities = l.Entities
		if item.Metadata == nil {
			item.Metadata = map[string]any{}
		}
		item.Metadata[domain.MetadataRelatedTo] = l.RelatedTo
		if err := a.store.UpdateItem(ctx, item); err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}
		for _, other := range l.RelatedTo {
			rel := domain.Relationship{
				ItemID1: item.ID,
				ItemID2: other,
				Type:    domain.RelationshipRelated,
				Reason:  RelatedReason,
			}
			if err := a.store.SaveRelationship(ctx, rel); err != nil {
				return fmt.Errorf("save relationship: %w", err)
			}
		}
		if len(l.RelatedTo) > 0 {
			linked++
		}
	}
	log.Infow("linking finished", "items", len(items), "linked", linked)
	return nil
}

func (a *AnalyzerService) fillStats(ctx context.Context, result *domain.AnalysisResult) error {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	result.HighPriority = stats.ByPriority[string(domain.PriorityHigh)]
	result.MediumPriority = stats.ByPriority[string(domain.PriorityMedium)]
	result.LowPriority = stats.ByPriority[string(domain.PriorityLow)]
	for k, v := range stats.ByType {
		result.ByType[k] = v
	}
	return nil
}

// Discover expands root into the parsable files it contains. A file is
// returned as is when a parser accepts it. A directory is matched against
// the configured source patterns.
func (a *AnalyzerService) Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if _, ok := a.parser.Detect(root); !ok {
			return nil, fmt.Errorf("%w for %s", domain.ErrNoParser, root)
		}
		return []string{root}, nil
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range a.cfg.Sources.Patterns() {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			path := filepath.Join(root, filepath.FromSlash(m))
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			if _, ok := a.parser.Detect(path); ok {
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// FindDuplicates returns the groups deduplication would form now.
func (a *AnalyzerService) FindDuplicates(ctx context.Context) ([]domain.DuplicateGroup, error) {
	items, err := a.store.GetItems(ctx, domain.ItemFilter{ExcludeDuplicates: true})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	var cached map[int64][]float32
	if model := a.dedup.ModelName(); model != "" {
		if cached, err = a.store.GetAllEmbeddings(ctx, model); err != nil {
			return nil, fmt.Errorf("load embeddings: %w", err)
		}
	}
	outcome, err := a.dedup.Analyze(ctx, items, cached)
	if err != nil {
		return nil, err
	}
	return outcome.Groups, nil
}

func (a *AnalyzerService) promptVersion() string {
	if a.cfg.Extraction.PromptVersion != "" {
		return a.cfg.Extraction.PromptVersion
	}
	return PromptVersion
}

func (a *AnalyzerService) configSnapshot() map[string]any {
	dedup := a.cfg.Intelligence.Deduplication
	return map[string]any{
		"confidence_threshold": a.cfg.Extraction.ConfidenceThreshold,
		"chunk_size":           a.cfg.Extraction.ChunkSize,
		"use_chat":             a.cfg.Extraction.UseChat,
		"dedup_enabled":        dedup.Enabled,
		"similarity_threshold": dedup.SimilarityThreshold,
		"fuzzy_threshold":      dedup.FuzzyThreshold,
		"embedding_model":      a.dedup.ModelName(),
		"keep":                 string(dedup.Keep),
		"linking_enabled":      a.linker.Enabled(),
	}
}

// HashFile returns the hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// pairSimilarity returns the recorded similarity between id and canonical.
// Grouping only scores members against the group's primary, so a pair of
// two non-primary members has no score.
func pairSimilarity(groups []domain.DuplicateGroup, id, canonical int64) *float64 {
	for _, g := range groups {
		toPrimary := make(map[int64]float64, len(g.Duplicates))
		for i, dup := range g.Duplicates {
			toPrimary[dup.ID] = g.Similarities[i]
		}
		switch {
		case g.Primary.ID == canonical:
			if sim, ok := toPrimary[id]; ok {
				return domain.Float64Ptr(sim)
			}
		case g.Primary.ID == id:
			if sim, ok := toPrimary[canonical]; ok {
				return domain.Float64Ptr(sim)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
