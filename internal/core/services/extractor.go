package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// Ensure Extractor implements the interfaces.
var (
	_ driving.ModelService    = (*Extractor)(nil)
	_ driven.PromptStoreAware = (*Extractor)(nil)
)

// ChunkFailure records a chunk whose model output was discarded.
type ChunkFailure struct {
	SourceFile string
	SourceLine *int
	Err        error
}

// Extractor turns chunks into candidate items with one model call per chunk.
// It never writes to the store.
type Extractor struct {
	llm     driven.LLMService
	prompts *PromptBuilder
	ollama  domain.OllamaConfig
	cfg     domain.ExtractionConfig
	now     func() time.Time

	mu       sync.Mutex
	failures []ChunkFailure
}

// NewExtractor creates an extractor backed by llm.
func NewExtractor(llm driven.LLMService, ollama domain.OllamaConfig, cfg domain.ExtractionConfig) *Extractor {
	return &Extractor{
		llm:     llm,
		prompts: NewPromptBuilder(nil),
		ollama:  ollama,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetPromptStore loads prompt overrides from store.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.prompts.SetPromptStore(store)
}

// Extract returns the items found in chunk, filtered by the confidence threshold.
//
// Connectivity failures and cancellation are returned. Malformed or invalid
// model output is recorded as a ChunkFailure and yields no items.
func (e *Extractor) Extract(ctx context.Context, chunk domain.Chunk) ([]domain.Item, error) {
	response, err := e.complete(ctx, chunk)
	if err != nil {
		if fatal(ctx, err) {
			return nil, err
		}
		e.record(chunk, err)
		return []domain.Item{}, nil
	}

	result, err := ParseExtractionResult(response)
	if err == nil {
		result.Items = normaliseAll(result.Items)
		err = ValidateExtractionResult(result)
	}
	if err != nil {
		e.record(chunk, err)
		return []domain.Item{}, nil
	}

	items := make([]domain.Item, 0, len(result.Items))
	for _, extracted := range result.Items {
		if extracted.Confidence < e.cfg.ConfidenceThreshold {
			logger.Debug("Dropping %s below confidence threshold (%.2f): %s",
				extracted.Type, extracted.Confidence, extracted.Description)
			continue
		}
		items = append(items, e.toItem(extracted, chunk))
	}

	logger.Debug("Extracted %d items from %s", len(items), chunk.SourceFile)
	return items, nil
}

// ExtractAll runs Extract over every chunk and concatenates the results.
func (e *Extractor) ExtractAll(ctx context.Context, chunks []domain.Chunk) ([]domain.Item, error) {
	var items []domain.Item
	for _, chunk := range chunks {
		extracted, err := e.Extract(ctx, chunk)
		if err != nil {
			return items, err
		}
		items = append(items, extracted...)
	}
	return items, nil
}

// Failures returns and clears the recorded chunk failures.
func (e *Extractor) Failures() []ChunkFailure {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.failures
	e.failures = nil
	return out
}

// ValidateItem asks the analysis model to review item against the text it
// was extracted from. An empty AnalysisModel uses the service default.
func (e *Extractor) ValidateItem(ctx context.Context, item domain.Item, originalText string) (*domain.ItemReview, error) {
	prompt := e.prompts.BuildValidationPrompt(item, originalText)
	response, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		Model:       e.ollama.AnalysisModel,
		Temperature: e.ollama.Temperature,
		MaxTokens:   e.ollama.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("review item: %w", err)
	}

	var review domain.ItemReview
	if err := ParseModelJSON(response, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// TestConnection returns nil when the model backend is reachable.
func (e *Extractor) TestConnection(ctx context.Context) error {
	return e.llm.Ping(ctx)
}

// ListModels returns the models the backend has locally.
func (e *Extractor) ListModels(ctx context.Context) ([]string, error) {
	return e.llm.ListModels(ctx)
}

// EnsureModel reports whether the extraction model is installed, pulling it
// first when pull is true. A model matches when an installed name starts
// with the configured one, so "nuextract" matches "nuextract:latest".
func (e *Extractor) EnsureModel(ctx context.Context, pull bool) (bool, error) {
	model := e.ModelName()
	models, err := e.llm.ListModels(ctx)
	if err != nil {
		return false, err
	}
	if hasModel(models, model) {
		return true, nil
	}
	if !pull {
		return false, nil
	}

	logger.Info("Model %s not found, pulling", model)
	if err := e.llm.PullModel(ctx, model); err != nil {
		return false, fmt.Errorf("pull %s: %w", model, err)
	}
	return true, nil
}

// ModelName returns the extraction model name.
func (e *Extractor) ModelName() string {
	return e.llm.ModelName()
}

func (e *Extractor) complete(ctx context.Context, chunk domain.Chunk) (string, error) {
	if e.cfg.UseChat {
		msg := e.prompts.BuildNuExtractPrompt(chunk.Text)
		return e.llm.Chat(ctx, []driven.ChatMessage{msg}, driven.ChatOptions{
			Temperature: e.ollama.Temperature,
			MaxTokens:   e.ollama.MaxTokens,
		})
	}
	return e.llm.Generate(ctx, e.prompts.BuildChunkPrompt(chunk), driven.GenerateOptions{
		Temperature: e.ollama.Temperature,
		MaxTokens:   e.ollama.MaxTokens,
	})
}

func (e *Extractor) toItem(extracted domain.ExtractedItem, chunk domain.Chunk) domain.Item {
	metadata := make(map[string]any, len(chunk.Metadata)+1)
	for k, v := range chunk.Metadata {
		metadata[k] = v
	}
	metadata[domain.MetadataModelPriority] = string(extracted.Priority)
	return domain.Item{
		Type:          extracted.Type,
		Description:   extracted.Description,
		Priority:      extracted.Priority,
		PriorityScore: extracted.Priority.InitialScore(),
		SourceContext: extracted.SourceContext,
		Confidence:    extracted.Confidence,
		SourceType:    chunk.SourceType,
		SourceFile:    chunk.SourceFile,
		SourceLine:    chunk.SourceLine,
		ExtractedAt:   e.now(),
		Status:        domain.StatusOpen,
		Metadata:      metadata,
	}
}

func (e *Extractor) record(chunk domain.Chunk, err error) {
	logger.With("file", chunk.SourceFile).Warnw("discarded model output", "error", err)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, ChunkFailure{
		SourceFile: chunk.SourceFile,
		SourceLine: chunk.SourceLine,
		Err:        err,
	})
}

// fatal reports whether err must abort the file rather than yield zero items.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrLLMUnavailable) ||
		errors.Is(err, domain.ErrModelNotFound)
}

func normaliseAll(items []domain.ExtractedItem) []domain.ExtractedItem {
	out := make([]domain.ExtractedItem, len(items))
	for i, item := range items {
		out[i] = NormaliseExtractedItem(item)
	}
	return out
}

func hasModel(models []string, name string) bool {
	for _, m := range models {
		if strings.HasPrefix(m, name) {
			return true
		}
	}
	return false
}
