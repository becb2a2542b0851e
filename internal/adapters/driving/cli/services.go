package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/ai"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
	"github.com/custodia-labs/convo-analyzer/internal/core/services"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
	"github.com/custodia-labs/convo-analyzer/internal/parsers"
	"github.com/custodia-labs/convo-analyzer/internal/postprocessors"
)

// itemReviewer asks a model to check a stored item against its source text.
type itemReviewer interface {
	ValidateItem(ctx context.Context, item domain.Item, originalText string) (*domain.ItemReview, error)
}

// container holds the services commands run against. Pieces are built on
// first use so that commands needing only the store never start a model
// backend. Tests populate the fields directly.
type container struct {
	cfg   *domain.Config
	store driven.Store
	items driving.ItemService

	analyzer driving.Analyzer
	models   driving.ModelService
	reviewer itemReviewer

	// checkEmbedding checks the embedding backend is reachable. Nil uses ai.ConfigValidator.
	checkEmbedding func(ctx context.Context, cfg domain.Config) error

	closers []func()
}

var app = &container{}

// config loads, validates and applies configuration once.
func (c *container) config() (domain.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}

	cfg, err := file.Load(cfgFile)
	if err != nil {
		return domain.Config{}, err
	}
	if err := logger.Configure(logger.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Verbose: verbose,
	}); err != nil {
		return domain.Config{}, err
	}
	if err := file.EnsureDirectories(cfg); err != nil {
		return domain.Config{}, err
	}

	// Analysis model names are Ollama tags and mean nothing to other backends.
	if cfg.LLM.Provider == domain.AIProviderOpenAI {
		cfg.Ollama.AnalysisModel = ""
	}

	logger.Debug("Config loaded from %q", file.ResolvePath(cfgFile))
	c.cfg = &cfg
	return cfg, nil
}

// itemStore opens the database.
func (c *container) itemStore() (driven.Store, error) {
	if c.store != nil {
		return c.store, nil
	}

	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	c.store = store
	c.closers = append(c.closers, func() { _ = store.Close() })
	return store, nil
}

// itemService returns the read side of the store.
func (c *container) itemService() (driving.ItemService, error) {
	if c.items != nil {
		return c.items, nil
	}

	store, err := c.itemStore()
	if err != nil {
		return nil, err
	}
	c.items = services.NewItemService(store)
	return c.items, nil
}

// analysis builds the model backends and the analyzer on top of the store.
func (c *container) analysis(ctx context.Context) error {
	if c.analyzer != nil && c.models != nil && c.reviewer != nil {
		return nil
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	store, err := c.itemStore()
	if err != nil {
		return err
	}

	backends, err := ai.Init(ctx, cfg)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, backends.Close)
	for _, w := range backends.Warnings {
		logger.Warn("Embedding backend unavailable, using fuzzy matching: %s", w)
	}

	extractor := services.NewExtractor(backends.LLMService, cfg.Ollama, cfg.Extraction)
	extractor.SetPromptStore(file.NewPromptStore(file.DefaultPromptDir, services.DefaultPrompts()))

	dedup := services.NewDeduplicator(cfg.Intelligence.Deduplication, backends.EmbeddingService)
	analyzer := services.NewAnalyzerService(cfg, store, parsers.New(), extractor, dedup)

	pipeline, err := postprocessors.DefaultPipeline(cfg.Extraction)
	if err != nil {
		return err
	}
	analyzer.SetPipeline(pipeline)

	since, err := parsers.ParseSince(cfg.Sources.Git.Since, time.Now())
	if err != nil {
		return fmt.Errorf("%w: sources.git.since: %w", domain.ErrInvalidInput, err)
	}
	analyzer.SetGitSince(since)

	c.analyzer = analyzer
	c.models = extractor
	c.reviewer = extractor
	return nil
}

// embeddingCheck returns the embedding check used by test-connection.
func (c *container) embeddingCheck() func(ctx context.Context, cfg domain.Config) error {
	if c.checkEmbedding != nil {
		return c.checkEmbedding
	}
	return ai.NewConfigValidator().ValidateEmbedding
}

// close releases everything opened, newest first.
func (c *container) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
