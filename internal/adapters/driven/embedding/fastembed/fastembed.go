//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

var errClosed = fmt.Errorf("%w: fastembed service closed", domain.ErrEmbeddingUnavailable)

// modelMapping maps accepted model names to fastembed model constants.
var modelMapping = map[string]fastembed.EmbeddingModel{
	"all-MiniLM-L6-v2":                       fastembed.AllMiniLML6V2,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"fast-all-MiniLM-L6-v2":                  fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"fast-bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"fast-bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}

// modelDimensions maps fastembed models to their embedding dimensions.
var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
}

// EmbeddingService generates embeddings with a local ONNX model. The model
// is loaded on the first embedding call, so commands that never deduplicate
// never pay for it.
type EmbeddingService struct {
	opts      *fastembed.InitOptions
	modelName string
	dimension int
	batchSize int

	once    sync.Once
	loadErr error

	mu     sync.RWMutex
	model  *fastembed.FlagEmbedding
	closed bool
}

// NewEmbeddingService checks the model name. The model itself is downloaded
// into CacheDir and loaded on first use.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	cfg.applyDefaults()

	model, ok := modelMapping[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: fastembed model %q", domain.ErrUnsupportedType, cfg.Model)
	}

	showProgress := false
	opts := &fastembed.InitOptions{
		Model:                model,
		MaxLength:            cfg.MaxLength,
		ShowDownloadProgress: &showProgress,
	}
	if cfg.CacheDir != "" {
		opts.CacheDir = cfg.CacheDir
	}

	return &EmbeddingService{
		opts:      opts,
		modelName: cfg.Model,
		dimension: modelDimensions[model],
		batchSize: cfg.BatchSize,
	}, nil
}

// load initialises the ONNX session once. A failed load is not retried.
func (s *EmbeddingService) load() error {
	s.once.Do(func() {
		flagEmbed, err := fastembed.NewFlagEmbedding(s.opts)
		if err != nil {
			s.loadErr = fmt.Errorf("%w: initialise fastembed: %w", domain.ErrEmbeddingUnavailable, err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			_ = flagEmbed.Destroy()
			s.loadErr = errClosed
			return
		}
		s.model = flagEmbed
	})
	return s.loadErr
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ONNX tokenisation rejects empty strings.
	inputs := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = " "
		}
		inputs[i] = t
	}

	if s.isClosed() {
		return nil, errClosed
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.model == nil {
		return nil, errClosed
	}

	vecs, err := s.model.Embed(inputs, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fastembed: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("fastembed: got %d embeddings for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}

func (s *EmbeddingService) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimension
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.modelName
}

// Ping embeds a short string to confirm the runtime works.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close releases the ONNX session, if one was loaded.
func (s *EmbeddingService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.model == nil {
		return nil
	}
	err := s.model.Destroy()
	s.model = nil
	return err
}
