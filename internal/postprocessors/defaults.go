package postprocessors

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/postprocessors/chunker"
)

// Processor names accepted by BuildPipeline.
const (
	ProcessorDropBlank = "drop_blank"
	ProcessorChunker   = "chunker"
)

// DefaultProcessors is the order DefaultPipeline runs processors in. Blank
// chunks are dropped before splitting so no model call is spent on them.
var DefaultProcessors = []string{ProcessorDropBlank, ProcessorChunker}

// builders creates each processor from the extraction settings.
var builders = map[string]func(domain.ExtractionConfig) driven.ChunkProcessor{
	ProcessorDropBlank: func(domain.ExtractionConfig) driven.ChunkProcessor { return dropBlank{} },
	ProcessorChunker:   newChunker,
}

// Names returns the accepted processor names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildPipeline creates a pipeline running the named processors in order.
func BuildPipeline(cfg domain.ExtractionConfig, names ...string) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range names {
		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown chunk processor %q (known: %s)",
				domain.ErrInvalidInput, name, strings.Join(Names(), ", "))
		}
		p.Add(build(cfg))
	}
	return p, nil
}

// DefaultPipeline builds the standard pipeline from extraction settings.
func DefaultPipeline(cfg domain.ExtractionConfig) (*Pipeline, error) {
	return BuildPipeline(cfg, DefaultProcessors...)
}

// newChunker sizes the chunker from chunk_size (tokens) and chunk_overlap
// (characters). A zero chunk_size keeps the chunker default.
func newChunker(cfg domain.ExtractionConfig) driven.ChunkProcessor {
	var opts []chunker.Option
	if cfg.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	opts = append(opts, chunker.WithOverlap(cfg.ChunkOverlap))
	return chunker.New(opts...)
}

// dropBlank removes chunks with no text left after trimming. Empty commit
// bodies and bare comment markers reduce to nothing.
type dropBlank struct{}

func (dropBlank) Name() string { return ProcessorDropBlank }

func (dropBlank) Process(_ context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
