// Package chunker splits oversized chunks so each fits the model's context.
package chunker

import (
	"context"
	"maps"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// DefaultChunkSize is the default chunk size in estimated tokens.
const DefaultChunkSize = 1800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// boundaryWindow is how far back from a cut the chunker looks for a
// sentence end.
const boundaryWindow = 200

// MetadataChunkIndex records the position of a split chunk within its parent.
const MetadataChunkIndex = "chunk_index"

// Processor splits chunk text longer than the chunk size.
// It implements the ChunkProcessor interface.
type Processor struct {
	maxChars int
	overlap  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in estimated tokens.
func WithChunkSize(tokens int) Option {
	return func(p *Processor) {
		if tokens > 0 {
			p.maxChars = tokens * CharsPerToken
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxChars: DefaultChunkSize * CharsPerToken,
		overlap:  DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.maxChars {
		p.overlap = p.maxChars / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every chunk whose text exceeds the chunk size. Split
// chunks keep their provenance and record chunk_index in their metadata.
func (p *Processor) Process(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parts := Split(chunk.Text, p.maxChars, p.overlap)
		if len(parts) == 1 {
			out = append(out, chunk)
			continue
		}

		for i, part := range parts {
			piece := chunk
			piece.Text = part
			piece.Metadata = make(map[string]any, len(chunk.Metadata)+1)
			maps.Copy(piece.Metadata, chunk.Metadata)
			piece.Metadata[MetadataChunkIndex] = i
			out = append(out, piece)
		}
	}
	return out, nil
}

// Split cuts text into pieces of at most maxChars characters. Each cut
// prefers the last sentence end within boundaryWindow characters, and
// consecutive pieces share overlap characters.
func Split(text string, maxChars, overlap int) []string {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end >= len(runes) {
			parts = append(parts, string(runes[start:]))
			break
		}

		floor := max(start, end-boundaryWindow)
		for i := end - 1; i > floor; i-- {
			if strings.ContainsRune(".!?\n", runes[i]) {
				end = i + 1
				break
			}
		}
		parts = append(parts, string(runes[start:end]))

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return parts
}
