package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, deduplication uses fuzzy text matching.
//
// Implementations may include:
//   - FastEmbed (all-MiniLM-L6-v2, in-process)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible embedding endpoints
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result is parallel to texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is usable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
