package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// SourceParser turns input files and repositories into chunks.
type SourceParser interface {
	// Detect reports which source type handles the path.
	// Returns false when no parser accepts the file.
	Detect(path string) (domain.SourceType, bool)

	// ParseFile reads the file and returns its chunks.
	ParseFile(ctx context.Context, path string) ([]domain.Chunk, error)

	// ParseGit returns one chunk per commit on branch since the given time,
	// along with the current HEAD hash.
	ParseGit(ctx context.Context, repoPath, branch string, since time.Time) ([]domain.Chunk, string, error)
}
