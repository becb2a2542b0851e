package driving

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Analyzer runs the analysis pipeline over files and repositories.
type Analyzer interface {
	// AnalyzeFiles extracts, scores and stores items from each path,
	// then runs deduplication and entity linking over the corpus.
	// A failing file is recorded in the result and never aborts the batch.
	AnalyzeFiles(ctx context.Context, paths []string) (*domain.AnalysisResult, error)

	// AnalyzeGit does the same for the commit messages of a repository.
	AnalyzeGit(ctx context.Context, repoPath string) (*domain.AnalysisResult, error)

	// Discover expands a file or directory into the parsable files it contains.
	Discover(root string) ([]string, error)

	// FindDuplicates returns the groups deduplication would form now.
	// Nothing is written.
	FindDuplicates(ctx context.Context) ([]domain.DuplicateGroup, error)
}

// ModelService exposes model connectivity checks.
type ModelService interface {
	// TestConnection returns nil when the model backend is reachable.
	TestConnection(ctx context.Context) error

	// ListModels returns the models the backend has locally.
	ListModels(ctx context.Context) ([]string, error)

	// EnsureModel checks the extraction model is present and pulls it when
	// pull is true. Reports whether the model is available afterwards.
	EnsureModel(ctx context.Context, pull bool) (bool, error)

	// ModelName returns the extraction model name.
	ModelName() string
}
