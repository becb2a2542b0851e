package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func TestAnalyzeCmd_Flags(t *testing.T) {
	assert.Equal(t, "analyze <path>", analyzeCmd.Use)
	require.NotNil(t, analyzeCmd.Flags().Lookup("git"))
	require.NotNil(t, analyzeCmd.Flags().Lookup("pull"))
}

func TestAnalyzeCmd_PrintsSummary(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	ts.analyzer.files = []string{"a.md", "b.py"}
	ts.analyzer.result = &domain.AnalysisResult{
		SourcesProcessed:  2,
		ItemsExtracted:    5,
		ItemsDeduplicated: 1,
		HighPriority:      2,
		MediumPriority:    2,
		LowPriority:       1,
		ByType:            map[string]int{"TODO": 3, "BUG": 2},
		Errors:            []string{"b.py: model returned no JSON"},
	}

	out, err := executeCommand(t, "analyze", t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a.md", "b.py"}}, ts.analyzer.analyzed)
	assert.Contains(t, out, "Analyzing 2 file(s) with nuextract")
	assert.Contains(t, out, "Items extracted:    5")
	assert.Contains(t, out, "2 high, 2 medium, 1 low")
	assert.Contains(t, out, "BUG 2, TODO 3")
	assert.Contains(t, out, "Errors (1):")
	assert.Empty(t, ts.analyzer.gitRepos)
}

func TestAnalyzeCmd_ConnectionFailure(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.models.pingErr = errors.New("connection refused")

	_, err := executeCommand(t, "analyze", t.TempDir())

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Empty(t, ts.analyzer.analyzed)
}

func TestAnalyzeCmd_MissingModel(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.models.installed = false

	_, err := executeCommand(t, "analyze", t.TempDir())
	assert.ErrorIs(t, err, domain.ErrModelNotFound)

	_, err = executeCommand(t, "analyze", "--pull", t.TempDir())
	require.NoError(t, err)
	assert.True(t, ts.models.pulled)
}

func TestAnalyzeCmd_NoFilesSkipsAnalysis(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()
	ts.analyzer.files = []string{}

	out, err := executeCommand(t, "analyze", t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, ts.analyzer.analyzed)
	assert.Contains(t, out, "Analyzing 0 file(s)")
}

func TestAnalyzeCmd_GitRequiresRepository(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := executeCommand(t, "analyze", "--git", t.TempDir())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAnalyzeCmd_RejectsSymlink(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	dir := t.TempDir()
	target := filepath.Join(dir, "chat.md")
	require.NoError(t, os.WriteFile(target, []byte("TODO: fix"), 0o644))
	link := filepath.Join(dir, "link.md")
	require.NoError(t, os.Symlink(target, link))

	_, err := executeCommand(t, "analyze", link)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, ts.analyzer.analyzed)
}

func TestAnalyzeCmd_RefusesWhenLocked(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	held := flock.New(lockPath(ts.cfg.Database.Path))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	_, err = executeCommand(t, "analyze", t.TempDir())

	assert.ErrorIs(t, err, domain.ErrAnalysisInProgress)
	assert.Empty(t, ts.analyzer.analyzed)
}

func TestLockedAnalyzer_ReleasesLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analyzer.db")
	inner := &mockAnalyzer{}
	a := &lockedAnalyzer{Analyzer: inner, dbPath: dbPath}

	_, err := a.AnalyzeFiles(t.Context(), []string{"x.md"})
	require.NoError(t, err)
	_, err = a.AnalyzeFiles(t.Context(), []string{"y.md"})
	require.NoError(t, err)

	assert.Len(t, inner.analyzed, 2)
	_, statErr := os.Stat(lockPath(dbPath))
	assert.NoError(t, statErr)

	lock, err := acquireWriterLock(dbPath)
	require.NoError(t, err)
	_ = lock.Unlock()
}

func TestMergeResults(t *testing.T) {
	dst := &domain.AnalysisResult{
		SourcesProcessed: 1,
		ItemsExtracted:   2,
		HighPriority:     1,
		MediumPriority:   1,
		ByType:           map[string]int{"BUG": 2},
	}
	src := &domain.AnalysisResult{
		SourcesProcessed: 2,
		ItemsExtracted:   1,
		HighPriority:     1,
		MediumPriority:   1,
		LowPriority:      1,
		ByType:           map[string]int{"BUG": 2, "TODO": 1},
		Errors:           []string{"oops"},
	}

	mergeResults(dst, src)

	assert.Equal(t, 3, dst.SourcesProcessed)
	assert.Equal(t, 3, dst.ItemsExtracted)
	// Store-wide counts come from the later batch, not a sum of both.
	assert.Equal(t, 1, dst.HighPriority)
	assert.Equal(t, 1, dst.MediumPriority)
	assert.Equal(t, 1, dst.LowPriority)
	assert.Equal(t, map[string]int{"BUG": 2, "TODO": 1}, dst.ByType)
	assert.Equal(t, []string{"oops"}, dst.Errors)
}

func TestAnalyzeCmd_GitSummaryNotDoubleCounted(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	repo := t.TempDir()
	_, err := git.PlainInit(repo, false)
	require.NoError(t, err)

	ts.analyzer.files = []string{filepath.Join(repo, "chat.md")}
	ts.analyzer.result = &domain.AnalysisResult{
		SourcesProcessed: 1,
		ItemsExtracted:   2,
		HighPriority:     2,
		MediumPriority:   1,
		ByType:           map[string]int{"BUG": 2, "TODO": 1},
	}
	ts.analyzer.gitResult = &domain.AnalysisResult{
		SourcesProcessed: 1,
		ItemsExtracted:   1,
		HighPriority:     2,
		MediumPriority:   1,
		LowPriority:      1,
		ByType:           map[string]int{"BUG": 2, "TODO": 2},
	}

	out, err := executeCommand(t, "analyze", "--git", repo)

	require.NoError(t, err)
	assert.Equal(t, []string{repo}, ts.analyzer.gitRepos)
	assert.Contains(t, out, "Sources processed:  2")
	assert.Contains(t, out, "Items extracted:    3")
	assert.Contains(t, out, "2 high, 1 medium, 1 low")
	assert.Contains(t, out, "BUG 2, TODO 2")
}

func TestDuplicatesCmd(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := executeCommand(t, "duplicates")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicates found.")

	ts.analyzer.groups = []domain.DuplicateGroup{{
		Primary:      domain.Item{ID: 1, Type: domain.ItemTypeBug, Description: "Login fails"},
		Duplicates:   []domain.Item{{ID: 4, Type: domain.ItemTypeBug, Description: "Login broken"}},
		Similarities: []float64{0.91},
	}}

	out, err = executeCommand(t, "duplicates")
	require.NoError(t, err)
	assert.Contains(t, out, "Group 1 (2 items)")
	assert.Contains(t, out, "#4 [BUG] Login broken (0.91)")
	assert.Contains(t, out, "1 group(s)")
}

func TestReviewCmd(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := executeCommand(t, "review", "1")

	require.NoError(t, err)
	assert.Equal(t, "the login breaks after the token expires", ts.reviewer.gotText)
	assert.Contains(t, out, "Accurate:             yes")
	assert.Contains(t, out, "Well described:       no")
	assert.Contains(t, out, "0.70 (stored 0.95)")
	assert.Contains(t, out, "omits the affected endpoint")
}

func TestReviewCmd_NotFound(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := executeCommand(t, "review", "42")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTestConnectionCmd(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := executeCommand(t, "test-connection")
	require.NoError(t, err)
	assert.Contains(t, out, "Connection: ok")
	assert.Contains(t, out, "Models (2):")
	assert.Contains(t, out, "Extraction model nuextract: available")
	assert.Contains(t, out, "Embeddings (fastembed): ok")

	ts.embeddingErr = domain.ErrEmbeddingUnavailable
	out, err = executeCommand(t, "test-connection")
	require.NoError(t, err)
	assert.Contains(t, out, "Embeddings (fastembed): unavailable")

	ts.cfg.Intelligence.Deduplication.Enabled = false
	out, err = executeCommand(t, "test-connection")
	require.NoError(t, err)
	assert.Contains(t, out, "Embeddings: disabled")

	ts.models.installed = false
	out, err = executeCommand(t, "test-connection")
	require.NoError(t, err)
	assert.Contains(t, out, "missing")

	ts.models.pingErr = errors.New("refused")
	_, err = executeCommand(t, "test-connection")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
