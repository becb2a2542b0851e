package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/services"
)

// mockAnalyzer implements driving.Analyzer.
type mockAnalyzer struct {
	files     []string
	result    *domain.AnalysisResult
	gitResult *domain.AnalysisResult
	groups    []domain.DuplicateGroup
	err       error

	analyzed [][]string
	gitRepos []string
}

func (m *mockAnalyzer) AnalyzeFiles(_ context.Context, paths []string) (*domain.AnalysisResult, error) {
	m.analyzed = append(m.analyzed, paths)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.AnalysisResult{SourcesProcessed: len(paths), ByType: map[string]int{}}, nil
}

func (m *mockAnalyzer) AnalyzeGit(_ context.Context, repoPath string) (*domain.AnalysisResult, error) {
	m.gitRepos = append(m.gitRepos, repoPath)
	if m.gitResult != nil {
		return m.gitResult, m.err
	}
	return &domain.AnalysisResult{SourcesProcessed: 1, ByType: map[string]int{}}, m.err
}

func (m *mockAnalyzer) Discover(root string) ([]string, error) {
	if m.files != nil {
		return m.files, nil
	}
	return []string{root}, nil
}

func (m *mockAnalyzer) FindDuplicates(_ context.Context) ([]domain.DuplicateGroup, error) {
	return m.groups, m.err
}

// mockModels implements driving.ModelService.
type mockModels struct {
	pingErr   error
	models    []string
	installed bool

	pulled bool
}

func (m *mockModels) TestConnection(_ context.Context) error {
	return m.pingErr
}

func (m *mockModels) ListModels(_ context.Context) ([]string, error) {
	return m.models, nil
}

func (m *mockModels) EnsureModel(_ context.Context, pull bool) (bool, error) {
	if !m.installed && pull {
		m.pulled = true
		return true, nil
	}
	return m.installed, nil
}

func (m *mockModels) ModelName() string {
	return "nuextract"
}

// mockReviewer implements itemReviewer.
type mockReviewer struct {
	review *domain.ItemReview
	err    error

	gotText string
}

func (m *mockReviewer) ValidateItem(_ context.Context, _ domain.Item, text string) (*domain.ItemReview, error) {
	m.gotText = text
	return m.review, m.err
}

// testServices is what setupTestServices wired, for assertions.
type testServices struct {
	cfg      domain.Config
	store    *memory.Store
	analyzer *mockAnalyzer
	models   *mockModels
	reviewer *mockReviewer

	embeddingErr error
}

// setupTestServices replaces the command services with in-memory fakes
// seeded with three items. It returns a cleanup func restoring the originals.
func setupTestServices(t *testing.T) (*testServices, func()) {
	t.Helper()

	dir := t.TempDir()
	cfg := domain.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "analyzer.db")
	cfg.Database.BackupDir = filepath.Join(dir, "backups")
	cfg.Reporting.OutputDir = filepath.Join(dir, "reports")
	cfg.Logging.File = ""

	store := memory.NewStore()
	seedItems(t, store)

	ts := &testServices{
		cfg:      cfg,
		store:    store,
		analyzer: &mockAnalyzer{},
		models:   &mockModels{installed: true, models: []string{"nuextract:latest", "llama3.1:8b"}},
		reviewer: &mockReviewer{review: &domain.ItemReview{
			Accurate:            true,
			WellDescribed:       false,
			AppropriatePriority: true,
			SuggestedConfidence: 0.7,
			Reason:              "Description omits the affected endpoint.",
		}},
	}

	old := app
	app = &container{
		cfg:      &ts.cfg,
		store:    store,
		items:    services.NewItemService(store),
		analyzer: ts.analyzer,
		models:   ts.models,
		reviewer: ts.reviewer,
		checkEmbedding: func(context.Context, domain.Config) error {
			return ts.embeddingErr
		},
	}
	return ts, func() { app = old }
}

func seedItems(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	items := []domain.Item{
		{
			Type:          domain.ItemTypeBug,
			Description:   "Login fails when the session token expires",
			Priority:      domain.PriorityHigh,
			PriorityScore: 0.9,
			Confidence:    0.95,
			SourceContext: "the login breaks after the token expires",
			SourceType:    domain.SourceTypeConversation,
			SourceFile:    "chat.md",
			SourceLine:    domain.IntPtr(12),
			Entities:      domain.Entities{domain.EntityFiles: {"auth.go"}},
		},
		{
			Type:          domain.ItemTypeTODO,
			Description:   "Add retry to the upload client",
			Priority:      domain.PriorityMedium,
			PriorityScore: 0.5,
			Confidence:    0.8,
			SourceType:    domain.SourceTypeCode,
			SourceFile:    "upload.go",
		},
		{
			Type:          domain.ItemTypeBug,
			Description:   "Login fails after token expiry",
			Priority:      domain.PriorityHigh,
			PriorityScore: 0.85,
			Confidence:    0.9,
			SourceType:    domain.SourceTypeConversation,
			SourceFile:    "chat2.md",
		},
	}
	for i := range items {
		_, err := store.SaveItem(ctx, &items[i])
		require.NoError(t, err)
	}
	require.NoError(t, store.MarkDuplicate(ctx, 3, 1))
	require.NoError(t, store.SaveRelationship(ctx, domain.Relationship{
		ItemID1:         1,
		ItemID2:         3,
		Type:            domain.RelationshipDuplicate,
		SimilarityScore: domain.Float64Ptr(0.93),
	}))
}

// executeCommand runs the root command with args and returns its output.
// Flag values are reset first so earlier tests do not leak into later ones.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "convo-analyzer", rootCmd.Use)
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cfgFlag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfgFlag)
	assert.Equal(t, "c", cfgFlag.Shorthand)

	verboseFlag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "false", verboseFlag.DefValue)
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{
		"analyze", "watch", "report", "stats", "list", "show", "duplicates",
		"review", "test-connection", "db", "config", "browse", "mcp", "version",
	} {
		assert.Contains(t, names, want)
	}
}

func TestContainer_UsesInjectedServices(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	cfg, err := app.config()
	require.NoError(t, err)
	assert.Equal(t, ts.cfg.Database.Path, cfg.Database.Path)

	store, err := app.itemStore()
	require.NoError(t, err)
	assert.Same(t, ts.store, store)

	require.NoError(t, app.analysis(context.Background()))
	assert.Same(t, ts.analyzer, app.analyzer)
}

func TestContainer_CloseRunsNewestFirst(t *testing.T) {
	var order []int
	c := &container{closers: []func(){
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}}

	c.close()
	c.close()

	assert.Equal(t, []int{2, 1}, order)
}

func TestOrderedKeys(t *testing.T) {
	counts := map[string]int{"low": 1, "zeta": 2, "high": 3, "alpha": 4}

	assert.Equal(t, []string{"high", "low", "alpha", "zeta"}, orderedKeys(counts, priorityOrder()))
}

func TestIsTerminal_Buffer(t *testing.T) {
	buf := new(bytes.Buffer)

	assert.False(t, isTerminal(buf))
	assert.Equal(t, defaultWidth, terminalWidth(buf))
}
