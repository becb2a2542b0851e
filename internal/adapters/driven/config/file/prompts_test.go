package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
)

var testDefaults = map[string]string{
	driven.PromptExtractionSystem: "You are a precise information extraction system.",
	driven.PromptCodeAddendum:     "Code-specific notes:",
}

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_Dir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, NewPromptStore(dir, nil).Dir())
	assert.Equal(t, DefaultPromptDir, NewPromptStore("", nil).Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewPromptStore(dir, testDefaults)

	_, err := store.Load(driven.PromptExtractionSystem)
	require.NoError(t, err)

	for _, f := range []string{"extraction_system.txt", "code_addendum.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store := NewPromptStore(t.TempDir(), testDefaults)

	prompt, err := store.Load(driven.PromptExtractionSystem)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptExtractionSystem], prompt)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Only extract security bugs."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extraction_system.txt"), []byte(custom+"\n"), 0o600))

	store := NewPromptStore(dir, testDefaults)
	prompt, err := store.Load(driven.PromptExtractionSystem)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)

	// Custom file is not overwritten by initialisation.
	data, err := os.ReadFile(filepath.Join(dir, "extraction_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom+"\n", string(data))
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "code_addendum.txt"), []byte("  \n"), 0o600))

	store := NewPromptStore(dir, testDefaults)
	prompt, err := store.Load(driven.PromptCodeAddendum)

	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptCodeAddendum], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store := NewPromptStore(t.TempDir(), testDefaults)

	_, err := store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Load_InitFailureFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := NewPromptStore(filepath.Join(blocker, "prompts"), testDefaults)
	prompt, err := store.Load(driven.PromptExtractionSystem)

	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptExtractionSystem], prompt)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store := NewPromptStore(dir, testDefaults)

	first, err := store.Load(driven.PromptExtractionSystem)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "extraction_system.txt"), []byte("edited"), 0o600))

	cached, err := store.Load(driven.PromptExtractionSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	reloaded, err := store.Load(driven.PromptExtractionSystem)
	require.NoError(t, err)
	assert.Equal(t, "edited", reloaded)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store := NewPromptStore(t.TempDir(), testDefaults)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptExtractionSystem)
			assert.NoError(t, err)
			assert.NotEmpty(t, prompt)
		}()
	}
	wg.Wait()
}
