package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func TestDBCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, 2)
	for _, cmd := range dbCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"vacuum", "backup"}, names)
}

func TestDBVacuumCmd(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	out, err := executeCommand(t, "db", "vacuum")

	require.NoError(t, err)
	assert.Contains(t, out, "Database vacuumed.")
}

func TestDBBackupCmd_SQLite(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	store, err := sqlite.NewStore(ts.cfg.Database.Path)
	require.NoError(t, err)
	defer store.Close()
	app.store = store

	dest := filepath.Join(t.TempDir(), "copy.db")
	out, err := executeCommand(t, "db", "backup", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to "+dest)

	_, err = os.Stat(dest)
	require.NoError(t, err)

	_, err = executeCommand(t, "db", "backup", dest)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDBBackupCmd_SanitisesFilename(t *testing.T) {
	ts, cleanup := setupTestServices(t)
	defer cleanup()

	store, err := sqlite.NewStore(ts.cfg.Database.Path)
	require.NoError(t, err)
	defer store.Close()
	app.store = store

	dir := t.TempDir()
	out, err := executeCommand(t, "db", "backup", filepath.Join(dir, "copy<1>.db"))
	require.NoError(t, err)

	want := filepath.Join(dir, "copy_1_.db")
	assert.Contains(t, out, "Backup written to "+want)
	_, err = os.Stat(want)
	assert.NoError(t, err)
}

func TestDBBackupCmd_MemoryStoreUnsupported(t *testing.T) {
	_, cleanup := setupTestServices(t)
	defer cleanup()

	_, err := executeCommand(t, "db", "backup")

	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestDefaultBackupPath(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, filepath.Join("backups", "analyzer-20240301-140509.db"), defaultBackupPath("backups", now))
}
