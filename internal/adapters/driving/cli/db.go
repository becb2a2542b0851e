package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/parsers"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbVacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Reclaim unused space in the database",
	Args:  cobra.NoArgs,
	RunE:  runDBVacuum,
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup [dest]",
	Short: "Write a consistent copy of the database",
	Long: `Writes a snapshot of the database to dest. Without dest the copy goes
to <database.backup_dir>/analyzer-<timestamp>.db. An existing file is never
overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDBBackup,
}

func init() {
	dbCmd.AddCommand(dbVacuumCmd)
	dbCmd.AddCommand(dbBackupCmd)
	rootCmd.AddCommand(dbCmd)
}

func runDBVacuum(cmd *cobra.Command, _ []string) error {
	cfg, err := app.config()
	if err != nil {
		return err
	}
	store, err := app.itemStore()
	if err != nil {
		return err
	}

	lock, err := acquireWriterLock(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := store.Vacuum(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Database vacuumed.")
	return nil
}

func runDBBackup(cmd *cobra.Command, args []string) error {
	cfg, err := app.config()
	if err != nil {
		return err
	}
	store, err := app.itemStore()
	if err != nil {
		return err
	}

	dest := defaultBackupPath(cfg.Database.BackupDir, time.Now())
	if len(args) > 0 {
		dest = filepath.Join(filepath.Dir(args[0]), parsers.SafeFilename(filepath.Base(args[0])))
	}

	if err := store.Backup(cmd.Context(), dest); err != nil {
		return err
	}
	cmd.Printf("Backup written to %s\n", dest)
	return nil
}

func defaultBackupPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("analyzer-%s.db", now.Format("20060102-150405")))
}
