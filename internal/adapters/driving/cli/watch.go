package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
	"github.com/custodia-labs/convo-analyzer/internal/parsers"
)

// watchDebounce is how long changes must settle before a batch runs.
var watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-analyze files as they change",
	Long: `Watches dir and its subdirectories and analyzes supported files each
time they are written. Bursts of changes are collected into one batch.
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir, err := parsers.ValidateFilePath(args[0], "")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	cfg, err := app.config()
	if err != nil {
		return err
	}
	if err := app.analysis(ctx); err != nil {
		return err
	}
	if err := app.models.TestConnection(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}

	analyzer := &lockedAnalyzer{Analyzer: app.analyzer, dbPath: cfg.Database.Path}
	cmd.Printf("Watching %s (ctrl+c to stop)\n", dir)

	return watchLoop(ctx, watcher, func(ctx context.Context, files []string) {
		cmd.Printf("\n%d file(s) changed\n", len(files))
		result, err := analyzer.AnalyzeFiles(ctx, files)
		if err != nil {
			logger.Error("Analysis failed: %v", err)
			return
		}
		printResult(cmd, result)
	})
}

// watchLoop batches change events and hands each settled batch to analyze.
// It returns nil when ctx is cancelled.
func watchLoop(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	analyze func(ctx context.Context, files []string),
) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("Cannot watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if _, ok := parsers.Detect(event.Name); !ok {
				continue
			}
			logger.Debug("Change: %s %s", event.Op, event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for f := range pending {
				if _, err := os.Stat(f); err == nil {
					files = append(files, f)
				}
			}
			clear(pending)
			if len(files) == 0 {
				continue
			}
			sort.Strings(files)
			analyze(ctx, files)
		}
	}
}

// addRecursive watches dir and every directory below it, skipping hidden ones.
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
