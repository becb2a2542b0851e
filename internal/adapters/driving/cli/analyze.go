package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/parsers"
)

var (
	analyzeGit  bool
	analyzePull bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Extract action items from a file or directory",
	Long: `Parses every supported file under path, asks the extraction model for
action items, scores them, folds duplicates and links related items.

A directory is searched with the glob patterns under "sources" in the
config. Files whose content has not changed since the last run are skipped.

With --git, or when sources.git.enabled is set, commit messages of the
repository at path are analyzed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeGit, "git", false, "also analyze commit messages")
	analyzeCmd.Flags().BoolVar(&analyzePull, "pull", false, "pull the extraction model if it is missing")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path, err := parsers.ValidateFilePath(args[0], "")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	cfg, err := app.config()
	if err != nil {
		return err
	}
	if err := app.analysis(ctx); err != nil {
		return err
	}

	lock, err := acquireWriterLock(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := app.models.TestConnection(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	ok, err := app.models.EnsureModel(ctx, analyzePull)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s (rerun with --pull to download it)",
			domain.ErrModelNotFound, app.models.ModelName())
	}

	files, err := app.analyzer.Discover(path)
	if err != nil {
		return err
	}
	cmd.Printf("Analyzing %d file(s) with %s...\n", len(files), app.models.ModelName())

	result := &domain.AnalysisResult{ByType: map[string]int{}}
	if len(files) > 0 {
		if result, err = app.analyzer.AnalyzeFiles(ctx, files); err != nil {
			return err
		}
	}

	if (analyzeGit || cfg.Sources.Git.Enabled) && parsers.IsRepository(path) {
		cmd.Printf("Analyzing commit messages on %s...\n", cfg.Sources.Git.Branch)
		gitResult, err := app.analyzer.AnalyzeGit(ctx, path)
		if err != nil {
			return err
		}
		mergeResults(result, gitResult)
	} else if analyzeGit {
		return fmt.Errorf("%w: %s is not a git repository", domain.ErrInvalidInput, path)
	}

	printResult(cmd, result)
	return nil
}

// mergeResults folds a later batch src into dst. Per-run counters add up.
// Priority and type counts describe the whole store after a batch, so the
// later batch's values replace the earlier ones.
func mergeResults(dst, src *domain.AnalysisResult) {
	dst.SourcesProcessed += src.SourcesProcessed
	dst.ItemsExtracted += src.ItemsExtracted
	dst.ItemsDeduplicated += src.ItemsDeduplicated
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.Duration += src.Duration

	dst.HighPriority = src.HighPriority
	dst.MediumPriority = src.MediumPriority
	dst.LowPriority = src.LowPriority
	dst.ByType = make(map[string]int, len(src.ByType))
	for k, v := range src.ByType {
		dst.ByType[k] = v
	}
}

func printResult(cmd *cobra.Command, result *domain.AnalysisResult) {
	cmd.Println()
	cmd.Printf("Analysis complete in %.1fs\n", result.DurationSeconds())
	cmd.Printf("  Sources processed:  %d\n", result.SourcesProcessed)
	cmd.Printf("  Items extracted:    %d\n", result.ItemsExtracted)
	cmd.Printf("  Duplicates folded:  %d\n", result.ItemsDeduplicated)
	cmd.Printf("  Priority:           %d high, %d medium, %d low\n",
		result.HighPriority, result.MediumPriority, result.LowPriority)

	if len(result.ByType) > 0 {
		parts := make([]string, 0, len(result.ByType))
		for _, t := range orderedKeys(result.ByType, typeOrder()) {
			parts = append(parts, fmt.Sprintf("%s %d", t, result.ByType[t]))
		}
		cmd.Printf("  By type:            %s\n", strings.Join(parts, ", "))
	}

	if len(result.Errors) > 0 {
		cmd.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}
}
