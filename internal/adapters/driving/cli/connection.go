package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that the model backend is reachable",
	Long: `Pings the configured model backend, lists the models it has installed,
and reports whether the extraction model is among them. The embedding backend
used for deduplication is checked as well.`,
	Args: cobra.NoArgs,
	RunE: runTestConnection,
}

func init() {
	rootCmd.AddCommand(testConnectionCmd)
}

func runTestConnection(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := app.config()
	if err != nil {
		return err
	}
	if err := app.analysis(ctx); err != nil {
		return err
	}

	if err := app.models.TestConnection(ctx); err != nil {
		cmd.Println("Connection: failed")
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	cmd.Println("Connection: ok")

	models, err := app.models.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	cmd.Printf("Models (%d):\n", len(models))
	for _, m := range models {
		cmd.Printf("  - %s\n", m)
	}

	ok, err := app.models.EnsureModel(ctx, false)
	if err != nil {
		return err
	}
	if ok {
		cmd.Printf("Extraction model %s: available\n", app.models.ModelName())
	} else {
		cmd.Printf("Extraction model %s: missing (run analyze --pull to download it)\n", app.models.ModelName())
	}

	dedup := cfg.Intelligence.Deduplication
	if !dedup.Enabled {
		cmd.Println("Embeddings: disabled")
		return nil
	}
	if err := app.embeddingCheck()(ctx, cfg); err != nil {
		cmd.Printf("Embeddings (%s): unavailable, duplicates use text matching (%v)\n", dedup.EmbeddingProvider, err)
		return nil
	}
	cmd.Printf("Embeddings (%s): ok\n", dedup.EmbeddingProvider)
	return nil
}
