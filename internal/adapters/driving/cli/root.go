// Package cli provides the convo-analyzer command line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "convo-analyzer",
	Short: "Extract action items from conversations, code and notes",
	Long: `convo-analyzer reads AI chat logs, source comments, notes and commit
messages, asks a local language model for the action items buried in them,
and keeps the results in a SQLite database.

Items are scored for priority, near-duplicates are folded together, and
items that mention the same files or functions are linked.

Typical workflow:
  convo-analyzer analyze ./data/conversations
  convo-analyzer list --priority high
  convo-analyzer report --save`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default ./config.yaml, ./config.yml or ./config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()
	defer app.close()

	return rootCmd.ExecuteContext(ctx)
}
