package cli

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

var (
	browseType     string
	browsePriority string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse items in an interactive terminal UI",
	Long: `Opens a full-screen browser over the stored items.

Controls:
  ↑/k, ↓/j - Navigate items
  Enter    - Open item with related items
  /        - Filter by description
  t, p     - Cycle type and priority filters
  d        - Show or hide duplicates
  s        - Statistics
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVarP(&browseType, "type", "t", "", "initial type filter")
	browseCmd.Flags().StringVarP(&browsePriority, "priority", "p", "", "initial priority filter")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) (err error) {
	// Restore a readable trace if the UI panics while the alt screen is up.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	items, err := app.itemService()
	if err != nil {
		return err
	}

	ui, err := tui.NewApp(&tui.Ports{
		Items: items,
		Filter: domain.ItemFilter{
			Type:              domain.ItemType(strings.ToUpper(browseType)),
			Priority:          domain.Priority(strings.ToLower(browsePriority)),
			ExcludeDuplicates: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	if err := ui.Run(cmd.Context()); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
