package cli

import (
	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List the duplicate groups found among open items",
	Long: `Compares every item not already folded into another and prints the
groups deduplication would form now. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runDuplicates,
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := app.analysis(ctx); err != nil {
		return err
	}

	groups, err := app.analyzer.FindDuplicates(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		cmd.Println("No duplicates found.")
		return nil
	}

	for i := range groups {
		g := &groups[i]
		cmd.Printf("Group %d (%d items)\n", i+1, g.Size())
		cmd.Printf("  * #%d [%s] %s\n", g.Primary.ID, g.Primary.Type, g.Primary.Description)
		for j := range g.Duplicates {
			d := &g.Duplicates[j]
			cmd.Printf("    #%d [%s] %s (%.2f)\n", d.ID, d.Type, d.Description, g.Similarities[j])
		}
		cmd.Println()
	}
	cmd.Printf("%d group(s)\n", len(groups))
	return nil
}
