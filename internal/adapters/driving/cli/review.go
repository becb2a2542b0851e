package cli

import (
	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review <id>",
	Short: "Ask the analysis model to check an item against its source",
	Long: `Sends the item and the text it was extracted from to the analysis model
and prints its verdict: whether the item is accurate, well described and
correctly prioritised, and the confidence it would assign.

The stored item is not changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	items, err := app.itemService()
	if err != nil {
		return err
	}
	item, err := items.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := app.analysis(ctx); err != nil {
		return err
	}
	review, err := app.reviewer.ValidateItem(ctx, *item, item.SourceContext)
	if err != nil {
		return err
	}

	cmd.Printf("#%d [%s] %s\n\n", item.ID, item.Type, item.Description)
	cmd.Printf("  Accurate:             %s\n", yesNo(review.Accurate))
	cmd.Printf("  Well described:       %s\n", yesNo(review.WellDescribed))
	cmd.Printf("  Priority appropriate: %s\n", yesNo(review.AppropriatePriority))
	cmd.Printf("  Confidence:           %.2f (stored %.2f)\n", review.SuggestedConfidence, item.Confidence)
	if review.Reason != "" {
		cmd.Printf("\n%s\n", review.Reason)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
