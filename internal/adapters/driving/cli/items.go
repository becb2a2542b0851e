package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/postprocessors/chunker"
)

// listDescriptionTokens caps the description column in list output.
const listDescriptionTokens = 15

var (
	listType     string
	listPriority string
	listStatus   string
	listSource   string
	listLimit    int

	statsSources bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored items",
	Long: `Lists stored items, highest priority first. Duplicates are hidden.

Filters combine: --type BUG --priority high shows only high priority bugs.
Pass --status "" to include every status.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item and the items linked to it",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show item totals by type, priority and status",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "filter by type (BUG, TODO, FEATURE, PROJECT)")
	listCmd.Flags().StringVarP(&listPriority, "priority", "p", "", "filter by priority (high, medium, low)")
	listCmd.Flags().StringVar(&listStatus, "status", string(domain.StatusOpen), "filter by status")
	listCmd.Flags().StringVar(&listSource, "source", "", "filter by source file")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of items")
	statsCmd.Flags().BoolVar(&statsSources, "sources", false, "also list processed sources")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	items, err := app.itemService()
	if err != nil {
		return err
	}

	filter := domain.ItemFilter{
		Type:              domain.ItemType(strings.ToUpper(strings.TrimSpace(listType))),
		Priority:          domain.Priority(strings.ToLower(strings.TrimSpace(listPriority))),
		Status:            domain.Status(strings.ToLower(strings.TrimSpace(listStatus))),
		SourceFile:        listSource,
		Limit:             listLimit,
		ExcludeDuplicates: true,
	}

	found, err := items.List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		cmd.Println("No items found.")
		return nil
	}

	t := newTable("ID", "Type", "Priority", "Score", "Description", "Source")
	for i := range found {
		item := &found[i]
		t.Row(
			strconv.FormatInt(item.ID, 10),
			string(item.Type),
			string(item.Priority),
			fmt.Sprintf("%.2f", item.PriorityScore),
			chunker.Truncate(item.Description, listDescriptionTokens),
			sourceLocation(item),
		)
	}
	cmd.Println(t.Render())
	cmd.Printf("%d item(s)\n", len(found))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	items, err := app.itemService()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	item, err := items.Get(ctx, id)
	if err != nil {
		return err
	}
	related, err := items.Related(ctx, id)
	if err != nil {
		return err
	}

	cmd.Printf("#%d [%s] %s\n\n", item.ID, item.Type, item.Description)
	cmd.Printf("  Priority:    %s (%.2f)\n", item.Priority, item.PriorityScore)
	cmd.Printf("  Confidence:  %.2f\n", item.Confidence)
	cmd.Printf("  Status:      %s\n", item.Status)
	cmd.Printf("  Source:      %s %s\n", item.SourceType, sourceLocation(item))
	if !item.ExtractedAt.IsZero() {
		cmd.Printf("  Extracted:   %s\n", item.ExtractedAt.Format("2006-01-02 15:04"))
	}
	if item.IsDuplicate && item.DuplicateOf != nil {
		cmd.Printf("  Duplicate of #%d\n", *item.DuplicateOf)
	}
	if len(item.Tags) > 0 {
		cmd.Printf("  Tags:        %s\n", strings.Join(item.Tags, ", "))
	}
	for _, category := range item.Entities.Keys() {
		cmd.Printf("  %-12s %s\n", category+":", strings.Join(item.Entities[category], ", "))
	}

	if item.SourceContext != "" {
		cmd.Println()
		cmd.Println("Context:")
		for _, line := range strings.Split(item.SourceContext, "\n") {
			cmd.Printf("  > %s\n", line)
		}
	}

	cmd.Println()
	if len(related) == 0 {
		cmd.Println("No related items.")
		return nil
	}
	cmd.Println("Related:")
	for i := range related {
		r := &related[i]
		score := ""
		if r.SimilarityScore != nil {
			score = fmt.Sprintf(" (%.2f)", *r.SimilarityScore)
		}
		cmd.Printf("  #%d %s [%s] %s%s\n", r.Item.ID, r.Type, r.Item.Type, r.Item.Description, score)
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	items, err := app.itemService()
	if err != nil {
		return err
	}

	stats, err := items.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("%d items from %d sources, %d relationships\n\n",
		stats.TotalItems, stats.TotalSources, stats.TotalRelationships)
	if stats.TotalItems > 0 {
		cmd.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			countTable("Type", stats.ByType, typeOrder()),
			" ",
			countTable("Priority", stats.ByPriority, priorityOrder()),
			" ",
			countTable("Status", stats.ByStatus, statusOrder()),
		))
	}
	if !statsSources {
		return nil
	}
	return printSources(cmd)
}

func printSources(cmd *cobra.Command) error {
	store, err := app.itemStore()
	if err != nil {
		return err
	}
	sources, err := store.ListSources(cmd.Context())
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		cmd.Println("No sources processed.")
		return nil
	}

	t := newTable("Source", "Type", "Status", "Items", "Processed")
	for _, src := range sources {
		status := string(src.ProcessingStatus)
		if src.ErrorMessage != "" {
			status += ": " + chunker.Truncate(src.ErrorMessage, listDescriptionTokens)
		}
		t.Row(
			src.FilePath,
			string(src.SourceType),
			status,
			strconv.Itoa(src.ItemsCount),
			src.LastProcessed.Format("2006-01-02 15:04"),
		)
	}
	cmd.Println(t.Render())
	return nil
}

func countTable(title string, counts map[string]int, order []string) string {
	t := newTable(title, "Count")
	for _, key := range orderedKeys(counts, order) {
		t.Row(key, strconv.Itoa(counts[key]))
	}
	return t.Render()
}

// sourceLocation formats file:line, or just the file when no line is known.
func sourceLocation(item *domain.Item) string {
	if item.SourceLine != nil {
		return fmt.Sprintf("%s:%d", item.SourceFile, *item.SourceLine)
	}
	return item.SourceFile
}

func parseItemID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid item id %q", domain.ErrInvalidInput, s)
	}
	return id, nil
}
