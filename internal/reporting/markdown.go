package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// contextPreviewChars caps the quoted source context per item.
const contextPreviewChars = 200

var priorityMarks = map[domain.Priority]string{
	domain.PriorityHigh:   "🔴",
	domain.PriorityMedium: "🟡",
	domain.PriorityLow:    "🟢",
}

var typeMarks = map[domain.ItemType]string{
	domain.ItemTypeTODO:    "✅",
	domain.ItemTypeBug:     "🐛",
	domain.ItemTypeFeature: "✨",
	domain.ItemTypeProject: "📦",
}

// Markdown renders the report as a markdown document.
func Markdown(r Report, opts Options) string {
	sections := []string{
		markdownHeader(opts),
		markdownSummary(r),
	}

	items := visibleItems(r.Items, opts.IncludeDuplicates)
	switch opts.GroupBy {
	case domain.GroupByPriority:
		sections = append(sections, markdownByPriority(items))
	case domain.GroupBySource:
		sections = append(sections, markdownBySource(items))
	default:
		sections = append(sections, markdownByType(items))
	}

	return strings.Join(sections, "\n\n")
}

func markdownHeader(opts Options) string {
	return fmt.Sprintf("# Conversation Analysis Report\n\n**Generated:** %s\n\n---\n",
		opts.now().Format("2006-01-02 15:04:05"))
}

func markdownSummary(r Report) string {
	lines := []string{"## Summary\n"}

	total := 0
	if r.Stats != nil {
		total = r.Stats.TotalItems
	}
	lines = append(lines, fmt.Sprintf("**Total Items:** %d", total))

	if res := r.Result; res != nil {
		lines = append(lines,
			fmt.Sprintf("**Sources Processed:** %d", res.SourcesProcessed),
			fmt.Sprintf("**Items Extracted:** %d", res.ItemsExtracted),
		)
		if res.ItemsDeduplicated > 0 {
			lines = append(lines, fmt.Sprintf("**Duplicates Found:** %d", res.ItemsDeduplicated))
		}
		lines = append(lines, fmt.Sprintf("**Processing Time:** %.2fs", res.DurationSeconds()))
	}

	if r.Stats == nil {
		return strings.Join(lines, "\n")
	}

	if len(r.Stats.ByType) > 0 {
		lines = append(lines, "\n**By Type:**")
		types := make([]string, 0, len(r.Stats.ByType))
		for t := range r.Stats.ByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			lines = append(lines, fmt.Sprintf("- %s: %d", t, r.Stats.ByType[t]))
		}
	}

	if len(r.Stats.ByPriority) > 0 {
		lines = append(lines, "\n**By Priority:**")
		for _, p := range domain.Priorities {
			if count := r.Stats.ByPriority[string(p)]; count > 0 {
				lines = append(lines, fmt.Sprintf("- %s: %d", titleWord(string(p)), count))
			}
		}
	}

	return strings.Join(lines, "\n")
}

func markdownByType(items []domain.Item) string {
	sections := []string{"## Items by Type\n"}
	for _, itemType := range domain.ItemTypes {
		group := filterItems(items, func(i domain.Item) bool { return i.Type == itemType })
		if len(group) == 0 {
			continue
		}
		sortByScore(group)
		sections = append(sections, fmt.Sprintf("### %ss (%d)\n", itemType, len(group)))
		for _, item := range group {
			sections = append(sections, formatItem(item))
		}
	}
	return strings.Join(sections, "\n")
}

func markdownByPriority(items []domain.Item) string {
	sections := []string{"## Items by Priority\n"}
	for _, priority := range domain.Priorities {
		group := filterItems(items, func(i domain.Item) bool { return i.Priority == priority })
		if len(group) == 0 {
			continue
		}
		sections = append(sections, fmt.Sprintf("### %s Priority (%d)\n", titleWord(string(priority)), len(group)))
		for _, item := range group {
			sections = append(sections, formatItem(item))
		}
	}
	return strings.Join(sections, "\n")
}

func markdownBySource(items []domain.Item) string {
	bySource := make(map[string][]domain.Item)
	for _, item := range items {
		bySource[item.SourceFile] = append(bySource[item.SourceFile], item)
	}
	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	sections := []string{"## Items by Source\n"}
	for _, source := range sources {
		group := bySource[source]
		sortByScore(group)
		sections = append(sections, fmt.Sprintf("### %s (%d)\n", source, len(group)))
		for _, item := range group {
			sections = append(sections, formatItem(item))
		}
	}
	return strings.Join(sections, "\n")
}

func formatItem(item domain.Item) string {
	lines := []string{
		fmt.Sprintf("#### %s %s %s", typeMarks[item.Type], priorityMarks[item.Priority], item.Description),
		fmt.Sprintf("- **Type:** %s", item.Type),
		fmt.Sprintf("- **Priority:** %s (%.2f)", titleWord(string(item.Priority)), item.PriorityScore),
		fmt.Sprintf("- **Confidence:** %.2f", item.Confidence),
		fmt.Sprintf("- **Source:** `%s`", item.SourceFile),
	}
	if item.SourceLine != nil && *item.SourceLine > 0 {
		lines = append(lines, fmt.Sprintf("- **Line:** %d", *item.SourceLine))
	}
	if item.SourceContext != "" {
		lines = append(lines, fmt.Sprintf(`- **Context:** "%s"`, previewContext(item.SourceContext)))
	}
	if len(item.Tags) > 0 {
		tags := make([]string, len(item.Tags))
		for i, tag := range item.Tags {
			tags[i] = "`" + tag + "`"
		}
		lines = append(lines, "- **Tags:** "+strings.Join(tags, ", "))
	}
	if related := item.RelatedTo(); len(related) > 0 {
		lines = append(lines, fmt.Sprintf("- **Related Items:** %d", len(related)))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// previewContext keeps the first contextPreviewChars characters and marks the cut.
func previewContext(s string) string {
	runes := []rune(s)
	if len(runes) <= contextPreviewChars {
		return s
	}
	return string(runes[:contextPreviewChars]) + "..."
}

func filterItems(items []domain.Item, keep func(domain.Item) bool) []domain.Item {
	var out []domain.Item
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func sortByScore(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PriorityScore > items[j].PriorityScore
	})
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
