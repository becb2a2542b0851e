// Package stats provides the statistics view for the TUI.
package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

// View shows aggregate counts from the store.
type View struct {
	styles *styles.Styles
	items  driving.ItemService

	stats   *domain.Stats
	loading bool
	err     error
	width   int
}

// NewView creates a new statistics view.
func NewView(s *styles.Styles, items driving.ItemService) *View {
	return &View{styles: s, items: items, width: 80}
}

// Load returns a command fetching fresh statistics.
func (v *View) Load(ctx context.Context) tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		stats, err := v.items.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update handles messages for the statistics view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.StatsLoaded:
		v.loading = false
		v.stats = msg.Stats
		v.err = msg.Err
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewItems}
			}
		}
	}
	return v, nil
}

// View renders the statistics view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Statistics"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.stats == nil:
		b.WriteString(v.styles.Muted.Render("No statistics"))
	default:
		b.WriteString(v.styles.Normal.Render(fmt.Sprintf(
			"%d items from %d sources, %d relationships",
			v.stats.TotalItems, v.stats.TotalSources, v.stats.TotalRelationships)))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			v.countTable("Type", v.stats.ByType, typeOrder()),
			"  ",
			v.countTable("Priority", v.stats.ByPriority, priorityOrder()),
			"  ",
			v.countTable("Status", v.stats.ByStatus, nil),
		))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[esc] back"))
	return b.String()
}

// countTable renders one breakdown. Keys in order come first, the rest sorted.
func (v *View) countTable(title string, counts map[string]int, order []string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(v.styles.Theme().Border)).
		Headers(title, "Count").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return v.styles.Subtitle.Padding(0, 1)
			}
			return v.styles.Normal.Padding(0, 1)
		})

	for _, key := range orderedKeys(counts, order) {
		t.Row(key, strconv.Itoa(counts[key]))
	}
	return t.Render()
}

func orderedKeys(counts map[string]int, order []string) []string {
	seen := make(map[string]bool, len(order))
	keys := make([]string, 0, len(counts))
	for _, k := range order {
		if _, ok := counts[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range counts {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func typeOrder() []string {
	order := make([]string, len(domain.ItemTypes))
	for i, t := range domain.ItemTypes {
		order[i] = string(t)
	}
	return order
}

func priorityOrder() []string {
	order := make([]string, len(domain.Priorities))
	for i, p := range domain.Priorities {
		order[i] = string(p)
	}
	return order
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, _ int) {
	v.width = width
}

// Stats returns the loaded statistics.
func (v *View) Stats() *domain.Stats {
	return v.stats
}
