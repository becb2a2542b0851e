// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/postprocessors/chunker"
)

// ItemList displays items in a navigable list. A text query narrows the
// visible rows to items whose description contains it.
type ItemList struct {
	items    []domain.Item
	visible  []int
	query    string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewItemList creates a new item list component.
func NewItemList(s *styles.Styles) *ItemList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ItemList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation messages.
func (l *ItemList) Update(msg tea.Msg) (*ItemList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if n := len(l.visible); n > 0 {
				l.selected = n - 1
			}
		}
	}
	return l, nil
}

// View renders the item list.
func (l *ItemList) View() string {
	if len(l.visible) == 0 {
		if l.query != "" {
			return l.styles.Muted.Render(fmt.Sprintf("No items match %q", l.query))
		}
		return l.styles.Muted.Render("No items")
	}

	lines := make([]string, 0, len(l.visible)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Items (%d)", len(l.visible))), "")

	visibleCount := l.height - 4
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(l.visible))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, &l.items[l.visible[i]]))
	}

	return strings.Join(lines, "\n")
}

func (l *ItemList) renderRow(index int, item *domain.Item) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	prefix := fmt.Sprintf("%s#%-5d %-7s ", indicator, item.ID, item.Type)
	score := fmt.Sprintf("%.2f", item.PriorityScore)

	descWidth := l.width - len(prefix) - 16
	if descWidth < 10 {
		descWidth = 10
	}
	desc := chunker.TruncateChars(item.Description, descWidth)
	if item.IsDuplicate {
		desc += " (dup)"
	}

	if index == l.selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-6s %s  %s", prefix, item.Priority, score, desc))
	}
	return l.styles.Normal.Render(prefix) +
		l.styles.Priority(item.Priority).Render(fmt.Sprintf("%-6s", item.Priority)) + " " +
		l.styles.Muted.Render(score) + "  " +
		l.styles.Normal.Render(desc)
}

// SetItems replaces the list contents and resets the selection.
func (l *ItemList) SetItems(items []domain.Item) {
	l.items = items
	l.selected = 0
	l.refilter()
}

// SetQuery narrows the visible rows to descriptions containing query,
// ignoring case.
func (l *ItemList) SetQuery(query string) {
	l.query = strings.TrimSpace(query)
	l.selected = 0
	l.refilter()
}

// Query returns the active text query.
func (l *ItemList) Query() string {
	return l.query
}

func (l *ItemList) refilter() {
	l.visible = l.visible[:0]
	needle := strings.ToLower(l.query)
	for i := range l.items {
		if needle == "" || strings.Contains(strings.ToLower(l.items[i].Description), needle) {
			l.visible = append(l.visible, i)
		}
	}
}

// Selected returns the index of the selected row among the visible rows.
func (l *ItemList) Selected() int {
	return l.selected
}

// SelectedItem returns the highlighted item, or nil if none.
func (l *ItemList) SelectedItem() *domain.Item {
	if l.selected < 0 || l.selected >= len(l.visible) {
		return nil
	}
	return &l.items[l.visible[l.selected]]
}

// MoveUp moves selection up.
func (l *ItemList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *ItemList) MoveDown() {
	if l.selected < len(l.visible)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *ItemList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of visible rows.
func (l *ItemList) Count() int {
	return len(l.visible)
}

// Total returns the number of loaded items, ignoring the query.
func (l *ItemList) Total() int {
	return len(l.items)
}
