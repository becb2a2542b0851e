// Package detail provides the item detail view for the TUI.
package detail

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

// View shows one item, its provenance and the items linked to it.
type View struct {
	styles *styles.Styles
	items  driving.ItemService

	item         *domain.Item
	related      []driving.RelatedItem
	lines        []string
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a new detail view.
func NewView(s *styles.Styles, items driving.ItemService) *View {
	return &View{
		styles: s,
		items:  items,
		width:  80,
		height: 24,
	}
}

// SetItem shows item and returns a command loading its related items.
func (v *View) SetItem(ctx context.Context, item domain.Item) tea.Cmd {
	v.item = &item
	v.related = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	v.render()

	id := item.ID
	return func() tea.Msg {
		related, err := v.items.Related(ctx, id)
		return messages.RelatedLoaded{ItemID: id, Related: related, Err: err}
	}
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.RelatedLoaded:
		if v.item == nil || msg.ItemID != v.item.ID {
			return v, nil
		}
		v.loading = false
		v.related = msg.Related
		v.err = msg.Err
		v.render()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.scrollOffset > 0 {
				v.scrollOffset--
			}
		case "down", "j":
			if v.scrollOffset < v.maxScrollOffset() {
				v.scrollOffset++
			}
		case "home", "g":
			v.scrollOffset = 0
		case "end", "G":
			v.scrollOffset = v.maxScrollOffset()
		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewItems}
			}
		}
	}
	return v, nil
}

// render rebuilds the content lines for the current item.
func (v *View) render() {
	if v.item == nil {
		v.lines = nil
		return
	}
	item := v.item

	field := func(label, value string) string {
		return v.styles.Label.Render(label) + " " + v.styles.Normal.Render(value)
	}

	lines := []string{
		v.styles.Title.Render(fmt.Sprintf("#%d %s", item.ID, item.Description)),
		"",
		field("Type", item.Type.String()),
		v.styles.Label.Render("Priority") + " " +
			v.styles.Priority(item.Priority).Render(fmt.Sprintf("%s (%.2f)", item.Priority, item.PriorityScore)),
		field("Confidence", fmt.Sprintf("%.2f", item.Confidence)),
		field("Status", string(item.Status)),
		field("Source", sourceRef(item)),
	}
	if !item.ExtractedAt.IsZero() {
		lines = append(lines, field("Extracted", item.ExtractedAt.Format("2006-01-02 15:04")))
	}
	if item.IsDuplicate && item.DuplicateOf != nil {
		lines = append(lines, field("Duplicate", fmt.Sprintf("of #%d", *item.DuplicateOf)))
	}
	if len(item.Tags) > 0 {
		lines = append(lines, field("Tags", strings.Join(item.Tags, ", ")))
	}
	for _, category := range item.Entities.Keys() {
		lines = append(lines, field(category, strings.Join(item.Entities[category], ", ")))
	}

	if item.SourceContext != "" {
		lines = append(lines, "", v.styles.Subtitle.Render("Context"))
		lines = append(lines, wrap(item.SourceContext, v.width-4)...)
	}

	lines = append(lines, "", v.styles.Subtitle.Render("Related"))
	switch {
	case v.loading:
		lines = append(lines, v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		lines = append(lines, v.styles.Error.Render("Error: "+v.err.Error()))
	case len(v.related) == 0:
		lines = append(lines, v.styles.Muted.Render("No related items"))
	default:
		for _, r := range v.related {
			line := fmt.Sprintf("  #%d [%s] %s", r.Item.ID, r.Type, r.Item.Description)
			if r.SimilarityScore != nil {
				line += fmt.Sprintf(" (%.2f)", *r.SimilarityScore)
			}
			lines = append(lines, v.styles.Normal.Render(line))
		}
	}

	v.lines = lines
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func sourceRef(item *domain.Item) string {
	ref := fmt.Sprintf("%s %s", item.SourceType, item.SourceFile)
	if item.SourceLine != nil {
		ref += fmt.Sprintf(":%d", *item.SourceLine)
	}
	return ref
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	if width < 20 {
		width = 20
	}
	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && len([]rune(current.String()))+1+len([]rune(word)) > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

func (v *View) visibleLines() int {
	// Title, help line and padding
	return max(v.height-4, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the detail view.
func (v *View) View() string {
	if v.item == nil {
		return v.styles.Muted.Render("No item selected")
	}

	end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
	body := strings.Join(v.lines[v.scrollOffset:end], "\n")
	help := v.styles.Help.Render("[↑/↓] scroll  [esc] back")
	return body + "\n\n" + help
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.render()
}

// Item returns the item being shown.
func (v *View) Item() *domain.Item {
	return v.item
}

// Related returns the loaded related items.
func (v *View) Related() []driving.RelatedItem {
	return v.related
}
