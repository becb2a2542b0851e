package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/views/detail"
	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/tui/views/stats"
	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keys   *keymap.KeyMap

	list       *list.ItemList
	filterBox  *input.FilterInput
	statusBar  *status.Bar
	detailView *detail.View
	statsView  *stats.View

	// filter is the store-side query. The text filter narrows its result locally.
	filter domain.ItemFilter

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keys:        km,
		list:        list.NewItemList(s),
		filterBox:   input.NewFilterInput(s),
		statusBar:   status.NewBar(s, km),
		detailView:  detail.NewView(s, ports.Items),
		statsView:   stats.NewView(s, ports.Items),
		filter:      ports.Filter,
		currentView: messages.ViewItems,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("convo-analyzer"),
		a.loadItems(),
	)
}

// loadItems returns a command querying the store with the current filter.
func (a *App) loadItems() tea.Cmd {
	a.statusBar.SetState(status.StateLoading)
	filter := a.filter
	ctx := a.ctx
	return func() tea.Msg {
		items, err := a.ports.Items.List(ctx, filter)
		return messages.ItemsLoaded{Items: items, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case messages.ItemsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetError(msg.Err)
			return a, nil
		}
		a.err = nil
		a.list.SetItems(msg.Items)
		a.list.SetQuery(a.filterBox.Value())
		a.refreshStatus()
		return a, nil

	case messages.RelatedLoaded:
		a.detailView, cmd = a.detailView.Update(msg)
		return a, cmd

	case messages.StatsLoaded:
		a.statsView, cmd = a.statsView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewItems {
			a.refreshStatus()
		}
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewDetail:
		a.detailView, cmd = a.detailView.Update(msg)
		return a, cmd

	case messages.ViewStats:
		a.statsView, cmd = a.statsView.Update(msg)
		return a, cmd

	case messages.ViewHelp:
		if keymap.Matches(msg.String(), a.keys.Back) || keymap.Matches(msg.String(), a.keys.Help) {
			a.currentView = messages.ViewItems
		}
		return a, nil

	case messages.ViewItems:
	}

	if a.filterBox.Focused() {
		return a.handleFilterKey(msg)
	}

	key := msg.String()
	switch {
	case keymap.Matches(key, a.keys.Quit):
		return a, tea.Quit
	case keymap.Matches(key, a.keys.Help):
		a.currentView = messages.ViewHelp
	case keymap.Matches(key, a.keys.Filter):
		return a, a.filterBox.Focus()
	case keymap.Matches(key, a.keys.CycleType):
		a.filter.Type = nextType(a.filter.Type)
		return a, a.loadItems()
	case keymap.Matches(key, a.keys.CyclePriority):
		a.filter.Priority = nextPriority(a.filter.Priority)
		return a, a.loadItems()
	case keymap.Matches(key, a.keys.ToggleDuplicates):
		a.filter.ExcludeDuplicates = !a.filter.ExcludeDuplicates
		return a, a.loadItems()
	case keymap.Matches(key, a.keys.Refresh):
		return a, a.loadItems()
	case keymap.Matches(key, a.keys.Stats):
		a.currentView = messages.ViewStats
		return a, a.statsView.Load(a.ctx)
	case keymap.Matches(key, a.keys.Select):
		item := a.list.SelectedItem()
		if item == nil {
			return a, nil
		}
		a.currentView = messages.ViewDetail
		return a, a.detailView.SetItem(a.ctx, *item)
	default:
		a.list, cmd = a.list.Update(msg)
		a.refreshStatus()
	}
	return a, cmd
}

// handleFilterKey edits the text filter. The list narrows as the user types.
func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type { //nolint:exhaustive // only keys that leave the input matter here
	case tea.KeyEnter:
		a.filterBox.Blur()
		return a, nil
	case tea.KeyEsc:
		a.filterBox.Blur()
		a.filterBox.Reset()
		a.list.SetQuery("")
		a.refreshStatus()
		return a, nil
	}

	a.filterBox, cmd = a.filterBox.Update(msg)
	a.list.SetQuery(a.filterBox.Value())
	a.refreshStatus()
	return a, cmd
}

func (a *App) refreshStatus() {
	if a.err != nil {
		return
	}
	a.statusBar.SetState(status.StateList)
	a.statusBar.SetCounts(a.list.Count(), a.list.Total())
	a.statusBar.SetFilters(a.FilterSummary())
}

// FilterSummary describes the active filters, or "" when none are set.
func (a *App) FilterSummary() string {
	var parts []string
	if a.filter.Type != "" {
		parts = append(parts, "type="+string(a.filter.Type))
	}
	if a.filter.Priority != "" {
		parts = append(parts, "priority="+string(a.filter.Priority))
	}
	if a.filter.Status != "" {
		parts = append(parts, "status="+string(a.filter.Status))
	}
	if a.filter.SourceFile != "" {
		parts = append(parts, "source="+a.filter.SourceFile)
	}
	if a.filter.ExcludeDuplicates {
		parts = append(parts, "no duplicates")
	}
	if q := a.list.Query(); q != "" {
		parts = append(parts, fmt.Sprintf("text=%q", q))
	}
	return strings.Join(parts, " ")
}

// nextType steps through every item type and then back to no filter.
func nextType(current domain.ItemType) domain.ItemType {
	if current == "" {
		return domain.ItemTypes[0]
	}
	for i, t := range domain.ItemTypes {
		if t == current && i+1 < len(domain.ItemTypes) {
			return domain.ItemTypes[i+1]
		}
	}
	return ""
}

// nextPriority steps through every priority and then back to no filter.
func nextPriority(current domain.Priority) domain.Priority {
	if current == "" {
		return domain.Priorities[0]
	}
	for i, p := range domain.Priorities {
		if p == current && i+1 < len(domain.Priorities) {
			return domain.Priorities[i+1]
		}
	}
	return ""
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDetail:
		return a.detailView.View()
	case messages.ViewStats:
		return a.statsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewItems:
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("convo-analyzer"))
	b.WriteString("\n")
	if a.filterBox.Focused() || a.filterBox.Value() != "" {
		b.WriteString(a.filterBox.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.list.View())
	b.WriteString("\n\n")
	b.WriteString(a.statusBar.View())
	return b.String()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application and blocks until it quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.WithContext(ctx)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Filter returns the store-side item filter.
func (a *App) Filter() domain.ItemFilter {
	return a.filter
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// Title, filter, blank lines and status bar
	a.list.SetDimensions(width, height-5)
	a.filterBox.SetWidth(width)
	a.statusBar.SetWidth(width)
	a.detailView.SetDimensions(width, height)
	a.statsView.SetDimensions(width, height)
}
