package cli

import (
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

const defaultWidth = 100

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// terminalFd returns the descriptor behind w when it is a terminal.
func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	_, ok := terminalFd(w)
	return ok
}

// terminalWidth returns the width of w, or defaultWidth when unknown.
func terminalWidth(w io.Writer) int {
	fd, ok := terminalFd(w)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// newTable returns a bordered table with the given headers.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// orderedKeys returns the keys of counts in the given order first and the
// rest sorted.
func orderedKeys(counts map[string]int, order []string) []string {
	keys := make([]string, 0, len(counts))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
		if _, ok := counts[k]; ok {
			keys = append(keys, k)
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

func statusOrder() []string {
	return []string{
		string(domain.StatusOpen),
		string(domain.StatusInProgress),
		string(domain.StatusCompleted),
		string(domain.StatusDuplicate),
	}
}
