// Package reporting renders stored items as markdown or JSON reports.
package reporting

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Format is a report output format.
type Format string

// Available report formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: report format %q", domain.ErrUnsupportedType, s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatJSON {
		return "json"
	}
	return "md"
}

// DefaultPath returns <outputDir>/report.<ext>.
func (f Format) DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, "report."+f.Extension())
}

// Report is the data a report is rendered from.
type Report struct {
	Items []domain.Item
	Stats *domain.Stats

	// Result is the analysis batch that produced the items, if any.
	Result *domain.AnalysisResult
}

// Options control what a report shows.
type Options struct {
	GroupBy           domain.GroupBy
	IncludeDuplicates bool

	// Now stamps the report. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds options from reporting settings.
func OptionsFromConfig(cfg domain.ReportingConfig) Options {
	return Options{GroupBy: cfg.GroupBy, IncludeDuplicates: cfg.IncludeDuplicates}
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Render produces the report in the given format.
func Render(format Format, r Report, opts Options) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return []byte(Markdown(r, opts)), nil
	case FormatJSON:
		return JSON(r, opts)
	default:
		return nil, fmt.Errorf("%w: report format %q", domain.ErrUnsupportedType, format)
	}
}

// visibleItems drops duplicates unless they were asked for.
func visibleItems(items []domain.Item, includeDuplicates bool) []domain.Item {
	if includeDuplicates {
		return items
	}
	visible := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if !item.IsDuplicate {
			visible = append(visible, item)
		}
	}
	return visible
}
