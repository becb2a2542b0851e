package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/reporting"
)

var (
	reportFormat            string
	reportOutput            string
	reportSave              bool
	reportPreview           bool
	reportIncludeDuplicates bool
	reportGroupBy           string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render stored items as a markdown or JSON report",
	Long: `Renders every stored item as a report, grouped as configured under
reporting.group_by. The report is printed unless --output or --save is given;
--save writes to <reporting.output_dir>/report.<ext>.

--preview renders markdown for the terminal instead of printing it raw.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", string(reporting.FormatMarkdown), "markdown or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to this file")
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "write the report to the configured output directory")
	reportCmd.Flags().BoolVar(&reportPreview, "preview", false, "render markdown in the terminal")
	reportCmd.Flags().BoolVar(&reportIncludeDuplicates, "include-duplicates", false, "include items folded as duplicates")
	reportCmd.Flags().StringVar(&reportGroupBy, "group-by", "", "group by type, priority or source")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	format, err := reporting.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	if reportPreview && format != reporting.FormatMarkdown {
		return fmt.Errorf("%w: --preview needs markdown output", domain.ErrInvalidInput)
	}

	cfg, err := app.config()
	if err != nil {
		return err
	}
	opts := reporting.OptionsFromConfig(cfg.Reporting)
	if cmd.Flags().Changed("include-duplicates") {
		opts.IncludeDuplicates = reportIncludeDuplicates
	}
	if reportGroupBy != "" {
		opts.GroupBy = domain.GroupBy(reportGroupBy)
		if !opts.GroupBy.IsValid() {
			return fmt.Errorf("%w: group by %q", domain.ErrInvalidInput, reportGroupBy)
		}
	}

	items, err := app.itemService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	all, err := items.List(ctx, domain.ItemFilter{})
	if err != nil {
		return err
	}
	stats, err := items.Stats(ctx)
	if err != nil {
		return err
	}

	data, err := reporting.Render(format, reporting.Report{Items: all, Stats: stats}, opts)
	if err != nil {
		return err
	}

	path := reportOutput
	if path == "" && reportSave {
		path = format.DefaultPath(cfg.Reporting.OutputDir)
	}
	if path != "" {
		if err := writeReport(path, data); err != nil {
			return err
		}
		cmd.Printf("Report written to %s\n", path)
		if !reportPreview {
			return nil
		}
	}

	if reportPreview {
		return previewMarkdown(cmd, string(data))
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func writeReport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// previewMarkdown renders markdown for the terminal. Output that is not a
// terminal gets the plain markdown.
func previewMarkdown(cmd *cobra.Command, md string) error {
	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		_, err := fmt.Fprint(out, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth(out)),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
