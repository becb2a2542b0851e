package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driven/config/file"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Long: `Writes the default settings to path, or to ./config.<format> when no path
is given. An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults, the config file and
environment overrides are merged. API keys are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configCmd.PersistentFlags().StringVar(&configFormat, "format", file.FormatYAML, "yaml or toml")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "config." + configFormat
	if len(args) > 0 {
		path = args[0]
	}

	if err := file.WriteDefault(path, configFormat); err != nil {
		return err
	}
	cmd.Printf("Config written to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := app.config()
	if err != nil {
		return err
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		cfg.LLM.OpenAI.APIKey = "********"
	}

	data, err := file.Encode(cfg, configFormat)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
