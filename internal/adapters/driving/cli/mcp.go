package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/convo-analyzer/internal/adapters/driving/mcp"
	"github.com/custodia-labs/convo-analyzer/internal/reporting"
)

var (
	mcpHTTPAddr string
	mcpReadOnly bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query
stored items.

By default the server speaks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead, for example for MCP Inspector.

Examples:
  # Stdio mode (default)
  convo-analyzer mcp

  # HTTP mode
  convo-analyzer mcp --http localhost:8080

Client configuration:
  {
    "mcpServers": {
      "convo-analyzer": {
        "command": "/path/to/convo-analyzer",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.Flags().BoolVar(&mcpReadOnly, "read-only", false, "omit the analyze_files and find_duplicates tools")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer(cmd)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}

func newMCPServer(cmd *cobra.Command) (*mcp.Server, error) {
	cfg, err := app.config()
	if err != nil {
		return nil, err
	}
	items, err := app.itemService()
	if err != nil {
		return nil, err
	}

	ports := &mcp.Ports{
		Items:  items,
		Report: reporting.OptionsFromConfig(cfg.Reporting),
	}
	if !mcpReadOnly {
		if err := app.analysis(cmd.Context()); err != nil {
			return nil, err
		}
		ports.Analyzer = &lockedAnalyzer{Analyzer: app.analyzer, dbPath: cfg.Database.Path}
	}

	return mcp.NewServer(ports)
}
