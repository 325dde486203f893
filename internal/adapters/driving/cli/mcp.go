package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var (
	mcpHTTPAddr string
	mcpMetrics  bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest and
search documents.

By default, the server communicates over stdio using JSON-RPC.

Use --http to serve the streamable HTTP transport instead. With --metrics
the HTTP server also exposes Prometheus metrics on /metrics.

Examples:
  # Stdio mode (default, for desktop assistants)
  sercha-rag mcp serve

  # HTTP mode with metrics
  sercha-rag mcp serve --http :8080 --metrics

Assistant configuration:
  {
    "mcpServers": {
      "sercha-rag": {
        "command": "/path/to/sercha-rag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address (empty = use stdio)")
	mcpServeCmd.Flags().BoolVar(&mcpMetrics, "metrics", false, "expose Prometheus metrics on the HTTP server")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpMetrics && mcpHTTPAddr == "" {
		return fmt.Errorf("--metrics requires --http")
	}

	ports := &mcp.Ports{RAG: ragService}
	if mcpMetrics {
		ports.Metrics = metricsHandler
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		if ports.Metrics != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Metrics on http://%s%s\n", mcpHTTPAddr, mcp.MetricsPath)
		}
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	return server.Run(cmd.Context())
}
