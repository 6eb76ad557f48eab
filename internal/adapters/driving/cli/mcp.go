package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var (
	mcpPort   int
	mcpHost   string
	mcpTenant string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start a Model Context Protocol server so AI assistants can retrieve
grounding context from the collection.

Tools:
  search      ranked passages for a query
  context     grounding text for a conversation
  ingest      ingest a file or directory (when ingestion is configured)
  job_status  state of a background ingestion job

Resources:
  sercha-rag://collection      collection statistics
  sercha-rag://jobs/{jobId}    background job state

The server speaks JSON-RPC over stdio unless --port is given, in which case
it serves the streamable HTTP transport. --tenant pins calls that name no
tenant to one tenant.

Examples:
  sercha-rag mcp serve
  sercha-rag mcp serve --tenant acme
  sercha-rag mcp serve --port 8080 --host 0.0.0.0

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "sercha-rag": {
        "command": "/path/to/sercha-rag",
        "args": ["mcp", "serve", "--tenant", "acme"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP listen host")
	mcpServeCmd.Flags().StringVarP(&mcpTenant, "tenant", "t", "", "tenant used when a call names none")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	ports := &mcp.Ports{
		Retrieval:  retrievalService,
		Jobs:       jobService,
		Collection: collectionService,
		Tenant:     mcpTenant,
	}
	if orchestrator != nil {
		ports.Ingest = orchestrator
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		if errors.Is(err, mcp.ErrMissingRetrievalService) {
			return fmt.Errorf("%w: check the embedding and store settings", err)
		}
		return err
	}

	if mcpPort > 0 {
		addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
