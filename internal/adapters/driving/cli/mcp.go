package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag-cli/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over MCP",
	Long: `Expose ask and style analysis as MCP tools so desktop AI
assistants can query your ingested content.

Without flags the server speaks JSON-RPC over stdio, which is what a
desktop assistant's config should launch:

  {
    "mcpServers": {
      "mailrag": {"command": "/path/to/mailrag", "args": ["mcp", "serve"]}
    }
  }

With --port it serves streamable HTTP instead, useful for the MCP
Inspector or access from another machine.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	userID := currentUserID("")
	if userID == "" {
		return errors.New("no account configured, run 'mailrag auth' first")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Assistant: assistantService,
		Ingest:    ingestService,
		UserID:    userID,
	})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
