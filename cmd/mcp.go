package cmd

import (
	"github.com/spf13/cobra"

	nodeflowApp "nodeflow/internal/app"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the canvas to AI agents over MCP (stdio)",
		Long: "Runs a Model Context Protocol server on stdin/stdout. It edits the same\n" +
			"database as the desktop app; destructive tools wait for approval in the app.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return nodeflowApp.ServeMCP(cfg)
		},
	}
}
