package main

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"xgb/internal/logging"
	"xgb/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the list_projects,
list_datasets, show_project and train tools for the current workspace.

The server exits when its parent process goes away.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := mcpserver.NewServer(workspace, version)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting xgb MCP server over stdio (parent watchdog active)",
		"projects", settings.ProjectDir, "datasets", settings.DataDir)
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
