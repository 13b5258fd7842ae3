package cmd

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for LLM integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

Tools:
- write_note: append a new note to the project or user store
- search_notes: semantic search with section/date/store filters
- list_recent_notes: reverse-chronological listing
- read_note: fetch a note's raw content by path
- reindex_notes: backfill missing embedding records

Resources:
- notes://stats: index statistics for both stores

To use with an MCP client, register:
{
  "mcpServers": {
    "memvault": {
      "command": "memvault",
      "args": ["mcp"]
    }
  }
}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	// Self-heal the index before serving so early queries see every note.
	created := reconciler.ReconcileAll(cmd.Context(), appConfig.ProjectNotesDir, appConfig.UserNotesDir)
	if created > 0 {
		logger.Info("Startup reconciliation created %d records", created)
	}

	notesServer := mcp.NewNotesServer(appConfig, queryEngine, reconciler)

	logger.Info("MCP server ready. Listening on stdio...")
	if err := server.ServeStdio(notesServer.GetMCPServer()); err != nil && err != context.Canceled {
		if err.Error() != "EOF" {
			logger.Error("MCP server error: %v", err)
			return err
		}
	}

	logger.Info("MCP server shutting down")
	return nil
}
