// Package mcp exposes the note stores to LLM agents over the Model Context
// Protocol (stdio transport).
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/memvault/memvault/internal/config"
	"github.com/memvault/memvault/internal/constants"
	"github.com/memvault/memvault/internal/logger"
	"github.com/memvault/memvault/internal/notes"
	"github.com/memvault/memvault/internal/reconcile"
	"github.com/memvault/memvault/internal/search"
)

type NotesServer struct {
	cfg        *config.Config
	engine     *search.Engine
	reconciler *reconcile.Reconciler
	mcpServer  *server.MCPServer
}

func NewNotesServer(cfg *config.Config, engine *search.Engine, reconciler *reconcile.Reconciler) *NotesServer {
	ns := &NotesServer{
		cfg:        cfg,
		engine:     engine,
		reconciler: reconciler,
	}

	ns.mcpServer = server.NewMCPServer(
		"memvault",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	ns.registerTools()
	ns.registerResources()

	return ns
}

func (s *NotesServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *NotesServer) registerTools() {
	writeTool := mcp.NewTool("write_note",
		mcp.WithDescription("Append a new timestamped note to the project or user store. Notes are immutable once written."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title recorded in the note header"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Note body. Use '## Label' headings to mark sections."),
		),
		mcp.WithString("store",
			mcp.Description("Target store: 'project' or 'user' (default: project)"),
		),
	)
	s.mcpServer.AddTool(writeTool, s.handleWriteNote)

	searchTool := mcp.NewTool("search_notes",
		mcp.WithDescription("Semantic search over note embeddings. Returns ranked matches with highlighted excerpts."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text search query"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
		mcp.WithNumber("min_score",
			mcp.Description("Minimum cosine similarity to include a result (default: 0.1)"),
		),
		mcp.WithString("sections",
			mcp.Description("Comma-separated section labels; matches are case-insensitive substrings"),
		),
		mcp.WithNumber("since",
			mcp.Description("Inclusive lower bound on note timestamp, milliseconds since epoch"),
		),
		mcp.WithNumber("until",
			mcp.Description("Exclusive upper bound on note timestamp, milliseconds since epoch"),
		),
		mcp.WithString("store",
			mcp.Description("Which store to search: 'project', 'user' or 'both' (default: both)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchNotes)

	recentTool := mcp.NewTool("list_recent_notes",
		mcp.WithDescription("List the most recently written notes, newest first. No similarity ranking."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 10)"),
		),
		mcp.WithNumber("since",
			mcp.Description("Inclusive lower bound on note timestamp, milliseconds since epoch"),
		),
		mcp.WithNumber("until",
			mcp.Description("Exclusive upper bound on note timestamp, milliseconds since epoch"),
		),
		mcp.WithString("store",
			mcp.Description("Which store to list: 'project', 'user' or 'both' (default: both)"),
		),
	)
	s.mcpServer.AddTool(recentTool, s.handleListRecent)

	readTool := mcp.NewTool("read_note",
		mcp.WithDescription("Read a note's full raw content by its file path"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the note, as returned by search_notes"),
		),
	)
	s.mcpServer.AddTool(readTool, s.handleReadNote)

	reindexTool := mcp.NewTool("reindex_notes",
		mcp.WithDescription("Backfill missing embedding records across both note stores. Idempotent."),
	)
	s.mcpServer.AddTool(reindexTool, s.handleReindex)
}

func (s *NotesServer) registerResources() {
	statsResource := mcp.NewResource("notes://stats",
		"Notes Statistics",
		mcp.WithResourceDescription("Index statistics for both note stores"),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcpServer.AddResource(statsResource, s.handleStats)
}

// Tool handlers

func (s *NotesServer) handleWriteNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: write_note")

	title, err := request.RequireString("title")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'title': %w", err)
	}
	content, err := request.RequireString("content")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'content': %w", err)
	}

	storeType := config.StoreType(request.GetString("store", string(config.StoreProject)))
	root, ok := s.cfg.StoreRoot(storeType)
	if !ok {
		return nil, fmt.Errorf("invalid store %q (use project or user)", storeType)
	}

	notePath, err := notes.Write(root, title, content, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to write note: %w", err)
	}

	// Index immediately so the note is searchable without a reindex pass.
	if _, err := s.reconciler.IndexNote(ctx, notePath); err != nil {
		logger.Error("Failed to index note %s: %v", notePath, err)
	}

	return mcp.NewToolResultText(fmt.Sprintf("Note written to %s", notePath)), nil
}

func (s *NotesServer) handleSearchNotes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: search_notes")

	query, err := request.RequireString("query")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'query': %w", err)
	}

	opts := search.DefaultOptions()
	opts.Limit = request.GetInt("limit", constants.DefaultSearchLimit)
	opts.MinScore = request.GetFloat("min_score", constants.DefaultMinScore)
	if opts.MinScore == 0 {
		// An explicit zero asks for no threshold at all.
		opts.MinScore = search.MinScoreNone
	}
	opts.Sections = splitSections(request.GetString("sections", ""))
	opts.Since = int64(request.GetInt("since", 0))
	opts.Until = int64(request.GetInt("until", 0))
	opts.Type = config.StoreType(request.GetString("store", string(config.StoreBoth)))

	results, err := s.engine.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return mcp.NewToolResultText(formatResults(results, true)), nil
}

func (s *NotesServer) handleListRecent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: list_recent_notes")

	opts := search.DefaultOptions()
	opts.Limit = request.GetInt("limit", constants.DefaultRecentLimit)
	opts.Since = int64(request.GetInt("since", 0))
	opts.Until = int64(request.GetInt("until", 0))
	opts.Type = config.StoreType(request.GetString("store", string(config.StoreBoth)))

	results, err := s.engine.ListRecent(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent notes: %w", err)
	}

	return mcp.NewToolResultText(formatResults(results, false)), nil
}

func (s *NotesServer) handleReadNote(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: read_note")

	path, err := request.RequireString("path")
	if err != nil {
		return nil, fmt.Errorf("missing required parameter 'path': %w", err)
	}

	content, found, err := s.engine.ReadEntry(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No note exists at %s", path)), nil
	}

	return mcp.NewToolResultText(content), nil
}

func (s *NotesServer) handleReindex(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger.Debug("MCP tool call: reindex_notes")

	created := s.reconciler.ReconcileAll(ctx, s.cfg.ProjectNotesDir, s.cfg.UserNotesDir)
	return mcp.NewToolResultText(fmt.Sprintf("Reindex complete: %d records created", created)), nil
}

// Resource handlers

func (s *NotesServer) handleStats(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	logger.Debug("MCP resource read: notes://stats")

	projectResults, _ := s.engine.ListRecent(search.Options{Limit: 1 << 30, Type: config.StoreProject})
	userResults, _ := s.engine.ListRecent(search.Options{Limit: 1 << 30, Type: config.StoreUser})

	content := fmt.Sprintf(`Note Store Statistics:
- Project store: %s (%d indexed notes)
- User store: %s (%d indexed notes)
- Embedding model: %s`,
		s.cfg.ProjectNotesDir, len(projectResults),
		s.cfg.UserNotesDir, len(userResults),
		s.cfg.EmbeddingModel)

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      "notes://stats",
			MIMEType: "text/plain",
			Text:     content,
		},
	}, nil
}

// Formatting helpers

func splitSections(s string) []string {
	if s == "" {
		return nil
	}
	var sections []string
	for _, part := range strings.Split(s, ",") {
		if clean := strings.TrimSpace(part); clean != "" {
			sections = append(sections, clean)
		}
	}
	return sections
}

func formatResults(results []search.Result, withScores bool) string {
	if len(results) == 0 {
		return "No notes found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d notes:\n\n", len(results))
	for i, r := range results {
		when := time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04:05")
		if withScores {
			fmt.Fprintf(&b, "%d. [%.3f] %s (%s, %s)\n", i+1, r.Score, r.Path, r.Type, when)
		} else {
			fmt.Fprintf(&b, "%d. %s (%s, %s)\n", i+1, r.Path, r.Type, when)
		}
		if len(r.Sections) > 0 {
			fmt.Fprintf(&b, "   Sections: %s\n", strings.Join(r.Sections, ", "))
		}
		fmt.Fprintf(&b, "   %s\n\n", r.Excerpt)
	}
	return strings.TrimRight(b.String(), "\n")
}
