package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/files"
	"github.com/vaultdrive/docsearch-mcp/internal/ingest"
	"github.com/vaultdrive/docsearch-mcp/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "docsearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Deps carries the wired application services the tools dispatch to.
type Deps struct {
	Ingest   *ingest.Pipeline
	Searcher *searcher.Searcher
	Files    *files.Service
	Chunks   *chunkstore.Store

	// Close releases backing resources (database handles, embedder caches)
	// when the server shuts down. May be nil.
	Close func() error
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp  *server.MCPServer
	deps Deps
}

// NewServer creates a new MCP server instance over already-wired services.
func NewServer(deps Deps) *Server {
	s := &Server{
		mcp:  server.NewMCPServer(ServerName, ServerVersion),
		deps: deps,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		if s.deps.Close != nil {
			_ = s.deps.Close()
		}
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexFileTool(), s.handleIndexFile)
	s.mcp.AddTool(askFileQuestionTool(), s.handleAskFileQuestion)
	s.mcp.AddTool(searchFilesTool(), s.handleSearchFiles)
	s.mcp.AddTool(readFileContentTool(), s.handleReadFileContent)
	s.mcp.AddTool(renameFileTool(), s.handleRenameFile)
	s.mcp.AddTool(deleteFileTool(), s.handleDeleteFile)
	s.mcp.AddTool(shareFileTool(), s.handleShareFile)
	s.mcp.AddTool(getStorageStatsTool(), s.handleGetStorageStats)
	s.mcp.AddTool(cleanupOrphansTool(), s.handleCleanupOrphans)
}
