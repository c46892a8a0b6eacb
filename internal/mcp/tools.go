package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vaultdrive/docsearch-mcp/internal/searcher"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeAccessDenied  = -32001 // Caller may not touch the file
	ErrorCodeNotFound      = -32002 // File or document does not exist
	ErrorCodeNotConfigured = -32003 // Backend credentials or ids missing
	ErrorCodeRateLimited   = -32004 // Upstream service throttled the call
	ErrorCodeRemoteService = -32005 // Upstream service failed
)

// handleIndexFile handles the index_file tool invocation
func (s *Server) handleIndexFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}
	fileID, err := requiredString(args, "file_id")
	if err != nil {
		return nil, err
	}

	report, err := s.deps.Ingest.IndexFile(ctx, fileID, id)
	if err != nil {
		return nil, domainError("indexing failed", err)
	}

	response := map[string]interface{}{
		"file_id":        report.FileID,
		"file_name":      report.FileName,
		"chunks_indexed": report.ChunksIndexed,
		"duration_ms":    report.Duration.Milliseconds(),
	}
	if report.AlreadyIndexed {
		response["already_indexed"] = true
		response["existing_chunks"] = report.ExistingChunks
	}
	if report.ChunksSkipped > 0 {
		response["chunks_skipped"] = report.ChunksSkipped
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAskFileQuestion handles the ask_file_question tool invocation
func (s *Server) handleAskFileQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}
	question, err := requiredString(args, "question")
	if err != nil {
		return nil, err
	}

	topK := getIntDefault(args, "top_k", 0)
	if topK < 0 || topK > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 50", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	resp, err := s.deps.Searcher.Search(ctx, searcher.Request{
		Query:    question,
		Identity: id,
		TopK:     topK,
		FileIDs:  getStrings(args, "file_ids"),
	})
	if err != nil {
		return nil, domainError("search failed", err)
	}

	results := make([]map[string]interface{}, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]interface{}{
			"rank":           r.Rank,
			"score":          r.Score,
			"semantic_score": r.SemanticScore,
			"keyword_score":  r.KeywordScore,
			"file_id":        r.Chunk.FileID,
			"file_name":      r.Chunk.FileName,
			"chunk_index":    r.Chunk.ChunkIndex,
			"content":        r.Chunk.Content,
		})
	}
	response := map[string]interface{}{
		"results":      results,
		"total_chunks": resp.TotalChunks,
		"cache_hit":    resp.CacheHit,
		"duration_ms":  resp.Duration.Milliseconds(),
	}
	if resp.FailedBatches > 0 {
		response["failed_batches"] = resp.FailedBatches
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchFiles handles the search_files tool invocation
func (s *Server) handleSearchFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}

	nameQuery := getStringDefault(args, "query", "")
	fileTypes := getStrings(args, "file_types")
	limit := getIntDefault(args, "limit", 25)

	found, err := s.deps.Files.Search(ctx, id, nameQuery, fileTypes, limit)
	if err != nil {
		return nil, domainError("file search failed", err)
	}

	list := make([]map[string]interface{}, 0, len(found))
	for _, f := range found {
		list = append(list, map[string]interface{}{
			"file_id":     f.ID,
			"name":        f.Name,
			"type":        f.Type,
			"size_bytes":  f.Size,
			"owner":       f.OwnerID,
			"shared_with": f.SharedWith,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"files": list,
		"count": len(list),
	})), nil
}

// handleReadFileContent handles the read_file_content tool invocation
func (s *Server) handleReadFileContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}
	fileID, err := requiredString(args, "file_id")
	if err != nil {
		return nil, err
	}

	fc, err := s.deps.Files.ReadContent(ctx, fileID, id)
	if err != nil {
		return nil, domainError("read failed", err)
	}

	response := map[string]interface{}{
		"content":     fc.Content,
		"total_chars": fc.TotalChars,
	}
	if fc.Truncated {
		response["truncated"] = true
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRenameFile handles the rename_file tool invocation
func (s *Server) handleRenameFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}
	fileID, err := requiredString(args, "file_id")
	if err != nil {
		return nil, err
	}
	newName, err := requiredString(args, "new_name")
	if err != nil {
		return nil, err
	}

	finalName, err := s.deps.Files.Rename(ctx, fileID, newName, id)
	if err != nil {
		return nil, domainError("rename failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_id": fileID,
		"name":    finalName,
	})), nil
}

// handleDeleteFile handles the delete_file tool invocation
func (s *Server) handleDeleteFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}
	fileID, err := requiredString(args, "file_id")
	if err != nil {
		return nil, err
	}

	chunksDeleted, err := s.deps.Files.Delete(ctx, fileID, id)
	if err != nil {
		return nil, domainError("delete failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_id":        fileID,
		"deleted":        true,
		"chunks_deleted": chunksDeleted,
	})), nil
}

// handleShareFile handles the share_file tool invocation
func (s *Server) handleShareFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}
	fileID, err := requiredString(args, "file_id")
	if err != nil {
		return nil, err
	}
	emails := getStrings(args, "emails")

	if err := s.deps.Files.Share(ctx, fileID, emails, id); err != nil {
		return nil, domainError("share failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_id":     fileID,
		"shared_with": emails,
	})), nil
}

// handleGetStorageStats handles the get_storage_stats tool invocation
func (s *Server) handleGetStorageStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}

	stats, err := s.deps.Files.Stats(ctx, id)
	if err != nil {
		return nil, domainError("stats failed", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file_count":  stats.FileCount,
		"total_bytes": stats.TotalBytes,
		"total_mb":    fmt.Sprintf("%.2f", float64(stats.TotalBytes)/(1024*1024)),
	})), nil
}

// handleCleanupOrphans handles the cleanup_orphans tool invocation
func (s *Server) handleCleanupOrphans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, id, err := toolArgs(request)
	if err != nil {
		return nil, err
	}

	report, err := s.deps.Chunks.CleanupOrphans(ctx, id)
	if err != nil {
		return nil, domainError("cleanup failed", err)
	}
	response := map[string]interface{}{
		"chunks_scanned":  report.ChunksScanned,
		"orphans_found":   report.OrphansFound,
		"orphans_deleted": report.OrphansDeleted,
	}
	if report.DeleteFailures > 0 {
		response["delete_failures"] = report.DeleteFailures
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// toolArgs extracts the argument map and the caller identity every tool needs.
func toolArgs(request mcp.CallToolRequest) (map[string]interface{}, types.Identity, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, types.Identity{}, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id := types.Identity{
		UserID: getStringDefault(args, "user_id", ""),
		Email:  getStringDefault(args, "user_email", ""),
	}
	if id.UserID == "" || id.Email == "" {
		return nil, types.Identity{}, newMCPError(ErrorCodeInvalidParams, "user_id and user_email are required", map[string]interface{}{
			"param":  "user_id, user_email",
			"reason": "missing or empty",
		})
	}
	return args, id, nil
}

// requiredString extracts a mandatory non-empty string parameter.
func requiredString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// domainError maps service sentinels onto MCP error codes.
func domainError(message string, err error) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrValidation):
		code = ErrorCodeInvalidParams
	case errors.Is(err, types.ErrAccessDenied):
		code = ErrorCodeAccessDenied
	case errors.Is(err, types.ErrNotFound):
		code = ErrorCodeNotFound
	case errors.Is(err, types.ErrNotConfigured):
		code = ErrorCodeNotConfigured
	case errors.Is(err, types.ErrRateLimited):
		code = ErrorCodeRateLimited
	case errors.Is(err, types.ErrRemoteService):
		code = ErrorCodeRemoteService
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStrings extracts a string-array parameter; JSON arrays arrive as []interface{}.
func getStrings(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
