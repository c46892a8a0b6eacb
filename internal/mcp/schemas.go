package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// identityProperties are the caller-identity parameters shared by every tool.
func identityProperties() map[string]interface{} {
	return map[string]interface{}{
		"user_id": map[string]interface{}{
			"type":        "string",
			"description": "Unique id of the calling user (file owner checks)",
		},
		"user_email": map[string]interface{}{
			"type":        "string",
			"description": "Email address of the calling user (shared-file checks)",
		},
	}
}

func withIdentity(props map[string]interface{}) map[string]interface{} {
	for k, v := range identityProperties() {
		props[k] = v
	}
	return props
}

// indexFileTool returns the tool definition for index_file
func indexFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_file",
		Description: "Extract, chunk, and embed a stored file so it becomes searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"file_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the file record to index",
				},
			}),
			Required: []string{"file_id", "user_id", "user_email"},
		},
	}
}

// askFileQuestionTool returns the tool definition for ask_file_question
func askFileQuestionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_file_question",
		Description: "Answer a question from indexed file content using hybrid semantic + keyword search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language question to search for",
				},
				"file_ids": map[string]interface{}{
					"type":        "array",
					"description": "Optional: restrict the search to these file ids",
					"items":       map[string]interface{}{"type": "string"},
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of passages to return (1-50)",
					"default":     5,
					"minimum":     1,
					"maximum":     50,
				},
			}),
			Required: []string{"question", "user_id", "user_email"},
		},
	}
}

// searchFilesTool returns the tool definition for search_files
func searchFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_files",
		Description: "List accessible files filtered by name substring and file type",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Substring to match against file names",
				},
				"file_types": map[string]interface{}{
					"type":        "array",
					"description": "Optional: restrict to these file types (e.g. pdf, txt)",
					"items":       map[string]interface{}{"type": "string"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of files to return",
					"default":     25,
					"minimum":     1,
					"maximum":     1000,
				},
			}),
			Required: []string{"user_id", "user_email"},
		},
	}
}

// readFileContentTool returns the tool definition for read_file_content
func readFileContentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "read_file_content",
		Description: "Read the text content of a file (truncated for large files)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"file_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the file to read",
				},
			}),
			Required: []string{"file_id", "user_id", "user_email"},
		},
	}
}

// renameFileTool returns the tool definition for rename_file
func renameFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "rename_file",
		Description: "Rename a file, keeping its original extension",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"file_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the file to rename",
				},
				"new_name": map[string]interface{}{
					"type":        "string",
					"description": "New display name; the original extension is appended when missing",
				},
			}),
			Required: []string{"file_id", "new_name", "user_id", "user_email"},
		},
	}
}

// deleteFileTool returns the tool definition for delete_file
func deleteFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_file",
		Description: "Delete a file, its stored content, and its search index entries (owner only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"file_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the file to delete",
				},
			}),
			Required: []string{"file_id", "user_id", "user_email"},
		},
	}
}

// shareFileTool returns the tool definition for share_file
func shareFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "share_file",
		Description: "Replace the list of users a file is shared with (owner only)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: withIdentity(map[string]interface{}{
				"file_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of the file to share",
				},
				"emails": map[string]interface{}{
					"type":        "array",
					"description": "Email addresses the file will be shared with; replaces the current list",
					"items":       map[string]interface{}{"type": "string"},
				},
			}),
			Required: []string{"file_id", "emails", "user_id", "user_email"},
		},
	}
}

// getStorageStatsTool returns the tool definition for get_storage_stats
func getStorageStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_storage_stats",
		Description: "Report how many files the caller owns and their total size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: withIdentity(map[string]interface{}{}),
			Required:   []string{"user_id", "user_email"},
		},
	}
}

// cleanupOrphansTool returns the tool definition for cleanup_orphans
func cleanupOrphansTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cleanup_orphans",
		Description: "Delete index entries whose source file no longer exists",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: withIdentity(map[string]interface{}{}),
			Required:   []string{"user_id", "user_email"},
		},
	}
}
