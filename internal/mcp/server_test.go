package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdrive/docsearch-mcp/internal/access"
	"github.com/vaultdrive/docsearch-mcp/internal/chunker"
	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore/memory"
	"github.com/vaultdrive/docsearch-mcp/internal/embedder"
	"github.com/vaultdrive/docsearch-mcp/internal/extractor"
	"github.com/vaultdrive/docsearch-mcp/internal/files"
	"github.com/vaultdrive/docsearch-mcp/internal/ingest"
	"github.com/vaultdrive/docsearch-mcp/internal/searcher"
)

var testCollections = docstore.Collections{
	DatabaseID: "db",
	Files:      "files",
	Vectors:    "vectors",
	Bucket:     "bucket",
}

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	seed := []struct {
		id   string
		data map[string]any
	}{
		{"f1", map[string]any{
			"name": "roadmap.txt", "type": "txt", "size": int64(64),
			"owner": "alice", "users": []string{}, "bucketFileId": "b1",
		}},
		{"f2", map[string]any{
			"name": "secrets.txt", "type": "txt", "size": int64(32),
			"owner": "bob", "users": []string{}, "bucketFileId": "b2",
		}},
	}
	for _, d := range seed {
		_, err := store.CreateDocument(ctx, "files", d.id, d.data)
		require.NoError(t, err)
	}
	store.PutFile("bucket", "b1", []byte("the quarterly roadmap covers search quality and storage costs"))
	store.PutFile("bucket", "b2", []byte("do not share"))

	emb, err := embedder.NewLocalProvider(embedder.NewCache(100))
	require.NoError(t, err)

	checker := access.NewChecker(store, testCollections)
	chunks := chunkstore.New(store, testCollections)
	pipeline := ingest.New(checker, store, store, chunks,
		extractor.NewSmart(nil), emb, chunker.New(), testCollections)
	search := searcher.New(checker, chunks, emb)
	svc := files.New(checker, store, store, chunks, testCollections,
		files.WithInvalidator(search.InvalidateCache))

	server := NewServer(Deps{
		Ingest:   pipeline,
		Searcher: search,
		Files:    svc,
		Chunks:   chunks,
	})
	return server, store
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func identityArgs(extra map[string]interface{}) map[string]interface{} {
	args := map[string]interface{}{
		"user_id":    "alice",
		"user_email": "alice@example.com",
	}
	for k, v := range extra {
		args[k] = v
	}
	return args
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool result should be text content")

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &parsed))
	return parsed
}

func TestServer_RegistersAllTools(t *testing.T) {
	server, _ := newTestServer(t)
	assert.NotNil(t, server.mcp)
	assert.NotNil(t, server.deps.Ingest)
	assert.NotNil(t, server.deps.Searcher)
	assert.NotNil(t, server.deps.Files)
	assert.NotNil(t, server.deps.Chunks)
}

func TestHandleIndexFile(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	result, err := server.handleIndexFile(ctx, callRequest("index_file",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, "f1", resp["file_id"])
	assert.Equal(t, "roadmap.txt", resp["file_name"])
	assert.GreaterOrEqual(t, resp["chunks_indexed"].(float64), float64(1))

	// indexing again short-circuits on the duplicate check
	result, err = server.handleIndexFile(ctx, callRequest("index_file",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)
	resp = resultJSON(t, result)
	assert.Equal(t, true, resp["already_indexed"])
}

func TestHandleIndexFile_Denied(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleIndexFile(context.Background(), callRequest("index_file",
		identityArgs(map[string]interface{}{"file_id": "f2"})))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeAccessDenied, mcpErr.Code)
}

func TestHandleAskFileQuestion(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	_, err := server.handleIndexFile(ctx, callRequest("index_file",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)

	result, err := server.handleAskFileQuestion(ctx, callRequest("ask_file_question",
		identityArgs(map[string]interface{}{"question": "what does the roadmap cover"})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	results := resp["results"].([]interface{})
	require.NotEmpty(t, results)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "f1", first["file_id"])
	assert.Contains(t, first["content"], "roadmap")
}

func TestHandleAskFileQuestion_MissingQuestion(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleAskFileQuestion(context.Background(),
		callRequest("ask_file_question", identityArgs(nil)))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearchFiles(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleSearchFiles(context.Background(), callRequest("search_files",
		identityArgs(map[string]interface{}{"query": "roadmap"})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, float64(1), resp["count"])
	found := resp["files"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "roadmap.txt", found["name"])
}

func TestHandleReadFileContent(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleReadFileContent(context.Background(), callRequest("read_file_content",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Contains(t, resp["content"], "quarterly roadmap")
	assert.Nil(t, resp["truncated"])
}

func TestHandleRenameFile(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	result, err := server.handleRenameFile(ctx, callRequest("rename_file",
		identityArgs(map[string]interface{}{"file_id": "f1", "new_name": "plan"})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, "plan.txt", resp["name"])

	doc, err := store.GetDocument(ctx, "files", "f1")
	require.NoError(t, err)
	assert.Equal(t, "plan.txt", doc.Data["name"])
}

func TestHandleDeleteFile(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	_, err := server.handleIndexFile(ctx, callRequest("index_file",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)

	result, err := server.handleDeleteFile(ctx, callRequest("delete_file",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, true, resp["deleted"])
	assert.GreaterOrEqual(t, resp["chunks_deleted"].(float64), float64(1))

	chunks, err := store.ListDocuments(ctx, "vectors")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestHandleShareFile(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	result, err := server.handleShareFile(ctx, callRequest("share_file",
		identityArgs(map[string]interface{}{
			"file_id": "f1",
			"emails":  []interface{}{"carol@example.com"},
		})))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, []interface{}{"carol@example.com"}, resp["shared_with"])

	doc, err := store.GetDocument(ctx, "files", "f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol@example.com"}, doc.Data["users"])
}

func TestHandleGetStorageStats(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleGetStorageStats(context.Background(),
		callRequest("get_storage_stats", identityArgs(nil)))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.Equal(t, float64(1), resp["file_count"])
	assert.Equal(t, float64(64), resp["total_bytes"])
}

func TestHandleCleanupOrphans(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()

	_, err := server.handleIndexFile(ctx, callRequest("index_file",
		identityArgs(map[string]interface{}{"file_id": "f1"})))
	require.NoError(t, err)

	// drop the file record directly so its chunks become orphans
	require.NoError(t, store.DeleteDocument(ctx, "files", "f1"))

	result, err := server.handleCleanupOrphans(ctx,
		callRequest("cleanup_orphans", identityArgs(nil)))
	require.NoError(t, err)

	resp := resultJSON(t, result)
	assert.GreaterOrEqual(t, resp["orphans_deleted"].(float64), float64(1))

	chunks, err := store.ListDocuments(ctx, "vectors")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestToolArgs_MissingIdentity(t *testing.T) {
	_, _, err := toolArgs(callRequest("search_files", map[string]interface{}{
		"query": "anything",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGetStrings_JSONArray(t *testing.T) {
	args := map[string]interface{}{
		"file_ids": []interface{}{"a", "b", 3},
	}
	assert.Equal(t, []string{"a", "b"}, getStrings(args, "file_ids"))
	assert.Nil(t, getStrings(args, "missing"))
}
