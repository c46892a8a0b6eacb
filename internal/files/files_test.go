package files

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdrive/docsearch-mcp/internal/access"
	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore/memory"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

var testCollections = docstore.Collections{
	DatabaseID: "db",
	Files:      "files",
	Vectors:    "vectors",
	Bucket:     "bucket",
}

var (
	alice = types.Identity{UserID: "alice", Email: "alice@example.com"}
	bob   = types.Identity{UserID: "bob", Email: "bob@example.com"}
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	seed := []struct {
		id   string
		data map[string]any
	}{
		{"f1", map[string]any{
			"name": "report.pdf", "type": "pdf", "size": int64(2048),
			"owner": "alice", "users": []string{}, "bucketFileId": "b1",
		}},
		{"f2", map[string]any{
			"name": "notes.txt", "type": "txt", "size": int64(100),
			"owner": "alice", "users": []string{"bob@example.com"}, "bucketFileId": "b2",
		}},
		{"f3", map[string]any{
			"name": "budget.csv", "type": "csv", "size": int64(512),
			"owner": "bob", "users": []string{}, "bucketFileId": "b3",
		}},
	}
	for _, d := range seed {
		_, err := store.CreateDocument(ctx, "files", d.id, d.data)
		require.NoError(t, err)
	}

	store.PutFile("bucket", "b1", []byte("%PDF-1.4 binary"))
	store.PutFile("bucket", "b2", []byte("meeting notes from monday"))

	checker := access.NewChecker(store, testCollections)
	chunks := chunkstore.New(store, testCollections)
	svc := New(checker, store, store, chunks, testCollections)
	return svc, store
}

func seedChunks(t *testing.T, store *memory.Store, fileID string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := store.CreateDocument(ctx, "vectors", fileID+"-c"+string(rune('a'+i)), map[string]any{
			"file_id": fileID, "content": "chunk", "embedding": "[0.1]",
			"chunk_index": i, "owner": "alice",
		})
		require.NoError(t, err)
	}
}

func TestSearch_ByName(t *testing.T) {
	svc, _ := newService(t)

	files, err := svc.Search(context.Background(), alice, "notes", nil, 0)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f2", files[0].ID)
}

func TestSearch_ByType(t *testing.T) {
	svc, _ := newService(t)

	files, err := svc.Search(context.Background(), alice, "", []string{"pdf", "csv"}, 0)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].ID)
}

func TestSearch_ScopedToCaller(t *testing.T) {
	svc, _ := newService(t)

	files, err := svc.Search(context.Background(), bob, "", nil, 0)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "f2", files[0].ID) // shared with bob
	assert.Equal(t, "f3", files[1].ID)
}

func TestSearch_FallbackOnUnsupportedQuery(t *testing.T) {
	svc, store := newService(t)
	store.FailFilters = true

	files, err := svc.Search(context.Background(), alice, "report", nil, 0)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].ID)
}

func TestRename_PreservesExtension(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	name, err := svc.Rename(ctx, "f1", "q3-summary", alice)
	require.NoError(t, err)
	assert.Equal(t, "q3-summary.pdf", name)

	doc, err := store.GetDocument(ctx, "files", "f1")
	require.NoError(t, err)
	assert.Equal(t, "q3-summary.pdf", doc.Data["name"])
}

func TestRename_KeepsExplicitExtension(t *testing.T) {
	svc, _ := newService(t)

	name, err := svc.Rename(context.Background(), "f1", "q3-summary.pdf", alice)
	require.NoError(t, err)
	assert.Equal(t, "q3-summary.pdf", name)
}

func TestRename_SharedUserAllowed(t *testing.T) {
	svc, _ := newService(t)

	name, err := svc.Rename(context.Background(), "f2", "standup", bob)
	require.NoError(t, err)
	assert.Equal(t, "standup.txt", name)
}

func TestRename_DeniedWithoutAccess(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Rename(context.Background(), "f1", "stolen", bob)
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestRename_EmptyName(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Rename(context.Background(), "f1", "  ", alice)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestDelete_RemovesDocumentBlobAndChunks(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedChunks(t, store, "f1", 3)

	deleted, err := svc.Delete(ctx, "f1", alice)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	_, err = store.GetDocument(ctx, "files", "f1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.DownloadFile(ctx, "bucket", "b1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	docs, err := store.ListDocuments(ctx, "vectors")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDelete_OwnerOnly(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	// bob can read f2 but must not be able to delete it
	_, err := svc.Delete(ctx, "f2", bob)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	_, err = store.GetDocument(ctx, "files", "f2")
	assert.NoError(t, err)
}

func TestShare_ReplacesUserList(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	err := svc.Share(ctx, "f2", []string{"carol@example.com"}, alice)
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, "files", "f2")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol@example.com"}, doc.Data["users"])

	// bob lost access once the list was replaced
	_, err = svc.Rename(ctx, "f2", "nope", bob)
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestShare_OwnerOnly(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Share(context.Background(), "f2", []string{"carol@example.com"}, bob)
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestShare_RejectsMalformedEmail(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Share(context.Background(), "f2", []string{"not-an-email"}, alice)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestStats_SumsOwnedFiles(t *testing.T) {
	svc, _ := newService(t)

	stats, err := svc.Stats(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
	assert.Equal(t, int64(2148), stats.TotalBytes)
}

func TestStats_ExcludesSharedFiles(t *testing.T) {
	svc, _ := newService(t)

	// f2 is shared with bob but owned by alice; bob's stats skip it
	stats, err := svc.Stats(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
	assert.Equal(t, int64(512), stats.TotalBytes)
}

func TestStats_FallbackOnUnsupportedQuery(t *testing.T) {
	svc, store := newService(t)
	store.FailFilters = true

	stats, err := svc.Stats(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
}

func TestReadContent(t *testing.T) {
	svc, _ := newService(t)

	fc, err := svc.ReadContent(context.Background(), "f2", alice)
	require.NoError(t, err)
	assert.Equal(t, "meeting notes from monday", fc.Content)
	assert.False(t, fc.Truncated)
	assert.Equal(t, 25, fc.TotalChars)
}

func TestReadContent_Truncates(t *testing.T) {
	svc, store := newService(t)
	store.PutFile("bucket", "b2", []byte(strings.Repeat("x", MaxContentChars+10)))

	fc, err := svc.ReadContent(context.Background(), "f2", alice)
	require.NoError(t, err)
	assert.True(t, fc.Truncated)
	assert.Len(t, fc.Content, MaxContentChars)
	assert.Equal(t, MaxContentChars+10, fc.TotalChars)
}

func TestReadContent_RejectsBinary(t *testing.T) {
	svc, store := newService(t)
	store.PutFile("bucket", "b2", []byte{0xff, 0xfe, 0x00, 0x41})

	_, err := svc.ReadContent(context.Background(), "f2", alice)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestReadContent_DeniedWithoutAccess(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ReadContent(context.Background(), "f3", alice)
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestReadContent_Memoized(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first, err := svc.ReadContent(ctx, "f2", alice)
	require.NoError(t, err)

	// a stale read after the blob changed proves the cache served it
	store.PutFile("bucket", "b2", []byte("rewritten"))
	second, err := svc.ReadContent(ctx, "f2", alice)
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
}

func TestReadContent_MemoizedPerUser(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first, err := svc.ReadContent(ctx, "f2", alice)
	require.NoError(t, err)

	// bob's first read misses the cache, so he sees the rewritten blob
	// while alice's entry still serves the old content
	store.PutFile("bucket", "b2", []byte("rewritten"))

	fromBob, err := svc.ReadContent(ctx, "f2", bob)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", fromBob.Content)

	fromAlice, err := svc.ReadContent(ctx, "f2", alice)
	require.NoError(t, err)
	assert.Equal(t, first.Content, fromAlice.Content)
}

func TestRename_InvalidatesContentCache(t *testing.T) {
	invalidated := false
	svc, store := newService(t)
	svc.invalidate = func() { invalidated = true }
	ctx := context.Background()

	_, err := svc.ReadContent(ctx, "f2", alice)
	require.NoError(t, err)

	_, err = svc.Rename(ctx, "f2", "renamed", alice)
	require.NoError(t, err)
	assert.True(t, invalidated)

	store.PutFile("bucket", "b2", []byte("rewritten"))
	fc, err := svc.ReadContent(ctx, "f2", alice)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", fc.Content)
}
