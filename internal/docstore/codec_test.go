package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

func TestChunkRoundTrip(t *testing.T) {
	chunk := types.Chunk{
		ID:         "chunk-1",
		FileID:     "file-1",
		Content:    "apple pie recipe",
		Embedding:  []float32{0.1, 0.2, 0.3},
		ChunkIndex: 2,
		FileName:   "recipes.pdf",
		FileType:   types.FileTypeDocument,
		FileSize:   2048,
		OwnerID:    "user-1",
		IndexedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := ChunkToData(chunk)
	require.NoError(t, err)
	assert.Equal(t, "[0.1,0.2,0.3]", data[AttrEmbedding])

	decoded, err := ChunkFromDocument(Document{ID: "chunk-1", Data: data})
	require.NoError(t, err)
	assert.Equal(t, chunk.FileID, decoded.FileID)
	assert.Equal(t, chunk.Content, decoded.Content)
	assert.Equal(t, chunk.Embedding, decoded.Embedding)
	assert.Equal(t, chunk.ChunkIndex, decoded.ChunkIndex)
	assert.Equal(t, chunk.FileSize, decoded.FileSize)
	assert.True(t, chunk.IndexedAt.Equal(decoded.IndexedAt))
}

func TestChunkFromDocument_MalformedEmbedding(t *testing.T) {
	doc := Document{
		ID: "chunk-bad",
		Data: map[string]any{
			AttrFileID:    "file-1",
			AttrContent:   "some text",
			AttrEmbedding: "not json",
		},
	}

	chunk, err := ChunkFromDocument(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedRecord)

	// The textual fields survive so the caller can still log context.
	assert.Equal(t, "file-1", chunk.FileID)
	assert.False(t, chunk.HasEmbedding())
}

func TestChunkFromDocument_MissingEmbedding(t *testing.T) {
	doc := Document{ID: "chunk-2", Data: map[string]any{AttrContent: "text"}}
	_, err := ChunkFromDocument(doc)
	assert.ErrorIs(t, err, types.ErrMalformedRecord)
}

func TestFileFromDocument(t *testing.T) {
	doc := Document{
		ID: "file-1",
		Data: map[string]any{
			AttrName:         "notes.txt",
			AttrType:         types.FileTypeDocument,
			AttrSize:         float64(512), // JSON numbers decode as float64
			AttrOwner:        "user-1",
			AttrUsers:        []any{"friend@example.com"},
			AttrBucketFileID: "bucket-1",
		},
	}

	file := FileFromDocument(doc)
	assert.Equal(t, "notes.txt", file.Name)
	assert.Equal(t, int64(512), file.Size)
	assert.Equal(t, []string{"friend@example.com"}, file.SharedWith)
	assert.Equal(t, "bucket-1", file.BucketFileID)
}

func TestQueryBuilders(t *testing.T) {
	q := Or(Equal("owner", "user-1"), Contains("users", "a@b.com"))
	assert.Equal(t, MethodOr, q.Method)
	require.Len(t, q.Nested, 2)
	assert.Equal(t, MethodEqual, q.Nested[0].Method)
	assert.Equal(t, []any{"user-1"}, q.Nested[0].Values)

	assert.Equal(t, 25, LimitOf([]Query{Equal("x", "y"), Limit(25)}, 100))
	assert.Equal(t, 100, LimitOf([]Query{Equal("x", "y")}, 100))
}
