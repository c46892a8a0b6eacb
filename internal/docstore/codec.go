package docstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// Attribute names in the vectors collection.
const (
	AttrFileID     = "file_id"
	AttrContent    = "content"
	AttrEmbedding  = "embedding"
	AttrChunkIndex = "chunk_index"
	AttrFileName   = "file_name"
	AttrFileType   = "file_type"
	AttrFileSize   = "file_size"
	AttrOwner      = "owner"
	AttrIndexedAt  = "indexed_at"
)

// Attribute names in the files collection.
const (
	AttrName         = "name"
	AttrType         = "type"
	AttrSize         = "size"
	AttrUsers        = "users"
	AttrBucketFileID = "bucketFileId"
)

// ChunkFromDocument decodes a vectors-collection document into a Chunk. The
// embedding is stored as a JSON string; a record whose embedding fails to
// parse is returned with a nil vector and an ErrMalformedRecord so the
// caller can skip and count it without losing the rest of the batch.
func ChunkFromDocument(doc Document) (types.Chunk, error) {
	chunk := types.Chunk{
		ID:         doc.ID,
		FileID:     getString(doc.Data, AttrFileID),
		Content:    getString(doc.Data, AttrContent),
		ChunkIndex: getInt(doc.Data, AttrChunkIndex),
		FileName:   getString(doc.Data, AttrFileName),
		FileType:   getString(doc.Data, AttrFileType),
		FileSize:   getInt64(doc.Data, AttrFileSize),
		OwnerID:    getString(doc.Data, AttrOwner),
		CreatedAt:  doc.CreatedAt,
		IndexedAt:  getTime(doc.Data, AttrIndexedAt),
	}

	raw := getString(doc.Data, AttrEmbedding)
	if raw == "" {
		return chunk, fmt.Errorf("%w: chunk %s has no embedding", types.ErrMalformedRecord, doc.ID)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return chunk, fmt.Errorf("%w: chunk %s embedding: %v", types.ErrMalformedRecord, doc.ID, err)
	}
	chunk.Embedding = vector

	return chunk, nil
}

// ChunkToData encodes a Chunk for persistence. The embedding is serialized
// to a JSON string to fit the collection's string attribute.
func ChunkToData(c types.Chunk) (map[string]any, error) {
	raw, err := json.Marshal(c.Embedding)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding: %w", err)
	}

	return map[string]any{
		AttrFileID:     c.FileID,
		AttrContent:    c.Content,
		AttrEmbedding:  string(raw),
		AttrChunkIndex: c.ChunkIndex,
		AttrFileName:   c.FileName,
		AttrFileType:   c.FileType,
		AttrFileSize:   c.FileSize,
		AttrOwner:      c.OwnerID,
		AttrIndexedAt:  c.IndexedAt.UTC().Format(time.RFC3339),
	}, nil
}

// FileFromDocument decodes a files-collection document.
func FileFromDocument(doc Document) types.FileRecord {
	return types.FileRecord{
		ID:           doc.ID,
		BucketFileID: getString(doc.Data, AttrBucketFileID),
		Name:         getString(doc.Data, AttrName),
		Type:         getString(doc.Data, AttrType),
		Size:         getInt64(doc.Data, AttrSize),
		OwnerID:      getString(doc.Data, AttrOwner),
		SharedWith:   getStrings(doc.Data, AttrUsers),
		CreatedAt:    doc.CreatedAt,
	}
}

func getString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func getInt(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func getInt64(data map[string]any, key string) int64 {
	switch v := data[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func getStrings(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func getTime(data map[string]any, key string) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		return v
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
