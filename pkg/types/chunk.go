package types

import (
	"errors"
	"time"
)

// DefaultEmbeddingDim is the dimensionality of the text-embedding-004 model.
// Every chunk ever written carries a vector of this length; the dimension is
// fixed by the embedding model, not by the store.
const DefaultEmbeddingDim = 768

// Chunk is a bounded slice of a document's extracted text together with its
// embedding and file metadata. Chunks are immutable once created: they are
// written during ingestion and only ever deleted, individually when their
// parent file is deleted or in bulk during orphan cleanup.
type Chunk struct {
	// Identification
	ID         string // document id in the vectors collection
	FileID     string // owning file record id
	ChunkIndex int    // position within the file, 0-based

	// Content
	Content   string
	Embedding []float32

	// Denormalized file metadata, captured at indexing time
	FileName string
	FileType string
	FileSize int64
	OwnerID  string

	CreatedAt time.Time
	IndexedAt time.Time
}

// Validate checks the invariants a chunk must satisfy before it is persisted.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.FileID == "" {
		return errors.New("chunk file id is required")
	}
	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be non-negative")
	}
	if len(c.Embedding) == 0 {
		return errors.New("chunk embedding is required")
	}
	return nil
}

// HasEmbedding reports whether the chunk carries a usable embedding vector.
// A chunk whose stored embedding failed to parse has a nil vector and is
// skipped by the semantic scorer.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
