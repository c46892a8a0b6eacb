package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedQuery is returned by a store that rejects the shape of a
// query (for example an equality filter whose value list exceeds the
// server's maximum). Callers use it to decide whether a client-side filter
// fallback is worth attempting.
var ErrUnsupportedQuery = errors.New("unsupported query shape")

// Document is a raw record from a keyed collection. Data holds the
// collection-specific attributes; the codec in this package maps it to and
// from the typed domain objects.
type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentStore is the keyed-document service boundary: CRUD plus filtered
// listing with pagination limits. Implementations must honor context
// cancellation on every call.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collectionID string, queries ...Query) ([]Document, error)
	GetDocument(ctx context.Context, collectionID, documentID string) (Document, error)
	CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (Document, error)
	UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (Document, error)
	DeleteDocument(ctx context.Context, collectionID, documentID string) error
}

// BlobStore is the object-storage boundary holding the uploaded files.
type BlobStore interface {
	DownloadFile(ctx context.Context, bucketID, fileID string) ([]byte, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
}

// Collections names the remote collections and bucket the engine uses. All
// ids come from the environment; a missing id surfaces as ErrNotConfigured
// at the call site that needs it.
type Collections struct {
	DatabaseID string
	Files      string // file records: name, type, size, owner, users, bucketFileId
	Vectors    string // chunk records: file_id, content, embedding, metadata
	Bucket     string // blob bucket holding uploaded file bytes
}
