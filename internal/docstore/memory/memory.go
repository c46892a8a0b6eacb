// Package memory provides in-memory implementations of the docstore
// interfaces. It is used by tests and by offline runs where no remote
// document database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// Store holds documents per collection and blobs per bucket, guarded by a
// single mutex. Query evaluation covers the methods the engine issues:
// equal, contains, or, and limit.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]docstore.Document
	blobs       map[string]map[string][]byte

	// FailFilters forces ListDocuments to reject any filtered query with
	// ErrUnsupportedQuery, simulating a backend without server-side
	// filtering. Set it before issuing queries.
	FailFilters bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]docstore.Document),
		blobs:       make(map[string]map[string][]byte),
	}
}

var (
	_ docstore.DocumentStore = (*Store)(nil)
	_ docstore.BlobStore     = (*Store)(nil)
)

// ListDocuments returns documents matching all filter queries, in insertion
// order, truncated to the limit query if present.
func (s *Store) ListDocuments(ctx context.Context, collectionID string, queries ...docstore.Query) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filters, limit := docstore.SplitFilters(queries, 0)
	if s.FailFilters && len(filters) > 0 {
		return nil, fmt.Errorf("list %s: %w", collectionID, docstore.ErrUnsupportedQuery)
	}

	var out []docstore.Document
	for _, doc := range s.sortedDocs(collectionID) {
		if docstore.MatchAll(doc, filters) {
			out = append(out, doc)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetDocument(ctx context.Context, collectionID, documentID string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collectionID][documentID]
	if !ok {
		return docstore.Document{}, fmt.Errorf("document %s/%s: %w", collectionID, documentID, types.ErrNotFound)
	}
	return doc, nil
}

func (s *Store) CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collectionID] == nil {
		s.collections[collectionID] = make(map[string]docstore.Document)
	}
	now := time.Now().UTC()
	doc := docstore.Document{
		ID:        documentID,
		Data:      cloneData(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.collections[collectionID][documentID] = doc
	return doc, nil
}

func (s *Store) UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collectionID][documentID]
	if !ok {
		return docstore.Document{}, fmt.Errorf("document %s/%s: %w", collectionID, documentID, types.ErrNotFound)
	}
	for k, v := range data {
		doc.Data[k] = v
	}
	doc.UpdatedAt = time.Now().UTC()
	s.collections[collectionID][documentID] = doc
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collectionID][documentID]; !ok {
		return fmt.Errorf("document %s/%s: %w", collectionID, documentID, types.ErrNotFound)
	}
	delete(s.collections[collectionID], documentID)
	return nil
}

// PutFile stores blob content for tests and offline ingestion.
func (s *Store) PutFile(bucketID, fileID string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs[bucketID] == nil {
		s.blobs[bucketID] = make(map[string][]byte)
	}
	s.blobs[bucketID][fileID] = append([]byte(nil), content...)
}

func (s *Store) DownloadFile(ctx context.Context, bucketID, fileID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.blobs[bucketID][fileID]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s: %w", bucketID, fileID, types.ErrNotFound)
	}
	return append([]byte(nil), content...), nil
}

func (s *Store) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[bucketID][fileID]; !ok {
		return fmt.Errorf("blob %s/%s: %w", bucketID, fileID, types.ErrNotFound)
	}
	delete(s.blobs[bucketID], fileID)
	return nil
}

// sortedDocs returns the collection's documents ordered by creation time,
// then by ID for a deterministic tie-break. Callers hold s.mu.
func (s *Store) sortedDocs(collectionID string) []docstore.Document {
	docs := make([]docstore.Document, 0, len(s.collections[collectionID]))
	for _, doc := range s.collections[collectionID] {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
