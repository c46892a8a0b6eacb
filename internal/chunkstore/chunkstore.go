// Package chunkstore retrieves indexed chunks from the vector collection.
//
// Chunks are fetched per search, filtered to the caller's accessible
// files. File ids are split into fixed-size batches fetched concurrently;
// one failing batch degrades the result instead of failing the whole
// fetch, and the failure count travels with the chunks so callers can
// report partial coverage.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

const (
	// BatchSize is how many file ids go into one list query.
	BatchSize = 50

	// MaxFileIDs bounds a single fetch.
	MaxFileIDs = 1000

	// FallbackPageSize bounds the unfiltered page loaded when the store
	// cannot evaluate the file-id filter server-side.
	FallbackPageSize = 1000

	// maxConcurrentBatches caps parallel list queries.
	maxConcurrentBatches = 4
)

// FetchResult carries the chunks plus how degraded the fetch was.
type FetchResult struct {
	Chunks        []types.Chunk
	FailedBatches int
	Malformed     int
}

// Store fetches and deletes chunks in the vector collection.
type Store struct {
	docs        docstore.DocumentStore
	collections docstore.Collections
}

// New returns a Store bound to the vectors collection in collections.
func New(docs docstore.DocumentStore, collections docstore.Collections) *Store {
	return &Store{docs: docs, collections: collections}
}

// FetchByFiles returns every chunk belonging to the given files. Results
// are ordered by the position of the file in fileIDs, then by chunk index,
// so a corpus built from them has a stable order.
func (s *Store) FetchByFiles(ctx context.Context, fileIDs []string) (FetchResult, error) {
	if len(fileIDs) == 0 {
		return FetchResult{}, nil
	}
	if len(fileIDs) > MaxFileIDs {
		return FetchResult{}, fmt.Errorf("%d file ids exceeds limit %d: %w", len(fileIDs), MaxFileIDs, types.ErrValidation)
	}

	batches := splitBatches(fileIDs, BatchSize)

	var (
		mu     sync.Mutex
		result FetchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			chunks, malformed, err := s.fetchBatch(gctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Unsupported filters abort the whole fetch so the caller
				// falls back once, not per batch.
				if errors.Is(err, docstore.ErrUnsupportedQuery) {
					return err
				}
				log.Printf("chunkstore: batch of %d files failed: %v", len(batch), err)
				result.FailedBatches++
				return nil
			}
			result.Chunks = append(result.Chunks, chunks...)
			result.Malformed += malformed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, docstore.ErrUnsupportedQuery) {
			return s.fetchUnfiltered(ctx, fileIDs)
		}
		return FetchResult{}, err
	}

	sortChunks(result.Chunks, fileIDs)
	return result, nil
}

func (s *Store) fetchBatch(ctx context.Context, fileIDs []string) ([]types.Chunk, int, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Vectors,
		docstore.Equal(docstore.AttrFileID, fileIDs...),
		docstore.Limit(FallbackPageSize),
	)
	if err != nil {
		return nil, 0, err
	}
	return decodeChunks(docs)
}

// fetchUnfiltered loads one bounded page of the whole collection and
// filters it locally. A collection larger than the page yields partial
// results; that risk is accepted over failing the search outright.
func (s *Store) fetchUnfiltered(ctx context.Context, fileIDs []string) (FetchResult, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Vectors, docstore.Limit(FallbackPageSize))
	if err != nil {
		return FetchResult{}, fmt.Errorf("unfiltered chunk fetch: %w", err)
	}

	wanted := make(map[string]bool, len(fileIDs))
	for _, id := range fileIDs {
		wanted[id] = true
	}

	chunks, malformed, err := decodeChunks(docs)
	if err != nil {
		return FetchResult{}, err
	}

	var result FetchResult
	result.Malformed = malformed
	for _, chunk := range chunks {
		if wanted[chunk.FileID] {
			result.Chunks = append(result.Chunks, chunk)
		}
	}
	sortChunks(result.Chunks, fileIDs)
	return result, nil
}

// DeleteByFile removes every chunk belonging to fileID and returns how
// many were deleted.
func (s *Store) DeleteByFile(ctx context.Context, fileID string) (int, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Vectors,
		docstore.Equal(docstore.AttrFileID, fileID),
		docstore.Limit(FallbackPageSize),
	)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		docs, err = s.listFileChunksUnfiltered(ctx, fileID)
	}
	if err != nil {
		return 0, fmt.Errorf("list chunks of %s: %w", fileID, err)
	}

	deleted := 0
	for _, doc := range docs {
		if err := s.docs.DeleteDocument(ctx, s.collections.Vectors, doc.ID); err != nil {
			return deleted, fmt.Errorf("delete chunk %s: %w", doc.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// CountByFile returns how many chunks exist for fileID.
func (s *Store) CountByFile(ctx context.Context, fileID string) (int, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Vectors,
		docstore.Equal(docstore.AttrFileID, fileID),
		docstore.Limit(FallbackPageSize),
	)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		docs, err = s.listFileChunksUnfiltered(ctx, fileID)
	}
	if err != nil {
		return 0, fmt.Errorf("count chunks of %s: %w", fileID, err)
	}
	return len(docs), nil
}

func (s *Store) listFileChunksUnfiltered(ctx context.Context, fileID string) ([]docstore.Document, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Vectors, docstore.Limit(FallbackPageSize))
	if err != nil {
		return nil, err
	}
	var out []docstore.Document
	for _, doc := range docs {
		if id, _ := doc.Data[docstore.AttrFileID].(string); id == fileID {
			out = append(out, doc)
		}
	}
	return out, nil
}

// decodeChunks converts documents to chunks, skipping malformed records
// and counting them instead of failing the batch.
func decodeChunks(docs []docstore.Document) ([]types.Chunk, int, error) {
	chunks := make([]types.Chunk, 0, len(docs))
	malformed := 0
	for _, doc := range docs {
		chunk, err := docstore.ChunkFromDocument(doc)
		if err != nil {
			if errors.Is(err, types.ErrMalformedRecord) {
				log.Printf("chunkstore: skipping malformed chunk %s: %v", doc.ID, err)
				malformed++
				continue
			}
			return nil, malformed, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, malformed, nil
}

func sortChunks(chunks []types.Chunk, fileIDs []string) {
	order := make(map[string]int, len(fileIDs))
	for i, id := range fileIDs {
		order[id] = i
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if order[chunks[i].FileID] != order[chunks[j].FileID] {
			return order[chunks[i].FileID] < order[chunks[j].FileID]
		}
		if chunks[i].ChunkIndex != chunks[j].ChunkIndex {
			return chunks[i].ChunkIndex < chunks[j].ChunkIndex
		}
		return chunks[i].ID < chunks[j].ID
	})
}

func splitBatches(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
