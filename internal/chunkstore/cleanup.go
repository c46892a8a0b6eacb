package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// cleanupPageSize bounds how many documents one cleanup pass scans.
const cleanupPageSize = 5000

// CleanupOrphans removes the identity's chunks whose file record no longer
// exists: the valid set is every file the identity owns, and any chunk the
// identity owns referencing a file outside that set is an orphan. Deletion
// is best-effort; failures are counted and the sweep continues.
func (s *Store) CleanupOrphans(ctx context.Context, id types.Identity) (types.CleanupReport, error) {
	report := types.CleanupReport{}

	valid, err := s.ownedFileIDs(ctx, id.UserID)
	if err != nil {
		return report, fmt.Errorf("enumerate files: %w", err)
	}

	chunkDocs, err := s.ownedChunkDocs(ctx, id.UserID)
	if err != nil {
		return report, fmt.Errorf("enumerate chunks: %w", err)
	}
	report.ChunksScanned = len(chunkDocs)

	for _, doc := range chunkDocs {
		fileID, _ := doc.Data[docstore.AttrFileID].(string)
		if fileID != "" && valid[fileID] {
			continue
		}

		report.OrphansFound++
		if err := s.docs.DeleteDocument(ctx, s.collections.Vectors, doc.ID); err != nil {
			log.Printf("chunkstore: failed to delete orphan chunk %s: %v", doc.ID, err)
			report.DeleteFailures++
			continue
		}
		report.OrphansDeleted++
	}
	return report, nil
}

func (s *Store) ownedFileIDs(ctx context.Context, userID string) (map[string]bool, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Files,
		docstore.Equal(docstore.AttrOwner, userID),
		docstore.Limit(cleanupPageSize),
	)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		docs, err = s.docs.ListDocuments(ctx, s.collections.Files, docstore.Limit(cleanupPageSize))
		if err == nil {
			docs = filterByOwner(docs, userID)
		}
	}
	if err != nil {
		return nil, err
	}

	valid := make(map[string]bool, len(docs))
	for _, doc := range docs {
		valid[doc.ID] = true
	}
	return valid, nil
}

func (s *Store) ownedChunkDocs(ctx context.Context, userID string) ([]docstore.Document, error) {
	docs, err := s.docs.ListDocuments(ctx, s.collections.Vectors,
		docstore.Equal(docstore.AttrOwner, userID),
		docstore.Limit(cleanupPageSize),
	)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		docs, err = s.docs.ListDocuments(ctx, s.collections.Vectors, docstore.Limit(cleanupPageSize))
		if err == nil {
			docs = filterByOwner(docs, userID)
		}
	}
	return docs, err
}

func filterByOwner(docs []docstore.Document, userID string) []docstore.Document {
	var out []docstore.Document
	for _, doc := range docs {
		if owner, _ := doc.Data[docstore.AttrOwner].(string); owner == userID {
			out = append(out, doc)
		}
	}
	return out
}
