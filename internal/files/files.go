// Package files implements file-management operations over the document
// store: name/type search, rename, delete, share, storage stats, and
// content reads.
//
// Every operation takes the caller's identity and enforces the
// owner-or-shared rule before touching anything. Operations that change
// what a search could return invalidate the search caches; content reads
// are memoized with their own TTL.
package files

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/vaultdrive/docsearch-mcp/internal/access"
	"github.com/vaultdrive/docsearch-mcp/internal/cache"
	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

const (
	// MaxContentChars caps how much of a file a content read returns.
	MaxContentChars = 5000

	// MaxSearchResults bounds a file search.
	MaxSearchResults = 1000

	// statsPageSize bounds the stats enumeration.
	statsPageSize = 5000
)

// FileContent is the result of a content read.
type FileContent struct {
	Content    string
	Truncated  bool
	TotalChars int
}

// Service executes file-management operations.
type Service struct {
	checker     *access.Checker
	docs        docstore.DocumentStore
	blobs       docstore.BlobStore
	chunks      *chunkstore.Store
	collections docstore.Collections

	content *cache.Cache[FileContent]
	read    func(context.Context, contentRequest) (FileContent, error)

	// invalidate is called after any mutation that can change search
	// results. The searcher's InvalidateCache slots in here.
	invalidate func()
}

// contentRequest identifies one content read. Only the exported fields
// feed the cache key; the blob coordinates ride along for the loader.
type contentRequest struct {
	FileID string `json:"file_id"`
	UserID string `json:"user_id"`

	bucketFileID string
	name         string
}

// Option configures a Service.
type Option func(*Service)

// WithContentCache replaces the content read cache.
func WithContentCache(c *cache.Cache[FileContent]) Option {
	return func(s *Service) { s.content = c }
}

// WithInvalidator sets the hook called after mutations.
func WithInvalidator(fn func()) Option {
	return func(s *Service) { s.invalidate = fn }
}

// New creates a Service.
func New(
	checker *access.Checker,
	docs docstore.DocumentStore,
	blobs docstore.BlobStore,
	chunks *chunkstore.Store,
	collections docstore.Collections,
	opts ...Option,
) *Service {
	s := &Service{
		checker:     checker,
		docs:        docs,
		blobs:       blobs,
		chunks:      chunks,
		collections: collections,
		content:     cache.New[FileContent](cache.DefaultCapacity, cache.ContentTTL),
		invalidate:  func() {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.read = cache.Memoize(s.content, "read_content", s.loadContent)
	return s
}

// Search lists accessible files, optionally filtered by a name substring
// and file types. limit <= 0 means MaxSearchResults.
func (s *Service) Search(ctx context.Context, id types.Identity, nameQuery string, fileTypes []string, limit int) ([]types.FileRecord, error) {
	if err := access.ValidateIdentity(id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	queries := []docstore.Query{
		docstore.Or(
			docstore.Equal(docstore.AttrOwner, id.UserID),
			docstore.Contains(docstore.AttrUsers, id.Email),
		),
	}
	if nameQuery != "" {
		queries = append(queries, docstore.Contains(docstore.AttrName, nameQuery))
	}
	if len(fileTypes) > 0 {
		queries = append(queries, docstore.Equal(docstore.AttrType, fileTypes...))
	}
	queries = append(queries, docstore.Limit(limit))

	docs, err := s.docs.ListDocuments(ctx, s.collections.Files, queries...)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		return s.searchUnfiltered(ctx, id, nameQuery, fileTypes, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}

	files := make([]types.FileRecord, 0, len(docs))
	for _, doc := range docs {
		files = append(files, docstore.FileFromDocument(doc))
	}
	return files, nil
}

func (s *Service) searchUnfiltered(ctx context.Context, id types.Identity, nameQuery string, fileTypes []string, limit int) ([]types.FileRecord, error) {
	files, err := s.checker.AccessibleFiles(ctx, id)
	if err != nil {
		return nil, err
	}

	typeSet := make(map[string]bool, len(fileTypes))
	for _, ft := range fileTypes {
		typeSet[ft] = true
	}

	var out []types.FileRecord
	for _, file := range files {
		if nameQuery != "" && !strings.Contains(file.Name, nameQuery) {
			continue
		}
		if len(typeSet) > 0 && !typeSet[file.Type] {
			continue
		}
		out = append(out, file)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Rename changes a file's display name, preserving its extension: a new
// name that does not already end in the file's extension gets it appended.
// Returns the final name.
func (s *Service) Rename(ctx context.Context, fileID, newName string, id types.Identity) (string, error) {
	if strings.TrimSpace(newName) == "" {
		return "", fmt.Errorf("new name is empty: %w", types.ErrValidation)
	}
	file, err := s.checker.AuthorizedFile(ctx, fileID, id)
	if err != nil {
		return "", err
	}

	fullName := newName
	if dot := strings.LastIndex(file.Name, "."); dot >= 0 {
		ext := file.Name[dot+1:]
		if ext != "" && !strings.HasSuffix(newName, "."+ext) {
			fullName = newName + "." + ext
		}
	}

	_, err = s.docs.UpdateDocument(ctx, s.collections.Files, fileID, map[string]any{
		docstore.AttrName: fullName,
	})
	if err != nil {
		return "", fmt.Errorf("rename file %s: %w", fileID, err)
	}

	s.content.Clear()
	s.invalidate()
	return fullName, nil
}

// Delete removes the file document, its blob, and every chunk indexed
// from it. Only the owner may delete. Returns how many chunks went with it.
func (s *Service) Delete(ctx context.Context, fileID string, id types.Identity) (int, error) {
	file, err := s.checker.AuthorizedFile(ctx, fileID, id)
	if err != nil {
		return 0, err
	}
	if file.OwnerID != id.UserID {
		return 0, fmt.Errorf("only the owner may delete file %s: %w", fileID, types.ErrAccessDenied)
	}

	if err := s.docs.DeleteDocument(ctx, s.collections.Files, fileID); err != nil {
		return 0, fmt.Errorf("delete file document %s: %w", fileID, err)
	}
	if file.BucketFileID != "" {
		if err := s.blobs.DeleteFile(ctx, s.collections.Bucket, file.BucketFileID); err != nil && !errors.Is(err, types.ErrNotFound) {
			return 0, fmt.Errorf("delete blob of %s: %w", fileID, err)
		}
	}

	deleted, err := s.chunks.DeleteByFile(ctx, fileID)
	if err != nil {
		// The file itself is gone; leftover chunks are orphans the next
		// cleanup pass will sweep.
		log.Printf("delete file %s: chunk removal incomplete: %v", fileID, err)
	}

	s.content.Clear()
	s.invalidate()
	return deleted, nil
}

// Share replaces the file's shared-users list. Only the owner may share.
func (s *Service) Share(ctx context.Context, fileID string, emails []string, id types.Identity) error {
	for _, email := range emails {
		at := strings.Index(email, "@")
		if at <= 0 || at == len(email)-1 {
			return fmt.Errorf("malformed email %q: %w", email, types.ErrValidation)
		}
	}

	file, err := s.checker.AuthorizedFile(ctx, fileID, id)
	if err != nil {
		return err
	}
	if file.OwnerID != id.UserID {
		return fmt.Errorf("only the owner may share file %s: %w", fileID, types.ErrAccessDenied)
	}

	_, err = s.docs.UpdateDocument(ctx, s.collections.Files, fileID, map[string]any{
		docstore.AttrUsers: emails,
	})
	if err != nil {
		return fmt.Errorf("share file %s: %w", fileID, err)
	}

	s.invalidate()
	return nil
}

// Stats sums the sizes of the identity's owned files.
func (s *Service) Stats(ctx context.Context, id types.Identity) (types.StorageStats, error) {
	if err := access.ValidateIdentity(id); err != nil {
		return types.StorageStats{}, err
	}

	docs, err := s.docs.ListDocuments(ctx, s.collections.Files,
		docstore.Equal(docstore.AttrOwner, id.UserID),
		docstore.Limit(statsPageSize),
	)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		docs, err = s.docs.ListDocuments(ctx, s.collections.Files, docstore.Limit(statsPageSize))
		if err == nil {
			var owned []docstore.Document
			for _, doc := range docs {
				if owner, _ := doc.Data[docstore.AttrOwner].(string); owner == id.UserID {
					owned = append(owned, doc)
				}
			}
			docs = owned
		}
	}
	if err != nil {
		return types.StorageStats{}, fmt.Errorf("list owned files: %w", err)
	}

	stats := types.StorageStats{FileCount: len(docs)}
	for _, doc := range docs {
		stats.TotalBytes += docstore.FileFromDocument(doc).Size
	}
	return stats, nil
}

// ReadContent returns the file's text, truncated to MaxContentChars runes.
// Non-UTF-8 content is rejected; use indexing and search for binary
// documents. Reads are memoized per file and caller.
func (s *Service) ReadContent(ctx context.Context, fileID string, id types.Identity) (FileContent, error) {
	file, err := s.checker.AuthorizedFile(ctx, fileID, id)
	if err != nil {
		return FileContent{}, err
	}
	return s.read(ctx, contentRequest{
		FileID:       fileID,
		UserID:       id.UserID,
		bucketFileID: file.BucketFileID,
		name:         file.Name,
	})
}

// loadContent is the uncached read; Memoize wraps it in New.
func (s *Service) loadContent(ctx context.Context, req contentRequest) (FileContent, error) {
	raw, err := s.blobs.DownloadFile(ctx, s.collections.Bucket, req.bucketFileID)
	if err != nil {
		return FileContent{}, fmt.Errorf("download %s: %w", req.name, err)
	}
	if !utf8.Valid(raw) {
		return FileContent{}, fmt.Errorf("%s is not a text file: %w", req.name, types.ErrValidation)
	}

	text := string(raw)
	fc := FileContent{TotalChars: utf8.RuneCountInString(text)}
	if fc.TotalChars > MaxContentChars {
		fc.Content = string([]rune(text)[:MaxContentChars])
		fc.Truncated = true
	} else {
		fc.Content = text
	}
	return fc, nil
}
