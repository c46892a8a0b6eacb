// Package access decides which files an identity may see. A file is
// accessible when the identity owns it or when the identity's email
// appears in the file's shared-users list. Every operation takes the
// identity as an explicit parameter; there is no ambient caller state.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// MaxFileList bounds a single accessible-file enumeration.
const MaxFileList = 1000

// ValidateIdentity rejects identities that cannot be authorized: a missing
// user id, or an email without the minimal name@host shape.
func ValidateIdentity(id types.Identity) error {
	if strings.TrimSpace(id.UserID) == "" {
		return fmt.Errorf("user id is required: %w", types.ErrValidation)
	}
	email := strings.TrimSpace(id.Email)
	if email == "" {
		return fmt.Errorf("email is required: %w", types.ErrValidation)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("malformed email %q: %w", email, types.ErrValidation)
	}
	return nil
}

// Authorize returns ErrAccessDenied unless the identity owns the file or
// is in its shared-users list.
func Authorize(file types.FileRecord, id types.Identity) error {
	if err := ValidateIdentity(id); err != nil {
		return err
	}
	if !file.AccessibleBy(id) {
		return fmt.Errorf("file %s: %w", file.ID, types.ErrAccessDenied)
	}
	return nil
}

// Checker enumerates accessible files and authorizes single-file access
// against a document store.
type Checker struct {
	store       docstore.DocumentStore
	collections docstore.Collections
}

// NewChecker returns a Checker bound to the files collection in collections.
func NewChecker(store docstore.DocumentStore, collections docstore.Collections) *Checker {
	return &Checker{store: store, collections: collections}
}

// AccessibleFiles lists every file the identity may see, up to MaxFileList.
// The ownership filter is pushed to the store when supported; a store that
// rejects the filter shape is retried with an unfiltered page and the same
// ownership rule applied client-side.
func (c *Checker) AccessibleFiles(ctx context.Context, id types.Identity) ([]types.FileRecord, error) {
	if err := ValidateIdentity(id); err != nil {
		return nil, err
	}

	docs, err := c.store.ListDocuments(ctx, c.collections.Files,
		docstore.Or(
			docstore.Equal(docstore.AttrOwner, id.UserID),
			docstore.Contains(docstore.AttrUsers, id.Email),
		),
		docstore.Limit(MaxFileList),
	)
	if errors.Is(err, docstore.ErrUnsupportedQuery) {
		return c.accessibleFilesUnfiltered(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("list accessible files: %w", err)
	}

	files := make([]types.FileRecord, 0, len(docs))
	for _, doc := range docs {
		files = append(files, docstore.FileFromDocument(doc))
	}
	return files, nil
}

func (c *Checker) accessibleFilesUnfiltered(ctx context.Context, id types.Identity) ([]types.FileRecord, error) {
	docs, err := c.store.ListDocuments(ctx, c.collections.Files, docstore.Limit(MaxFileList))
	if err != nil {
		return nil, fmt.Errorf("list accessible files: %w", err)
	}

	var files []types.FileRecord
	for _, doc := range docs {
		file := docstore.FileFromDocument(doc)
		if file.AccessibleBy(id) {
			files = append(files, file)
		}
	}
	return files, nil
}

// AuthorizedFile fetches a file record and authorizes the identity against
// it. Missing files surface as ErrNotFound.
func (c *Checker) AuthorizedFile(ctx context.Context, fileID string, id types.Identity) (types.FileRecord, error) {
	if err := ValidateIdentity(id); err != nil {
		return types.FileRecord{}, err
	}
	doc, err := c.store.GetDocument(ctx, c.collections.Files, fileID)
	if err != nil {
		return types.FileRecord{}, fmt.Errorf("fetch file %s: %w", fileID, err)
	}
	file := docstore.FileFromDocument(doc)
	if err := Authorize(file, id); err != nil {
		return types.FileRecord{}, err
	}
	return file, nil
}
