// Package sqlite implements the docstore interfaces on a local SQLite
// database. It backs single-machine deployments where no hosted document
// store is available; documents are stored as JSON in a single table and
// filter queries are evaluated in Go after loading the collection.
//
// Two build configurations are supported: the default pure Go driver
// (modernc.org/sqlite) and a CGO build using github.com/mattn/go-sqlite3
// behind the sqlite_cgo tag.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// Store implements DocumentStore and BlobStore over a SQLite file.
type Store struct {
	db *sql.DB
}

var (
	_ docstore.DocumentStore = (*Store)(nil)
	_ docstore.BlobStore     = (*Store)(nil)
)

// Open opens (or creates) the database at dbPath and applies migrations.
// Use ":memory:" for an ephemeral database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListDocuments(ctx context.Context, collectionID string, queries ...docstore.Query) ([]docstore.Document, error) {
	filters, limit := docstore.SplitFilters(queries, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, data, created_at, updated_at
		 FROM documents WHERE collection_id = ?
		 ORDER BY created_at, document_id`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", collectionID, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents in %s: %w", collectionID, err)
		}
		if !docstore.MatchAll(doc, filters) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", collectionID, err)
	}
	return out, nil
}

func (s *Store) GetDocument(ctx context.Context, collectionID, documentID string) (docstore.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document_id, data, created_at, updated_at
		 FROM documents WHERE collection_id = ? AND document_id = ?`,
		collectionID, documentID)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, fmt.Errorf("document %s/%s: %w", collectionID, documentID, types.ErrNotFound)
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get document %s/%s: %w", collectionID, documentID, err)
	}
	return doc, nil
}

func (s *Store) CreateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encode document data: %w", err)
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection_id, document_id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		collectionID, documentID, string(encoded), now, now)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("create document %s/%s: %w", collectionID, documentID, err)
	}
	return docstore.Document{ID: documentID, Data: decodeData(encoded), CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) UpdateDocument(ctx context.Context, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	current, err := s.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return docstore.Document{}, err
	}
	for k, v := range data {
		current.Data[k] = v
	}
	encoded, err := json.Marshal(current.Data)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encode document data: %w", err)
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ?
		 WHERE collection_id = ? AND document_id = ?`,
		string(encoded), now, collectionID, documentID)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("update document %s/%s: %w", collectionID, documentID, err)
	}
	current.Data = decodeData(encoded)
	current.UpdatedAt = now
	return current, nil
}

func (s *Store) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection_id = ? AND document_id = ?`,
		collectionID, documentID)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collectionID, documentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s/%s: %w", collectionID, documentID, types.ErrNotFound)
	}
	return nil
}

// PutFile stores blob content, replacing any existing blob with the same id.
func (s *Store) PutFile(ctx context.Context, bucketID, fileID string, content []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (bucket_id, file_id, content, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(bucket_id, file_id) DO UPDATE SET content = excluded.content`,
		bucketID, fileID, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put blob %s/%s: %w", bucketID, fileID, err)
	}
	return nil
}

func (s *Store) DownloadFile(ctx context.Context, bucketID, fileID string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM blobs WHERE bucket_id = ? AND file_id = ?`,
		bucketID, fileID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("blob %s/%s: %w", bucketID, fileID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download blob %s/%s: %w", bucketID, fileID, err)
	}
	return content, nil
}

func (s *Store) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE bucket_id = ? AND file_id = ?`,
		bucketID, fileID)
	if err != nil {
		return fmt.Errorf("delete blob %s/%s: %w", bucketID, fileID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("blob %s/%s: %w", bucketID, fileID, types.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (docstore.Document, error) {
	var (
		doc     docstore.Document
		rawData string
	)
	if err := row.Scan(&doc.ID, &rawData, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return docstore.Document{}, err
	}
	doc.Data = decodeData([]byte(rawData))
	return doc, nil
}

func decodeData(raw []byte) map[string]any {
	data := make(map[string]any)
	_ = json.Unmarshal(raw, &data)
	return data
}
