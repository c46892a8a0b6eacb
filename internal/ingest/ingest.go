// Package ingest runs the indexing pipeline: authorize, download,
// extract, chunk, embed, persist.
//
// Indexing is idempotent per file. A file that already has chunks in the
// vector collection is reported as such and left untouched; re-indexing
// requires deleting the file's chunks first. Files producing more than
// MaxChunksPerFile chunks are indexed up to the cap and the excess is
// reported as skipped.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaultdrive/docsearch-mcp/internal/access"
	"github.com/vaultdrive/docsearch-mcp/internal/chunker"
	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/docstore"
	"github.com/vaultdrive/docsearch-mcp/internal/embedder"
	"github.com/vaultdrive/docsearch-mcp/internal/extractor"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// MaxChunksPerFile caps how many chunks one file contributes to the index.
const MaxChunksPerFile = 50

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	checker     *access.Checker
	docs        docstore.DocumentStore
	blobs       docstore.BlobStore
	chunks      *chunkstore.Store
	extract     extractor.Extractor
	embed       embedder.Embedder
	split       *chunker.Chunker
	collections docstore.Collections

	newID func() string
	now   func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIDGenerator replaces chunk document id generation, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) { p.newID = newID }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline.
func New(
	checker *access.Checker,
	docs docstore.DocumentStore,
	blobs docstore.BlobStore,
	chunks *chunkstore.Store,
	extract extractor.Extractor,
	embed embedder.Embedder,
	split *chunker.Chunker,
	collections docstore.Collections,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		checker:     checker,
		docs:        docs,
		blobs:       blobs,
		chunks:      chunks,
		extract:     extract,
		embed:       embed,
		split:       split,
		collections: collections,
		newID:       func() string { return uuid.New().String() },
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IndexFile makes fileID searchable for everyone the file is shared with.
func (p *Pipeline) IndexFile(ctx context.Context, fileID string, id types.Identity) (types.IngestReport, error) {
	start := p.now()
	report := types.IngestReport{FileID: fileID}

	file, err := p.checker.AuthorizedFile(ctx, fileID, id)
	if err != nil {
		return report, err
	}
	report.FileName = file.Name

	existing, err := p.chunks.CountByFile(ctx, fileID)
	if err != nil {
		return report, fmt.Errorf("check existing chunks: %w", err)
	}
	if existing > 0 {
		report.AlreadyIndexed = true
		report.ExistingChunks = existing
		report.Duration = p.now().Sub(start)
		return report, nil
	}

	content, err := p.blobs.DownloadFile(ctx, p.collections.Bucket, file.BucketFileID)
	if err != nil {
		return report, fmt.Errorf("download %s: %w", file.Name, err)
	}

	text, err := p.extract.Extract(ctx, content, file)
	if err != nil {
		return report, err
	}
	if strings.TrimSpace(text) == "" {
		return report, fmt.Errorf("no text extracted from %s: %w", file.Name, types.ErrValidation)
	}

	pieces := p.split.Split(text)
	if len(pieces) > MaxChunksPerFile {
		report.ChunksSkipped = len(pieces) - MaxChunksPerFile
		pieces = pieces[:MaxChunksPerFile]
		log.Printf("ingest: %s produced %d chunks, indexing first %d",
			file.Name, MaxChunksPerFile+report.ChunksSkipped, MaxChunksPerFile)
	}

	indexedAt := p.now().UTC()
	for i, piece := range pieces {
		// One embedding call per chunk: a mid-file failure leaves the
		// chunks persisted so far behind, and the duplicate check turns
		// the retry into an already-indexed report.
		emb, err := p.embed.Embed(ctx, piece)
		if err != nil {
			return report, fmt.Errorf("embed chunk %d of %s: %w", i, file.Name, err)
		}

		chunk := types.Chunk{
			ID:         p.newID(),
			FileID:     fileID,
			ChunkIndex: i,
			Content:    piece,
			Embedding:  emb.Vector,
			FileName:   file.Name,
			FileType:   file.Type,
			FileSize:   file.Size,
			OwnerID:    file.OwnerID,
			IndexedAt:  indexedAt,
		}
		data, err := docstore.ChunkToData(chunk)
		if err != nil {
			return report, fmt.Errorf("encode chunk %d: %w", i, err)
		}
		if _, err := p.docs.CreateDocument(ctx, p.collections.Vectors, chunk.ID, data); err != nil {
			// Chunks written so far stay behind; a retry will see them
			// and report the file as already indexed.
			return report, fmt.Errorf("persist chunk %d of %s: %w", i, file.Name, err)
		}
		report.ChunksIndexed++
	}

	report.Duration = p.now().Sub(start)
	return report, nil
}
