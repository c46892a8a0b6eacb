package types

import "time"

// SearchResult is one ranked chunk returned from a hybrid query.
type SearchResult struct {
	Chunk         Chunk
	Rank          int     // 1-based position after fusion
	Score         float64 // fused score in [0,1]
	SemanticScore float64 // min-max normalized cosine similarity
	KeywordScore  float64 // min-max normalized BM25 score
}

// SearchResponse carries the ranked results plus query metadata.
type SearchResponse struct {
	Results       []SearchResult
	TotalChunks   int // corpus size before truncation
	FailedBatches int // retrieval batches that errored after fallback
	CacheHit      bool
	Duration      time.Duration
}

// IngestReport summarizes one ingestion run for a single file.
type IngestReport struct {
	FileID         string
	FileName       string
	ChunksIndexed  int
	ChunksSkipped  int  // chunks beyond the per-call embedding cap
	AlreadyIndexed bool // duplicate check short-circuited
	ExistingChunks int  // count reported when AlreadyIndexed
	Duration       time.Duration
}

// CleanupReport summarizes an orphan-maintenance pass. Deletion is
// best-effort: failures are counted per record, never aborting the sweep.
type CleanupReport struct {
	ChunksScanned  int
	OrphansFound   int
	OrphansDeleted int
	DeleteFailures int
}

// StorageStats reports total storage used by a caller's owned files.
type StorageStats struct {
	FileCount  int
	TotalBytes int64
}
