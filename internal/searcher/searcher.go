package searcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vaultdrive/docsearch-mcp/internal/access"
	"github.com/vaultdrive/docsearch-mcp/internal/bm25"
	"github.com/vaultdrive/docsearch-mcp/internal/cache"
	"github.com/vaultdrive/docsearch-mcp/internal/chunkstore"
	"github.com/vaultdrive/docsearch-mcp/internal/embedder"
	"github.com/vaultdrive/docsearch-mcp/internal/rank"
	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// MaxQueryLength bounds accepted queries.
const MaxQueryLength = 1000

// Request is one search invocation.
type Request struct {
	Query    string
	Identity types.Identity

	// TopK limits the result count; zero means rank.DefaultTopK.
	TopK int

	// FileIDs restricts the search to these files (still subject to
	// access checks). Empty means all accessible files.
	FileIDs []string
}

// Searcher executes hybrid searches.
type Searcher struct {
	checker *access.Checker
	chunks  *chunkstore.Store
	embed   embedder.Embedder

	weights rank.Weights
	params  bm25.Params

	results *cache.Cache[types.SearchResponse]
	now     func() time.Time
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithWeights overrides the fusion weights.
func WithWeights(w rank.Weights) Option {
	return func(s *Searcher) { s.weights = w }
}

// WithBM25Params overrides the lexical scoring parameters.
func WithBM25Params(p bm25.Params) Option {
	return func(s *Searcher) { s.params = p }
}

// WithResultCache replaces the response cache.
func WithResultCache(c *cache.Cache[types.SearchResponse]) Option {
	return func(s *Searcher) { s.results = c }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) { s.now = now }
}

// New creates a Searcher.
func New(checker *access.Checker, chunks *chunkstore.Store, embed embedder.Embedder, opts ...Option) *Searcher {
	s := &Searcher{
		checker: checker,
		chunks:  chunks,
		embed:   embed,
		weights: rank.DefaultWeights(),
		params:  bm25.DefaultParams(),
		results: cache.New[types.SearchResponse](cache.DefaultCapacity, cache.SearchTTL),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the retrieval pipeline for req.
func (s *Searcher) Search(ctx context.Context, req Request) (types.SearchResponse, error) {
	start := s.now()

	if err := validateRequest(&req); err != nil {
		return types.SearchResponse{}, err
	}

	key := cacheKey(req)
	if resp, ok := s.results.Get(key); ok {
		resp.CacheHit = true
		resp.Duration = s.now().Sub(start)
		return resp, nil
	}

	fileIDs, err := s.searchableFiles(ctx, req)
	if err != nil {
		return types.SearchResponse{}, err
	}
	if len(fileIDs) == 0 {
		return types.SearchResponse{Duration: s.now().Sub(start)}, nil
	}

	fetched, err := s.chunks.FetchByFiles(ctx, fileIDs)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("fetch chunks: %w", err)
	}

	resp := types.SearchResponse{
		TotalChunks:   len(fetched.Chunks),
		FailedBatches: fetched.FailedBatches,
	}
	if len(fetched.Chunks) == 0 {
		resp.Duration = s.now().Sub(start)
		return resp, nil
	}

	queryEmb, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		return types.SearchResponse{}, fmt.Errorf("embed query: %w", err)
	}

	semantic, keyword := s.scoreChunks(req.Query, queryEmb.Vector, fetched.Chunks)

	ranked := rank.Fuse(semantic, keyword, s.weights, req.TopK)
	resp.Results = make([]types.SearchResult, len(ranked))
	for i, r := range ranked {
		resp.Results[i] = types.SearchResult{
			Chunk:         fetched.Chunks[r.Index],
			Rank:          i + 1,
			Score:         r.Score,
			SemanticScore: r.Semantic,
			KeywordScore:  r.Keyword,
		}
	}

	s.results.Set(key, resp)
	resp.Duration = s.now().Sub(start)
	return resp, nil
}

// InvalidateCache clears cached responses. Called after any mutation that
// can change search results: indexing, renames, deletes, shares.
func (s *Searcher) InvalidateCache() {
	s.results.Clear()
}

// scoreChunks computes both score lists concurrently. Each list is
// index-aligned with chunks.
func (s *Searcher) scoreChunks(query string, queryVec []float32, chunks []types.Chunk) (semantic, keyword []float64) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		semantic = make([]float64, len(chunks))
		for i, chunk := range chunks {
			semantic[i] = rank.CosineSimilarity(queryVec, chunk.Embedding)
		}
	}()

	go func() {
		defer wg.Done()
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}
		index := bm25.NewIndex(texts, s.params)
		keyword = make([]float64, len(chunks))
		for _, ds := range index.Score(query) {
			keyword[ds.Index] = ds.Score
		}
	}()

	wg.Wait()
	return semantic, keyword
}

func (s *Searcher) searchableFiles(ctx context.Context, req Request) ([]string, error) {
	files, err := s.checker.AccessibleFiles(ctx, req.Identity)
	if err != nil {
		return nil, err
	}

	accessible := make([]string, 0, len(files))
	for _, f := range files {
		accessible = append(accessible, f.ID)
	}
	if len(req.FileIDs) == 0 {
		return accessible, nil
	}

	// Scope to the requested files, dropping anything not accessible.
	allowed := make(map[string]bool, len(accessible))
	for _, id := range accessible {
		allowed[id] = true
	}
	var scoped []string
	for _, id := range req.FileIDs {
		if allowed[id] {
			scoped = append(scoped, id)
		}
	}
	return scoped, nil
}

func validateRequest(req *Request) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return fmt.Errorf("query is empty: %w", types.ErrValidation)
	}
	if len(req.Query) > MaxQueryLength {
		return fmt.Errorf("query exceeds %d characters: %w", MaxQueryLength, types.ErrValidation)
	}
	if err := access.ValidateIdentity(req.Identity); err != nil {
		return err
	}
	if req.TopK <= 0 {
		req.TopK = rank.DefaultTopK
	}
	return nil
}

func cacheKey(req Request) string {
	return cache.Key("search", []any{req.Query}, map[string]any{
		"user":  req.Identity.UserID,
		"top_k": req.TopK,
		"files": req.FileIDs,
	})
}
