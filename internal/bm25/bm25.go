package bm25

import "math"

// Params are the BM25 tunables. K1 controls term-frequency saturation, B the
// strength of document-length normalization.
type Params struct {
	K1 float64
	B  float64
}

// DefaultParams returns the standard tunables used by the retrieval engine.
func DefaultParams() Params {
	return Params{K1: 1.5, B: 0.75}
}

// DocScore pairs a document's index in the corpus with its BM25 score.
type DocScore struct {
	Index int
	Score float64
}

// Index holds the per-corpus statistics needed to score queries. It is built
// fresh for each query's corpus and discarded afterwards.
type Index struct {
	params    Params
	termFreqs []map[string]int // per-document term frequency tables
	docLens   []int            // per-document token counts
	avgDocLen float64
	docFreqs  map[string]int // documents containing each token
	numDocs   int
}

// NewIndex tokenizes every document and precomputes corpus statistics.
func NewIndex(docs []string, params Params) *Index {
	idx := &Index{
		params:    params,
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		docFreqs:  make(map[string]int),
		numDocs:   len(docs),
	}

	totalLen := 0
	for i, doc := range docs {
		tokens := Tokenize(doc)
		idx.termFreqs[i] = termFrequencies(tokens)
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)

		for tok := range idx.termFreqs[i] {
			idx.docFreqs[tok]++
		}
	}

	if len(docs) > 0 {
		idx.avgDocLen = float64(totalLen) / float64(len(docs))
	}

	return idx
}

// Len returns the corpus size.
func (idx *Index) Len() int {
	return idx.numDocs
}

// IDF computes the inverse document frequency of a token:
// ln((N - df + 0.5) / (df + 0.5) + 1). Tokens absent from the corpus still
// get a positive value, contributing nothing because their tf is zero.
func (idx *Index) IDF(token string) float64 {
	df := float64(idx.docFreqs[token])
	n := float64(idx.numDocs)
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

// Score ranks every document in the corpus against the query. The result is
// ordered by document index, one entry per document, and is deterministic
// for a fixed corpus and query. An empty corpus yields an empty list.
func (idx *Index) Score(query string) []DocScore {
	scores := make([]DocScore, idx.numDocs)
	queryTokens := Tokenize(query)

	for i := 0; i < idx.numDocs; i++ {
		scores[i] = DocScore{Index: i, Score: idx.scoreDoc(queryTokens, i)}
	}

	return scores
}

// scoreDoc sums the BM25 contribution of each query token present in the
// document. A zero average document length (empty corpus) is defined as a
// zero score rather than a division by zero.
func (idx *Index) scoreDoc(queryTokens []string, doc int) float64 {
	if idx.avgDocLen == 0 {
		return 0
	}

	k1 := idx.params.K1
	b := idx.params.B
	docLen := float64(idx.docLens[doc])

	var score float64
	for _, tok := range queryTokens {
		tf := float64(idx.termFreqs[doc][tok])
		if tf == 0 {
			continue
		}
		norm := tf + k1*(1-b+b*(docLen/idx.avgDocLen))
		score += idx.IDF(tok) * (tf * (k1 + 1)) / norm
	}

	return score
}
