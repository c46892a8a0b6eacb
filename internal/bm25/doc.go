// Package bm25 implements lexical relevance scoring over a query-scoped
// corpus using the Okapi BM25 ranking function.
//
// The index is ephemeral: it is rebuilt from the fetched chunk corpus on
// every query and never persisted. Construction computes the per-document
// term frequency tables, document lengths, average document length, and
// document frequencies that scoring needs.
//
// # Usage
//
//	idx := bm25.NewIndex(texts, bm25.DefaultParams())
//	scores := idx.Score("apple banana")
//	// scores[i].Score is the BM25 relevance of texts[i]
//
// Tokenization is deliberately simple: lowercase, split on runs of
// non-alphanumeric characters. No stemming, no stop-word removal.
package bm25
