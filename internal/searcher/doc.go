// Package searcher answers search requests over a user's indexed files.
//
// # Retrieval Pipeline
//
// Each search runs the same pipeline:
//
//  1. Validate the request and fill defaults.
//  2. Enumerate the files the caller may see.
//  3. Fetch their chunks from the vector collection, in batches.
//  4. Score every chunk twice, concurrently: cosine similarity against
//     the query embedding, and BM25 over an index built from the fetched
//     chunks.
//  5. Normalize both score lists, fuse them with a weighted sum, and
//     return the top results.
//
// The BM25 index is built per query from whatever chunks the fetch
// returned. That keeps the index exactly as fresh as the collection and
// exactly as scoped as the caller's permissions, at the cost of rebuild
// work proportional to the corpus on every search.
//
// # Caching
//
// Responses are cached per (query, identity, options) with a short TTL.
// Mutating operations call InvalidateCache, which clears the whole cache
// rather than hunting for affected entries; keys are hashes and cannot be
// enumerated by file.
//
// # Degraded Results
//
// A fetch batch that fails drops its chunks from the corpus instead of
// failing the search. The response carries the failed batch count so
// callers can tell a complete answer from a partial one.
package searcher
