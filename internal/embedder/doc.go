// Package embedder generates vector embeddings for document chunks and
// search queries.
//
// Three providers are available:
//
//   - gemini: Google's embedContent API (text-embedding-004, 768 dims).
//     The default when GEMINI_API_KEY is set.
//   - ollama: a local Ollama server's embeddings endpoint. Used when
//     OLLAMA_HOST is set and no Gemini key is present.
//   - local: a deterministic hash-based vector. No network, no fidelity;
//     suitable for tests and smoke runs only.
//
// Selection happens in NewFromEnv, with DOCSEARCH_EMBEDDING_PROVIDER
// forcing a specific provider.
//
// All providers share an LRU cache keyed by content hash, so re-indexing
// an unchanged chunk or repeating a query does not hit the API again.
// Remote calls retry transient failures with exponential backoff.
package embedder
