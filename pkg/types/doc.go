// Package types defines the shared domain types for the document retrieval
// engine: chunk and file records, caller identity, ingestion and cleanup
// reports, search results, and the error taxonomy used across packages.
//
// The package is dependency-free so that every layer (stores, scorers,
// pipeline, tool surface) can share these types without import cycles.
package types
