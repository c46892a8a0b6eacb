// Package docstore defines the boundary to the external keyed-document
// service that holds file records and chunk records, and to the blob bucket
// that holds the uploaded files themselves.
//
// The engine talks to the store through the DocumentStore and BlobStore
// interfaces using equality / set-contains / limit queries; adapters live in
// the subpackages:
//
//   - appwrite: REST client for the hosted document service
//   - sqlite:   local store for offline use (dual driver, see build tags)
//   - memory:   in-memory store for tests
//
// The package also carries the codec between raw store documents and the
// typed Chunk and FileRecord domain objects, including the JSON-string
// embedding encoding used by the vectors collection.
package docstore
