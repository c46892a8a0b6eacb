package types

import "errors"

// Error taxonomy shared across the engine. Per-record failures (a malformed
// embedding, one failed deletion in a bulk sweep) are counted and logged but
// never abort the operation; per-operation failures are wrapped around one of
// these sentinels so callers can branch with errors.Is.
var (
	// ErrAccessDenied is returned when the caller is neither the owner of a
	// file nor in its shared-users list.
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation is returned for malformed input: empty queries,
	// oversized identifiers, invalid email shapes.
	ErrValidation = errors.New("validation failed")

	// ErrNotConfigured is returned when a required collection or bucket id
	// is missing from the environment.
	ErrNotConfigured = errors.New("not configured")

	// ErrRemoteService is returned when the document store, blob bucket, or
	// embedding service failed after retries were exhausted.
	ErrRemoteService = errors.New("remote service failure")

	// ErrMalformedRecord marks a stored record whose embedding or content
	// field fails to parse. The record is skipped, not fatal to the batch.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrRateLimited is a transient rejection from a remote service. Calls
	// are retried with linear backoff before this is surfaced.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned when a requested document doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyIndexed reports the duplicate check short-circuit: chunks
	// for the file already exist and ingestion wrote nothing new.
	ErrAlreadyIndexed = errors.New("file already indexed")
)
