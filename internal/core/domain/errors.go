package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunking indicates an invalid chunk size/overlap
	// configuration. Fatal at pipeline construction.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrUnsupportedFormat indicates no extractor handles the file
	// extension. Files failing with this error are skipped, not fatal.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyContent indicates a record has no text to embed.
	// Empty payloads are rejected before the embedding call.
	ErrEmptyContent = errors.New("empty content")

	// ErrEmbeddingFailed indicates the batch embedding call failed.
	// Fatal for the affected batch: no record can be built without
	// its vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrConnectorClosed indicates the connector has been closed.
	ErrConnectorClosed = errors.New("connector closed")

	// ErrAuthRequired indicates the connector requires credentials
	// but none are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited indicates the provider API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
