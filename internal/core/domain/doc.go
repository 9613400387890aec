// Package domain defines the core business entities for Quarry.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawFile: Opaque bytes fetched by a source connector
//   - Document: A normalised unit of extracted text with provenance
//   - Chunk: The unit of embedding and retrieval
//   - StoredRecord: The persisted (content, metadata, vector) tuple
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
package domain
