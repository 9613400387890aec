package domain

import "time"

// FallbackAnswer is returned when retrieval finds nothing to ground an
// answer on, or when any step of the answer pipeline fails. The
// generation model is never called without retrieved context.
const FallbackAnswer = "I don't have enough information to answer that question."

// SourceRef is one citeable source backing an answer.
type SourceRef struct {
	// Source is the provenance path of the chunk.
	Source string `json:"source"`

	// ContentPreview is the first part of the chunk text, ellipsised.
	ContentPreview string `json:"content_preview"`
}

// Answer is the caller-facing result of one question.
type Answer struct {
	// Text is the generated answer, or FallbackAnswer.
	Text string `json:"answer"`

	// Sources lists the retrieved chunks the answer was grounded on.
	// Empty when Text is the fallback.
	Sources []SourceRef `json:"sources"`

	// Errored is set when a retrieval or generation failure was
	// converted into the fallback shape.
	Errored bool `json:"errored,omitempty"`
}

// CatalogEntry records one ingested file in the ingestion catalog.
// The checksum lets re-ingestion skip unchanged files.
type CatalogEntry struct {
	// DocumentID is the identity assigned to the file's segments.
	DocumentID string

	// SourcePath is the provenance path of the file.
	SourcePath string

	// SourceKind identifies the connector the file came from.
	SourceKind string

	// Checksum is the CRC32 of the raw file content.
	Checksum uint32

	// ChunkCount is the number of chunks stored for the file.
	ChunkCount int

	// IngestedAt is when the file was last ingested.
	IngestedAt time.Time
}
