package domain

// RawFile represents one file fetched by a source connector,
// before any text extraction has happened.
type RawFile struct {
	// Path is the original location (filesystem path, Drive file ID path,
	// Dropbox path). It becomes the "source" metadata attribute.
	Path string

	// Name is the human-readable file name.
	Name string

	// Extension is the lower-cased file extension including the dot
	// (e.g. ".pdf"). It selects the content extractor.
	Extension string

	// SourceKind identifies the connector that produced this file
	// (e.g. "local", "google_drive", "dropbox").
	SourceKind string

	// Content is the raw bytes.
	Content []byte
}

// Segment is one extracted text unit from a file. Multi-part formats
// (spreadsheet sheets, presentation slides) yield several segments
// from a single file.
type Segment struct {
	// Text is the extracted plain text.
	Text string

	// Part labels the segment within its file (e.g. "sheet:Expenses",
	// "slide:3"). Empty for single-segment formats.
	Part string
}

// Provenance records where a document originated.
type Provenance struct {
	// SourcePath is the original location of the file.
	SourcePath string

	// DisplayName is the human-readable file name.
	DisplayName string

	// SourceKind identifies the connector (local, google_drive, dropbox).
	SourceKind string

	// Extension is the file extension without the dot (e.g. "pdf").
	Extension string
}

// Document is the canonical representation of one extracted segment.
// All segments extracted from the same physical file share one ID;
// a multi-sheet spreadsheet yields several Documents with equal IDs
// but distinct Part labels.
//
// A Document is immutable after creation.
type Document struct {
	// ID is the document identity, shared across segments of one file.
	ID string

	// Text is the extracted text of this segment.
	Text string

	// Part labels the segment within the file. Empty for single-segment files.
	Part string

	// Provenance records where the document came from.
	Provenance Provenance
}

// Chunk is a bounded contiguous slice of a document's text, the unit
// of embedding and retrieval. Adjacent chunks of the same document
// share overlapping text to preserve context across boundaries.
type Chunk struct {
	// ID is the globally unique chunk identity.
	ID string

	// DocumentID links back to the owning Document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// Index is the 0-based position within the document.
	Index int

	// TotalChunks is the final chunk count for the document.
	// Identical across all chunks of one document.
	TotalChunks int

	// Metadata contains the enriched attribute set persisted with the chunk.
	Metadata map[string]any
}

// StoredRecord is the persisted form of one chunk.
type StoredRecord struct {
	// ID is the chunk ID.
	ID string

	// Content is the chunk text. Never empty.
	Content string

	// Metadata is the enriched attribute set.
	Metadata map[string]any

	// Embedding is the vector representation of Content.
	Embedding []float32
}

// SearchResult is one similarity search hit.
type SearchResult struct {
	// Chunk is the matched chunk, rebuilt from the stored record.
	Chunk Chunk

	// Score is the similarity score, higher is more similar.
	Score float64
}

// InsertReport summarises a batch insert. Per-record failures are
// isolated; the report accumulates them instead of aborting the batch.
type InsertReport struct {
	// Succeeded is the number of records persisted.
	Succeeded int

	// FailedChunkIDs lists the chunks whose insert failed.
	FailedChunkIDs []string
}

// IngestSummary is the caller-facing result of one ingestion run.
type IngestSummary struct {
	// ChunksFound is the number of chunks produced by the pipeline.
	ChunksFound int

	// ChunksStored is the number of chunks persisted.
	ChunksStored int

	// ChunksFailed is the number of chunks whose insert failed.
	ChunksFailed int

	// FilesProcessed is the number of files that went through the pipeline.
	FilesProcessed int

	// FilesSkipped counts files dropped for unsupported formats,
	// extraction failures, or unchanged content.
	FilesSkipped int
}
