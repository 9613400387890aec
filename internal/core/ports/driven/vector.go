package driven

import (
	"context"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

// VectorBackend is the opaque persistent store for embedded chunks.
// Ingestion is append-only: records are never updated or deleted.
type VectorBackend interface {
	// Insert persists one record.
	Insert(ctx context.Context, record domain.StoredRecord) error

	// QueryNearest returns up to k records nearest to the query vector,
	// restricted to records whose metadata matches every key/value in
	// filter. Results are ordered by descending similarity. An empty
	// store or a filter matching nothing yields an empty slice, not an
	// error.
	QueryNearest(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]ScoredRecord, error)

	// Close releases resources.
	Close() error
}

// ScoredRecord is one nearest-neighbour hit from the backend.
type ScoredRecord struct {
	// Content is the stored chunk text.
	Content string

	// Metadata is the stored attribute set.
	Metadata map[string]any

	// Score is the similarity score, higher is more similar.
	Score float64
}
