// Package memory provides an in-memory vector backend, used for tests
// and for trying the pipeline without a running vector database.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorBackend = (*Store)(nil)

// Store keeps records in memory and ranks queries by cosine
// similarity. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records []domain.StoredRecord
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Insert persists one record.
func (s *Store) Insert(_ context.Context, record domain.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// QueryNearest returns up to k records matching the filter, ordered by
// descending cosine similarity to the query vector.
func (s *Store) QueryNearest(_ context.Context, vector []float32, filter domain.Filter, k int) ([]driven.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.ScoredRecord, 0, len(s.records))
	for _, record := range s.records {
		if !matches(record.Metadata, filter) {
			continue
		}
		hits = append(hits, driven.ScoredRecord{
			Content:  record.Content,
			Metadata: record.Metadata,
			Score:    cosineSimilarity(vector, record.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// matches reports whether the metadata satisfies every filter entry.
func matches(metadata map[string]any, filter domain.Filter) bool {
	for key, want := range filter {
		if metadata[key] != want {
			return false
		}
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
