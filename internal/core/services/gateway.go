package services

import (
	"context"
	"fmt"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
	"github.com/quarrydocs/quarry/internal/logger"
)

// DefaultTopK is the number of results a similarity search returns
// when the caller does not say otherwise.
const DefaultTopK = 5

// VectorGateway sits between the pipeline and the opaque vector
// backend. On the write path it embeds chunk texts in one batch call
// and persists one record per chunk with per-record failure isolation.
// On the read path it embeds the query and issues a filtered
// nearest-neighbour lookup.
//
// The gateway holds no cache: two identical queries re-embed and
// re-query.
type VectorGateway struct {
	embedder driven.EmbeddingService
	backend  driven.VectorBackend
}

// NewVectorGateway creates a gateway over the given collaborators.
func NewVectorGateway(embedder driven.EmbeddingService, backend driven.VectorBackend) *VectorGateway {
	return &VectorGateway{embedder: embedder, backend: backend}
}

// InsertBatch embeds all chunk texts in a single provider round-trip
// and persists one record per chunk. A failed embedding call is fatal
// for the whole batch: no record can be built without its vector. A
// failed insert of one record is logged, counted in the report, and
// does not stop the remaining records.
//
// Chunks with empty text never reach the embedding call; they are
// reported as failed.
func (g *VectorGateway) InsertBatch(ctx context.Context, chunks []domain.Chunk) (domain.InsertReport, error) {
	var report domain.InsertReport
	if len(chunks) == 0 {
		return report, nil
	}

	embeddable := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Text == "" {
			logger.Warn("Rejecting empty chunk %s before embedding", chunk.ID)
			report.FailedChunkIDs = append(report.FailedChunkIDs, chunk.ID)
			continue
		}
		embeddable = append(embeddable, chunk)
	}
	if len(embeddable) == 0 {
		return report, nil
	}

	texts := make([]string, len(embeddable))
	for i, chunk := range embeddable {
		texts[i] = chunk.Text
	}

	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return report, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(embeddable) {
		return report, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingFailed, len(vectors), len(embeddable))
	}

	for i, chunk := range embeddable {
		record := domain.StoredRecord{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Metadata:  chunk.Metadata,
			Embedding: vectors[i],
		}
		if err := g.backend.Insert(ctx, record); err != nil {
			logger.Warn("Insert failed for chunk %s: %v", chunk.ID, err)
			report.FailedChunkIDs = append(report.FailedChunkIDs, chunk.ID)
			continue
		}
		report.Succeeded++
	}

	logger.Debug("Insert batch: %d stored, %d failed", report.Succeeded, len(report.FailedChunkIDs))
	return report, nil
}

// SimilaritySearch embeds the query text and returns up to k stored
// chunks whose metadata matches every key/value in filter, ordered by
// descending similarity. An empty store or a filter matching nothing
// yields an empty result, not an error.
func (g *VectorGateway) SimilaritySearch(ctx context.Context, query string, filter domain.Filter, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vector, err := g.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := g.backend.QueryNearest(ctx, vector, filter, k)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domain.SearchResult{
			Chunk: chunkFromRecord(hit),
			Score: hit.Score,
		})
	}
	logger.Debug("Similarity search: %d results for filter %v", len(results), filter)
	return results, nil
}

// chunkFromRecord rebuilds a Chunk from a stored record's content and
// metadata.
func chunkFromRecord(hit driven.ScoredRecord) domain.Chunk {
	chunk := domain.Chunk{
		Text:     hit.Content,
		Metadata: hit.Metadata,
	}
	if id, ok := hit.Metadata[domain.MetaChunkID].(string); ok {
		chunk.ID = id
	}
	if docID, ok := hit.Metadata[domain.MetaDocumentID].(string); ok {
		chunk.DocumentID = docID
	}
	if idx, ok := asInt(hit.Metadata[domain.MetaChunkIndex]); ok {
		chunk.Index = idx
	}
	if total, ok := asInt(hit.Metadata[domain.MetaTotalChunks]); ok {
		chunk.TotalChunks = total
	}
	return chunk
}

// asInt converts the numeric types a metadata round-trip can produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	default:
		return 0, false
	}
}
