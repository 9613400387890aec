// Package chroma provides a vector backend over a Chroma database
// using its v2 HTTP API.
package chroma

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/quarrydocs/quarry/internal/core/domain"
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorBackend = (*Store)(nil)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "documents"

// Config holds Chroma backend configuration.
type Config struct {
	// BaseURL is the Chroma server address (e.g. http://localhost:8000).
	BaseURL string

	// Collection is the collection name (default: documents).
	Collection string
}

// Store persists records in a Chroma collection. Embeddings are
// computed upstream and passed through; the collection never runs its
// own embedding function.
type Store struct {
	client chroma.Client
	col    chroma.Collection
}

// New connects to Chroma and opens (or creates) the collection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: chroma base URL is required", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}

	col, err := client.GetOrCreateCollection(ctx, cfg.Collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open collection %s: %w", cfg.Collection, err)
	}

	return &Store{client: client, col: col}, nil
}

// Insert persists one record.
func (s *Store) Insert(ctx context.Context, record domain.StoredRecord) error {
	err := s.col.Add(ctx,
		chroma.WithIDs(chroma.DocumentID(record.ID)),
		chroma.WithTexts(record.Content),
		chroma.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(record.Embedding)),
		chroma.WithMetadatas(toDocumentMetadata(record.Metadata)),
	)
	if err != nil {
		return fmt.Errorf("add record %s: %w", record.ID, err)
	}
	return nil
}

// QueryNearest runs a filtered nearest-neighbour query. Chroma returns
// cosine distances; they are converted so that higher means more
// similar.
func (s *Store) QueryNearest(ctx context.Context, vector []float32, filter domain.Filter, k int) ([]driven.ScoredRecord, error) {
	opts := []chroma.CollectionQueryOption{
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chroma.WithNResults(k),
	}
	if where := toWhereClause(filter); where != nil {
		opts = append(opts, chroma.WithWhereQuery(where))
	}

	result, err := s.col.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	docGroups := result.GetDocumentsGroups()
	metaGroups := result.GetMetadatasGroups()
	distGroups := result.GetDistancesGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}

	docs := docGroups[0]
	hits := make([]driven.ScoredRecord, 0, len(docs))
	for i, doc := range docs {
		hit := driven.ScoredRecord{
			Content: doc.ContentString(),
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			hit.Metadata = fromDocumentMetadata(metaGroups[0][i])
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			hit.Score = 1 - float64(distGroups[0][i])
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// toDocumentMetadata converts the record attribute set into Chroma
// metadata attributes.
func toDocumentMetadata(metadata map[string]any) chroma.DocumentMetadata {
	attrs := make([]*chroma.MetaAttribute, 0, len(metadata))
	for key, value := range metadata {
		switch v := value.(type) {
		case string:
			attrs = append(attrs, chroma.NewStringAttribute(key, v))
		case int:
			attrs = append(attrs, chroma.NewIntAttribute(key, int64(v)))
		case int64:
			attrs = append(attrs, chroma.NewIntAttribute(key, v))
		case float64:
			attrs = append(attrs, chroma.NewFloatAttribute(key, v))
		case bool:
			attrs = append(attrs, chroma.NewBoolAttribute(key, v))
		default:
			attrs = append(attrs, chroma.NewStringAttribute(key, fmt.Sprintf("%v", v)))
		}
	}
	return chroma.NewDocumentMetadata(attrs...)
}

// wellKnownKeys are the attribute names rebuilt from stored metadata.
// Chroma metadata is read back by key; caller tags outside this set
// still constrain queries server-side but are not rehydrated.
var wellKnownKeys = []string{
	domain.MetaType,
	domain.MetaTenantID,
	domain.MetaSource,
	domain.MetaFileName,
	domain.MetaFileType,
	domain.MetaDocumentID,
	domain.MetaChunkID,
	domain.MetaSegment,
	domain.MetaStorageType,
}

var wellKnownIntKeys = []string{
	domain.MetaChunkIndex,
	domain.MetaTotalChunks,
}

// fromDocumentMetadata rebuilds the attribute map for one hit.
func fromDocumentMetadata(meta chroma.DocumentMetadata) map[string]any {
	out := make(map[string]any, len(wellKnownKeys)+len(wellKnownIntKeys))
	for _, key := range wellKnownKeys {
		if v, ok := meta.GetString(key); ok {
			out[key] = v
		}
	}
	for _, key := range wellKnownIntKeys {
		if v, ok := meta.GetInt(key); ok {
			out[key] = int(v)
		} else if f, ok := meta.GetFloat(key); ok {
			out[key] = int(f)
		}
	}
	return out
}

// toWhereClause converts an equality filter to a Chroma where clause.
func toWhereClause(filter domain.Filter) chroma.WhereFilter {
	if len(filter) == 0 {
		return nil
	}

	clauses := make([]chroma.WhereClause, 0, len(filter))
	for key, value := range filter {
		switch v := value.(type) {
		case string:
			clauses = append(clauses, chroma.EqString(key, v))
		case int:
			clauses = append(clauses, chroma.EqInt(key, v))
		case bool:
			clauses = append(clauses, chroma.EqBool(key, v))
		default:
			clauses = append(clauses, chroma.EqString(key, fmt.Sprintf("%v", v)))
		}
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return chroma.And(clauses...)
}
