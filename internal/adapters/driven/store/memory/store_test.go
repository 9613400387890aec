package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

func record(id string, embedding []float32, meta map[string]any) domain.StoredRecord {
	return domain.StoredRecord{
		ID:        id,
		Content:   "content " + id,
		Metadata:  meta,
		Embedding: embedding,
	}
}

func TestStoreQueryNearest(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks by cosine similarity", func(t *testing.T) {
		store := New()
		require.NoError(t, store.Insert(ctx, record("far", []float32{0, 1}, nil)))
		require.NoError(t, store.Insert(ctx, record("near", []float32{1, 0.1}, nil)))
		require.NoError(t, store.Insert(ctx, record("exact", []float32{1, 0}, nil)))

		hits, err := store.QueryNearest(ctx, []float32{1, 0}, nil, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)

		assert.Equal(t, "content exact", hits[0].Content)
		assert.Equal(t, "content near", hits[1].Content)
		assert.Equal(t, "content far", hits[2].Content)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	})

	t.Run("truncates to k", func(t *testing.T) {
		store := New()
		for i := 0; i < 5; i++ {
			require.NoError(t, store.Insert(ctx, record(string(rune('a'+i)), []float32{1, 0}, nil)))
		}

		hits, err := store.QueryNearest(ctx, []float32{1, 0}, nil, 2)
		require.NoError(t, err)
		assert.Len(t, hits, 2)
	})

	t.Run("filter restricts matches", func(t *testing.T) {
		store := New()
		require.NoError(t, store.Insert(ctx, record("a", []float32{1, 0}, map[string]any{"type": "upload_file"})))
		require.NoError(t, store.Insert(ctx, record("b", []float32{1, 0}, map[string]any{"type": "knowledge_base"})))

		hits, err := store.QueryNearest(ctx, []float32{1, 0}, domain.Filter{"type": "upload_file"}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "content a", hits[0].Content)
	})

	t.Run("empty store yields no hits", func(t *testing.T) {
		hits, err := New().QueryNearest(ctx, []float32{1, 0}, nil, 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("filter matching nothing yields no hits", func(t *testing.T) {
		store := New()
		require.NoError(t, store.Insert(ctx, record("a", []float32{1, 0}, map[string]any{"type": "upload_file"})))

		hits, err := store.QueryNearest(ctx, []float32{1, 0}, domain.Filter{"type": "other"}, 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
