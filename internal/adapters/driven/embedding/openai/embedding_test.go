package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		svc, err := New(Config{APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, svc.ModelName())
		assert.Equal(t, 1536, svc.Dimensions())
	})

	t.Run("dimensions for known models", func(t *testing.T) {
		svc, err := New(Config{APIKey: "key", Model: "text-embedding-3-large"})
		require.NoError(t, err)
		assert.Equal(t, 3072, svc.Dimensions())
	})

	t.Run("dimensions override", func(t *testing.T) {
		svc, err := New(Config{APIKey: "key", Dimensions: 256})
		require.NoError(t, err)
		assert.Equal(t, 256, svc.Dimensions())
	})
}

func TestEmbedBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("orders results by index", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			var req embeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Input, 2)

			// Return the second embedding first to exercise reordering.
			resp := map[string]any{
				"data": []map[string]any{
					{"embedding": []float64{0.3, 0.4}, "index": 1},
					{"embedding": []float64{0.1, 0.2}, "index": 0},
				},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		embeddings, err := svc.EmbedBatch(ctx, []string{"first", "second"})
		require.NoError(t, err)
		require.Len(t, embeddings, 2)
		assert.Equal(t, []float32{0.1, 0.2}, embeddings[0])
		assert.Equal(t, []float32{0.3, 0.4}, embeddings[1])
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		svc, err := New(Config{APIKey: "key"})
		require.NoError(t, err)

		embeddings, err := svc.EmbedBatch(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, embeddings)
	})

	t.Run("maps 429 to rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = svc.EmbedBatch(ctx, []string{"text"})
		require.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "auth"}}`))
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = svc.EmbedBatch(ctx, []string{"text"})
		require.ErrorContains(t, err, "bad key")
	})

	t.Run("rejects short responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = svc.EmbedBatch(ctx, []string{"text"})
		require.Error(t, err)
	})
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{1, 2, 3}, "index": 0},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	vector, err := svc.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vector)
}
