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
	"github.com/quarrydocs/quarry/internal/core/ports/driven"
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
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns trimmed completion", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

			var req chatCompletionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, "the prompt", req.Messages[0].Content)

			resp := map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "  generated answer \n"}},
				},
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		text, err := svc.Generate(ctx, "the prompt", driven.GenerateOptions{Temperature: 0})
		require.NoError(t, err)
		assert.Equal(t, "generated answer", text)
	})

	t.Run("maps 429 to rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = svc.Generate(ctx, "prompt", driven.GenerateOptions{})
		require.ErrorIs(t, err, domain.ErrRateLimited)
	})

	t.Run("surfaces API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "context too long", "type": "invalid_request"}}`))
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = svc.Generate(ctx, "prompt", driven.GenerateOptions{})
		require.ErrorContains(t, err, "context too long")
	})

	t.Run("rejects empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		svc, err := New(Config{APIKey: "key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = svc.Generate(ctx, "prompt", driven.GenerateOptions{})
		require.Error(t, err)
	})
}
