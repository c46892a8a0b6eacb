package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

func geminiResponse(vectors [][]float32) map[string]any {
	embeddings := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		embeddings[i] = map[string]any{"values": v}
	}
	return map[string]any{"embeddings": embeddings}
}

func TestGeminiProvider_EmbedBatch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Contains(t, r.URL.Path, "models/text-embedding-004:batchEmbedContents")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body struct {
			Requests []struct {
				Model   string `json:"model"`
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Requests, 2)
		assert.Equal(t, "models/text-embedding-004", body.Requests[0].Model)
		assert.Equal(t, "first", body.Requests[0].Content.Parts[0].Text)

		_ = json.NewEncoder(w).Encode(geminiResponse([][]float32{{0.1, 0.2}, {0.3, 0.4}}))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider("test-key", server.URL, nil)
	require.NoError(t, err)

	embeddings, err := provider.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1, 0.2}, embeddings[0].Vector)
	assert.Equal(t, ProviderGemini, embeddings[0].Provider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiProvider_CacheHitSkipsAPI(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(geminiResponse([][]float32{{1, 2}}))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider("test-key", server.URL, NewCache(10))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := provider.Embed(ctx, "cached text")
	require.NoError(t, err)
	second, err := provider.Embed(ctx, "cached text")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiProvider_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewGeminiProvider("test-key", server.URL, nil)
	require.NoError(t, err)

	_, err = provider.EmbedBatch(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, types.ErrRemoteService)
	assert.Equal(t, int32(MaxRetries), calls.Load())
}

func TestGeminiProvider_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, err := NewGeminiProvider("test-key", server.URL, nil)
	require.NoError(t, err)

	_, err = provider.EmbedBatch(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, types.ErrRateLimited)
}

func TestGeminiProvider_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiResponse([][]float32{{1}}))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider("test-key", server.URL, nil)
	require.NoError(t, err)

	_, err = provider.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, types.ErrRemoteService)
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var body struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body.Model)
		assert.Equal(t, "query text", body.Prompt)

		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.5, 0.6}})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(server.URL, "", nil)
	require.NoError(t, err)

	emb, err := provider.Embed(context.Background(), "query text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, emb.Vector)
	assert.Equal(t, ProviderOllama, emb.Provider)
}

func TestFactoryConfig(t *testing.T) {
	_, err := New(Config{Provider: "nonsense"})
	assert.ErrorIs(t, err, types.ErrNotConfigured)

	emb, err := New(Config{Provider: ProviderLocal, CacheSize: 100})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider())
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvGeminiAPIKey, "")
	t.Setenv(EnvOllamaHost, "")
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvGeminiAPIKey, "key")
	assert.Equal(t, ProviderGemini, DetectProvider())

	t.Setenv(EnvProvider, "ollama")
	assert.Equal(t, ProviderOllama, DetectProvider())
}
