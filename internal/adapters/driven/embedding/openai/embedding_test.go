package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func newTestService(t *testing.T, cfg Config, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	svc := NewEmbeddingService(cfg)
	svc.policy.BaseBackoff = time.Millisecond
	return svc
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())

	assert.Equal(t, 3072, NewEmbeddingService(Config{Model: "text-embedding-3-large"}).Dimensions())
	assert.Equal(t, 384, NewEmbeddingService(Config{Model: "all-MiniLM-L6-v2"}).Dimensions())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	var got embeddingRequest
	svc := newTestService(t, Config{Model: "text-embedding-3-small", APIKey: "k"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[2],"index":1},{"embedding":[1],"index":0}]}`))
	})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
	assert.Equal(t, []string{"a", "b"}, got.Input)
	assert.Equal(t, 1536, got.Dimensions)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_MissingEntry(t *testing.T) {
	svc := newTestService(t, Config{Model: "local"}, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing embedding for text 1")
}

func TestEmbed_NoAPIKey(t *testing.T) {
	svc := newTestService(t, Config{Model: "local"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2],"index":0}]}`))
	})

	vec, err := svc.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
}

func TestEmbed_ServerErrorExhausts(t *testing.T) {
	svc := newTestService(t, Config{Model: "local", MaxRetries: 2}, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbed_APIError(t *testing.T) {
	svc := newTestService(t, Config{Model: "local"}, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"input too long"}}`))
	})

	_, err := svc.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input too long")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, svc.Ping(context.Background()))
}
