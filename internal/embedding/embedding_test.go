package embedding

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/hyprcontext/internal/store"
)

func newFakeOllama(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			calls.Add(1)
			var req ollamaEmbedRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "mxbai-embed-large", req.Model)
			assert.True(t, req.Truncate)
			json.NewEncoder(w).Encode(ollamaEmbedResponse{
				Embeddings: [][]float32{{float32(len(req.Input)), 0.5, 0.25}},
			})
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"gemma3:latest"},{"name":"mxbai-embed-large:latest"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOllamaEmbed(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeOllama(t, &calls)
	defer srv.Close()

	c := NewOllamaEmbedder(srv.URL, "mxbai-embed-large")
	vec, err := c.Embed(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 0.5, 0.25}, vec)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestOllamaHealthCheckNeedsModel(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeOllama(t, &calls)
	defer srv.Close()

	err := NewOllamaEmbedder(srv.URL, "nomic-embed-text").HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not pulled")
}

func TestOllamaEmbedErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "missing").Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestCachedEmbedderHitsCache(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeOllama(t, &calls)
	defer srv.Close()

	db, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewCachedEmbedder(NewOllamaEmbedder(srv.URL, "mxbai-embed-large"), store.NewEmbeddingCacheStore(db), logger)
	ctx := context.Background()

	first, err := e.Embed(ctx, "watching a video")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "watching a video")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, "mxbai-embed-large", e.Model())

	_, err = e.Embed(ctx, "writing go")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

type countingEmbedder struct {
	model string
	calls *int
}

func (c countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	*c.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (c countingEmbedder) Model() string { return c.model }

func TestCachedEmbedderKeysByModel(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := store.NewEmbeddingCacheStore(db)
	ctx := context.Background()
	calls := 0

	_, err = NewCachedEmbedder(countingEmbedder{"old-model", &calls}, cache, logger).Embed(ctx, "watching a video")
	require.NoError(t, err)

	current := NewCachedEmbedder(countingEmbedder{"mxbai-embed-large", &calls}, cache, logger)
	_, err = current.Embed(ctx, "watching a video")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "a vector from another model is never reused")

	n, err := current.Evict(ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = current.Embed(ctx, "watching a video")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
