package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemIndexSearchOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx, err := NewChromemIndex("", "test")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, idx.Upsert(ctx,
		Point{ID: "x", Vector: []float32{1, 0, 0}, Timestamp: now},
		Point{ID: "xy", Vector: []float32{1, 1, 0}, Timestamp: now},
		Point{ID: "z", Vector: []float32{0, 0, 1}, Timestamp: now},
		Point{ID: "skipped", Timestamp: now},
	))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Limit larger than the collection is clamped.
	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "x", hits[0].ID)
	assert.Equal(t, "xy", hits[1].ID)
	assert.Equal(t, "z", hits[2].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)

	require.NoError(t, idx.Delete(ctx, "x"))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChromemIndexUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	idx, err := NewChromemIndex("", "test")
	require.NoError(t, err)

	require.NoError(t, idx.Upsert(ctx, Point{ID: "a", Vector: []float32{1, 0}}))
	require.NoError(t, idx.Upsert(ctx, Point{ID: "a", Vector: []float32{1, 0}}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChromemIndexMissing(t *testing.T) {
	ctx := context.Background()
	idx, err := NewChromemIndex("", "test")
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, Point{ID: "a", Vector: []float32{1, 0}}))

	missing, err := idx.Missing(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, missing)

	missing, err = idx.Missing(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestChromemIndexEmpty(t *testing.T) {
	idx, err := NewChromemIndex("", "test")
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// fakeQdrant holds points in memory and answers the REST calls QdrantIndex makes.
type fakeQdrant struct {
	mu     sync.Mutex
	exists bool
	points map[string][]float32
}

func (f *fakeQdrant) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case r.URL.Path == "/healthz":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/collections/obs":
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/obs":
			f.exists = true
			json.NewEncoder(w).Encode(map[string]any{"result": true})
		case r.Method == http.MethodPut && r.URL.Path == "/collections/obs/points":
			var req struct {
				Points []qdrantPoint `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			for _, p := range req.Points {
				f.points[p.ID] = p.Vector
			}
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "completed"}})
		case r.Method == http.MethodPost && r.URL.Path == "/collections/obs/points":
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			var req struct {
				IDs []string `json:"ids"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			out := []map[string]any{}
			for _, id := range req.IDs {
				if _, ok := f.points[id]; ok {
					out = append(out, map[string]any{"id": id})
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"result": out})
		case strings.HasSuffix(r.URL.Path, "/points/search"):
			var out []map[string]any
			for id := range f.points {
				out = append(out, map[string]any{"id": id, "score": 0.5})
			}
			json.NewEncoder(w).Encode(map[string]any{"result": out})
		case strings.HasSuffix(r.URL.Path, "/points/count"):
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": len(f.points)}})
		case strings.HasSuffix(r.URL.Path, "/points/delete"):
			var req struct {
				Points []string `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			for _, id := range req.Points {
				delete(f.points, id)
			}
			json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "completed"}})
		default:
			http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
		}
	})
}

func TestQdrantIndexRoundTrip(t *testing.T) {
	fake := &fakeQdrant{points: map[string][]float32{}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	ctx := context.Background()
	idx := NewQdrantIndex(srv.URL, "obs", 3)

	require.NoError(t, idx.HealthCheck(ctx))
	require.NoError(t, idx.EnsureCollection(ctx))
	assert.True(t, fake.exists)

	require.NoError(t, idx.Upsert(ctx, Point{ID: "p1", Vector: []float32{1, 2, 3}, Timestamp: time.Now()}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search(ctx, []float32{1, 2, 3}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].ID)

	require.NoError(t, idx.Delete(ctx, "p1"))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQdrantIndexCreatesCollectionOnFirstUpsert(t *testing.T) {
	fake := &fakeQdrant{points: map[string][]float32{}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	idx := NewQdrantIndex(srv.URL, "obs", 3)
	require.NoError(t, idx.Upsert(context.Background(), Point{ID: "p1", Vector: []float32{1, 0, 0}}))
	assert.True(t, fake.exists)
	assert.Len(t, fake.points, 1)
}

func TestQdrantIndexMissing(t *testing.T) {
	fake := &fakeQdrant{points: map[string][]float32{}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	ctx := context.Background()
	idx := NewQdrantIndex(srv.URL, "obs", 3)

	// No collection yet: everything is missing.
	missing, err := idx.Missing(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, missing)

	require.NoError(t, idx.Upsert(ctx, Point{ID: "p1", Vector: []float32{1, 0, 0}}))
	missing, err = idx.Missing(ctx, "p1", "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, missing)
}

func TestQdrantIndexReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	idx := NewQdrantIndex(srv.URL, "obs", 3)
	_, err := idx.Search(context.Background(), []float32{1}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
