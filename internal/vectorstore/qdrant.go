package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// QdrantIndex talks to the Qdrant REST API. Observation ids are UUIDs, which
// Qdrant accepts directly as point ids.
type QdrantIndex struct {
	baseURL    string
	collection string
	dimension  int
	httpClient *http.Client
	ensured    atomic.Bool
}

func NewQdrantIndex(baseURL, collection string, dimension int) *QdrantIndex {
	return &QdrantIndex{
		baseURL:    baseURL,
		collection: collection,
		dimension:  dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// HealthCheck verifies Qdrant connectivity.
func (q *QdrantIndex) HealthCheck(ctx context.Context) error {
	status, _, err := q.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant health check: status %d", status)
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	status, _, err := q.do(ctx, http.MethodGet, "/collections/"+q.collection, nil)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if status == http.StatusOK {
		q.ensured.Store(true)
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	if _, err := q.call(ctx, http.MethodPut, "/collections/"+q.collection, body); err != nil {
		return err
	}
	q.ensured.Store(true)
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, points ...Point) error {
	batch := make([]qdrantPoint, 0, len(points))
	for _, p := range points {
		if len(p.Vector) == 0 {
			continue
		}
		batch = append(batch, qdrantPoint{
			ID:     p.ID,
			Vector: p.Vector,
			Payload: map[string]any{
				payloadTimestamp: p.Timestamp.UnixNano(),
			},
		})
	}
	if len(batch) == 0 {
		return nil
	}
	// Qdrant may have been down when the server started.
	if !q.ensured.Load() {
		if err := q.EnsureCollection(ctx); err != nil {
			return err
		}
	}
	_, err := q.call(ctx, http.MethodPut, "/collections/"+q.collection+"/points?wait=true", map[string]any{
		"points": batch,
	})
	return err
}

func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	respBody, err := q.call(ctx, http.MethodPost, "/collections/"+q.collection+"/points/search", map[string]any{
		"vector": vector,
		"limit":  limit,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, len(resp.Result))
	for i, r := range resp.Result {
		hits[i] = Hit{ID: r.ID, Score: r.Score}
	}
	return hits, nil
}

func (q *QdrantIndex) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.call(ctx, http.MethodPost, "/collections/"+q.collection+"/points/delete?wait=true", map[string]any{
		"points": ids,
	})
	return err
}

func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	respBody, err := q.call(ctx, http.MethodPost, "/collections/"+q.collection+"/points/count", map[string]any{
		"exact": true,
	})
	if err != nil {
		return 0, err
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return resp.Result.Count, nil
}

// Missing retrieves the ids without payloads or vectors and reports the ones
// Qdrant does not return. A missing collection means every id is missing.
func (q *QdrantIndex) Missing(ctx context.Context, ids ...string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	path := "/collections/" + q.collection + "/points"
	status, respBody, err := q.do(ctx, http.MethodPost, path, map[string]any{
		"ids":          ids,
		"with_payload": false,
		"with_vector":  false,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant POST %s: %w", path, err)
	}
	if status == http.StatusNotFound {
		q.ensured.Store(false)
		return append([]string(nil), ids...), nil
	}
	if status >= 400 {
		return nil, fmt.Errorf("qdrant POST %s: status %d: %s", path, status, string(respBody))
	}

	var resp struct {
		Result []struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode retrieve response: %w", err)
	}
	found := make(map[string]bool, len(resp.Result))
	for _, r := range resp.Result {
		found[r.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// call sends a JSON request and fails on any 4xx/5xx status.
func (q *QdrantIndex) call(ctx context.Context, method, path string, body any) ([]byte, error) {
	status, respBody, err := q.do(ctx, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	if status >= 400 {
		return nil, fmt.Errorf("qdrant %s %s: status %d: %s", method, path, status, string(respBody))
	}
	return respBody, nil
}

func (q *QdrantIndex) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
