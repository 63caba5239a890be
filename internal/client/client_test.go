package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", "secret")
}

func TestSearchSendsBodyAndAuth(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/observations/search", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req models.SearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rust docs", req.Query)
		assert.Equal(t, 3, req.TopK)

		json.NewEncoder(w).Encode(models.SearchResponse{
			Results: []models.ScoredObservation{{Observation: models.Observation{ID: "x"}, Score: 0.9}},
			Total:   1,
		})
	})

	resp, err := c.Search(context.Background(), "rust docs", 3)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "x", resp.Results[0].ID)
}

func TestRangeEncodesTimestamps(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/observations", r.URL.Path)
		assert.Equal(t, "2024-03-05T09:00:00Z", r.URL.Query().Get("start"))
		assert.Equal(t, "2024-03-05T10:00:00Z", r.URL.Query().Get("end"))
		json.NewEncoder(w).Encode(models.ObservationListResponse{Observations: []models.Observation{}})
	})

	resp, err := c.Range(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
}

func TestErrorResponses(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/observations/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"observation not found"}`))
		case "/health":
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","vectorIndex":{"status":"error","message":"down"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid time range"}`))
		}
	})
	ctx := context.Background()

	obs, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, obs)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "down", health.VectorIndex.Message)

	_, err = c.Day(ctx, "2024-03-05")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "invalid time range", se.Message)
}

func TestRecentAndFocus(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/observations/recent":
			assert.Equal(t, "2", r.URL.Query().Get("days"))
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode(models.ObservationListResponse{
				Observations: []models.Observation{{ID: "a"}, {ID: "b"}},
				Total:        2,
			})
		case "/focus":
			json.NewEncoder(w).Encode(models.FocusResponse{
				Watchdog: models.WatchdogSnapshot{Status: "warning", ConsecutiveDistractionCount: 2, Threshold: 3},
			})
		}
	})
	ctx := context.Background()

	recent, err := c.Recent(ctx, 2, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, recent.Total)

	focus, err := c.Focus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "warning", focus.Watchdog.Status)
	assert.Nil(t, focus.Today)
}

func TestDefaultURL(t *testing.T) {
	assert.Equal(t, DefaultURL, New("", "").baseURL)
}
