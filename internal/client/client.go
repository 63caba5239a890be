// Package client talks to a running hyprcontext server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

// DefaultURL is where the server listens unless HYPRCONTEXT_URL says otherwise.
const DefaultURL = "http://localhost:8742"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

func (c *Client) Range(ctx context.Context, start, end time.Time) (*models.ObservationListResponse, error) {
	q := url.Values{}
	q.Set("start", start.Format(time.RFC3339Nano))
	q.Set("end", end.Format(time.RFC3339Nano))
	var resp models.ObservationListResponse
	if err := c.do(ctx, http.MethodGet, "/observations?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Day fetches a local calendar date, formatted YYYY-MM-DD or "today".
func (c *Client) Day(ctx context.Context, date string) (*models.ObservationListResponse, error) {
	var resp models.ObservationListResponse
	if err := c.do(ctx, http.MethodGet, "/observations/day/"+url.PathEscape(date), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Recent(ctx context.Context, days, limit int) (*models.ObservationListResponse, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	q.Set("limit", strconv.Itoa(limit))
	var resp models.ObservationListResponse
	if err := c.do(ctx, http.MethodGet, "/observations/recent?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Search(ctx context.Context, query string, topK int) (*models.SearchResponse, error) {
	var resp models.SearchResponse
	req := models.SearchRequest{Query: query, TopK: topK}
	if err := c.do(ctx, http.MethodPost, "/observations/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns nil, nil when the observation does not exist.
func (c *Client) Get(ctx context.Context, id string) (*models.Observation, error) {
	var obs models.Observation
	err := c.do(ctx, http.MethodGet, "/observations/"+url.PathEscape(id), nil, &obs)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

func (c *Client) Stats(ctx context.Context) (*models.StoreStats, error) {
	var stats models.StoreStats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Focus(ctx context.Context) (*models.FocusResponse, error) {
	var resp models.FocusResponse
	if err := c.do(ctx, http.MethodGet, "/focus", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health decodes the body for both 200 and 503 so callers can show which
// dependency is degraded.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var resp models.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusServiceUnavailable {
		return &resp, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var statusErr error
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		statusErr = &StatusError{Code: resp.StatusCode, Message: msg}
		if resp.StatusCode != http.StatusServiceUnavailable {
			return statusErr
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil && statusErr == nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return statusErr
}
