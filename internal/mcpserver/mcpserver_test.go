package mcpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

type fakeAPI struct {
	search    *models.SearchResponse
	list      *models.ObservationListResponse
	focus     *models.FocusResponse
	err       error
	lastQuery string
	lastTopK  int
	lastStart time.Time
	lastEnd   time.Time
	lastDate  string
}

func (f *fakeAPI) Search(_ context.Context, query string, topK int) (*models.SearchResponse, error) {
	f.lastQuery, f.lastTopK = query, topK
	return f.search, f.err
}

func (f *fakeAPI) Range(_ context.Context, start, end time.Time) (*models.ObservationListResponse, error) {
	f.lastStart, f.lastEnd = start, end
	return f.list, f.err
}

func (f *fakeAPI) Day(_ context.Context, date string) (*models.ObservationListResponse, error) {
	f.lastDate = date
	return f.list, f.err
}

func (f *fakeAPI) Focus(context.Context) (*models.FocusResponse, error) {
	return f.focus, f.err
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

var stamp = time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)

func TestSearchTool(t *testing.T) {
	api := &fakeAPI{search: &models.SearchResponse{
		Results: []models.ScoredObservation{{
			Observation: models.Observation{
				ID: "a", Timestamp: stamp, ActiveApplication: "firefox",
				WindowTitle: "Postgres docs", Description: "[Work] reading about btree indexes",
			},
			Score: 0.87,
		}},
		Total: 1,
	}}
	tool := NewSearchTool(api)
	assert.Equal(t, "activity_search", tool.Definition().Name)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"query": " postgres ", "limit": float64(500)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "postgres", api.lastQuery)
	assert.Equal(t, 50, api.lastTopK)

	text := resultText(res)
	assert.Contains(t, text, "(0.87)")
	assert.Contains(t, text, "[firefox] Postgres docs: [Work] reading about btree indexes")
}

func TestSearchToolErrors(t *testing.T) {
	tool := NewSearchTool(&fakeAPI{err: errors.New("connection refused")})

	res, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"query": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "connection refused")
}

func TestRangeTool(t *testing.T) {
	api := &fakeAPI{list: &models.ObservationListResponse{Observations: []models.Observation{
		{ID: "a", Timestamp: stamp, WindowTitle: "nvim", Description: "editing"},
		{ID: "b", Timestamp: stamp.Add(time.Minute), WindowTitle: "Bank", Private: true},
	}}}
	tool := NewRangeTool(api)
	tool.now = func() time.Time { return stamp.Add(time.Hour) }

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"minutes": float64(90)}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.True(t, api.lastEnd.Equal(stamp.Add(time.Hour)))
	assert.True(t, api.lastStart.Equal(stamp.Add(-30*time.Minute)))

	text := resultText(res)
	assert.Contains(t, text, "2 observations")
	assert.Contains(t, text, "nvim: editing")
	assert.Contains(t, text, "Bank: (private window)")

	res, err = tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"start": "last tuesday"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestDayTool(t *testing.T) {
	api := &fakeAPI{list: &models.ObservationListResponse{Observations: []models.Observation{}}}
	tool := NewDayTool(api)

	res, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Equal(t, "today", api.lastDate)
	assert.Equal(t, "No activity recorded on today.", resultText(res))

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"date": "2024-13-01"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFocusTool(t *testing.T) {
	alert := stamp.Add(-5 * time.Minute)
	api := &fakeAPI{focus: &models.FocusResponse{
		Watchdog: models.WatchdogSnapshot{
			Status: "alerted_distracted", ConsecutiveDistractionCount: 4, Threshold: 3, LastAlertTime: &alert,
		},
		Today: &models.FocusDay{
			Date: "2024-03-05", ObservationCount: 10, DistractedCount: 4,
			DistractionSeconds: 80, AlertCount: 1, LastDistraction: "youtube",
			LimitSeconds: 100, RemainingSeconds: 20, PercentUsed: 80,
		},
	}}
	tool := NewFocusTool(api)
	tool.now = func() time.Time { return stamp }

	res, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(res)
	assert.Contains(t, text, "**Status**: alerted_distracted")
	assert.Contains(t, text, "4 of 3")
	assert.Contains(t, text, "5m0s ago")
	assert.Contains(t, text, "**Distracted time**: 1m20s")
	assert.Contains(t, text, "**Last distraction**: youtube")
	assert.Contains(t, text, "**Budget**: 80% of 1m40s used, 20s left")
	assert.NotContains(t, text, "limit reached")
}

func TestToolNames(t *testing.T) {
	api := &fakeAPI{}
	names := []string{
		NewSearchTool(api).Definition().Name,
		NewRangeTool(api).Definition().Name,
		NewDayTool(api).Definition().Name,
		NewFocusTool(api).Definition().Name,
	}
	assert.Equal(t, []string{"activity_search", "activity_range", "activity_day", "focus_status"}, names)
	assert.NotNil(t, New(api))
}
