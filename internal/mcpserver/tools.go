package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles activity_search.
type SearchTool struct {
	api API
}

func NewSearchTool(api API) *SearchTool {
	return &SearchTool{api: api}
}

func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("activity_search",
		mcp.WithDescription(
			"Find past screen activity semantically similar to a query, e.g. "+
				"\"when was I reading about postgres indexes\".",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the activity to find"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
	)
}

func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	limit := min(max(intArg(req, "limit", 10), 1), 50)

	resp, err := t.api.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(resp.Results) == 0 {
		return mcp.NewToolResultText("No matching activity found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matching observations:\n\n", len(resp.Results))
	for _, r := range resp.Results {
		fmt.Fprintf(&b, "(%.2f) ", r.Score)
		writeObservation(&b, r.Observation)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// RangeTool handles activity_range.
type RangeTool struct {
	api API
	now func() time.Time
}

func NewRangeTool(api API) *RangeTool {
	return &RangeTool{api: api, now: time.Now}
}

func (t *RangeTool) Definition() mcp.Tool {
	return mcp.NewTool("activity_range",
		mcp.WithDescription(
			"List screen activity between two instants, oldest first. "+
				"Give either start/end timestamps or a lookback in minutes.",
		),
		mcp.WithString("start",
			mcp.Description("RFC3339 start timestamp (inclusive)"),
		),
		mcp.WithString("end",
			mcp.Description("RFC3339 end timestamp (inclusive, default: now)"),
		),
		mcp.WithNumber("minutes",
			mcp.Description("Look back this many minutes from end instead of giving start"),
		),
	)
}

func (t *RangeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	end := t.now()
	if s := req.GetString("end", ""); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return mcp.NewToolResultError("'end' must be an RFC3339 timestamp"), nil
		}
		end = parsed
	}

	var start time.Time
	if s := req.GetString("start", ""); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return mcp.NewToolResultError("'start' must be an RFC3339 timestamp"), nil
		}
		start = parsed
	} else if minutes := intArg(req, "minutes", 0); minutes > 0 {
		start = end.Add(-time.Duration(minutes) * time.Minute)
	} else {
		return mcp.NewToolResultError("either 'start' or 'minutes' is required"), nil
	}

	resp, err := t.api.Range(ctx, start, end)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("range query failed: %v", err)), nil
	}
	header := fmt.Sprintf("between %s and %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	return mcp.NewToolResultText(formatList(header, resp.Observations)), nil
}

// DayTool handles activity_day.
type DayTool struct {
	api API
}

func NewDayTool(api API) *DayTool {
	return &DayTool{api: api}
}

func (t *DayTool) Definition() mcp.Tool {
	return mcp.NewTool("activity_day",
		mcp.WithDescription("List every observation recorded on one local calendar day."),
		mcp.WithString("date",
			mcp.Description("Day as YYYY-MM-DD (default: today)"),
		),
	)
}

func (t *DayTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "today")
	if date != "today" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return mcp.NewToolResultError("'date' must be YYYY-MM-DD"), nil
		}
	}

	resp, err := t.api.Day(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("day query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatList("on "+date, resp.Observations)), nil
}

// FocusTool handles focus_status.
type FocusTool struct {
	api API
	now func() time.Time
}

func NewFocusTool(api API) *FocusTool {
	return &FocusTool{api: api, now: time.Now}
}

func (t *FocusTool) Definition() mcp.Tool {
	return mcp.NewTool("focus_status",
		mcp.WithDescription("Report the distraction watchdog state and today's focus totals."),
	)
}

func (t *FocusTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := t.api.Focus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("focus query failed: %v", err)), nil
	}

	wd := resp.Watchdog
	var b strings.Builder
	b.WriteString("## Focus\n\n")
	fmt.Fprintf(&b, "- **Status**: %s\n", wd.Status)
	fmt.Fprintf(&b, "- **Consecutive distracted captures**: %d of %d\n", wd.ConsecutiveDistractionCount, wd.Threshold)
	fmt.Fprintf(&b, "- **Last alert**: %s\n", formatSince(wd.LastAlertTime, t.now()))

	if day := resp.Today; day != nil {
		fmt.Fprintf(&b, "\n### Today (%s)\n\n", day.Date)
		fmt.Fprintf(&b, "- **Captures**: %d (%d distracted)\n", day.ObservationCount, day.DistractedCount)
		fmt.Fprintf(&b, "- **Distracted time**: %s\n", (time.Duration(day.DistractionSeconds) * time.Second).String())
		fmt.Fprintf(&b, "- **Alerts**: %d\n", day.AlertCount)
		if day.LimitSeconds > 0 {
			limit := time.Duration(day.LimitSeconds) * time.Second
			left := time.Duration(day.RemainingSeconds) * time.Second
			fmt.Fprintf(&b, "- **Budget**: %.0f%% of %s used, %s left", day.PercentUsed, limit, left)
			if day.BudgetSpent {
				b.WriteString(" (limit reached)")
			}
			b.WriteString("\n")
		}
		if day.LastDistraction != "" {
			fmt.Fprintf(&b, "- **Last distraction**: %s\n", day.LastDistraction)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
