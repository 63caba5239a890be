// Package mcpserver exposes activity memory to chat assistants as MCP tools.
//
// Every tool follows the same shape: a struct holding the API client,
// Definition() returning the mcp.Tool schema, and Handle() doing the call.
// Tool failures are reported as error results, never as protocol errors.
package mcpserver

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

const Version = "0.1.0"

// API is the slice of the HTTP client the tools call.
type API interface {
	Search(ctx context.Context, query string, topK int) (*models.SearchResponse, error)
	Range(ctx context.Context, start, end time.Time) (*models.ObservationListResponse, error)
	Day(ctx context.Context, date string) (*models.ObservationListResponse, error)
	Focus(ctx context.Context) (*models.FocusResponse, error)
}

// New builds the MCP server with every activity tool registered.
func New(api API) *server.MCPServer {
	s := server.NewMCPServer(
		"hyprcontext",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	search := NewSearchTool(api)
	s.AddTool(search.Definition(), search.Handle)

	rangeTool := NewRangeTool(api)
	s.AddTool(rangeTool.Definition(), rangeTool.Handle)

	day := NewDayTool(api)
	s.AddTool(day.Definition(), day.Handle)

	focus := NewFocusTool(api)
	s.AddTool(focus.Definition(), focus.Handle)

	return s
}

const instructions = `HyprContext records what is on the user's screen every few seconds as short
activity descriptions. Use activity_search to recall past work by topic,
activity_range or activity_day to reconstruct a period, and focus_status to see
whether the user is currently distracted.`

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
