// Package vision turns a screen capture into a short activity description
// using a multimodal model.
package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Request carries the capture and the context the prompt is built from.
type Request struct {
	Image          []byte
	ActiveWindow   string
	BackgroundApps []string
	History        []string
}

// Result is a cleaned model answer.
type Result struct {
	Description string
	Labels      []string
	Raw         string
}

// Describer produces a description of what the user is doing on screen.
type Describer interface {
	Describe(ctx context.Context, req Request) (Result, error)
}

const (
	temperature = 0.3
	maxTokens   = 150
)

const systemPrompt = `You are a desktop activity analyst. Describe what the user is doing on screen.
FORMAT: One sentence summary followed by 2-4 labels in square brackets, e.g. "Editing main.go in Neovim. [Go, Development]".
Include concrete technical details (file names, languages, tools). Never use the label "General".`

const userPromptTemplate = `ANALYZE THE SCREEN.

Active window: %s
Background apps: %s
Recent activity (latest last): %s

Answer in exactly this format: "Description sentence. [Label1, Label2]"`

// BuildPrompt renders the user prompt for a request.
func BuildPrompt(req Request) string {
	active := req.ActiveWindow
	if active == "" {
		active = "unknown"
	}
	background := "none"
	if len(req.BackgroundApps) > 0 {
		background = strings.Join(req.BackgroundApps, ", ")
	}
	history := "new session"
	if len(req.History) > 0 {
		history = strings.Join(req.History, " | ")
	}
	return fmt.Sprintf(userPromptTemplate, active, background, history)
}

// finish cleans the raw answer and rejects answers with nothing usable in them.
func finish(raw string) (Result, error) {
	res := Clean(raw)
	if res.Description == "" {
		return res, fmt.Errorf("model returned an empty description")
	}
	return res, nil
}

func mimeType(image []byte) string {
	mt := http.DetectContentType(image)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return "image/png"
}
