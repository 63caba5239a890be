// Package window reads the focused window and open clients from Hyprland.
package window

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 5 * time.Second

// Info describes one toplevel window.
type Info struct {
	Class     string `json:"class"`
	Title     string `json:"title"`
	Workspace struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"workspace"`
}

// Provider reports the window the user is looking at and everything else open.
type Provider interface {
	ActiveWindow(ctx context.Context) (Info, error)
	Clients(ctx context.Context) ([]Info, error)
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Hyprland queries hyprctl's JSON output.
type Hyprland struct {
	run Runner
}

func NewHyprland() *Hyprland {
	return &Hyprland{run: execRunner}
}

// NewHyprlandWithRunner is used by tests to replace hyprctl.
func NewHyprlandWithRunner(run Runner) *Hyprland {
	return &Hyprland{run: run}
}

func (h *Hyprland) ActiveWindow(ctx context.Context) (Info, error) {
	out, err := h.run(ctx, "hyprctl", "activewindow", "-j")
	if err != nil {
		return Info{}, fmt.Errorf("hyprctl activewindow: %w", err)
	}

	var info Info
	trimmed := strings.TrimSpace(string(out))
	// hyprctl prints "Invalid" or "{}" when nothing is focused.
	if trimmed == "" || trimmed == "Invalid" || trimmed == "{}" {
		return info, nil
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return Info{}, fmt.Errorf("decode activewindow: %w", err)
	}
	return info, nil
}

// Clients returns windows placed on a regular workspace (special workspaces
// have negative ids).
func (h *Hyprland) Clients(ctx context.Context) ([]Info, error) {
	out, err := h.run(ctx, "hyprctl", "clients", "-j")
	if err != nil {
		return nil, fmt.Errorf("hyprctl clients: %w", err)
	}

	var all []Info
	if err := json.Unmarshal(out, &all); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}

	clients := make([]Info, 0, len(all))
	for _, c := range all {
		if c.Workspace.ID > 0 {
			clients = append(clients, c)
		}
	}
	return clients, nil
}

// Summaries renders clients as "class: title" with long titles shortened,
// skipping the active window.
func Summaries(clients []Info, active Info, maxTitle int) []string {
	var out []string
	for _, c := range clients {
		if c.Class == active.Class && c.Title == active.Title {
			continue
		}
		title := c.Title
		if r := []rune(title); maxTitle > 0 && len(r) > maxTitle {
			title = string(r[:maxTitle]) + "..."
		}
		out = append(out, c.Class+": "+title)
	}
	return out
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	execCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return out, nil
}
