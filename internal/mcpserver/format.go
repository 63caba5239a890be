package mcpserver

import (
	"fmt"
	"strings"
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

// maxListed caps how many rows a range answer prints.
const maxListed = 100

func writeObservation(b *strings.Builder, obs models.Observation) {
	fmt.Fprintf(b, "- %s", obs.Timestamp.Local().Format("2006-01-02 15:04:05"))
	if obs.ActiveApplication != "" {
		fmt.Fprintf(b, " [%s]", obs.ActiveApplication)
	}
	if obs.WindowTitle != "" {
		fmt.Fprintf(b, " %s", obs.WindowTitle)
	}
	switch {
	case obs.Private:
		b.WriteString(": (private window)")
	case obs.Description != "":
		fmt.Fprintf(b, ": %s", obs.Description)
	}
	if len(obs.Tags) > 0 {
		fmt.Fprintf(b, " {%s}", strings.Join(obs.Tags, ", "))
	}
	b.WriteString("\n")
}

func formatList(header string, obs []models.Observation) string {
	if len(obs) == 0 {
		return "No activity recorded " + header + "."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d observations %s", len(obs), header)
	shown := obs
	if len(shown) > maxListed {
		shown = shown[len(shown)-maxListed:]
		fmt.Fprintf(&b, " (showing the latest %d)", maxListed)
	}
	b.WriteString(":\n\n")
	for _, o := range shown {
		writeObservation(&b, o)
	}
	return b.String()
}

func formatSince(t *time.Time, now time.Time) string {
	if t == nil {
		return "never"
	}
	return now.Sub(*t).Round(time.Second).String() + " ago"
}
