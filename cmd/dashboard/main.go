package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iammorganparry/hyprcontext/internal/client"
	"github.com/iammorganparry/hyprcontext/internal/dashboard"
)

func main() {
	api := client.New(os.Getenv("HYPRCONTEXT_URL"), os.Getenv("API_KEY"))

	p := tea.NewProgram(
		dashboard.New(api, 5*time.Second),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}
