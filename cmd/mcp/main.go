package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/iammorganparry/hyprcontext/internal/client"
	"github.com/iammorganparry/hyprcontext/internal/mcpserver"
)

func main() {
	api := client.New(os.Getenv("HYPRCONTEXT_URL"), os.Getenv("API_KEY"))

	// stdout carries the protocol; diagnostics go to stderr.
	if err := server.ServeStdio(mcpserver.New(api)); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %s\n", err)
		os.Exit(1)
	}
}
