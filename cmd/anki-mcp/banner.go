package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/taigrr/anki-mcp/internal/config"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	urlColor   = color.New(color.FgGreen)
	dimColor   = color.New(color.Faint)
)

func printBanner(w io.Writer, cfg *config.Config, tools int) {
	endpoint := fmt.Sprintf("http://%s/mcp", cfg.HTTP.Addr())

	titleColor.Fprintf(w, "%s %s\n", cfg.Server.Name, cfg.Server.Version)
	fmt.Fprintf(w, "  MCP endpoint:  %s\n", urlColor.Sprint(endpoint))
	fmt.Fprintf(w, "  AnkiConnect:   %s\n", cfg.AnkiConnect.URL)
	fmt.Fprintf(w, "  Tools enabled: %d\n", tools)
	dimColor.Fprintf(w, "  health at /healthz, metrics at /metrics\n\n")
}
