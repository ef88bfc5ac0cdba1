// Package main implements the MCP server for Anki via AnkiConnect.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/config"
	"github.com/taigrr/anki-mcp/internal/logging"
	"github.com/taigrr/anki-mcp/internal/server"
)

type flags struct {
	stdio      bool
	configFile string
}

func main() {
	var f flags

	cmd := &cobra.Command{
		Use:   "anki-mcp",
		Short: "MCP bridge for Anki",
		Long: `anki-mcp is a Model Context Protocol (MCP) server that drives a local
Anki installation through the AnkiConnect add-on. It lets any
MCP-compatible AI harness run spaced repetition reviews, manage
decks, note types, notes and media, and control the Anki GUI.`,
		Example: `anki-mcp --stdio
anki-mcp --port 3000 --anki-connect http://localhost:8765`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&f.stdio, "stdio", false, "serve over stdin/stdout instead of HTTP")
	fl.StringVar(&f.configFile, "config", "", "path to a YAML config file")
	fl.String("host", "127.0.0.1", "HTTP listen host")
	fl.Int("port", 3000, "HTTP listen port")
	fl.StringP("anki-connect", "a", "http://localhost:8765", "AnkiConnect URL")
	fl.String("log-level", "info", "log level (debug, info, warn, error)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(
		ctx,
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		stop()
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(config.Options{
		ConfigFile: f.configFile,
		Flags:      cmd.Flags(),
		Version:    version,
	})
	if err != nil {
		return err
	}

	// stdout carries the protocol in stdio mode.
	var logOut io.Writer = os.Stdout
	if f.stdio {
		logOut = os.Stderr
	}
	logger := logging.New(cfg.Log, logOut)

	anki := ankiconnect.New(cfg.AnkiConnect, logger)
	srv, err := server.New(cfg, anki, logger)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	if f.stdio {
		return srv.RunStdio(cmd.Context())
	}

	printBanner(os.Stderr, cfg, len(srv.Tools()))
	return srv.ListenAndServe(cmd.Context())
}
