// Package server assembles the MCP server and runs it over stdio or
// streamable HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/config"
	"github.com/taigrr/anki-mcp/internal/prompts"
	"github.com/taigrr/anki-mcp/internal/resources"
	"github.com/taigrr/anki-mcp/internal/toolfilter"
	"github.com/taigrr/anki-mcp/internal/tools"
)

const instructions = `This server drives a local Anki installation through the AnkiConnect add-on.

For review sessions: sync first, pick a deck with list_decks, fetch cards with get_due_cards, show each card with present_card (question first, then show_answer), agree on a rating with the user and record it with rate_card, and sync again at the end. The anki_review prompt describes the workflow in detail.

For card creation: check note types with modelNames and modelFieldNames, then use addNote. The twenty_rules prompt has guidance on writing good cards.

GUI tools (gui*) open windows in the Anki desktop app. Only use them when the user explicitly asks.`

const shutdownTimeout = 10 * time.Second

// Server is the assembled MCP server.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	mcp    *mcp.Server
	tools  []string
}

// New builds the MCP server with every allowed tool, the prompts and the
// resources installed.
func New(cfg *config.Config, anki ankiconnect.Invoker, logger *slog.Logger) (*Server, error) {
	filter, err := toolfilter.New(cfg.Tools)
	if err != nil {
		return nil, err
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
		Logger:       logger.With("component", "mcp"),
	})

	installed := tools.New(anki, logger).Install(srv, filter)
	if len(installed) == 0 {
		return nil, errors.New("tool filter disabled every tool")
	}

	loaded, err := prompts.Load()
	if err != nil {
		return nil, err
	}
	prompts.Install(srv, loaded, logger)

	resources.Install(srv, resources.Options{
		ServerName:     cfg.Server.Name,
		ServerVersion:  cfg.Server.Version,
		AnkiConnectURL: cfg.AnkiConnect.URL,
	})

	logger.Debug("server assembled", "tools", len(installed), "prompts", len(loaded))
	return &Server{cfg: cfg, logger: logger, mcp: srv, tools: installed}, nil
}

// Tools returns the names of the installed tools.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// RunStdio serves a single session over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving over stdio", "tools", len(s.tools))
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}

// ListenAndServe serves streamable HTTP on the configured address until ctx
// is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTP.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving streamable HTTP", "addr", httpServer.Addr, "tools", len(s.tools))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
