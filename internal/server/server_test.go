package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/anki-mcp/internal/ankiconnect/ankiconnecttest"
	"github.com/taigrr/anki-mcp/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AnkiConnect: config.AnkiConnectConfig{URL: "http://localhost:8765"},
		Server:      config.ServerConfig{Name: "anki-mcp", Version: "test"},
		HTTP:        config.HTTPConfig{Host: "127.0.0.1", Port: 3000, AllowedOrigins: []string{"https://*.example.com"}},
		Log:         config.LogConfig{Level: "info", Format: "text"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, ankiconnecttest.New().Result("deckNames", []string{"Default", "Spanish"}), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_FilterDisablesEverything(t *testing.T) {
	cfg := testConfig()
	cfg.Tools = config.ToolsConfig{Allow: []string{"nothing-matches-this"}}

	if _, err := New(cfg, ankiconnecttest.New(), testLogger()); err == nil {
		t.Error("New() error = nil, want error when no tool is enabled")
	}
}

func TestNew_InstallsFilteredTools(t *testing.T) {
	cfg := testConfig()
	cfg.Tools = config.ToolsConfig{Deny: []string{"gui*"}}

	s := newTestServer(t, cfg)
	names := s.Tools()
	if !slices.Contains(names, "list_decks") || !slices.Contains(names, "echo") {
		t.Errorf("Tools() = %v, want list_decks and echo", names)
	}
	for _, name := range names {
		if strings.HasPrefix(name, "gui") {
			t.Errorf("Tools() contains denied tool %q", name)
		}
	}
}

func TestIsLoopbackOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:3000", true},
		{"http://LOCALHOST", true},
		{"http://127.0.0.1:8080", true},
		{"http://127.1.2.3", true},
		{"http://[::1]:3000", true},
		{"https://example.com", false},
		{"http://localhost.evil.com", false},
		{"http://10.0.0.1", false},
		{"null", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := isLoopbackOrigin(tt.origin); got != tt.want {
				t.Errorf("isLoopbackOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestHandler_Origin(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	tests := []struct {
		name       string
		origin     string
		wantReject bool
	}{
		{"no origin", "", false},
		{"loopback", "http://localhost:5173", false},
		{"allowed pattern", "https://app.example.com", false},
		{"foreign", "https://evil.test", true},
		{"opaque", "null", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			rejected := rec.Code == http.StatusForbidden
			if rejected != tt.wantReject {
				t.Errorf("status = %d, wantReject %v", rec.Code, tt.wantReject)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID header not set")
			}
		})
	}
}

func TestHandler_Health(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "ok" || body["name"] != "anki-mcp" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
	if body["tools"] != float64(len(s.Tools())) {
		t.Errorf("tools = %v, want %d", body["tools"], len(s.Tools()))
	}
}

func TestHandler_Metrics(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `anki_mcp_http_requests_total{method="GET",path="/healthz",status="200"}`) {
		t.Error("metrics output does not count the /healthz request")
	}
}

func TestHandler_StreamableRoundTrip(t *testing.T) {
	s := newTestServer(t, testConfig())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	if got := cs.InitializeResult().ServerInfo.Name; got != "anki-mcp" {
		t.Errorf("server name = %q, want anki-mcp", got)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "list_decks", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("list_decks returned an error result: %+v", res.Content)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "Spanish") {
		t.Errorf("list_decks result = %s, want it to mention Spanish", text)
	}

	prompts, err := cs.ListPrompts(ctx, nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(prompts.Prompts) == 0 {
		t.Error("no prompts served over HTTP")
	}

	if _, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "system://info"}); err != nil {
		t.Errorf("ReadResource(system://info): %v", err)
	}
}
