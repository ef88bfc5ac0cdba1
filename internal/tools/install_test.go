package tools

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/anki-mcp/internal/ankiconnect/ankiconnecttest"
	"github.com/taigrr/anki-mcp/internal/config"
	"github.com/taigrr/anki-mcp/internal/toolfilter"
)

func connect(t *testing.T, reg *Registry, filter *toolfilter.Filter, opts *mcp.ClientOptions) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "anki-mcp-test", Version: "test"}, nil)
	reg.Install(server, filter)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, opts)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestInstall_Filter(t *testing.T) {
	filter, err := toolfilter.New(config.ToolsConfig{
		Allow: []string{"review/*", "notes/*", "echo"},
		Deny:  []string{"deleteNotes", "sync"},
	})
	if err != nil {
		t.Fatalf("toolfilter.New: %v", err)
	}

	reg := New(ankiconnecttest.New(), testLogger())
	cs := connect(t, reg, filter, nil)

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}

	for _, want := range []string{"list_decks", "rate_card", "addNote", "findNotes", "echo"} {
		if !slices.Contains(names, want) {
			t.Errorf("tool %q missing from %v", want, names)
		}
	}
	for _, unwanted := range []string{"sync", "deleteNotes", "mediaActions", "guiBrowse", "modelNames"} {
		if slices.Contains(names, unwanted) {
			t.Errorf("tool %q should be filtered out", unwanted)
		}
	}
}

func TestInstall_CallToolRoundTrip(t *testing.T) {
	anki := ankiconnecttest.New().Result("deckNames", []string{"Default", "Spanish"})
	cs := connect(t, New(anki, testLogger()), nil, nil)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_decks",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("IsError = true: %v", res.Content)
	}

	text := res.Content[0].(*mcp.TextContent).Text
	var got map[string]any
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got["success"] != true || got["total"] != 2.0 {
		t.Errorf("envelope = %v", got)
	}
}

func TestInstall_ErrorEnvelopeSetsIsError(t *testing.T) {
	anki := ankiconnecttest.New()
	cs := connect(t, New(anki, testLogger()), nil, nil)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "deleteNotes",
		Arguments: map[string]any{"notes": []int64{1}},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Error("IsError = false for an unconfirmed deletion")
	}
	if n := anki.CallCount(""); n != 0 {
		t.Errorf("AnkiConnect calls = %d, want 0", n)
	}
}

func TestInstall_ProgressNotifications(t *testing.T) {
	var (
		mu     sync.Mutex
		points []float64
		done   = make(chan struct{})
	)
	opts := &mcp.ClientOptions{
		ProgressNotificationHandler: func(_ context.Context, req *mcp.ProgressNotificationClientRequest) {
			mu.Lock()
			defer mu.Unlock()
			points = append(points, req.Params.Progress)
			if req.Params.Progress == progressTotal {
				close(done)
			}
		},
	}

	anki := ankiconnecttest.New().Result("findNotes", []int64{1, 2})
	cs := connect(t, New(anki, testLogger()), nil, opts)

	params := &mcp.CallToolParams{Name: "findNotes", Arguments: map[string]any{"query": "deck:Default"}}
	params.Meta = mcp.Meta{}
	params.SetProgressToken("find-1")
	if _, err := cs.CallTool(context.Background(), params); err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the final progress notification")
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(points, []float64{25, 75, 100}) {
		t.Errorf("progress notifications = %v, want [25 75 100]", points)
	}
}
