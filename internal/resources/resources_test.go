package resources

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestEnvName(t *testing.T) {
	tests := []struct {
		uri    string
		want   string
		wantOK bool
	}{
		{"env://home", "HOME", true},
		{"env://Anki_Connect_URL", "ANKI_CONNECT_URL", true},
		{"env://", "", false},
		{"system://info", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, ok := EnvName(tt.uri)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("EnvName(%q) = %q, %v, want %q, %v", tt.uri, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func connect(t *testing.T, opts Options) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "test"}, nil)
	Install(server, opts)

	st, ct := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil).Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestSystemInfo(t *testing.T) {
	cs := connect(t, Options{ServerName: "anki-mcp", ServerVersion: "1.2.3", AnkiConnectURL: "http://localhost:8765"})

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: SystemInfoURI})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].MIMEType != "application/json" {
		t.Fatalf("Contents = %+v", res.Contents)
	}

	var info SystemInfo
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &info); err != nil {
		t.Fatalf("system info is not JSON: %v", err)
	}
	if info.Platform != runtime.GOOS || info.Arch != runtime.GOARCH || info.CPUs < 1 {
		t.Errorf("info = %+v", info)
	}
	if info.ServerVersion != "1.2.3" || info.AnkiConnectURL != "http://localhost:8765" {
		t.Errorf("server fields = %q, %q", info.ServerVersion, info.AnkiConnectURL)
	}
}

func TestEnvResource(t *testing.T) {
	env := map[string]string{"DECK": "Spanish", "EMPTY": ""}
	cs := connect(t, Options{LookupEnv: func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}})

	tests := []struct {
		uri  string
		want string
	}{
		{"env://deck", "Spanish"},
		{"env://EMPTY", ""},
		{"env://missing", "undefined"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: tt.uri})
			if err != nil {
				t.Fatalf("ReadResource: %v", err)
			}
			got := res.Contents[0]
			if got.Text != tt.want || got.MIMEType != "text/plain" || got.URI != tt.uri {
				t.Errorf("contents = %+v, want text %q", got, tt.want)
			}
		})
	}
}

func TestListing(t *testing.T) {
	cs := connect(t, Options{})
	ctx := context.Background()

	list, err := cs.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(list.Resources) != 1 || list.Resources[0].URI != SystemInfoURI {
		t.Errorf("Resources = %+v", list.Resources)
	}

	templates, err := cs.ListResourceTemplates(ctx, nil)
	if err != nil {
		t.Fatalf("ListResourceTemplates: %v", err)
	}
	if len(templates.ResourceTemplates) != 1 || templates.ResourceTemplates[0].URITemplate != EnvTemplate {
		t.Errorf("ResourceTemplates = %+v", templates.ResourceTemplates)
	}
}
