package prompts

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestSplitFrontmatter(t *testing.T) {
	content := `---
name: demo
description: A demo prompt
arguments:
  - name: topic
    description: What to talk about
    required: true
---
Talk about {{.topic}}.`

	h, body, err := splitFrontmatter(content)
	if err != nil {
		t.Fatalf("splitFrontmatter() error = %v", err)
	}
	if h.Name != "demo" || h.Description != "A demo prompt" {
		t.Errorf("header = %+v", h)
	}
	if len(h.Arguments) != 1 || h.Arguments[0].Name != "topic" || !h.Arguments[0].Required {
		t.Errorf("Arguments = %+v", h.Arguments)
	}
	if body != "Talk about {{.topic}}." {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_Edges(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantBody string
		wantErr  bool
	}{
		{"no frontmatter", "# Title\n\nText", "# Title\n\nText", false},
		{"frontmatter only", "---\nname: x\n---", "", false},
		{"crlf", "---\r\nname: x\r\n---\r\nbody", "body", false},
		{"empty block", "---\n---", "", false},
		{"empty block with body", "---\n---\nbody", "body", false},
		{"unterminated", "---\nname: x\nbody", "", true},
		{"invalid yaml", "---\nname: [x\n---\nbody", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, err := splitFrontmatter(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitFrontmatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestSections(t *testing.T) {
	markdown := `preamble is dropped

# Description

Short description.

# Content

Line one.

` + "```" + `
# not a heading
` + "```" + `

## Subheading stays
`

	got := sections(markdown)
	if got["Description"] != "Short description." {
		t.Errorf("Description = %q", got["Description"])
	}
	content := got["Content"]
	if !strings.Contains(content, "# not a heading") || !strings.Contains(content, "## Subheading stays") {
		t.Errorf("Content = %q", content)
	}
	if len(got) != 2 {
		t.Errorf("sections = %v, want 2 entries", got)
	}
}

func TestLoad(t *testing.T) {
	prompts, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	byName := make(map[string]*Prompt)
	for _, p := range prompts {
		byName[p.Name] = p
	}
	for _, name := range []string{"anki_review", "code_review", "twenty_rules"} {
		p, ok := byName[name]
		if !ok {
			t.Errorf("prompt %q not loaded", name)
			continue
		}
		if p.Description == "" {
			t.Errorf("prompt %q has no description", name)
		}
	}

	rules := byName["twenty_rules"]
	if rules == nil {
		t.Fatal("twenty_rules not loaded")
	}
	if rules.Description != "Twenty rules of formulating knowledge for effective Anki flashcard creation" {
		t.Errorf("twenty_rules description = %q", rules.Description)
	}
	text, err := rules.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(text, "# Content") || !strings.Contains(text, "{{c1::") {
		t.Errorf("twenty_rules text not taken verbatim from the Content section: %q", text[:min(len(text), 120)])
	}
}

func TestRender_CodeReview(t *testing.T) {
	prompts, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var review *Prompt
	for _, p := range prompts {
		if p.Name == "code_review" {
			review = p
		}
	}
	if review == nil {
		t.Fatal("code_review not loaded")
	}

	tests := []struct {
		name    string
		args    map[string]string
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "all arguments",
			args: map[string]string{"language": "go", "codeSnippet": "func main() {}", "focusAreas": "performance"},
			want: []string{"```go\nfunc main() {}\n```", "Pay special attention to: performance."},
		},
		{
			name:    "without focus areas",
			args:    map[string]string{"language": "go", "codeSnippet": "x := 1"},
			want:    []string{"Review the following go code"},
			notWant: []string{"Pay special attention"},
		},
		{
			name:    "missing snippet",
			args:    map[string]string{"language": "go"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := review.Render(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Render() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Render() = %q, want it to contain %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Render() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}

func TestLoad_RejectsBrokenTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"t/broken.md": {Data: []byte("---\nname: broken\narguments:\n  - name: a\n---\n{{.a")},
	}
	if _, err := load(fsys, "t"); err == nil {
		t.Error("load() error = nil, want template parse error")
	}
}

func TestInstall_GetPrompt(t *testing.T) {
	ctx := context.Background()
	prompts, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "test"}, nil)
	Install(server, prompts, slog.New(slog.NewTextHandler(io.Discard, nil)))

	st, ct := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer ss.Close()
	cs, err := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil).Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	list, err := cs.ListPrompts(ctx, nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(list.Prompts) != len(prompts) {
		t.Errorf("ListPrompts returned %d prompts, want %d", len(list.Prompts), len(prompts))
	}

	res, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "anki_review"})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(res.Messages) != 1 || res.Messages[0].Role != "user" {
		t.Fatalf("Messages = %+v", res.Messages)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "rate_card") || !strings.Contains(text, "sync") {
		t.Errorf("anki_review text does not describe the review workflow")
	}

	if _, err := cs.GetPrompt(ctx, &mcp.GetPromptParams{Name: "code_review"}); err == nil {
		t.Error("GetPrompt(code_review) without arguments succeeded")
	}
}
