// Package prompts serves the MCP prompts bundled with the server. Each prompt
// is a markdown template with YAML frontmatter under templates/.
package prompts

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed templates/*.md
var templates embed.FS

// Prompt is one parsed template.
type Prompt struct {
	Name        string
	Title       string
	Description string
	Arguments   []Argument

	text string
	tmpl *template.Template
}

// Load parses every embedded template, sorted by name.
func Load() ([]*Prompt, error) {
	return load(templates, "templates")
}

func load(fsys fs.FS, dir string) ([]*Prompt, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt templates: %w", err)
	}

	var prompts []*Prompt
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		p, err := parse(strings.TrimSuffix(entry.Name(), ".md"), string(data))
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", entry.Name(), err)
		}
		prompts = append(prompts, p)
	}

	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts, nil
}

// parse builds a Prompt from a template file. A body with a "# Content"
// section takes its text from it, and its description from "# Description"
// when present.
func parse(fallbackName, content string) (*Prompt, error) {
	h, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	p := &Prompt{
		Name:        h.Name,
		Title:       h.Title,
		Description: h.Description,
		Arguments:   h.Arguments,
	}
	if p.Name == "" {
		p.Name = fallbackName
	}

	if s := sections(body); s["Content"] != "" {
		body = s["Content"]
		if d := s["Description"]; d != "" {
			p.Description = d
		}
	}

	// Prompts without arguments are served verbatim, so their text may
	// contain literal "{{".
	p.text = strings.TrimSpace(body)
	if len(p.Arguments) == 0 {
		return p, nil
	}
	p.tmpl, err = template.New(p.Name).Option("missingkey=zero").Parse(p.text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return p, nil
}

// Render fills the template with args. Required arguments must be non-empty.
func (p *Prompt) Render(args map[string]string) (string, error) {
	data := make(map[string]string, len(p.Arguments))
	for _, arg := range p.Arguments {
		value := args[arg.Name]
		if arg.Required && strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("missing required argument %q", arg.Name)
		}
		data[arg.Name] = value
	}
	if p.tmpl == nil {
		return p.text, nil
	}

	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", p.Name, err)
	}
	return sb.String(), nil
}

// Install registers prompts on server.
func Install(server *mcp.Server, prompts []*Prompt, logger *slog.Logger) {
	for _, p := range prompts {
		args := make([]*mcp.PromptArgument, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			args = append(args, &mcp.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required})
		}
		server.AddPrompt(&mcp.Prompt{
			Name:        p.Name,
			Title:       p.Title,
			Description: p.Description,
			Arguments:   args,
		}, handler(p, logger))
	}
}

func handler(p *Prompt, logger *slog.Logger) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		text, err := p.Render(args)
		if err != nil {
			logger.Debug("prompt rejected", "prompt", p.Name, "error", err)
			return nil, err
		}

		return &mcp.GetPromptResult{
			Description: p.Description,
			Messages: []*mcp.PromptMessage{{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			}},
		}, nil
	}
}
