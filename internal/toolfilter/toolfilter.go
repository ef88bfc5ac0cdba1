// Package toolfilter selects which tools the server exposes.
package toolfilter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/taigrr/anki-mcp/internal/config"
)

// Filter matches tools against allow and deny glob patterns. A pattern is
// tried against the bare tool name and against "<group>/<name>", so
// "gui/**" selects every GUI tool. Deny wins over allow; an empty allow
// list allows everything.
type Filter struct {
	allow []string
	deny  []string
}

// New creates a Filter from cfg. Malformed patterns are rejected.
func New(cfg config.ToolsConfig) (*Filter, error) {
	f := &Filter{}
	for _, p := range cfg.Allow {
		p = normalize(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid tools.allow pattern %q", p)
		}
		f.allow = append(f.allow, p)
	}
	for _, p := range cfg.Deny {
		p = normalize(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid tools.deny pattern %q", p)
		}
		f.deny = append(f.deny, p)
	}
	return f, nil
}

func normalize(p string) string {
	return strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
}

// IsAllowed reports whether the tool name in group should be installed.
// A nil Filter allows everything.
func (f *Filter) IsAllowed(group, name string) bool {
	if f == nil {
		return true
	}
	candidates := []string{name, group + "/" + name}

	if Match(f.deny, candidates...) {
		return false
	}
	if len(f.allow) == 0 {
		return true
	}
	return Match(f.allow, candidates...)
}

// Match reports whether any pattern matches any of the candidates.
func Match(patterns []string, candidates ...string) bool {
	for _, pattern := range patterns {
		for _, c := range candidates {
			if ok, err := doublestar.Match(pattern, c); err == nil && ok {
				return true
			}
		}
	}
	return false
}
