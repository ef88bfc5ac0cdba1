package prompts

import (
	"bufio"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Argument describes one prompt argument.
type Argument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// header is the YAML frontmatter of a template file.
type header struct {
	Name        string     `yaml:"name"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Arguments   []Argument `yaml:"arguments"`
}

// splitFrontmatter separates the leading "---" delimited YAML block from the
// body. Content without frontmatter yields a zero header.
func splitFrontmatter(content string) (header, string, error) {
	var h header
	content = strings.ReplaceAll(content, "\r\n", "\n")

	if !strings.HasPrefix(content, "---\n") {
		return h, content, nil
	}

	// The leading newline lets an empty block close on the next line.
	rest := "\n" + content[4:]
	var yamlContent, body string
	if end := strings.Index(rest, "\n---\n"); end >= 0 {
		yamlContent = rest[:end]
		body = rest[end+5:]
	} else if strings.HasSuffix(rest, "\n---") {
		yamlContent = rest[:len(rest)-4]
	} else {
		return h, content, fmt.Errorf("unterminated frontmatter")
	}

	if err := yaml.Unmarshal([]byte(yamlContent), &h); err != nil {
		return h, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	return h, body, nil
}

// sections splits markdown into its H1 sections keyed by heading text.
// Text before the first heading is dropped. Fenced code blocks are not
// scanned for headings.
func sections(markdown string) map[string]string {
	out := make(map[string]string)

	var (
		current string
		buf     strings.Builder
		inFence bool
		started bool
	)
	flush := func() {
		if started {
			out[current] = strings.TrimSpace(buf.String())
		}
		buf.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			flush()
			current = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			started = true
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()

	return out
}
