// Package cardcontent turns raw Anki card and note fields into plain text
// suitable for showing in a conversation.
package cardcontent

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/taigrr/anki-mcp/internal/types"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)

	frontFieldNames = []string{"Front", "正面", "Question", "Text"}
	backFieldNames  = []string{"Back", "背面", "Answer", "Extra", "Back Extra"}
)

// CleanHTML strips tags, decodes the common entities and collapses blank
// lines.
func CleanHTML(html string) string {
	s := tagPattern.ReplaceAllString(html, "")
	s = entityReplacer.Replace(s)
	s = blankLinesPattern.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Extract picks the front and back text of a card. Well-known field names
// win; otherwise the first two fields by order are used.
func Extract(fields map[string]types.FieldValue) (front, back string) {
	if len(fields) == 0 {
		return "", ""
	}

	frontFound, backFound := false, false
	for _, name := range frontFieldNames {
		if f, ok := fields[name]; ok {
			front, frontFound = f.Value, true
			break
		}
	}
	for _, name := range backFieldNames {
		if f, ok := fields[name]; ok {
			back, backFound = f.Value, true
			break
		}
	}

	if !frontFound || !backFound {
		ordered := types.CardInfo{Fields: fields}.FieldNames()
		if !frontFound && len(ordered) > 0 {
			front = fields[ordered[0]].Value
		}
		if !backFound && len(ordered) > 1 {
			back = fields[ordered[1]].Value
		}
	}

	return CleanHTML(front), CleanHTML(back)
}

// NoteType classifies a model name as Basic, Basic (and reversed card),
// Cloze or Custom.
func NoteType(modelName string) string {
	lower := strings.ToLower(modelName)
	switch {
	case strings.Contains(lower, "basic") && strings.Contains(lower, "reverse"):
		return "Basic (and reversed card)"
	case strings.Contains(lower, "basic"):
		return "Basic"
	case strings.Contains(lower, "cloze"):
		return "Cloze"
	default:
		return "Custom"
	}
}

// FormatInterval renders a review interval given in days.
func FormatInterval(days float64) string {
	switch {
	case days < 1:
		hours := int(math.Round(days * 24))
		return plural(fmt.Sprint(hours), "hour", hours == 1)
	case days < 30:
		return plural(fmt.Sprint(int(math.Round(days))), "day", days == 1)
	case days < 365:
		months := int(math.Round(days / 30))
		return plural(fmt.Sprint(months), "month", months == 1)
	default:
		years := math.Round(days/365*10) / 10
		return plural(fmt.Sprint(years), "year", years == 1)
	}
}

func plural(n, unit string, one bool) string {
	if one {
		return n + " " + unit
	}
	return n + " " + unit + "s"
}
