package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/envelope"
	"github.com/taigrr/anki-mcp/internal/logging"
	"github.com/taigrr/anki-mcp/internal/types"
)

const fieldNamesHint = "Use these field names as keys when creating notes with addNote tool"

var (
	basicModels = []string{"Basic", "Basic (and reversed card)", "Basic (type in the answer)", "Basic (optional reversed card)"}

	fieldRefPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
	rtlPattern      = regexp.MustCompile(`(?i)direction\s*:\s*rtl`)

	// specialFields are template references Anki resolves itself.
	specialFields = []string{"FrontSide", "Tags", "Type", "Deck", "Subdeck", "Card", "CardFlag", "CardID"}
)

// createdModel is the part of a createModel result the tool reports.
type createdModel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *handlers) modelTools() []Tool {
	return []Tool{
		define("modelNames", GroupModels,
			"List the names of all note types (models) in the collection and point out the common built-in ones.",
			h.modelNames, readOnly()),
		define("modelFieldNames", GroupModels,
			"Get the field names of a note type. Use this before addNote to know which keys the fields object needs.",
			h.modelFieldNames, readOnly(), minLength("modelName", 1)),
		define("modelStyling", GroupModels,
			"Get the CSS styling of a note type along with a summary of which card elements it styles.",
			h.modelStyling, readOnly(), minLength("modelName", 1)),
		define("updateModelStyling", GroupModels,
			"Replace the CSS styling of a note type. The change applies to every card using the model.",
			h.updateModelStyling, minLength("modelName", 1)),
		define("createModel", GroupModels,
			"Create a new note type with the given fields, card templates and optional CSS. Template references to unknown fields are reported as warnings.",
			h.createModel, minLength("modelName", 1), minItems("inOrderFields", 1), minItems("cardTemplates", 1)),
	}
}

func (h *handlers) modelNames(ctx context.Context, _ EmptyInput, p Progress) envelope.Envelope {
	step(ctx, p, 25)
	names, err := ankiconnect.Call[[]string](ctx, h.anki, "modelNames", nil)
	if err != nil {
		return envelope.Failure(err, nil)
	}
	step(ctx, p, 75)

	if len(names) == 0 {
		step(ctx, p, 100)
		return envelope.Success(envelope.Fields{
			"modelNames": []string{},
			"total":      0,
			"message":    "No note types found in Anki",
		})
	}

	find := func(name string) *string {
		if slices.Contains(names, name) {
			return &name
		}
		return nil
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"modelNames": names,
		"total":      len(names),
		"message":    fmt.Sprintf("Found %d note types", len(names)),
		"commonTypes": types.CommonModels{
			Basic:         find("Basic"),
			BasicReversed: find("Basic (and reversed card)"),
			Cloze:         find("Cloze"),
		},
	})
}

func (h *handlers) modelFieldNames(ctx context.Context, in ModelNameInput, p Progress) envelope.Envelope {
	step(ctx, p, 25)
	names, err := ankiconnect.Call[*[]string](ctx, h.anki, "modelFieldNames", map[string]any{"modelName": in.ModelName})
	if err != nil {
		return envelope.Failure(err, envelope.Fields{
			"modelName": in.ModelName,
			"hint":      "Make sure the model name is correct and Anki is running",
		})
	}
	if names == nil {
		return envelope.Invalid(fmt.Sprintf("Model %q not found", in.ModelName),
			"Use modelNames tool to see available models", envelope.Fields{"modelName": in.ModelName})
	}
	step(ctx, p, 75)

	fields := *names
	var message string
	switch len(fields) {
	case 0:
		message = fmt.Sprintf("Model %q has no fields", in.ModelName)
	case 1:
		message = fmt.Sprintf("Model %q has 1 field", in.ModelName)
	default:
		message = fmt.Sprintf("Model %q has %d fields", in.ModelName, len(fields))
	}

	out := envelope.Fields{
		"modelName":  in.ModelName,
		"fieldNames": fields,
		"total":      len(fields),
		"message":    message,
	}
	switch {
	case slices.Contains(basicModels, in.ModelName):
		out["example"] = map[string]string{
			"Front": "Question or prompt text",
			"Back":  "Answer or response text",
		}
		out["hint"] = fieldNamesHint
	case in.ModelName == "Cloze":
		out["example"] = map[string]string{
			"Text":  "The {{c1::hidden}} text will be replaced with [...] on the card",
			"Extra": "Additional information or hints",
		}
		out["hint"] = fieldNamesHint
	}
	step(ctx, p, 100)

	return envelope.Success(out)
}

func (h *handlers) modelStyling(ctx context.Context, in ModelNameInput, p Progress) envelope.Envelope {
	step(ctx, p, 25)
	styling, err := ankiconnect.Call[*types.ModelStyling](ctx, h.anki, "modelStyling", map[string]any{"modelName": in.ModelName})
	if err != nil {
		return envelope.Failure(err, envelope.Fields{
			"modelName": in.ModelName,
			"hint":      "Make sure the model name is correct and Anki is running",
		})
	}
	if styling == nil || styling.CSS == "" {
		return envelope.Invalid(fmt.Sprintf("Model %q not found or has no styling", in.ModelName),
			"Use modelNames tool to see available models", envelope.Fields{"modelName": in.ModelName})
	}
	step(ctx, p, 75)

	info := analyzeCSS(styling.CSS, false)
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"modelName": in.ModelName,
		"css":       styling.CSS,
		"cssInfo":   info,
		"message":   fmt.Sprintf("Retrieved CSS styling for model %q", in.ModelName),
	})
}

func (h *handlers) updateModelStyling(ctx context.Context, in UpdateModelStylingInput, p Progress) envelope.Envelope {
	log := logging.From(ctx, h.logger)

	step(ctx, p, 25)
	oldLength := -1
	old, err := ankiconnect.Call[*types.ModelStyling](ctx, h.anki, "modelStyling", map[string]any{"modelName": in.ModelName})
	switch {
	case err != nil:
		log.Debug("could not read current styling", "model", in.ModelName, "error", err)
	case old != nil:
		oldLength = utf8.RuneCountInString(old.CSS)
	}
	step(ctx, p, 50)

	_, err = h.anki.Invoke(ctx, "updateModelStyling", map[string]any{
		"model": map[string]any{"name": in.ModelName, "css": in.CSS},
	})
	if err != nil {
		hint := "Make sure Anki is running and the model name is correct"
		if envelope.Contains(err, "not found") {
			hint = "Model not found. Use modelNames tool to see available models."
		}
		return envelope.Failure(err, envelope.Fields{"modelName": in.ModelName, "hint": hint})
	}
	step(ctx, p, 100)

	length := utf8.RuneCountInString(in.CSS)
	out := envelope.Fields{
		"modelName": in.ModelName,
		"cssLength": length,
		"cssInfo":   analyzeCSS(in.CSS, true),
		"message":   fmt.Sprintf("Successfully updated CSS styling for model %q", in.ModelName),
		"hint":      "The new styling applies to all cards of this model. Sync to push the change to AnkiWeb.",
	}
	if oldLength >= 0 {
		out["oldCssLength"] = oldLength
		out["cssLengthChange"] = length - oldLength
	}
	return envelope.Success(out)
}

// analyzeCSS reports which card elements css styles. RTL detection is only
// included when withRTL is set.
func analyzeCSS(css string, withRTL bool) types.CSSInfo {
	info := types.CSSInfo{
		Length:          utf8.RuneCountInString(css),
		HasCardStyling:  strings.Contains(css, ".card"),
		HasFrontStyling: strings.Contains(css, ".front"),
		HasBackStyling:  strings.Contains(css, ".back"),
		HasClozeStyling: strings.Contains(css, ".cloze"),
	}
	if withRTL {
		rtl := rtlPattern.MatchString(css)
		info.HasRTLSupport = &rtl
	}
	return info
}

func (h *handlers) createModel(ctx context.Context, in CreateModelInput, p Progress) envelope.Envelope {
	for _, f := range in.InOrderFields {
		if strings.TrimSpace(f) == "" {
			return envelope.Invalid("Field names cannot be empty", "Give every entry of inOrderFields a name",
				envelope.Fields{"modelName": in.ModelName})
		}
	}
	warnings := templateWarnings(in.InOrderFields, in.CardTemplates)

	params := map[string]any{
		"modelName":     in.ModelName,
		"inOrderFields": in.InOrderFields,
		"cardTemplates": in.CardTemplates,
		"isCloze":       in.IsCloze,
	}
	if in.CSS != "" {
		params["css"] = in.CSS
	}

	step(ctx, p, 25)
	created, err := ankiconnect.Call[*createdModel](ctx, h.anki, "createModel", params)
	if err != nil {
		hint := "Make sure Anki is running and the templates are valid"
		if envelope.Contains(err, "already exists") {
			hint = fmt.Sprintf("A model named %q already exists. Choose a different name or use modelNames to see existing models.", in.ModelName)
		}
		return envelope.Failure(err, envelope.Fields{"modelName": in.ModelName, "hint": hint})
	}
	if created == nil {
		return envelope.Failure(errors.New("Failed to create model - AnkiConnect returned no model"),
			envelope.Fields{"modelName": in.ModelName})
	}
	step(ctx, p, 75)

	out := envelope.Fields{
		"modelId":       created.ID,
		"modelName":     in.ModelName,
		"fields":        in.InOrderFields,
		"templateCount": len(in.CardTemplates),
		"hasCss":        in.CSS != "",
		"isCloze":       in.IsCloze,
		"message": fmt.Sprintf("Successfully created model %q with %d field(s) and %d card template(s)",
			in.ModelName, len(in.InOrderFields), len(in.CardTemplates)),
		"hint": "Use modelFieldNames to confirm the fields, then addNote to create notes with this model",
	}
	if len(warnings) > 0 {
		out["warnings"] = warnings
	}
	step(ctx, p, 100)

	return envelope.Success(out)
}

// templateWarnings lists template references to fields the model does not
// define. Special fields, conditionals and filters are understood.
func templateWarnings(fields []string, templates []types.CardTemplate) []string {
	var warnings []string
	seen := make(map[string]bool)

	for _, tpl := range templates {
		for _, side := range []string{tpl.Front, tpl.Back} {
			for _, m := range fieldRefPattern.FindAllStringSubmatch(side, -1) {
				ref := fieldReference(m[1])
				if ref == "" || slices.Contains(fields, ref) || slices.Contains(specialFields, ref) {
					continue
				}
				key := tpl.Name + "\x00" + ref
				if seen[key] {
					continue
				}
				seen[key] = true
				warnings = append(warnings, fmt.Sprintf("Template %q references undefined field %q", tpl.Name, ref))
			}
		}
	}
	return warnings
}

// fieldReference strips section markers and filters from the inside of a
// {{...}} tag, e.g. "#Extra" -> "Extra", "text:cloze:Text" -> "Text".
func fieldReference(tag string) string {
	ref := strings.TrimSpace(tag)
	ref = strings.TrimLeft(ref, "#^/")
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		ref = ref[i+1:]
	}
	return strings.TrimSpace(ref)
}
