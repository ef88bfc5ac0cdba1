// Package tools implements the MCP tools that drive Anki through
// AnkiConnect. Every tool validates its arguments against the declared
// input schema, performs a short fixed sequence of AnkiConnect calls and
// answers with an envelope.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
	"github.com/taigrr/anki-mcp/internal/envelope"
	"github.com/taigrr/anki-mcp/internal/logging"
	"github.com/taigrr/anki-mcp/internal/metrics"
	"github.com/taigrr/anki-mcp/internal/toolfilter"
)

// Tool groups.
const (
	GroupReview  = "review"
	GroupModels  = "models"
	GroupNotes   = "notes"
	GroupMedia   = "media"
	GroupGUI     = "gui"
	GroupUtility = "utility"
)

// Tool is one registration table entry.
type Tool struct {
	Name        string
	Description string
	Group       string
	ReadOnly    bool
	Schema      *jsonschema.Schema

	resolved *jsonschema.Resolved
	run      func(ctx context.Context, args json.RawMessage, p Progress) envelope.Envelope
}

type option func(*Tool)

// readOnly marks a tool that never changes the collection.
func readOnly() option {
	return func(t *Tool) { t.ReadOnly = true }
}

// intRange bounds an integer property.
func intRange(property string, lo, hi float64) option {
	return func(t *Tool) {
		if s := t.Schema.Properties[property]; s != nil {
			s.Minimum = &lo
			s.Maximum = &hi
		}
	}
}

// enum restricts a property to the given values.
func enum(property string, values ...any) option {
	return func(t *Tool) {
		if s := t.Schema.Properties[property]; s != nil {
			s.Enum = values
		}
	}
}

// minItems requires at least n elements in an array property.
func minItems(property string, n int) option {
	return func(t *Tool) {
		if s := t.Schema.Properties[property]; s != nil {
			s.MinItems = &n
		}
	}
}

// minLength requires a non-empty string property.
func minLength(property string, n int) option {
	return func(t *Tool) {
		if s := t.Schema.Properties[property]; s != nil {
			s.MinLength = &n
		}
	}
}

// allowUnknownProperties lifts the closed-object rule jsonschema.For puts on
// structs. Unknown keys are then dropped when the arguments are decoded.
// Map value schemas are left alone.
func allowUnknownProperties(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if s.AdditionalProperties != nil && s.AdditionalProperties.Not != nil {
		s.AdditionalProperties = nil
	}
	for _, prop := range s.Properties {
		allowUnknownProperties(prop)
	}
	allowUnknownProperties(s.Items)
	allowUnknownProperties(s.AdditionalProperties)
}

// define builds a Tool whose schema is inferred from In. It panics on a
// schema that cannot be inferred, which is a programming error.
func define[In any](name, group, description string, fn func(context.Context, In, Progress) envelope.Envelope, opts ...option) Tool {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot infer schema for %s: %v", name, err))
	}

	t := Tool{
		Name:        name,
		Description: description,
		Group:       group,
		Schema:      schema,
	}
	allowUnknownProperties(schema)
	for _, opt := range opts {
		opt(&t)
	}

	t.resolved, err = schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot resolve schema for %s: %v", name, err))
	}

	t.run = func(ctx context.Context, args json.RawMessage, p Progress) envelope.Envelope {
		var in In
		if err := json.Unmarshal(args, &in); err != nil {
			return envelope.Invalid("Invalid arguments: "+err.Error(), "Check the tool input schema", nil)
		}
		return fn(ctx, in, p)
	}
	return t
}

// Call validates args against the schema and runs the tool. Validation
// failures come back as error envelopes without touching AnkiConnect.
func (t Tool) Call(ctx context.Context, args json.RawMessage, p Progress) envelope.Envelope {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	if p == nil {
		p = nopProgress{}
	}

	var instance map[string]any
	if err := json.Unmarshal(args, &instance); err != nil {
		return envelope.Invalid("Invalid arguments: expected a JSON object", "Check the tool input schema", nil)
	}
	if err := t.resolved.Validate(instance); err != nil {
		return envelope.Invalid("Invalid arguments: "+err.Error(), "Check the tool input schema", nil)
	}
	return t.run(ctx, args, p)
}

// handlers holds what every tool needs. Tools keep no other state.
type handlers struct {
	anki   ankiconnect.Invoker
	logger *slog.Logger
}

// Registry is the complete tool table.
type Registry struct {
	tools  []Tool
	logger *slog.Logger
}

// New builds the registry around one shared Invoker.
func New(anki ankiconnect.Invoker, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{anki: anki, logger: logger.With("component", "tools")}

	var all []Tool
	all = append(all, h.reviewTools()...)
	all = append(all, h.modelTools()...)
	all = append(all, h.noteTools()...)
	all = append(all, h.mediaTools()...)
	all = append(all, h.guiTools()...)
	all = append(all, h.utilityTools()...)

	return &Registry{tools: all, logger: h.logger}
}

// Tools returns the table in registration order.
func (r *Registry) Tools() []Tool {
	return append([]Tool(nil), r.tools...)
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Install adds every tool the filter allows to server and returns their
// names. A nil filter installs everything.
func (r *Registry) Install(server *mcp.Server, filter *toolfilter.Filter) []string {
	var installed []string
	for _, t := range r.tools {
		if !filter.IsAllowed(t.Group, t.Name) {
			r.logger.Debug("tool disabled by filter", "tool", t.Name)
			continue
		}
		server.AddTool(&mcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: t.ReadOnly},
		}, r.handler(t))
		installed = append(installed, t.Name)
	}
	return installed
}

func (r *Registry) handler(t Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
		log := logging.From(ctx, r.logger).With("tool", t.Name)

		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		start := time.Now()
		env := t.Call(ctx, args, newProgress(req, log))
		elapsed := time.Since(start)

		outcome := "success"
		if !env.OK() {
			outcome = "error"
			log.Info("tool call failed", "error", env.Error(), "duration", elapsed)
		} else {
			log.Debug("tool call succeeded", "duration", elapsed)
		}
		metrics.ToolCalls.WithLabelValues(t.Name, outcome).Inc()
		metrics.ToolCallDuration.WithLabelValues(t.Name).Observe(elapsed.Seconds())

		return Result(env), nil
	}
}

// Result renders env as MCP text content. Error envelopes set IsError.
func Result(env envelope.Envelope) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: env.JSON()}},
		IsError: !env.OK(),
	}
}
