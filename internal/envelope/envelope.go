// Package envelope builds the uniform success and error objects every tool
// returns.
package envelope

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/taigrr/anki-mcp/internal/ankiconnect"
)

// DefaultHint is attached to error envelopes that do not carry a more
// specific remediation.
const DefaultHint = "Make sure Anki is running and AnkiConnect is installed"

// Fields are the operation-specific members of an envelope.
type Fields map[string]any

// Envelope is a tool result. It always has a boolean "success"; error
// envelopes always have a non-empty "error" and a "hint".
type Envelope map[string]any

// Success builds {success: true, ...fields}.
func Success(fields Fields) Envelope {
	e := make(Envelope, len(fields)+1)
	for k, v := range fields {
		e[k] = v
	}
	e["success"] = true
	return e
}

// Failure builds an error envelope from err. The action of a classified
// AnkiConnect error is included; fields may override anything except
// success and error.
func Failure(err error, fields Fields) Envelope {
	msg := "Unknown error occurred"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	e := make(Envelope, len(fields)+4)
	var ae *ankiconnect.Error
	if errors.As(err, &ae) {
		if ae.Action != "" {
			e["action"] = ae.Action
		}
	}
	for k, v := range fields {
		e[k] = v
	}
	e["success"] = false
	e["error"] = msg
	if hint, _ := e["hint"].(string); hint == "" {
		e["hint"] = DefaultHint
	}
	return e
}

// Invalid builds an error envelope for a local validation failure.
func Invalid(message, hint string, fields Fields) Envelope {
	merged := Fields{"hint": hint}
	for k, v := range fields {
		merged[k] = v
	}
	return Failure(errors.New(message), merged)
}

// OK reports whether e is a success envelope.
func (e Envelope) OK() bool {
	ok, _ := e["success"].(bool)
	return ok
}

// Error returns the error message of a failure envelope.
func (e Envelope) Error() string {
	msg, _ := e["error"].(string)
	return msg
}

// Hint returns the hint, if any.
func (e Envelope) Hint() string {
	hint, _ := e["hint"].(string)
	return hint
}

// Message returns the message, if any.
func (e Envelope) Message() string {
	msg, _ := e["message"].(string)
	return msg
}

// JSON renders e indented by two spaces.
func (e Envelope) JSON() string {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		fallback, _ := json.Marshal(map[string]any{
			"success": false,
			"error":   "failed to encode result: " + err.Error(),
			"hint":    DefaultHint,
		})
		return string(fallback)
	}
	return string(data)
}

// Contains reports whether err's message contains any of substrs,
// case-insensitively. Tools use it to pick friendlier hints.
func Contains(err error, substrs ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	var ae *ankiconnect.Error
	if errors.As(err, &ae) && ae.Cause != "" {
		msg += " " + strings.ToLower(ae.Cause)
	}
	for _, s := range substrs {
		if strings.Contains(msg, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
