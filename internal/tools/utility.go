package tools

import (
	"context"
	"strings"

	"github.com/taigrr/anki-mcp/internal/envelope"
)

func (h *handlers) utilityTools() []Tool {
	return []Tool{
		define("echo", GroupUtility,
			"Simple echo command that returns the provided message. Useful to check that the server is reachable.",
			h.echo, readOnly()),
	}
}

func (h *handlers) echo(ctx context.Context, in EchoInput, p Progress) envelope.Envelope {
	step(ctx, p, 50)
	msg := in.Message
	if in.Uppercase {
		msg = strings.ToUpper(msg)
	}
	step(ctx, p, 100)

	return envelope.Success(envelope.Fields{
		"echo":    msg,
		"message": "Echo: " + msg,
	})
}
