package tools

import (
	"context"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// progressTotal is the denominator of every checkpoint.
const progressTotal = 100

// Progress receives checkpoints out of total while a tool runs.
type Progress interface {
	Report(ctx context.Context, progress, total int)
}

type nopProgress struct{}

func (nopProgress) Report(context.Context, int, int) {}

// sessionProgress forwards checkpoints to the calling client as progress
// notifications. Values lower than the last one sent are dropped.
type sessionProgress struct {
	session *mcp.ServerSession
	token   any
	logger  *slog.Logger

	mu   sync.Mutex
	last int
}

func newProgress(req *mcp.CallToolRequest, logger *slog.Logger) Progress {
	if req == nil || req.Session == nil || req.Params == nil {
		return nopProgress{}
	}
	token := req.Params.GetProgressToken()
	if token == nil {
		return nopProgress{}
	}
	return &sessionProgress{session: req.Session, token: token, logger: logger, last: -1}
}

func (p *sessionProgress) Report(ctx context.Context, progress, total int) {
	p.mu.Lock()
	if progress < p.last {
		p.mu.Unlock()
		return
	}
	p.last = progress
	p.mu.Unlock()

	err := p.session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
		ProgressToken: p.token,
		Progress:      float64(progress),
		Total:         float64(total),
	})
	if err != nil {
		p.logger.Debug("failed to send progress notification", "progress", progress, "error", err)
	}
}

// step reports progress out of progressTotal.
func step(ctx context.Context, p Progress, progress int) {
	p.Report(ctx, progress, progressTotal)
}
