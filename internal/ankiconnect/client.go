// Package ankiconnect is the client for the AnkiConnect HTTP API, the
// JSON-RPC style interface the AnkiConnect plugin exposes inside Anki.
package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/taigrr/anki-mcp/internal/config"
	"github.com/taigrr/anki-mcp/internal/logging"
	"github.com/taigrr/anki-mcp/internal/metrics"
)

// Request is the body of every AnkiConnect call.
type Request struct {
	Action  string         `json:"action"`
	Version int            `json:"version"`
	Params  map[string]any `json:"params,omitempty"`
	Key     string         `json:"key,omitempty"`
}

// Response is the body AnkiConnect answers with. A non-empty Error means
// failure even when Result is set.
type Response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Invoker performs one AnkiConnect action. Result is the raw "result" value;
// failures are *Error.
type Invoker interface {
	Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error)
}

// retryableStatuses are retried for POST; everything else fails on the
// first attempt.
var retryableStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusRequestEntityTooLarge,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

type actionKey struct{}

// Client talks to a single AnkiConnect endpoint. It is safe for concurrent
// use; only its configuration is shared between calls.
type Client struct {
	url     string
	version int
	key     string
	timeout time.Duration
	http    *retryablehttp.Client
	logger  *slog.Logger
}

// New creates a Client from cfg. A nil logger uses slog.Default().
func New(cfg config.AnkiConnectConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ankiconnect")

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt == 0 {
			return
		}
		action, _ := req.Context().Value(actionKey{}).(string)
		metrics.AnkiConnectRetries.WithLabelValues(action).Inc()
		logger.Debug("retrying AnkiConnect request", "action", action, "attempt", attempt)
	}

	return &Client{
		url:     cfg.URL,
		version: cfg.APIVersion,
		key:     cfg.APIKey,
		timeout: cfg.Timeout,
		http:    rc,
		logger:  logger,
	}
}

// checkRetry retries only allow-listed statuses. Transport errors surface
// immediately.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil || resp == nil {
		return false, nil
	}
	return slices.Contains(retryableStatuses, resp.StatusCode), nil
}

func (c *Client) newRequest(action string, params map[string]any) Request {
	return Request{
		Action:  action,
		Version: c.version,
		Params:  params,
		Key:     c.key,
	}
}

// Invoke runs action with params and returns AnkiConnect's result unchanged.
func (c *Client) Invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.invoke(ctx, action, params)

	outcome := "success"
	if err != nil {
		outcome = classify(action, err, c.timeout).Kind.String()
	}
	metrics.AnkiConnectRequests.WithLabelValues(action, outcome).Inc()
	metrics.AnkiConnectDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

	return result, err
}

func (c *Client) invoke(ctx context.Context, action string, params map[string]any) (json.RawMessage, error) {
	log := logging.From(ctx, c.logger).With("action", action)

	body, err := json.Marshal(c.newRequest(action, params))
	if err != nil {
		return nil, classify(action, err, c.timeout)
	}

	req, err := retryablehttp.NewRequestWithContext(context.WithValue(ctx, actionKey{}, action), http.MethodPost, c.url, body)
	if err != nil {
		return nil, classify(action, err, c.timeout)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("invoking AnkiConnect", "params", paramKeys(params))

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		ae := classify(action, err, c.timeout)
		log.Warn("AnkiConnect request failed", "kind", ae.Kind.String(), "error", err)
		return nil, ae
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		ae := statusError(action, resp.StatusCode)
		log.Warn("AnkiConnect returned HTTP error", "status", resp.StatusCode)
		return nil, ae
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(action, err, c.timeout)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &Error{
			Kind:    KindUnexpected,
			Message: "Unexpected error: invalid response from AnkiConnect: " + err.Error(),
			Action:  action,
			Err:     err,
		}
	}
	if out.Error != nil && *out.Error != "" {
		log.Debug("AnkiConnect reported an error", "cause", *out.Error)
		return nil, NewError(action, *out.Error)
	}

	log.Debug("AnkiConnect call succeeded", "bytes", len(data))
	if len(bytes.TrimSpace(out.Result)) == 0 {
		return json.RawMessage("null"), nil
	}
	return out.Result, nil
}

func paramKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Call invokes action and decodes the result into T. A null result yields the
// zero T, so callers that must tell null apart should use a pointer type.
func Call[T any](ctx context.Context, inv Invoker, action string, params map[string]any) (T, error) {
	var out T
	raw, err := inv.Invoke(ctx, action, params)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{
			Kind:    KindUnexpected,
			Message: fmt.Sprintf("Unexpected error: cannot decode %s result: %v", action, err),
			Action:  action,
			Err:     err,
		}
	}
	return out, nil
}
