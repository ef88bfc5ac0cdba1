// Package metrics provides Prometheus metrics for anki-mcp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "anki_mcp"

var (
	// AnkiConnectRequests counts AnkiConnect invocations by action and outcome.
	// Outcome is "success" or the classified error kind.
	AnkiConnectRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ankiconnect_requests_total",
			Help:      "Total number of AnkiConnect invocations",
		},
		[]string{"action", "outcome"},
	)

	// AnkiConnectDuration tracks AnkiConnect invocation latency including retries.
	AnkiConnectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ankiconnect_request_duration_seconds",
			Help:      "AnkiConnect invocation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// AnkiConnectRetries counts retried attempts.
	AnkiConnectRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ankiconnect_retries_total",
			Help:      "Total number of retried AnkiConnect attempts",
		},
		[]string{"action"},
	)

	// ToolCalls counts MCP tool calls by tool and outcome ("success" or "error").
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of MCP tool calls",
		},
		[]string{"tool", "outcome"},
	)

	// ToolCallDuration tracks MCP tool call duration.
	ToolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)
