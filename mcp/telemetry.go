package mcp

import (
	"context"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"

	"pkt.systems/pslog"
)

// telemetry holds the per-server Prometheus registry so tests can construct
// servers without fighting over the global default registry.
type telemetry struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newTelemetry() *telemetry {
	registry := prometheus.NewRegistry()
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deckd",
		Subsystem: "mcp",
		Name:      "tool_calls_total",
		Help:      "Tool calls by tool name and outcome.",
	}, []string{"tool", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "deckd",
		Subsystem: "mcp",
		Name:      "tool_call_duration_seconds",
		Help:      "Tool call latency by tool name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"tool"})
	registry.MustRegister(calls, duration)
	return &telemetry{registry: registry, calls: calls, duration: duration}
}

func (t *telemetry) httpHandler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// instrumentTool wraps a tool handler with call metrics, a per-call
// correlation id, and the structured error envelope.
func instrumentTool[In, Out any](tel *telemetry, logger pslog.Logger, name string, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	wrapped := withStructuredToolErrors(h)
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		start := time.Now()
		callID := xid.New().String()
		res, out, err := wrapped(ctx, req, input)
		elapsed := time.Since(start)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		tel.calls.WithLabelValues(name, outcome).Inc()
		tel.duration.WithLabelValues(name).Observe(elapsed.Seconds())
		if err != nil {
			logger.Warn("tool.call.failed", "tool", name, "call_id", callID, "elapsed", elapsed, "error", err)
		} else {
			logger.Debug("tool.call", "tool", name, "call_id", callID, "elapsed", elapsed)
		}
		return res, out, err
	}
}
