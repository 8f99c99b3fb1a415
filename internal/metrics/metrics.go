package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blendermcp_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration tracks request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blendermcp_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ToolCalls tracks MCP tool invocations
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blendermcp_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	// BridgeCommands counts commands sent over the Blender socket
	BridgeCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blendermcp_bridge_commands_total",
			Help: "Total number of commands sent to the Blender listener",
		},
		[]string{"type", "status"},
	)

	// BridgeCommandDuration tracks round-trip time for socket commands
	BridgeCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blendermcp_bridge_command_duration_seconds",
			Help:    "Round-trip duration of Blender socket commands",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"type"},
	)

	// BridgeReconnects counts reconnection attempts to the listener
	BridgeReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blendermcp_bridge_reconnects_total",
			Help: "Total number of reconnects to the Blender listener",
		},
	)

	// BridgeConnected reports whether the listener connection is live
	BridgeConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blendermcp_bridge_connected",
			Help: "1 if the Blender listener connection is established",
		},
	)

	// ScheduleExecutions counts scheduled tool runs
	ScheduleExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blendermcp_schedule_executions_total",
			Help: "Total number of scheduled tool executions",
		},
		[]string{"status"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware creates an HTTP middleware that records metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		RequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// normalizePath normalizes URL paths to avoid high cardinality
func normalizePath(path string) string {
	switch path {
	case "/health", "/ready", "/mcp", "/mcp/", "/metrics":
		return path
	default:
		if len(path) > 5 && path[:5] == "/mcp/" {
			return "/mcp"
		}
		return "other"
	}
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordToolCall records an MCP tool invocation
func RecordToolCall(tool, status string) {
	ToolCalls.WithLabelValues(tool, status).Inc()
}

// RecordBridgeCommand records a socket command round trip
func RecordBridgeCommand(cmdType, status string, duration time.Duration) {
	BridgeCommands.WithLabelValues(cmdType, status).Inc()
	BridgeCommandDuration.WithLabelValues(cmdType).Observe(duration.Seconds())
}

// RecordBridgeReconnect records a reconnect attempt
func RecordBridgeReconnect() {
	BridgeReconnects.Inc()
}

// SetBridgeConnected reports the current connection state
func SetBridgeConnected(connected bool) {
	if connected {
		BridgeConnected.Set(1)
	} else {
		BridgeConnected.Set(0)
	}
}

// RecordScheduleExecution records a scheduled run outcome
func RecordScheduleExecution(status string) {
	ScheduleExecutions.WithLabelValues(status).Inc()
}
