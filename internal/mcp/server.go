package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/bridge"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/config"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/metrics"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/schedule"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// generateRequestID creates a unique request identifier
func generateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Server wraps the MCP server with the bridge and stores
type Server struct {
	bridge         *bridge.Manager
	authStore      *auth.Store
	registry       *Registry
	mcpServer      *mcp.Server
	socketHandler  *SocketHandler
	scheduleStore  *schedule.Store
	scheduleRunner *schedule.Runner
	cfg            *config.Config
	httpServer     *http.Server
}

// NewServer creates a new MCP server instance. scheduleStore may be nil,
// in which case schedule tools return errors and no runner starts.
func NewServer(br *bridge.Manager, authStore *auth.Store, scheduleStore *schedule.Store, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		bridge:        br,
		authStore:     authStore,
		registry:      NewRegistry(),
		scheduleStore: scheduleStore,
		cfg:           cfg,
	}

	if scheduleStore != nil {
		s.scheduleRunner = schedule.NewRunner(scheduleStore, s.executeScheduleTool)
	}
	s.socketHandler = NewSocketHandler(s, cfg.Server.SocketPath)

	s.registerAllTools(s.registry)

	return s
}

// GetRegistry returns the tool registry
func (s *Server) GetRegistry() *Registry {
	return s.registry
}

// GetSocketHandler returns the local socket handler
func (s *Server) GetSocketHandler() *SocketHandler {
	return s.socketHandler
}

// Close shuts down the server and cleans up resources
func (s *Server) Close() {
	if s.scheduleRunner != nil {
		s.scheduleRunner.Stop()
	}
	if s.socketHandler != nil {
		s.socketHandler.Close()
	}
	s.bridge.Close()
}

// Shutdown gracefully stops the HTTP listener
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Serve starts the MCP HTTP server
func (s *Server) Serve(addr string) error {
	if s.scheduleRunner != nil {
		s.scheduleRunner.Start()
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "blender-mcp",
		Version: "0.1.0",
	}, nil)

	s.registry.RegisterWithMCPServer(s.mcpServer)

	// Streamable HTTP transport with SSE resumption support
	mcpHandler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{
		EventStore: mcp.NewMemoryEventStore(nil),
	})

	loggingHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := WithRemoteAddr(r.Context(), r.RemoteAddr)
		r = r.WithContext(ctx)

		logger.Info("HTTP %s %s from %s [request_id=%s]", r.Method, r.URL.Path, r.RemoteAddr, requestID)
		mcpHandler.ServeHTTP(w, r)
	})

	// Auth first, then per-token rate limiting
	authedHandler := auth.Middleware(s.authStore)(loggingHandler)
	rateLimiter := auth.NewRateLimiter(s.cfg.Limits.RequestsPerSecond, s.cfg.Limits.Burst)
	rateLimitedHandler := auth.RateLimitMiddleware(rateLimiter)(authedHandler)

	mainMux := http.NewServeMux()

	// Health and metrics endpoints are unauthenticated
	mainMux.HandleFunc("/health", s.handleHealthCheck)
	mainMux.HandleFunc("/ready", s.handleReadinessCheck)
	mainMux.Handle("/metrics", metrics.Handler())

	mainMux.Handle("/mcp", metrics.Middleware(rateLimitedHandler))
	mainMux.Handle("/mcp/", metrics.Middleware(rateLimitedHandler))

	logger.Info("Blender MCP server listening on %s", addr)
	logger.Info("Blender listener: %s", s.bridge.Addr())
	logger.Info("Health check: http://localhost%s/health", addr)
	logger.Info("Metrics: http://localhost%s/metrics", addr)

	s.httpServer = &http.Server{Addr: addr, Handler: mainMux}
	return s.httpServer.ListenAndServe()
}

// handleHealthCheck is a basic liveness check
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleReadinessCheck verifies the Blender listener is reachable
func (s *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.bridge.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready","reason":"blender listener unreachable"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// executeScheduleTool is called by the schedule runner when a schedule
// fires. Schedules run with the server's own authority, so a synthetic
// admin context is injected before dispatch.
func (s *Server) executeScheduleTool(ctx context.Context, sched *schedule.Schedule) (string, error) {
	if !s.registry.IsToolAllowed(sched.Tool, auth.ScopeAdmin) {
		return "", fmt.Errorf("unknown tool: %s", sched.Tool)
	}

	ctx = auth.WithContext(ctx, &auth.AuthContext{
		Type: auth.AuthTypeToken,
		Token: &auth.Token{
			ID:    "scheduler",
			Name:  "schedule " + sched.ID,
			Scope: auth.ScopeAdmin,
		},
	})

	result, err := s.registry.CallToolWithMap(ctx, sched.Tool, sched.Params)
	if err != nil {
		return "", err
	}
	summary := summarizeToolResult(result)
	if isErr, _ := result["isError"].(bool); isErr {
		return "", fmt.Errorf("%s", summary)
	}
	return summary, nil
}

// summarizeToolResult extracts the first text block from a tool result
// map for storage in execution history, truncated to keep rows small.
func summarizeToolResult(result map[string]any) string {
	content, _ := result["content"].([]map[string]any)
	if len(content) == 0 {
		return ""
	}
	text, _ := content[0]["text"].(string)
	const maxLen = 2000
	if len(text) > maxLen {
		return text[:maxLen] + "..."
	}
	return text
}
