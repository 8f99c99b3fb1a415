// socket_handler.go serves JSON-RPC over a local unix socket.
// The blender-client CLI connects here with an API key and drives the
// same tool registry as the HTTP transport, one request per line.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func rpcError(id any, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

func rpcResult(id any, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

// SocketHandler listens on a unix socket for local CLI connections
type SocketHandler struct {
	server     *Server
	socketPath string

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewSocketHandler creates a socket handler bound to socketPath.
// Call Start to begin accepting connections.
func NewSocketHandler(server *Server, socketPath string) *SocketHandler {
	return &SocketHandler{
		server:     server,
		socketPath: socketPath,
		conns:      make(map[net.Conn]struct{}),
	}
}

// SocketPath returns the unix socket path this handler serves
func (h *SocketHandler) SocketPath() string {
	return h.socketPath
}

// Start begins listening on the unix socket. Stale sockets from a
// previous run are removed first.
func (h *SocketHandler) Start() error {
	if err := EnsureSocketDir(h.socketPath); err != nil {
		return err
	}
	RemoveStaleSocket(h.socketPath)

	ln, err := net.Listen("unix", h.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.socketPath, err)
	}

	h.mu.Lock()
	h.listener = ln
	h.mu.Unlock()

	logger.Info("Local socket listening on %s", h.socketPath)

	go h.acceptLoop(ln)
	return nil
}

func (h *SocketHandler) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			h.mu.Lock()
			closed := h.closed
			h.mu.Unlock()
			if !closed {
				logger.Error("Socket accept error: %v", err)
			}
			return
		}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
		h.conns[conn] = struct{}{}
		h.mu.Unlock()

		go h.handleConn(conn)
	}
}

// handleConn processes newline-delimited JSON-RPC requests on one connection
func (h *SocketHandler) handleConn(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
	}()

	ctx := context.Background()
	decoder := json.NewDecoder(bufio.NewReader(conn))

	for {
		var request JSONRPCRequest
		if err := decoder.Decode(&request); err != nil {
			return
		}

		response := h.processRequest(ctx, &request)

		responseBytes, _ := json.Marshal(response)
		responseBytes = append(responseBytes, '\n')
		if _, err := conn.Write(responseBytes); err != nil {
			logger.Error("Failed to write socket response: %v", err)
			return
		}
	}
}

// Close stops the listener and closes all active connections
func (h *SocketHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.listener != nil {
		_ = h.listener.Close()
	}
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = make(map[net.Conn]struct{})
	RemoveStaleSocket(h.socketPath)
}

func (h *SocketHandler) processRequest(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "ping":
		return rpcResult(req.ID, map[string]any{"pong": true})
	case "status":
		return h.handleStatus(ctx, req)
	case "tools":
		return h.handleTools(ctx, req)
	case "call_tool":
		return h.handleCallTool(ctx, req)
	default:
		return rpcError(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

// handleStatus reports bridge connectivity. No auth required; the
// socket itself is filesystem-permission gated.
func (h *SocketHandler) handleStatus(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	return rpcResult(req.ID, map[string]any{
		"blender_addr":      h.server.bridge.Addr(),
		"blender_connected": h.server.bridge.Connected(),
	})
}

// handleTools returns the tool list visible to the caller's token scope
func (h *SocketHandler) handleTools(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params struct {
		APIKey string `json:"api_key"`
	}
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcError(req.ID, -32602, "Invalid params: "+err.Error())
		}
	}
	if params.APIKey == "" {
		return rpcError(req.ID, -32602, "api_key is required")
	}

	token, err := h.server.authStore.ValidateToken(params.APIKey)
	if err != nil {
		return rpcError(req.ID, -32001, "invalid or expired API key")
	}

	tools := h.server.getToolsForScope(token.Scope)
	logger.Info("Socket tools request returned %d tools for scope %s", len(tools), token.Scope)

	return rpcResult(req.ID, map[string]any{"tools": tools})
}

// handleCallTool executes a tool with API key auth
func (h *SocketHandler) handleCallTool(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params struct {
		APIKey    string         `json:"api_key"`
		Tool      string         `json:"tool"`
		Arguments map[string]any `json:"arguments"`
	}
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return rpcError(req.ID, -32602, "Invalid params: "+err.Error())
		}
	}
	if params.APIKey == "" {
		return rpcError(req.ID, -32602, "api_key is required")
	}
	if params.Tool == "" {
		return rpcError(req.ID, -32602, "tool is required")
	}

	token, err := h.server.authStore.ValidateToken(params.APIKey)
	if err != nil {
		return rpcError(req.ID, -32001, "invalid or expired API key")
	}

	if !h.server.isToolAllowed(params.Tool, token.Scope) {
		return rpcError(req.ID, -32002, fmt.Sprintf("tool %s not allowed for token scope %s", params.Tool, token.Scope))
	}

	logger.Info("Socket call_tool: tool=%s scope=%s", params.Tool, token.Scope)

	result, err := h.server.dispatchToolCall(ctx, params.Tool, params.Arguments, token)
	if err != nil {
		return rpcError(req.ID, -32000, err.Error())
	}

	return rpcResult(req.ID, result)
}
