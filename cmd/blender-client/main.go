// blender-client is an MCP server that bridges stdio MCP clients
// (Claude Desktop, editors) to a running blender-mcp server over its
// local unix socket.
//
// It authenticates with an API key, fetches the tool list the key's
// scope allows, registers each as an MCP tool, and forwards calls
// through the socket as JSON-RPC.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	internalmcp "github.com/Pervaiz106/Blender-Mcp-Server/internal/mcp"
)

// ToolDefinition mirrors the tool entries returned by the server's
// "tools" method over the socket.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema,omitempty"`
}

// serverConn manages the JSON-RPC connection to the blender-mcp server
type serverConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	mu      sync.Mutex
	nextID  int
	pending map[int]chan json.RawMessage
}

var server *serverConn
var mcpServer *mcp.Server
var apiKey string
var logFile *os.File

func logf(format string, args ...any) {
	if logFile != nil {
		_, _ = fmt.Fprintf(logFile, format+"\n", args...)
		_ = logFile.Sync()
	}
}

// defaultSocketPath resolves the server socket location the same way
// the server does: BLENDERMCP_HOME if set, otherwise ~/.blender-mcp.
func defaultSocketPath() string {
	home := os.Getenv("BLENDERMCP_HOME")
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".blender-mcp")
		}
	}
	return filepath.Join(home, "data", "blendermcp.sock")
}

func main() {
	socketFlag := flag.String("socket", "", "path to the blender-mcp unix socket")
	debugLog := flag.String("log", "", "path to a debug log file")
	flag.Parse()

	if *debugLog != "" {
		var err error
		logFile, err = os.OpenFile(*debugLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logFile = nil
		}
	}
	logf("blender-client starting")

	socketPath := *socketFlag
	if socketPath == "" {
		socketPath = os.Getenv("BLENDERMCP_SOCKET")
	}
	if socketPath == "" {
		socketPath = defaultSocketPath()
	}

	apiKey = os.Getenv("BLENDERMCP_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "blender-client: BLENDERMCP_API_KEY is not set")
		os.Exit(1)
	}

	if err := internalmcp.WaitForSocket(socketPath, internalmcp.SocketConnectTimeout); err != nil {
		fmt.Fprintf(os.Stderr, "blender-client: %v (is the server running?)\n", err)
		os.Exit(1)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "blender-client: failed to connect to %s: %v\n", socketPath, err)
		os.Exit(1)
	}

	server = &serverConn{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		pending: make(map[int]chan json.RawMessage),
	}
	go server.readLoop()

	// Verify the connection before exposing any tools
	if _, err := callServer("ping", nil); err != nil {
		fmt.Fprintf(os.Stderr, "blender-client: server did not respond to ping: %v\n", err)
		os.Exit(1)
	}

	mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "blender-mcp",
		Version: "0.1.0",
	}, &mcp.ServerOptions{
		HasTools: true,
	})

	if err := registerServerTools(); err != nil {
		fmt.Fprintf(os.Stderr, "blender-client: failed to fetch tools: %v\n", err)
		os.Exit(1)
	}

	if err := mcpServer.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		fmt.Fprintf(os.Stderr, "blender-client: server error: %v\n", err)
		os.Exit(1)
	}
}

// callServer sends a JSON-RPC request over the socket and waits for the reply
func callServer(method string, params any) (json.RawMessage, error) {
	server.mu.Lock()
	id := server.nextID
	server.nextID++

	respChan := make(chan json.RawMessage, 1)
	server.pending[id] = respChan
	server.mu.Unlock()

	defer func() {
		server.mu.Lock()
		delete(server.pending, id)
		server.mu.Unlock()
	}()

	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	server.mu.Lock()
	_, err = server.conn.Write(data)
	server.mu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case result := <-respChan:
		return result, nil
	case <-time.After(60 * time.Second):
		return nil, fmt.Errorf("timeout waiting for response to %s", method)
	}
}

// readLoop reads responses from the server and dispatches to waiting callers
func (s *serverConn) readLoop() {
	decoder := json.NewDecoder(s.reader)
	for {
		var msg struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      *int            `json:"id,omitempty"`
			Result  json.RawMessage `json:"result,omitempty"`
			Error   *struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error,omitempty"`
		}

		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				fmt.Fprintln(os.Stderr, "blender-client: connection closed")
			} else {
				fmt.Fprintf(os.Stderr, "blender-client: read error: %v\n", err)
			}
			return
		}

		if msg.ID == nil {
			continue
		}

		s.mu.Lock()
		if ch, ok := s.pending[*msg.ID]; ok {
			if msg.Error != nil {
				errJSON, _ := json.Marshal(map[string]string{"error": msg.Error.Message})
				ch <- errJSON
			} else {
				ch <- msg.Result
			}
		}
		s.mu.Unlock()
	}
}

// registerServerTools fetches the tool list for our API key's scope and
// registers each tool with the MCP server.
func registerServerTools() error {
	result, err := callServer("tools", map[string]any{
		"api_key": apiKey,
	})
	if err != nil {
		return err
	}

	var errResp struct {
		Error string `json:"error,omitempty"`
	}
	if json.Unmarshal(result, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("tools request rejected: %s", errResp.Error)
	}

	var resp struct {
		Tools []ToolDefinition `json:"tools"`
	}
	if err := json.Unmarshal(result, &resp); err != nil {
		return fmt.Errorf("failed to parse tools response: %w", err)
	}
	if len(resp.Tools) == 0 {
		return fmt.Errorf("server returned no tools for this API key")
	}

	logf("registering %d tools", len(resp.Tools))
	for _, tool := range resp.Tools {
		registerTool(tool)
	}
	return nil
}

// ToolInput is the generic input type for dynamically registered tools
type ToolInput map[string]any

// ToolOutput is the generic output type for dynamically registered tools
type ToolOutput struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content,omitempty"`
	IsError bool   `json:"isError,omitempty"`
	Error   string `json:"error,omitempty"`
}

// registerTool registers one server tool with the MCP server
func registerTool(tool ToolDefinition) {
	// Convert inputSchema to *jsonschema.Schema; the SDK does not accept
	// a raw map.
	var schema *jsonschema.Schema
	if tool.InputSchema != nil {
		schemaBytes, err := json.Marshal(tool.InputSchema)
		if err != nil {
			logf("ERROR: failed to marshal input schema for %s: %v", tool.Name, err)
			return
		}
		schema = &jsonschema.Schema{}
		if err := json.Unmarshal(schemaBytes, schema); err != nil {
			logf("ERROR: failed to unmarshal input schema for %s: %v", tool.Name, err)
			return
		}
	} else {
		schema = &jsonschema.Schema{Type: "object"}
	}
	if schema.Type == "" {
		schema.Type = "object"
	}

	toolName := tool.Name

	func() {
		defer func() {
			if r := recover(); r != nil {
				logf("PANIC registering tool %s: %v", toolName, r)
				fmt.Fprintf(os.Stderr, "blender-client: panic registering tool %s: %v\n", toolName, r)
			}
		}()
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        toolName,
			Description: tool.Description,
			InputSchema: schema,
		}, func(ctx context.Context, req *mcp.CallToolRequest, input ToolInput) (*mcp.CallToolResult, any, error) {
			return handleToolCall(ctx, toolName, input)
		})
	}()
}

// handleToolCall forwards a tool call to the server over the socket
func handleToolCall(ctx context.Context, toolName string, args ToolInput) (*mcp.CallToolResult, any, error) {
	logf("tool call: %s", toolName)

	result, err := callServer("call_tool", map[string]any{
		"api_key":   apiKey,
		"tool":      toolName,
		"arguments": args,
	})
	if err != nil {
		return nil, ToolOutput{Error: err.Error(), IsError: true}, nil
	}

	var errResp struct {
		Error string `json:"error,omitempty"`
	}
	if json.Unmarshal(result, &errResp) == nil && errResp.Error != "" {
		return nil, ToolOutput{Error: errResp.Error, IsError: true}, nil
	}

	var output ToolOutput
	if err := json.Unmarshal(result, &output); err != nil {
		return nil, ToolOutput{Error: fmt.Sprintf("failed to parse response: %v", err), IsError: true}, nil
	}

	return nil, output, nil
}
