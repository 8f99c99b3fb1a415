package mcp

import (
	"context"
	"fmt"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/audit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Utility Handlers

type GetViewportScreenshotParams struct {
	MaxSize int `json:"max_size,omitempty" description:"Maximum image dimension in pixels (default 800)"`
}

func (s *Server) handleGetViewportScreenshot(ctx context.Context, request *mcp.CallToolRequest, params *GetViewportScreenshotParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	maxSize := params.MaxSize
	if maxSize <= 0 {
		maxSize = 800
	}

	result, err := s.bridge.Execute(ctx, "get_viewport_screenshot", map[string]any{"max_size": maxSize})
	if err != nil {
		return nil, nil, SanitizeError(err, "get_viewport_screenshot")
	}
	return imageResult(result)
}

type ExecuteBlenderCodeParams struct {
	Code string `json:"code" description:"Python code to run inside Blender"`
}

func (s *Server) handleExecuteBlenderCode(ctx context.Context, request *mcp.CallToolRequest, params *ExecuteBlenderCodeParams) (*mcp.CallToolResult, any, error) {
	authCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, nil, err
	}
	if params.Code == "" {
		return nil, nil, fmt.Errorf("code is required")
	}

	tokenID, scope := getTokenInfo(authCtx)
	result, err := s.bridge.Execute(ctx, "execute_code", map[string]any{"code": params.Code})
	if err != nil {
		audit.LogFailure(audit.OpCodeExecute, tokenID, scope, "execute_blender_code", err)
		return nil, nil, SanitizeError(err, "execute_blender_code")
	}
	audit.LogSuccess(audit.OpCodeExecute, tokenID, scope, "execute_blender_code")
	return NewJSONResult(result), nil, nil
}

type GetServerStatusParams struct{}

func (s *Server) handleGetServerStatus(ctx context.Context, request *mcp.CallToolRequest, params *GetServerStatusParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	status := map[string]any{
		"blender_addr":      s.bridge.Addr(),
		"blender_connected": s.bridge.Connected(),
	}

	// Listener details are best-effort; the status tool still answers
	// when Blender is down.
	if info, err := s.bridge.Execute(ctx, "get_server_status", nil); err == nil {
		status["listener"] = info
	} else {
		status["listener_error"] = SanitizeError(err, "get_server_status").Error()
	}

	return NewJSONResult(status), nil, nil
}
