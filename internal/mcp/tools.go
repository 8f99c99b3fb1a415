package mcp

import (
	"context"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"
)

// ToolDefinition represents a tool as exposed over the local socket
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Access      ToolAccess     `json:"access,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolAccess defines the access level required for a tool
type ToolAccess string

const (
	// AccessRead - read-only operation (inspection, info queries)
	AccessRead ToolAccess = "read"
	// AccessWrite - modifies the scene or server state
	AccessWrite ToolAccess = "write"
	// AccessAdmin - admin-only (token management, code execution)
	AccessAdmin ToolAccess = "admin"
)

// getToolsForScope returns tool definitions available for the given token scope
func (s *Server) getToolsForScope(scope string) []ToolDefinition {
	tools := s.registry.GetToolsForScope(scope)
	result := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		result[i] = ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Access:      t.Access,
			InputSchema: t.InputSchema,
		}
	}
	return result
}

// isToolAllowed checks if a specific tool name is allowed for a token scope
func (s *Server) isToolAllowed(toolName, tokenScope string) bool {
	return s.registry.IsToolAllowed(toolName, tokenScope)
}

// dispatchToolCall routes a tool call to the appropriate handler with auth context
func (s *Server) dispatchToolCall(ctx context.Context, toolName string, arguments map[string]any, token *auth.Token) (map[string]any, error) {
	// Inject auth context
	authCtx := &auth.AuthContext{Type: auth.AuthTypeToken, Token: token}
	ctx = auth.WithContext(ctx, authCtx)

	// Use registry to dispatch - CallToolWithMap returns map already formatted
	return s.registry.CallToolWithMap(ctx, toolName, arguments)
}
