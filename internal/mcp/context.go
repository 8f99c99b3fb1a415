package mcp

import (
	"context"
)

// Context keys for request metadata
type contextKey string

const (
	contextKeyRemoteAddr contextKey = "blendermcp-remote-addr"
	contextKeyTool       contextKey = "blendermcp-tool"
)

// WithRemoteAddr adds the remote address to context
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, contextKeyRemoteAddr, addr)
}

// GetRemoteAddr extracts the remote address from context
func GetRemoteAddr(ctx context.Context) string {
	return getStringFromContext(ctx, contextKeyRemoteAddr)
}

// WithTool records the tool name being dispatched in context
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, contextKeyTool, tool)
}

// GetTool extracts the tool name from context
func GetTool(ctx context.Context) string {
	return getStringFromContext(ctx, contextKeyTool)
}

func getStringFromContext(ctx context.Context, key contextKey) string {
	if val := ctx.Value(key); val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
