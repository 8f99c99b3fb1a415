package mcp

import (
	"context"
	"fmt"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"
)

// requireAuth extracts auth context and returns error if missing
func requireAuth(ctx context.Context) (*auth.AuthContext, error) {
	authCtx := auth.FromContext(ctx)
	if authCtx == nil {
		return nil, fmt.Errorf("authentication required")
	}
	return authCtx, nil
}

// requireWriteAccess checks if auth context can perform write operations
func requireWriteAccess(ctx context.Context) (*auth.AuthContext, error) {
	authCtx, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !authCtx.CanWrite() {
		return nil, fmt.Errorf("read-only access, write operations not permitted")
	}
	return authCtx, nil
}

// requireAdmin checks if auth context has admin scope
func requireAdmin(ctx context.Context) (*auth.AuthContext, error) {
	authCtx, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !authCtx.IsAdmin() {
		return nil, fmt.Errorf("admin access required")
	}
	return authCtx, nil
}

// requireConfirm gates destructive operations behind an explicit confirm flag
func requireConfirm(confirm bool, what string) error {
	if !confirm {
		return fmt.Errorf("%s is destructive; pass confirm=true to proceed", what)
	}
	return nil
}

// getTokenInfo extracts the token ID and scope from an auth context for audit records
func getTokenInfo(authCtx *auth.AuthContext) (string, string) {
	if authCtx == nil || authCtx.Token == nil {
		return "", ""
	}
	return authCtx.Token.ID, authCtx.Token.Scope
}
