package mcp

import "github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"

// IsToolAllowed checks if a tool is allowed for a given token scope.
// Admin tokens can call everything, operator tokens get read and write
// tools, read-only admin tokens get read tools only.
func IsToolAllowed(tool *ToolDef, tokenScope string) bool {
	if !auth.IsValidScope(tokenScope) {
		return false
	}

	switch tool.Access {
	case AccessAdmin:
		return tokenScope == auth.ScopeAdmin
	case AccessWrite:
		return tokenScope == auth.ScopeAdmin || tokenScope == auth.ScopeOperator
	case AccessRead:
		return true
	default:
		// Tools without an explicit access level are treated as admin-only
		return tokenScope == auth.ScopeAdmin
	}
}
