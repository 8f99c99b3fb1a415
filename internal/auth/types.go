package auth

import (
	"time"
)

// Token represents an API token for MCP access
type Token struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Scope      string     `json:"scope"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Scope constants. Admin tokens can do everything including code
// execution and token management; operator tokens can drive the scene
// but not administer the server; admin:ro tokens can only inspect.
const (
	ScopeAdmin    = "admin"
	ScopeAdminRO  = "admin:ro"
	ScopeOperator = "operator"
)

// IsValidScope returns true for a known scope string
func IsValidScope(scope string) bool {
	return scope == ScopeAdmin || scope == ScopeAdminRO || scope == ScopeOperator
}

// IsReadOnlyScope returns true if the scope forbids writes
func IsReadOnlyScope(scope string) bool {
	return scope == ScopeAdminRO
}

// AuthType represents the type of authentication used
type AuthType int

const (
	AuthTypeToken AuthType = iota
)

// AuthContext holds authentication information for a request
type AuthContext struct {
	Type  AuthType
	Token *Token
}

// CanWrite checks if the auth context allows write operations
func (a *AuthContext) CanWrite() bool {
	if a.Token == nil {
		return false
	}
	return !IsReadOnlyScope(a.Token.Scope)
}

// IsAdmin checks if the auth context has full admin scope
func (a *AuthContext) IsAdmin() bool {
	if a.Type != AuthTypeToken || a.Token == nil {
		return false
	}
	return a.Token.Scope == ScopeAdmin
}
