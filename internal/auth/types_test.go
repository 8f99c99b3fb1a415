package auth

import (
	"testing"
)

func TestIsValidScope(t *testing.T) {
	tests := []struct {
		scope string
		want  bool
	}{
		{ScopeAdmin, true},
		{ScopeAdminRO, true},
		{ScopeOperator, true},
		{"", false},
		{"root", false},
		{"operator:ro", false},
	}
	for _, tt := range tests {
		if got := IsValidScope(tt.scope); got != tt.want {
			t.Errorf("IsValidScope(%q) = %v, want %v", tt.scope, got, tt.want)
		}
	}
}

func TestIsReadOnlyScope(t *testing.T) {
	tests := []struct {
		scope string
		want  bool
	}{
		{ScopeAdmin, false},
		{ScopeAdminRO, true},
		{ScopeOperator, false},
		{"invalid", false},
	}
	for _, tt := range tests {
		if got := IsReadOnlyScope(tt.scope); got != tt.want {
			t.Errorf("IsReadOnlyScope(%q) = %v, want %v", tt.scope, got, tt.want)
		}
	}
}

func TestAuthContext_CanWrite(t *testing.T) {
	tests := []struct {
		name    string
		authCtx *AuthContext
		want    bool
	}{
		{
			name:    "nil token",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: nil},
			want:    false,
		},
		{
			name:    "admin scope can write",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: &Token{Scope: ScopeAdmin}},
			want:    true,
		},
		{
			name:    "admin:ro scope cannot write",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: &Token{Scope: ScopeAdminRO}},
			want:    false,
		},
		{
			name:    "operator scope can write",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: &Token{Scope: ScopeOperator}},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.authCtx.CanWrite(); got != tt.want {
				t.Errorf("CanWrite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthContext_IsAdmin(t *testing.T) {
	tests := []struct {
		name    string
		authCtx *AuthContext
		want    bool
	}{
		{
			name:    "nil token",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: nil},
			want:    false,
		},
		{
			name:    "admin scope is admin",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: &Token{Scope: ScopeAdmin}},
			want:    true,
		},
		{
			name:    "admin:ro scope is not admin",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: &Token{Scope: ScopeAdminRO}},
			want:    false,
		},
		{
			name:    "operator scope is not admin",
			authCtx: &AuthContext{Type: AuthTypeToken, Token: &Token{Scope: ScopeOperator}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.authCtx.IsAdmin(); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}
