package mcp

import (
	"testing"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"
)

func TestIsToolAllowed(t *testing.T) {
	tests := []struct {
		name       string
		tool       ToolDef
		tokenScope string
		want       bool
	}{
		{
			name:       "admin can access admin tool",
			tool:       ToolDef{Name: "token_create", Access: AccessAdmin},
			tokenScope: auth.ScopeAdmin,
			want:       true,
		},
		{
			name:       "admin can access write tool",
			tool:       ToolDef{Name: "create_object", Access: AccessWrite},
			tokenScope: auth.ScopeAdmin,
			want:       true,
		},
		{
			name:       "admin can access read tool",
			tool:       ToolDef{Name: "get_scene_info", Access: AccessRead},
			tokenScope: auth.ScopeAdmin,
			want:       true,
		},

		{
			name:       "admin:ro cannot access admin tool",
			tool:       ToolDef{Name: "token_create", Access: AccessAdmin},
			tokenScope: auth.ScopeAdminRO,
			want:       false,
		},
		{
			name:       "admin:ro cannot access write tool",
			tool:       ToolDef{Name: "create_object", Access: AccessWrite},
			tokenScope: auth.ScopeAdminRO,
			want:       false,
		},
		{
			name:       "admin:ro can access read tool",
			tool:       ToolDef{Name: "get_scene_info", Access: AccessRead},
			tokenScope: auth.ScopeAdminRO,
			want:       true,
		},

		{
			name:       "operator cannot access admin tool",
			tool:       ToolDef{Name: "execute_blender_code", Access: AccessAdmin},
			tokenScope: auth.ScopeOperator,
			want:       false,
		},
		{
			name:       "operator can access write tool",
			tool:       ToolDef{Name: "create_object", Access: AccessWrite},
			tokenScope: auth.ScopeOperator,
			want:       true,
		},
		{
			name:       "operator can access read tool",
			tool:       ToolDef{Name: "get_scene_info", Access: AccessRead},
			tokenScope: auth.ScopeOperator,
			want:       true,
		},

		{
			name:       "unknown scope denied",
			tool:       ToolDef{Name: "get_scene_info", Access: AccessRead},
			tokenScope: "project:abc",
			want:       false,
		},
		{
			name:       "empty scope denied",
			tool:       ToolDef{Name: "get_scene_info", Access: AccessRead},
			tokenScope: "",
			want:       false,
		},
		{
			name:       "unset access defaults to admin only for admin",
			tool:       ToolDef{Name: "mystery_tool"},
			tokenScope: auth.ScopeAdmin,
			want:       true,
		},
		{
			name:       "unset access defaults to admin only for operator",
			tool:       ToolDef{Name: "mystery_tool"},
			tokenScope: auth.ScopeOperator,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsToolAllowed(&tt.tool, tt.tokenScope)
			if got != tt.want {
				t.Errorf("IsToolAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}
