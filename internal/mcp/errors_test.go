package mcp

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string // substring expected in the sanitized message
	}{
		{
			name: "nil passes through",
			err:  nil,
			want: "",
		},
		{
			name: "credential detail is scrubbed",
			err:  errors.New("query failed: api_key mismatch for bmc_12345"),
			want: "internal configuration error",
		},
		{
			name: "transport detail is scrubbed",
			err:  errors.New("dial tcp 10.0.0.5:9876: connection refused"),
			want: "internal error",
		},
		{
			name: "validation error passes through",
			err:  errors.New("object Cube.001 not found"),
			want: "object Cube.001 not found",
		},
		{
			name: "listener guidance passes through",
			err:  errors.New("Blender is not responding; check the listener addon"),
			want: "listener addon",
		},
		{
			name: "short unknown error is kept",
			err:  errors.New("frame out of range"),
			want: "frame out of range",
		},
		{
			name: "long unknown error is replaced",
			err:  errors.New(strings.Repeat("x", 120)),
			want: "an unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeError(tt.err, "render_scene")
			if tt.err == nil {
				if got != nil {
					t.Errorf("SanitizeError(nil) = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("SanitizeError() = nil for non-nil error")
			}
			if !strings.Contains(got.Error(), tt.want) {
				t.Errorf("SanitizeError() = %q, want substring %q", got.Error(), tt.want)
			}
		})
	}
}
