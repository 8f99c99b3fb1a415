package mcp

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Render Handlers

type RenderSceneParams struct {
	OutputPath string `json:"output_path,omitempty" description:"Where to write the rendered image (listener-side path)"`
	Frame      int    `json:"frame,omitempty" description:"Frame to render (default: current frame)"`
}

func (s *Server) handleRenderScene(ctx context.Context, request *mcp.CallToolRequest, params *RenderSceneParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}

	args := map[string]any{}
	if params.OutputPath != "" {
		if err := validation.ValidateFilePath(params.OutputPath); err != nil {
			return nil, nil, err
		}
		args["output_path"] = params.OutputPath
	}
	if params.Frame != 0 {
		args["frame"] = params.Frame
	}

	result, err := s.bridge.Execute(ctx, "render_scene", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "render_scene")
	}
	return NewJSONResult(result), nil, nil
}

type SetRenderSettingsParams struct {
	Settings map[string]any `json:"settings" description:"Render settings: engine, resolution_x, resolution_y, samples, ..."`
}

func (s *Server) handleSetRenderSettings(ctx context.Context, request *mcp.CallToolRequest, params *SetRenderSettingsParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if len(params.Settings) == 0 {
		return nil, nil, fmt.Errorf("settings is required")
	}

	result, err := s.bridge.Execute(ctx, "set_render_settings", map[string]any{"settings": params.Settings})
	if err != nil {
		return nil, nil, SanitizeError(err, "set_render_settings")
	}
	return NewJSONResult(result), nil, nil
}

type GetRenderSettingsParams struct{}

func (s *Server) handleGetRenderSettings(ctx context.Context, request *mcp.CallToolRequest, params *GetRenderSettingsParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "get_render_settings", nil)
	if err != nil {
		return nil, nil, SanitizeError(err, "get_render_settings")
	}
	return NewJSONResult(result), nil, nil
}

type PreviewRenderParams struct {
	Resolution int `json:"resolution,omitempty" description:"Longest edge of the preview in pixels (default 800)"`
}

func (s *Server) handlePreviewRender(ctx context.Context, request *mcp.CallToolRequest, params *PreviewRenderParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}

	resolution := params.Resolution
	if resolution <= 0 {
		resolution = 800
	}

	result, err := s.bridge.Execute(ctx, "preview_render", map[string]any{"resolution": resolution})
	if err != nil {
		return nil, nil, SanitizeError(err, "preview_render")
	}
	return imageResult(result)
}

type GetRenderPreviewParams struct {
	MaxSize int `json:"max_size,omitempty" description:"Maximum image dimension in pixels (default 800)"`
}

func (s *Server) handleGetRenderPreview(ctx context.Context, request *mcp.CallToolRequest, params *GetRenderPreviewParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	maxSize := params.MaxSize
	if maxSize <= 0 {
		maxSize = 800
	}

	result, err := s.bridge.Execute(ctx, "get_render_preview", map[string]any{"max_size": maxSize})
	if err != nil {
		return nil, nil, SanitizeError(err, "get_render_preview")
	}
	return imageResult(result)
}

// imageResult converts a listener result carrying base64 image_data into
// MCP image content. Falls back to a JSON text result if no image came back.
func imageResult(result map[string]any) (*mcp.CallToolResult, any, error) {
	encoded, _ := result["image_data"].(string)
	if encoded == "" {
		return NewJSONResult(result), nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid image data from Blender: %w", err)
	}

	mimeType, _ := result["mime_type"].(string)
	if mimeType == "" {
		mimeType = "image/png"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: data, MIMEType: mimeType},
		},
	}, nil, nil
}
