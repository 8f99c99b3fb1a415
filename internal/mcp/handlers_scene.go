package mcp

import (
	"context"
	"fmt"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/audit"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Scene Handlers

type CreateSceneParams struct {
	Name string `json:"name" description:"Name for the new scene"`
}

func (s *Server) handleCreateScene(ctx context.Context, request *mcp.CallToolRequest, params *CreateSceneParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.Name == "" {
		return nil, nil, fmt.Errorf("name is required")
	}
	if err := validation.ValidateObjectName(params.Name); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "create_scene", map[string]any{"name": params.Name})
	if err != nil {
		return nil, nil, SanitizeError(err, "create_scene")
	}
	return NewJSONResult(result), nil, nil
}

type SetScenePropertiesParams struct {
	FrameStart int `json:"frame_start,omitempty" description:"First frame of the scene range"`
	FrameEnd   int `json:"frame_end,omitempty" description:"Last frame of the scene range"`
	FPS        int `json:"fps,omitempty" description:"Frames per second"`
}

func (s *Server) handleSetSceneProperties(ctx context.Context, request *mcp.CallToolRequest, params *SetScenePropertiesParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.FrameStart != 0 || params.FrameEnd != 0 {
		if err := validation.ValidateFrameRange(params.FrameStart, params.FrameEnd); err != nil {
			return nil, nil, err
		}
	}

	args := map[string]any{}
	if params.FrameStart != 0 {
		args["frame_start"] = params.FrameStart
	}
	if params.FrameEnd != 0 {
		args["frame_end"] = params.FrameEnd
	}
	if params.FPS != 0 {
		args["fps"] = params.FPS
	}

	result, err := s.bridge.Execute(ctx, "set_scene_properties", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "set_scene_properties")
	}
	return NewJSONResult(result), nil, nil
}

type GetSceneInfoParams struct{}

func (s *Server) handleGetSceneInfo(ctx context.Context, request *mcp.CallToolRequest, params *GetSceneInfoParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "get_scene_info", nil)
	if err != nil {
		return nil, nil, SanitizeError(err, "get_scene_info")
	}
	return NewJSONResult(result), nil, nil
}

type DuplicateSceneParams struct {
	SourceName string `json:"source_name" description:"Scene to duplicate"`
	NewName    string `json:"new_name" description:"Name for the copy"`
}

func (s *Server) handleDuplicateScene(ctx context.Context, request *mcp.CallToolRequest, params *DuplicateSceneParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.SourceName == "" || params.NewName == "" {
		return nil, nil, fmt.Errorf("source_name and new_name are required")
	}
	if err := validation.ValidateObjectName(params.NewName); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "duplicate_scene", map[string]any{
		"source_name": params.SourceName,
		"new_name":    params.NewName,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "duplicate_scene")
	}
	return NewJSONResult(result), nil, nil
}

type DeleteSceneParams struct {
	SceneName string `json:"scene_name" description:"Scene to delete"`
	Confirm   bool   `json:"confirm,omitempty" description:"Must be true to actually delete"`
}

func (s *Server) handleDeleteScene(ctx context.Context, request *mcp.CallToolRequest, params *DeleteSceneParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.SceneName == "" {
		return nil, nil, fmt.Errorf("scene_name is required")
	}
	if err := requireConfirm(params.Confirm, "delete_scene"); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "delete_scene", map[string]any{"scene_name": params.SceneName})
	if err != nil {
		return nil, nil, SanitizeError(err, "delete_scene")
	}
	return NewJSONResult(result), nil, nil
}

type SetWorldPropertiesParams struct {
	Color    []float64 `json:"color,omitempty" description:"World background color as [r, g, b]"`
	Strength float64   `json:"strength,omitempty" description:"World light strength"`
}

func (s *Server) handleSetWorldProperties(ctx context.Context, request *mcp.CallToolRequest, params *SetWorldPropertiesParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateColor("color", params.Color); err != nil {
		return nil, nil, err
	}

	args := map[string]any{}
	if params.Color != nil {
		args["color"] = params.Color
	}
	if params.Strength != 0 {
		args["strength"] = params.Strength
	}

	result, err := s.bridge.Execute(ctx, "set_world_properties", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "set_world_properties")
	}
	return NewJSONResult(result), nil, nil
}

type GetWorldPropertiesParams struct{}

func (s *Server) handleGetWorldProperties(ctx context.Context, request *mcp.CallToolRequest, params *GetWorldPropertiesParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "get_world_properties", nil)
	if err != nil {
		return nil, nil, SanitizeError(err, "get_world_properties")
	}
	return NewJSONResult(result), nil, nil
}

type ClearSceneParams struct {
	Confirm bool `json:"confirm,omitempty" description:"Must be true to actually clear the scene"`
}

func (s *Server) handleClearScene(ctx context.Context, request *mcp.CallToolRequest, params *ClearSceneParams) (*mcp.CallToolResult, any, error) {
	authCtx, err := requireWriteAccess(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := requireConfirm(params.Confirm, "clear_scene"); err != nil {
		return nil, nil, err
	}

	tokenID, scope := getTokenInfo(authCtx)
	result, err := s.bridge.Execute(ctx, "clear_scene", nil)
	if err != nil {
		audit.LogFailure(audit.OpSceneClear, tokenID, scope, "clear_scene", err)
		return nil, nil, SanitizeError(err, "clear_scene")
	}
	audit.LogSuccess(audit.OpSceneClear, tokenID, scope, "clear_scene")
	return NewJSONResult(result), nil, nil
}
