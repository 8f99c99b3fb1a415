package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Animation Handlers

type CreateAnimationParams struct {
	ObjectName    string         `json:"object_name" description:"Object to animate"`
	AnimationType string         `json:"animation_type,omitempty" description:"Animated property: LOCATION, ROTATION, SCALE (default LOCATION)"`
	Keyframes     map[string]any `json:"keyframes" description:"Frame number to value mapping, e.g. {\"1\": [0,0,0], \"50\": [5,0,0]}"`
}

func (s *Server) handleCreateAnimation(ctx context.Context, request *mcp.CallToolRequest, params *CreateAnimationParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}
	if len(params.Keyframes) == 0 {
		return nil, nil, fmt.Errorf("keyframes is required")
	}

	animationType := strings.ToUpper(params.AnimationType)
	if animationType == "" {
		animationType = "LOCATION"
	}

	result, err := s.bridge.Execute(ctx, "create_animation", map[string]any{
		"object_name":    params.ObjectName,
		"animation_type": animationType,
		"keyframes":      params.Keyframes,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "create_animation")
	}
	return NewJSONResult(result), nil, nil
}

type SetKeyframesParams struct {
	ObjectName string    `json:"object_name" description:"Object to keyframe"`
	Frame      int       `json:"frame" description:"Frame number"`
	Location   []float64 `json:"location,omitempty" description:"Location to key at this frame"`
	Rotation   []float64 `json:"rotation,omitempty" description:"Rotation to key at this frame"`
	Scale      []float64 `json:"scale,omitempty" description:"Scale to key at this frame"`
}

func (s *Server) handleSetKeyframes(ctx context.Context, request *mcp.CallToolRequest, params *SetKeyframesParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}
	if params.Frame < 1 {
		return nil, nil, fmt.Errorf("frame must be a positive frame number")
	}
	if params.Location == nil && params.Rotation == nil && params.Scale == nil {
		return nil, nil, fmt.Errorf("at least one of location, rotation, scale is required")
	}
	if err := validation.ValidateVector("location", params.Location); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateVector("rotation", params.Rotation); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateVector("scale", params.Scale); err != nil {
		return nil, nil, err
	}

	args := map[string]any{
		"object_name": params.ObjectName,
		"frame":       params.Frame,
	}
	if params.Location != nil {
		args["location"] = params.Location
	}
	if params.Rotation != nil {
		args["rotation"] = params.Rotation
	}
	if params.Scale != nil {
		args["scale"] = params.Scale
	}

	result, err := s.bridge.Execute(ctx, "set_keyframes", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "set_keyframes")
	}
	return NewJSONResult(result), nil, nil
}

type PlayAnimationParams struct {
	FrameStart int `json:"frame_start,omitempty" description:"First frame of playback"`
	FrameEnd   int `json:"frame_end,omitempty" description:"Last frame of playback"`
}

func (s *Server) handlePlayAnimation(ctx context.Context, request *mcp.CallToolRequest, params *PlayAnimationParams) (*mcp.CallToolResult, any, error) {
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

	result, err := s.bridge.Execute(ctx, "play_animation", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "play_animation")
	}
	return NewJSONResult(result), nil, nil
}

type StopAnimationParams struct{}

func (s *Server) handleStopAnimation(ctx context.Context, request *mcp.CallToolRequest, params *StopAnimationParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "stop_animation", nil)
	if err != nil {
		return nil, nil, SanitizeError(err, "stop_animation")
	}
	return NewJSONResult(result), nil, nil
}

type ClearAnimationParams struct {
	ObjectName string `json:"object_name" description:"Object whose animation data to clear"`
	Confirm    bool   `json:"confirm,omitempty" description:"Must be true to actually clear"`
}

func (s *Server) handleClearAnimation(ctx context.Context, request *mcp.CallToolRequest, params *ClearAnimationParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}
	if err := requireConfirm(params.Confirm, "clear_animation"); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "clear_animation", map[string]any{"object_name": params.ObjectName})
	if err != nil {
		return nil, nil, SanitizeError(err, "clear_animation")
	}
	return NewJSONResult(result), nil, nil
}

type GetAnimationInfoParams struct {
	ObjectName string `json:"object_name" description:"Object to inspect"`
}

func (s *Server) handleGetAnimationInfo(ctx context.Context, request *mcp.CallToolRequest, params *GetAnimationInfoParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}

	result, err := s.bridge.Execute(ctx, "get_animation_info", map[string]any{"object_name": params.ObjectName})
	if err != nil {
		return nil, nil, SanitizeError(err, "get_animation_info")
	}
	return NewJSONResult(result), nil, nil
}
