package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Camera and Lighting Handlers

type CreateCameraParams struct {
	Name     string    `json:"name,omitempty" description:"Camera name (auto-generated if omitted)"`
	Location []float64 `json:"location,omitempty" description:"Camera position as [x, y, z]"`
	Rotation []float64 `json:"rotation,omitempty" description:"Euler rotation in radians as [x, y, z]"`
}

func (s *Server) handleCreateCamera(ctx context.Context, request *mcp.CallToolRequest, params *CreateCameraParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.Name != "" {
		if err := validation.ValidateObjectName(params.Name); err != nil {
			return nil, nil, err
		}
	}
	if err := validation.ValidateVector("location", params.Location); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateVector("rotation", params.Rotation); err != nil {
		return nil, nil, err
	}

	args := map[string]any{}
	if params.Name != "" {
		args["name"] = params.Name
	}
	if params.Location != nil {
		args["location"] = params.Location
	}
	if params.Rotation != nil {
		args["rotation"] = params.Rotation
	}

	result, err := s.bridge.Execute(ctx, "create_camera", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "create_camera")
	}
	return NewJSONResult(result), nil, nil
}

type SetActiveCameraParams struct {
	CameraName string `json:"camera_name" description:"Camera to make active"`
}

func (s *Server) handleSetActiveCamera(ctx context.Context, request *mcp.CallToolRequest, params *SetActiveCameraParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.CameraName == "" {
		return nil, nil, fmt.Errorf("camera_name is required")
	}

	result, err := s.bridge.Execute(ctx, "set_active_camera", map[string]any{"camera_name": params.CameraName})
	if err != nil {
		return nil, nil, SanitizeError(err, "set_active_camera")
	}
	return NewJSONResult(result), nil, nil
}

type SetupLightingParams struct {
	LightingType string    `json:"lighting_type,omitempty" description:"Lighting rig: THREE_POINT, STUDIO, NATURAL, SUNSET (default THREE_POINT)"`
	Location     []float64 `json:"location,omitempty" description:"Center of the rig as [x, y, z]"`
}

func (s *Server) handleSetupLighting(ctx context.Context, request *mcp.CallToolRequest, params *SetupLightingParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateVector("location", params.Location); err != nil {
		return nil, nil, err
	}

	lightingType := strings.ToUpper(params.LightingType)
	if lightingType == "" {
		lightingType = "THREE_POINT"
	}

	args := map[string]any{"lighting_type": lightingType}
	if params.Location != nil {
		args["location"] = params.Location
	}

	result, err := s.bridge.Execute(ctx, "setup_lighting", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "setup_lighting")
	}
	return NewJSONResult(result), nil, nil
}

type CreateLightParams struct {
	LightType string    `json:"light_type" description:"Light type: SUN, SPOT, POINT, AREA"`
	Name      string    `json:"name,omitempty" description:"Light name (auto-generated if omitted)"`
	Location  []float64 `json:"location,omitempty" description:"Light position as [x, y, z]"`
	Energy    float64   `json:"energy,omitempty" description:"Light power in watts (default 1000)"`
	Color     []float64 `json:"color,omitempty" description:"Light color as [r, g, b]"`
}

func (s *Server) handleCreateLight(ctx context.Context, request *mcp.CallToolRequest, params *CreateLightParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}

	lightType := strings.ToUpper(params.LightType)
	if err := validation.ValidateLightType(lightType); err != nil {
		return nil, nil, err
	}
	if params.Name != "" {
		if err := validation.ValidateObjectName(params.Name); err != nil {
			return nil, nil, err
		}
	}
	if err := validation.ValidateVector("location", params.Location); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateColor("color", params.Color); err != nil {
		return nil, nil, err
	}

	energy := params.Energy
	if energy <= 0 {
		energy = 1000
	}

	args := map[string]any{
		"light_type": lightType,
		"energy":     energy,
	}
	if params.Name != "" {
		args["name"] = params.Name
	}
	if params.Location != nil {
		args["location"] = params.Location
	}
	if params.Color != nil {
		args["color"] = params.Color
	}

	result, err := s.bridge.Execute(ctx, "create_light", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "create_light")
	}
	return NewJSONResult(result), nil, nil
}
