package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Mesh Handlers

type EditMeshParams struct {
	ObjectName string         `json:"object_name" description:"Mesh object to edit"`
	Operation  string         `json:"operation" description:"Edit operation: EXTRUDE, SUBDIVIDE, BEVEL, INSET, ..."`
	Params     map[string]any `json:"params,omitempty" description:"Operation-specific parameters"`
}

func (s *Server) handleEditMesh(ctx context.Context, request *mcp.CallToolRequest, params *EditMeshParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" || params.Operation == "" {
		return nil, nil, fmt.Errorf("object_name and operation are required")
	}

	args := map[string]any{
		"object_name": params.ObjectName,
		"operation":   strings.ToUpper(params.Operation),
	}
	if params.Params != nil {
		args["params"] = params.Params
	}

	result, err := s.bridge.Execute(ctx, "edit_mesh", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "edit_mesh")
	}
	return NewJSONResult(result), nil, nil
}

type AddModifierParams struct {
	ObjectName   string         `json:"object_name" description:"Object receiving the modifier"`
	ModifierName string         `json:"modifier_name,omitempty" description:"Modifier name (defaults to the type)"`
	ModifierType string         `json:"modifier_type" description:"Modifier type: SUBSURF, MIRROR, ARRAY, SOLIDIFY, BOOLEAN, ..."`
	Settings     map[string]any `json:"settings,omitempty" description:"Modifier settings"`
}

func (s *Server) handleAddModifier(ctx context.Context, request *mcp.CallToolRequest, params *AddModifierParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" || params.ModifierType == "" {
		return nil, nil, fmt.Errorf("object_name and modifier_type are required")
	}

	args := map[string]any{
		"object_name":   params.ObjectName,
		"modifier_type": strings.ToUpper(params.ModifierType),
	}
	if params.ModifierName != "" {
		args["modifier_name"] = params.ModifierName
	}
	if params.Settings != nil {
		args["settings"] = params.Settings
	}

	result, err := s.bridge.Execute(ctx, "add_modifier", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "add_modifier")
	}
	return NewJSONResult(result), nil, nil
}

type ApplyModifierParams struct {
	ObjectName   string `json:"object_name" description:"Object owning the modifier"`
	ModifierName string `json:"modifier_name" description:"Modifier to apply"`
}

func (s *Server) handleApplyModifier(ctx context.Context, request *mcp.CallToolRequest, params *ApplyModifierParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" || params.ModifierName == "" {
		return nil, nil, fmt.Errorf("object_name and modifier_name are required")
	}

	result, err := s.bridge.Execute(ctx, "apply_modifier", map[string]any{
		"object_name":   params.ObjectName,
		"modifier_name": params.ModifierName,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "apply_modifier")
	}
	return NewJSONResult(result), nil, nil
}

type RemoveModifierParams struct {
	ObjectName   string `json:"object_name" description:"Object owning the modifier"`
	ModifierName string `json:"modifier_name" description:"Modifier to remove"`
	Confirm      bool   `json:"confirm,omitempty" description:"Must be true to actually remove"`
}

func (s *Server) handleRemoveModifier(ctx context.Context, request *mcp.CallToolRequest, params *RemoveModifierParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" || params.ModifierName == "" {
		return nil, nil, fmt.Errorf("object_name and modifier_name are required")
	}
	if err := requireConfirm(params.Confirm, "remove_modifier"); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "remove_modifier", map[string]any{
		"object_name":   params.ObjectName,
		"modifier_name": params.ModifierName,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "remove_modifier")
	}
	return NewJSONResult(result), nil, nil
}

type GetMeshInfoParams struct {
	ObjectName string `json:"object_name" description:"Mesh object to inspect"`
}

func (s *Server) handleGetMeshInfo(ctx context.Context, request *mcp.CallToolRequest, params *GetMeshInfoParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}

	result, err := s.bridge.Execute(ctx, "get_mesh_info", map[string]any{"object_name": params.ObjectName})
	if err != nil {
		return nil, nil, SanitizeError(err, "get_mesh_info")
	}
	return NewJSONResult(result), nil, nil
}

type RemeshObjectParams struct {
	ObjectName string  `json:"object_name" description:"Object to remesh"`
	Mode       string  `json:"mode,omitempty" description:"Remesh mode: VOXEL, QUAD, BLOCKS, SMOOTH (default VOXEL)"`
	VoxelSize  float64 `json:"voxel_size,omitempty" description:"Voxel size for VOXEL mode (default 0.1)"`
}

func (s *Server) handleRemeshObject(ctx context.Context, request *mcp.CallToolRequest, params *RemeshObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}

	mode := strings.ToUpper(params.Mode)
	if mode == "" {
		mode = "VOXEL"
	}
	voxelSize := params.VoxelSize
	if voxelSize <= 0 {
		voxelSize = 0.1
	}

	result, err := s.bridge.Execute(ctx, "remesh_object", map[string]any{
		"object_name": params.ObjectName,
		"mode":        mode,
		"voxel_size":  voxelSize,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "remesh_object")
	}
	return NewJSONResult(result), nil, nil
}
