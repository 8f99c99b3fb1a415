package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Object Handlers

type CreateObjectParams struct {
	ObjectType string    `json:"object_type" description:"Primitive type: CUBE, SPHERE, CYLINDER, CONE, PLANE, TORUS, MONKEY, EMPTY"`
	Name       string    `json:"name,omitempty" description:"Object name (auto-generated if omitted)"`
	Location   []float64 `json:"location,omitempty" description:"Position as [x, y, z]"`
	Rotation   []float64 `json:"rotation,omitempty" description:"Euler rotation in radians as [x, y, z]"`
	Scale      []float64 `json:"scale,omitempty" description:"Scale as [x, y, z]"`
}

func (s *Server) handleCreateObject(ctx context.Context, request *mcp.CallToolRequest, params *CreateObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}

	objectType := strings.ToUpper(params.ObjectType)
	if err := validation.ValidateObjectType(objectType); err != nil {
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
	if err := validation.ValidateVector("scale", params.Scale); err != nil {
		return nil, nil, err
	}

	args := map[string]any{"object_type": objectType}
	if params.Name != "" {
		args["name"] = params.Name
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

	result, err := s.bridge.Execute(ctx, "create_object", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "create_object")
	}
	return NewJSONResult(result), nil, nil
}

type TransformObjectParams struct {
	ObjectName string    `json:"object_name" description:"Object to transform"`
	Location   []float64 `json:"location,omitempty" description:"New position as [x, y, z]"`
	Rotation   []float64 `json:"rotation,omitempty" description:"New Euler rotation in radians"`
	Scale      []float64 `json:"scale,omitempty" description:"New scale as [x, y, z]"`
}

func (s *Server) handleTransformObject(ctx context.Context, request *mcp.CallToolRequest, params *TransformObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
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

	// Only provided fields are sent so the listener leaves the rest untouched
	args := map[string]any{"object_name": params.ObjectName}
	if params.Location != nil {
		args["location"] = params.Location
	}
	if params.Rotation != nil {
		args["rotation"] = params.Rotation
	}
	if params.Scale != nil {
		args["scale"] = params.Scale
	}

	result, err := s.bridge.Execute(ctx, "transform_object", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "transform_object")
	}
	return NewJSONResult(result), nil, nil
}

type DeleteObjectParams struct {
	ObjectName string `json:"object_name" description:"Object to delete"`
	Confirm    bool   `json:"confirm,omitempty" description:"Must be true to actually delete"`
}

func (s *Server) handleDeleteObject(ctx context.Context, request *mcp.CallToolRequest, params *DeleteObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}
	if err := requireConfirm(params.Confirm, "delete_object"); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "delete_object", map[string]any{"object_name": params.ObjectName})
	if err != nil {
		return nil, nil, SanitizeError(err, "delete_object")
	}
	return NewJSONResult(result), nil, nil
}

type DuplicateObjectParams struct {
	SourceName string `json:"source_name" description:"Object to duplicate"`
	NewName    string `json:"new_name,omitempty" description:"Name for the copy (auto-suffixed if omitted)"`
}

func (s *Server) handleDuplicateObject(ctx context.Context, request *mcp.CallToolRequest, params *DuplicateObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.SourceName == "" {
		return nil, nil, fmt.Errorf("source_name is required")
	}
	if params.NewName != "" {
		if err := validation.ValidateObjectName(params.NewName); err != nil {
			return nil, nil, err
		}
	}

	args := map[string]any{"source_name": params.SourceName}
	if params.NewName != "" {
		args["new_name"] = params.NewName
	}

	result, err := s.bridge.Execute(ctx, "duplicate_object", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "duplicate_object")
	}
	return NewJSONResult(result), nil, nil
}

type JoinObjectsParams struct {
	ObjectNames []string `json:"object_names" description:"Objects to join (two or more)"`
	JoinedName  string   `json:"joined_name,omitempty" description:"Name for the joined object"`
}

func (s *Server) handleJoinObjects(ctx context.Context, request *mcp.CallToolRequest, params *JoinObjectsParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if len(params.ObjectNames) < 2 {
		return nil, nil, fmt.Errorf("object_names must contain at least two objects")
	}

	args := map[string]any{"object_names": params.ObjectNames}
	if params.JoinedName != "" {
		args["joined_name"] = params.JoinedName
	}

	result, err := s.bridge.Execute(ctx, "join_objects", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "join_objects")
	}
	return NewJSONResult(result), nil, nil
}

type SeparateObjectsParams struct {
	ObjectName string `json:"object_name" description:"Object to separate"`
	Mode       string `json:"mode,omitempty" description:"Separation mode: SELECTED, MATERIAL, or LOOSE (default SELECTED)"`
}

func (s *Server) handleSeparateObjects(ctx context.Context, request *mcp.CallToolRequest, params *SeparateObjectsParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}

	mode := strings.ToUpper(params.Mode)
	if mode == "" {
		mode = "SELECTED"
	}

	result, err := s.bridge.Execute(ctx, "separate_objects", map[string]any{
		"object_name": params.ObjectName,
		"mode":        mode,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "separate_objects")
	}
	return NewJSONResult(result), nil, nil
}

type ParentObjectParams struct {
	ChildName     string `json:"child_name" description:"Object to parent"`
	ParentName    string `json:"parent_name" description:"Parent object"`
	KeepTransform *bool  `json:"keep_transform,omitempty" description:"Preserve world transform (default true)"`
}

func (s *Server) handleParentObject(ctx context.Context, request *mcp.CallToolRequest, params *ParentObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ChildName == "" || params.ParentName == "" {
		return nil, nil, fmt.Errorf("child_name and parent_name are required")
	}

	keepTransform := true
	if params.KeepTransform != nil {
		keepTransform = *params.KeepTransform
	}

	result, err := s.bridge.Execute(ctx, "parent_object", map[string]any{
		"child_name":     params.ChildName,
		"parent_name":    params.ParentName,
		"keep_transform": keepTransform,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "parent_object")
	}
	return NewJSONResult(result), nil, nil
}

type UnparentObjectParams struct {
	ChildName     string `json:"child_name" description:"Object to unparent"`
	KeepTransform *bool  `json:"keep_transform,omitempty" description:"Preserve world transform (default true)"`
}

func (s *Server) handleUnparentObject(ctx context.Context, request *mcp.CallToolRequest, params *UnparentObjectParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ChildName == "" {
		return nil, nil, fmt.Errorf("child_name is required")
	}

	keepTransform := true
	if params.KeepTransform != nil {
		keepTransform = *params.KeepTransform
	}

	result, err := s.bridge.Execute(ctx, "unparent_object", map[string]any{
		"child_name":     params.ChildName,
		"keep_transform": keepTransform,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "unparent_object")
	}
	return NewJSONResult(result), nil, nil
}

type GetObjectInfoParams struct {
	ObjectName string `json:"object_name" description:"Object to inspect"`
}

func (s *Server) handleGetObjectInfo(ctx context.Context, request *mcp.CallToolRequest, params *GetObjectInfoParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" {
		return nil, nil, fmt.Errorf("object_name is required")
	}

	result, err := s.bridge.Execute(ctx, "get_object_info", map[string]any{"object_name": params.ObjectName})
	if err != nil {
		return nil, nil, SanitizeError(err, "get_object_info")
	}
	return NewJSONResult(result), nil, nil
}
