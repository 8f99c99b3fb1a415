package mcp

import (
	"context"
	"fmt"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Material Handlers

type CreateMaterialParams struct {
	Name         string    `json:"name" description:"Material name"`
	MaterialType string    `json:"material_type,omitempty" description:"Material type (default BSDF_PRINCIPLED)"`
	BaseColor    []float64 `json:"base_color,omitempty" description:"Base color as [r, g, b] or [r, g, b, a]"`
	Metallic     float64   `json:"metallic,omitempty" description:"Metallic factor 0-1"`
	Roughness    float64   `json:"roughness,omitempty" description:"Roughness factor 0-1"`
}

func (s *Server) handleCreateMaterial(ctx context.Context, request *mcp.CallToolRequest, params *CreateMaterialParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.Name == "" {
		return nil, nil, fmt.Errorf("name is required")
	}
	if err := validation.ValidateObjectName(params.Name); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateColor("base_color", params.BaseColor); err != nil {
		return nil, nil, err
	}

	materialType := params.MaterialType
	if materialType == "" {
		materialType = "BSDF_PRINCIPLED"
	}

	args := map[string]any{
		"name":          params.Name,
		"material_type": materialType,
	}
	if params.BaseColor != nil {
		args["base_color"] = params.BaseColor
	}
	if params.Metallic != 0 {
		args["metallic"] = params.Metallic
	}
	if params.Roughness != 0 {
		args["roughness"] = params.Roughness
	}

	result, err := s.bridge.Execute(ctx, "create_material", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "create_material")
	}
	return NewJSONResult(result), nil, nil
}

type AssignMaterialParams struct {
	ObjectName   string `json:"object_name" description:"Object receiving the material"`
	MaterialName string `json:"material_name" description:"Material to assign"`
	MaterialSlot int    `json:"material_slot,omitempty" description:"Slot index (default 0)"`
}

func (s *Server) handleAssignMaterial(ctx context.Context, request *mcp.CallToolRequest, params *AssignMaterialParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.ObjectName == "" || params.MaterialName == "" {
		return nil, nil, fmt.Errorf("object_name and material_name are required")
	}

	result, err := s.bridge.Execute(ctx, "assign_material", map[string]any{
		"object_name":   params.ObjectName,
		"material_name": params.MaterialName,
		"material_slot": params.MaterialSlot,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "assign_material")
	}
	return NewJSONResult(result), nil, nil
}

type UpdateMaterialPropertiesParams struct {
	MaterialName string         `json:"material_name" description:"Material to update"`
	Properties   map[string]any `json:"properties" description:"Property name/value pairs (base_color, metallic, roughness, ...)"`
}

func (s *Server) handleUpdateMaterialProperties(ctx context.Context, request *mcp.CallToolRequest, params *UpdateMaterialPropertiesParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.MaterialName == "" {
		return nil, nil, fmt.Errorf("material_name is required")
	}
	if len(params.Properties) == 0 {
		return nil, nil, fmt.Errorf("properties is required")
	}

	result, err := s.bridge.Execute(ctx, "update_material_properties", map[string]any{
		"material_name": params.MaterialName,
		"properties":    params.Properties,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "update_material_properties")
	}
	return NewJSONResult(result), nil, nil
}

type DeleteMaterialParams struct {
	MaterialName string `json:"material_name" description:"Material to delete"`
	Confirm      bool   `json:"confirm,omitempty" description:"Must be true to actually delete"`
}

func (s *Server) handleDeleteMaterial(ctx context.Context, request *mcp.CallToolRequest, params *DeleteMaterialParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.MaterialName == "" {
		return nil, nil, fmt.Errorf("material_name is required")
	}
	if err := requireConfirm(params.Confirm, "delete_material"); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "delete_material", map[string]any{"material_name": params.MaterialName})
	if err != nil {
		return nil, nil, SanitizeError(err, "delete_material")
	}
	return NewJSONResult(result), nil, nil
}

type DuplicateMaterialParams struct {
	SourceName string `json:"source_name" description:"Material to duplicate"`
	NewName    string `json:"new_name" description:"Name for the copy"`
}

func (s *Server) handleDuplicateMaterial(ctx context.Context, request *mcp.CallToolRequest, params *DuplicateMaterialParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.SourceName == "" || params.NewName == "" {
		return nil, nil, fmt.Errorf("source_name and new_name are required")
	}
	if err := validation.ValidateObjectName(params.NewName); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "duplicate_material", map[string]any{
		"source_name": params.SourceName,
		"new_name":    params.NewName,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "duplicate_material")
	}
	return NewJSONResult(result), nil, nil
}

type GetMaterialInfoParams struct {
	MaterialName string `json:"material_name" description:"Material to inspect"`
}

func (s *Server) handleGetMaterialInfo(ctx context.Context, request *mcp.CallToolRequest, params *GetMaterialInfoParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}
	if params.MaterialName == "" {
		return nil, nil, fmt.Errorf("material_name is required")
	}

	result, err := s.bridge.Execute(ctx, "get_material_info", map[string]any{"material_name": params.MaterialName})
	if err != nil {
		return nil, nil, SanitizeError(err, "get_material_info")
	}
	return NewJSONResult(result), nil, nil
}

type ListMaterialsParams struct{}

func (s *Server) handleListMaterials(ctx context.Context, request *mcp.CallToolRequest, params *ListMaterialsParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAuth(ctx); err != nil {
		return nil, nil, err
	}

	result, err := s.bridge.Execute(ctx, "list_materials", nil)
	if err != nil {
		return nil, nil, SanitizeError(err, "list_materials")
	}
	return NewJSONResult(result), nil, nil
}
