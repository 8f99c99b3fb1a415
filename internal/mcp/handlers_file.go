package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/audit"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// File I/O Handlers

type ImportFileParams struct {
	FilePath string `json:"file_path" description:"Path to the file to import (listener-side path)"`
	FileType string `json:"file_type,omitempty" description:"File type: OBJ, FBX, GLTF, STL, PLY, or AUTO (default AUTO)"`
}

func (s *Server) handleImportFile(ctx context.Context, request *mcp.CallToolRequest, params *ImportFileParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.FilePath == "" {
		return nil, nil, fmt.Errorf("file_path is required")
	}
	if err := validation.ValidateFilePath(params.FilePath); err != nil {
		return nil, nil, err
	}

	fileType := strings.ToUpper(params.FileType)
	if fileType == "" {
		fileType = "AUTO"
	}

	result, err := s.bridge.Execute(ctx, "import_file", map[string]any{
		"file_path": params.FilePath,
		"file_type": fileType,
	})
	if err != nil {
		return nil, nil, SanitizeError(err, "import_file")
	}
	return NewJSONResult(result), nil, nil
}

type ExportFileParams struct {
	ObjectNames []string `json:"object_names,omitempty" description:"Objects to export (default: whole scene)"`
	FilePath    string   `json:"file_path" description:"Output file path (listener-side path)"`
	FileType    string   `json:"file_type,omitempty" description:"Export format: OBJ, FBX, GLTF, STL (default GLTF)"`
}

func (s *Server) handleExportFile(ctx context.Context, request *mcp.CallToolRequest, params *ExportFileParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.FilePath == "" {
		return nil, nil, fmt.Errorf("file_path is required")
	}
	if err := validation.ValidateFilePath(params.FilePath); err != nil {
		return nil, nil, err
	}

	fileType := strings.ToUpper(params.FileType)
	if fileType == "" {
		fileType = "GLTF"
	}

	args := map[string]any{
		"file_path": params.FilePath,
		"file_type": fileType,
	}
	if len(params.ObjectNames) > 0 {
		args["object_names"] = params.ObjectNames
	}

	result, err := s.bridge.Execute(ctx, "export_file", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "export_file")
	}
	return NewJSONResult(result), nil, nil
}

type SaveSceneParams struct {
	FilePath  string `json:"file_path,omitempty" description:"Path for the .blend file (default: current file)"`
	Overwrite bool   `json:"overwrite,omitempty" description:"Allow overwriting an existing file"`
}

func (s *Server) handleSaveScene(ctx context.Context, request *mcp.CallToolRequest, params *SaveSceneParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireWriteAccess(ctx); err != nil {
		return nil, nil, err
	}
	if params.FilePath != "" {
		if err := validation.ValidateFilePath(params.FilePath); err != nil {
			return nil, nil, err
		}
	}

	args := map[string]any{"overwrite": params.Overwrite}
	if params.FilePath != "" {
		args["file_path"] = params.FilePath
	}

	result, err := s.bridge.Execute(ctx, "save_scene", args)
	if err != nil {
		return nil, nil, SanitizeError(err, "save_scene")
	}
	return NewJSONResult(result), nil, nil
}

type LoadSceneParams struct {
	FilePath string `json:"file_path" description:"Path to the .blend file to load"`
	Confirm  bool   `json:"confirm,omitempty" description:"Must be true; loading replaces the current scene"`
}

func (s *Server) handleLoadScene(ctx context.Context, request *mcp.CallToolRequest, params *LoadSceneParams) (*mcp.CallToolResult, any, error) {
	authCtx, err := requireWriteAccess(ctx)
	if err != nil {
		return nil, nil, err
	}
	if params.FilePath == "" {
		return nil, nil, fmt.Errorf("file_path is required")
	}
	if err := validation.ValidateFilePath(params.FilePath); err != nil {
		return nil, nil, err
	}
	if err := requireConfirm(params.Confirm, "load_scene"); err != nil {
		return nil, nil, err
	}

	tokenID, scope := getTokenInfo(authCtx)
	result, err := s.bridge.Execute(ctx, "load_scene", map[string]any{"file_path": params.FilePath})
	if err != nil {
		audit.LogFailure(audit.OpSceneLoad, tokenID, scope, "load_scene", err)
		return nil, nil, SanitizeError(err, "load_scene")
	}
	audit.LogSuccess(audit.OpSceneLoad, tokenID, scope, "load_scene")
	return NewJSONResult(result), nil, nil
}
