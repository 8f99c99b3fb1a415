package mcp

// registerAllTools registers all MCP tools with the registry
func (s *Server) registerAllTools(r *Registry) {
	s.registerSceneTools(r)
	s.registerObjectTools(r)
	s.registerMaterialTools(r)
	s.registerMeshTools(r)
	s.registerAnimationTools(r)
	s.registerRenderTools(r)
	s.registerFileTools(r)
	s.registerCameraTools(r)
	s.registerUtilityTools(r)
	s.registerTokenTools(r)
	s.registerScheduleTools(r)
}

func (s *Server) registerSceneTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "create_scene",
		Description: "Create a new empty scene with the given name.",
		Access:      AccessWrite,
	}, s.handleCreateScene)

	Register(r, ToolDef{
		Name:        "set_scene_properties",
		Description: "Set frame range and FPS on the current scene. Pass only the fields to change.",
		Access:      AccessWrite,
	}, s.handleSetSceneProperties)

	Register(r, ToolDef{
		Name:        "get_scene_info",
		Description: "Get current scene details: name, frame range, objects, active camera.",
		Access:      AccessRead,
	}, s.handleGetSceneInfo)

	Register(r, ToolDef{
		Name:        "duplicate_scene",
		Description: "Copy an existing scene, including its objects, under a new name.",
		Access:      AccessWrite,
	}, s.handleDuplicateScene)

	Register(r, ToolDef{
		Name:        "delete_scene",
		Description: "Delete a scene. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleDeleteScene)

	Register(r, ToolDef{
		Name:        "set_world_properties",
		Description: "Set world background color and light strength.",
		Access:      AccessWrite,
	}, s.handleSetWorldProperties)

	Register(r, ToolDef{
		Name:        "get_world_properties",
		Description: "Get world background color and light strength.",
		Access:      AccessRead,
	}, s.handleGetWorldProperties)

	Register(r, ToolDef{
		Name:        "clear_scene",
		Description: "Remove every object from the current scene. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleClearScene)
}

func (s *Server) registerObjectTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "create_object",
		Description: "Add a primitive (CUBE, SPHERE, CYLINDER, CONE, PLANE, TORUS, MONKEY, EMPTY) at an optional location, rotation, and scale.",
		Access:      AccessWrite,
	}, s.handleCreateObject)

	Register(r, ToolDef{
		Name:        "transform_object",
		Description: "Move, rotate, or scale an object. Only provided fields change.",
		Access:      AccessWrite,
	}, s.handleTransformObject)

	Register(r, ToolDef{
		Name:        "delete_object",
		Description: "Delete an object. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleDeleteObject)

	Register(r, ToolDef{
		Name:        "duplicate_object",
		Description: "Duplicate an object, optionally giving the copy a name.",
		Access:      AccessWrite,
	}, s.handleDuplicateObject)

	Register(r, ToolDef{
		Name:        "join_objects",
		Description: "Join two or more mesh objects into one.",
		Access:      AccessWrite,
	}, s.handleJoinObjects)

	Register(r, ToolDef{
		Name:        "separate_objects",
		Description: "Separate a mesh object by SELECTED, MATERIAL, or LOOSE parts.",
		Access:      AccessWrite,
	}, s.handleSeparateObjects)

	Register(r, ToolDef{
		Name:        "parent_object",
		Description: "Parent one object to another, preserving world transform by default.",
		Access:      AccessWrite,
	}, s.handleParentObject)

	Register(r, ToolDef{
		Name:        "unparent_object",
		Description: "Remove an object's parent, preserving world transform by default.",
		Access:      AccessWrite,
	}, s.handleUnparentObject)

	Register(r, ToolDef{
		Name:        "get_object_info",
		Description: "Get object details: type, transform, dimensions, parent, modifiers, materials.",
		Access:      AccessRead,
	}, s.handleGetObjectInfo)
}

func (s *Server) registerMaterialTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "create_material",
		Description: "Create a material with optional base color, metallic, and roughness.",
		Access:      AccessWrite,
	}, s.handleCreateMaterial)

	Register(r, ToolDef{
		Name:        "assign_material",
		Description: "Assign a material to an object's material slot.",
		Access:      AccessWrite,
	}, s.handleAssignMaterial)

	Register(r, ToolDef{
		Name:        "update_material_properties",
		Description: "Update named properties on an existing material.",
		Access:      AccessWrite,
	}, s.handleUpdateMaterialProperties)

	Register(r, ToolDef{
		Name:        "delete_material",
		Description: "Delete a material. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleDeleteMaterial)

	Register(r, ToolDef{
		Name:        "duplicate_material",
		Description: "Copy a material under a new name.",
		Access:      AccessWrite,
	}, s.handleDuplicateMaterial)

	Register(r, ToolDef{
		Name:        "get_material_info",
		Description: "Get a material's properties and the objects using it.",
		Access:      AccessRead,
	}, s.handleGetMaterialInfo)

	Register(r, ToolDef{
		Name:        "list_materials",
		Description: "List every material in the file.",
		Access:      AccessRead,
	}, s.handleListMaterials)
}

func (s *Server) registerMeshTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "edit_mesh",
		Description: "Run a mesh edit operation (EXTRUDE, SUBDIVIDE, BEVEL, INSET, ...) with operation-specific params.",
		Access:      AccessWrite,
	}, s.handleEditMesh)

	Register(r, ToolDef{
		Name:        "add_modifier",
		Description: "Add a modifier (SUBSURF, MIRROR, ARRAY, SOLIDIFY, BOOLEAN, ...) with optional settings.",
		Access:      AccessWrite,
	}, s.handleAddModifier)

	Register(r, ToolDef{
		Name:        "apply_modifier",
		Description: "Apply a modifier, baking it into the mesh.",
		Access:      AccessWrite,
	}, s.handleApplyModifier)

	Register(r, ToolDef{
		Name:        "remove_modifier",
		Description: "Remove a modifier without applying it. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleRemoveModifier)

	Register(r, ToolDef{
		Name:        "get_mesh_info",
		Description: "Get mesh statistics: vertex, edge, and face counts, modifiers.",
		Access:      AccessRead,
	}, s.handleGetMeshInfo)

	Register(r, ToolDef{
		Name:        "remesh_object",
		Description: "Remesh an object using VOXEL, QUAD, BLOCKS, or SMOOTH mode.",
		Access:      AccessWrite,
	}, s.handleRemeshObject)
}

func (s *Server) registerAnimationTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "create_animation",
		Description: "Create keyframed animation for an object property from a frame-to-value mapping.",
		Access:      AccessWrite,
	}, s.handleCreateAnimation)

	Register(r, ToolDef{
		Name:        "set_keyframes",
		Description: "Key location, rotation, or scale on an object at a specific frame.",
		Access:      AccessWrite,
	}, s.handleSetKeyframes)

	Register(r, ToolDef{
		Name:        "play_animation",
		Description: "Start viewport playback, optionally over a frame range.",
		Access:      AccessWrite,
	}, s.handlePlayAnimation)

	Register(r, ToolDef{
		Name:        "stop_animation",
		Description: "Stop viewport playback.",
		Access:      AccessWrite,
	}, s.handleStopAnimation)

	Register(r, ToolDef{
		Name:        "clear_animation",
		Description: "Remove all animation data from an object. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleClearAnimation)

	Register(r, ToolDef{
		Name:        "get_animation_info",
		Description: "Get an object's animation data: actions, channels, keyframe counts.",
		Access:      AccessRead,
	}, s.handleGetAnimationInfo)
}

func (s *Server) registerRenderTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "render_scene",
		Description: "Render the current scene to an image, optionally at a given frame and output path.",
		Access:      AccessWrite,
	}, s.handleRenderScene)

	Register(r, ToolDef{
		Name:        "set_render_settings",
		Description: "Set render settings: engine, resolution, samples, output format.",
		Access:      AccessWrite,
	}, s.handleSetRenderSettings)

	Register(r, ToolDef{
		Name:        "get_render_settings",
		Description: "Get current render settings.",
		Access:      AccessRead,
	}, s.handleGetRenderSettings)

	Register(r, ToolDef{
		Name:        "preview_render",
		Description: "Render a quick low-quality preview and return it as an image.",
		Access:      AccessWrite,
	}, s.handlePreviewRender)

	Register(r, ToolDef{
		Name:        "get_render_preview",
		Description: "Fetch the most recent render result as an image.",
		Access:      AccessRead,
	}, s.handleGetRenderPreview)
}

func (s *Server) registerFileTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "import_file",
		Description: "Import a model file (OBJ, FBX, GLTF, STL, PLY) into the scene.",
		Access:      AccessWrite,
	}, s.handleImportFile)

	Register(r, ToolDef{
		Name:        "export_file",
		Description: "Export the scene or selected objects to a model file.",
		Access:      AccessWrite,
	}, s.handleExportFile)

	Register(r, ToolDef{
		Name:        "save_scene",
		Description: "Save the current .blend file, optionally to a new path.",
		Access:      AccessWrite,
	}, s.handleSaveScene)

	Register(r, ToolDef{
		Name:        "load_scene",
		Description: "Load a .blend file, replacing the current scene. Destructive; requires confirm=true.",
		Access:      AccessWrite,
	}, s.handleLoadScene)
}

func (s *Server) registerCameraTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "create_camera",
		Description: "Add a camera at an optional location and rotation.",
		Access:      AccessWrite,
	}, s.handleCreateCamera)

	Register(r, ToolDef{
		Name:        "set_active_camera",
		Description: "Make a camera the scene's active camera.",
		Access:      AccessWrite,
	}, s.handleSetActiveCamera)

	Register(r, ToolDef{
		Name:        "setup_lighting",
		Description: "Build a lighting rig: THREE_POINT, STUDIO, NATURAL, or SUNSET.",
		Access:      AccessWrite,
	}, s.handleSetupLighting)

	Register(r, ToolDef{
		Name:        "create_light",
		Description: "Add a light (SUN, SPOT, POINT, AREA) with optional energy and color.",
		Access:      AccessWrite,
	}, s.handleCreateLight)
}

func (s *Server) registerUtilityTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "get_viewport_screenshot",
		Description: "Capture the 3D viewport as an image.",
		Access:      AccessRead,
	}, s.handleGetViewportScreenshot)

	Register(r, ToolDef{
		Name:        "execute_blender_code",
		Description: "Run arbitrary Python code inside Blender. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleExecuteBlenderCode)

	Register(r, ToolDef{
		Name:        "get_server_status",
		Description: "Get bridge connection state and Blender listener details.",
		Access:      AccessRead,
	}, s.handleGetServerStatus)
}

func (s *Server) registerTokenTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "token_create",
		Description: "Create an API token with scope admin, admin:ro, or operator. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleTokenCreate)

	Register(r, ToolDef{
		Name:        "token_list",
		Description: "List API tokens with masked IDs and metadata. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleTokenList)

	Register(r, ToolDef{
		Name:        "token_revoke",
		Description: "Revoke an API token by ID. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleTokenRevoke)
}

func (s *Server) registerScheduleTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "schedule_create",
		Description: "Create a cron schedule that runs a tool with fixed arguments. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleCreate)

	Register(r, ToolDef{
		Name:        "schedule_list",
		Description: "List schedules, optionally filtered by tool or enabled state. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleList)

	Register(r, ToolDef{
		Name:        "schedule_get",
		Description: "Get schedule details by ID. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleGet)

	Register(r, ToolDef{
		Name:        "schedule_update",
		Description: "Update a schedule. Pass only fields to change. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleUpdate)

	Register(r, ToolDef{
		Name:        "schedule_delete",
		Description: "Delete a schedule by ID. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleDelete)

	Register(r, ToolDef{
		Name:        "schedule_run_now",
		Description: "Run a schedule immediately, ignoring cron timing. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleRunNow)

	Register(r, ToolDef{
		Name:        "schedule_history",
		Description: "List recent executions for a schedule. Requires admin scope.",
		Access:      AccessAdmin,
	}, s.handleScheduleHistory)
}
