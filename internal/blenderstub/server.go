package blenderstub

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const recvBufferSize = 8192

// tinyPNG is a 1x1 transparent PNG, returned as preview/screenshot data.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// command mirrors the documents the bridge writes.
type command struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
	ID     string         `json:"id"`
}

// Server is the stub listener. One goroutine per client, unframed JSON
// request/response per connection.
type Server struct {
	ln    net.Listener
	state *State

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Listen starts the stub on addr ("127.0.0.1:0" picks a free port).
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("stub listen: %w", err)
	}
	s := &Server{ln: ln, state: NewState()}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// State exposes the scene graph for test assertions.
func (s *Server) State() *State {
	return s.state
}

// Close stops accepting and waits for client goroutines.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleClient(conn)
		}()
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	var acc []byte
	buf := make([]byte, recvBufferSize)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		n, err := conn.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if json.Valid(acc) {
				reply := s.execute(acc)
				acc = nil
				if _, err := conn.Write(reply); err != nil {
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) execute(raw []byte) []byte {
	var cmd command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return errorReply("malformed command: " + err.Error())
	}

	result, err := s.dispatch(&cmd)
	if err != nil {
		return errorReply(err.Error())
	}

	reply, mErr := json.Marshal(map[string]any{
		"status": "success",
		"result": result,
	})
	if mErr != nil {
		return errorReply("encoding result: " + mErr.Error())
	}
	return reply
}

func errorReply(msg string) []byte {
	reply, _ := json.Marshal(map[string]any{
		"status":  "error",
		"message": msg,
	})
	return reply
}

func ok(message string, extra map[string]any) map[string]any {
	result := map[string]any{"success": true, "message": message}
	for k, v := range extra {
		result[k] = v
	}
	return result
}

func str(params map[string]any, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

func num(params map[string]any, key string, def float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return def
}

func vec(params map[string]any, key string) []float64 {
	raw, ok := params[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func (s *Server) dispatch(cmd *command) (map[string]any, error) {
	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	p := cmd.Params
	if p == nil {
		p = map[string]any{}
	}

	switch cmd.Type {
	case "ping":
		return map[string]any{"pong": true}, nil

	case "get_server_info", "get_server_status":
		return map[string]any{
			"name":    "blender-stub",
			"version": "4.0.0",
			"objects": len(st.Objects),
			"scene":   st.SceneName,
		}, nil

	// Scene management

	case "create_scene":
		name := str(p, "name", "New Scene")
		st.Scenes[name] = true
		st.SceneName = name
		return ok("scene created", map[string]any{"name": name}), nil

	case "set_scene_properties":
		st.FrameStart = int(num(p, "frame_start", float64(st.FrameStart)))
		st.FrameEnd = int(num(p, "frame_end", float64(st.FrameEnd)))
		st.FPS = int(num(p, "fps", float64(st.FPS)))
		return ok("scene properties updated", nil), nil

	case "get_scene_info":
		names := make([]string, 0, len(st.Objects))
		for name := range st.Objects {
			names = append(names, name)
		}
		return map[string]any{
			"name":        st.SceneName,
			"objects":     names,
			"frame_start": st.FrameStart,
			"frame_end":   st.FrameEnd,
			"fps":         st.FPS,
		}, nil

	case "duplicate_scene":
		src := str(p, "source_name", "")
		if !st.Scenes[src] {
			return nil, fmt.Errorf("scene not found: %s", src)
		}
		newName := str(p, "new_name", src+".001")
		st.Scenes[newName] = true
		return ok("scene duplicated", map[string]any{"name": newName}), nil

	case "delete_scene":
		name := str(p, "scene_name", "")
		if !st.Scenes[name] {
			return nil, fmt.Errorf("scene not found: %s", name)
		}
		if len(st.Scenes) == 1 {
			return nil, fmt.Errorf("cannot delete the last scene")
		}
		delete(st.Scenes, name)
		return ok("scene deleted", nil), nil

	case "set_world_properties":
		if c := vec(p, "color"); c != nil {
			st.WorldColor = c
		}
		st.WorldStrength = num(p, "strength", st.WorldStrength)
		return ok("world updated", nil), nil

	case "get_world_properties":
		return map[string]any{
			"color":    st.WorldColor,
			"strength": st.WorldStrength,
		}, nil

	case "clear_scene":
		removed := len(st.Objects)
		st.Objects = map[string]*Object{}
		st.Lights = map[string]*Light{}
		st.Cameras = map[string]bool{}
		st.ActiveCam = ""
		return ok("scene cleared", map[string]any{"removed": removed}), nil

	// Object management

	case "create_object":
		objType := strings.ToUpper(str(p, "object_type", "CUBE"))
		name := st.uniqueName(str(p, "name", objType))
		st.Objects[name] = &Object{
			Name:      name,
			Type:      objType,
			Location:  defaultVec(vec(p, "location"), []float64{0, 0, 0}),
			Rotation:  []float64{0, 0, 0},
			Scale:     []float64{1, 1, 1},
			Keyframes: map[int][]string{},
		}
		return ok("object created", map[string]any{"name": name}), nil

	case "transform_object":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		if v := vec(p, "location"); v != nil {
			obj.Location = v
		}
		if v := vec(p, "rotation"); v != nil {
			obj.Rotation = v
		}
		if v := vec(p, "scale"); v != nil {
			obj.Scale = v
		}
		return ok("object transformed", nil), nil

	case "delete_object":
		name := str(p, "object_name", "")
		if _, err := st.object(name); err != nil {
			return nil, err
		}
		delete(st.Objects, name)
		delete(st.Lights, name)
		delete(st.Cameras, name)
		return ok("object deleted", nil), nil

	case "duplicate_object":
		src, err := st.object(str(p, "source_name", ""))
		if err != nil {
			return nil, err
		}
		newName := str(p, "new_name", "")
		if newName == "" {
			newName = st.uniqueName(src.Name)
		}
		dup := *src
		dup.Name = newName
		dup.Keyframes = map[int][]string{}
		st.Objects[newName] = &dup
		return ok("object duplicated", map[string]any{"name": newName}), nil

	case "join_objects":
		namesRaw, _ := p["object_names"].([]any)
		if len(namesRaw) < 2 {
			return nil, fmt.Errorf("join requires at least two objects")
		}
		for _, n := range namesRaw {
			name, _ := n.(string)
			if _, err := st.object(name); err != nil {
				return nil, err
			}
		}
		for _, n := range namesRaw {
			delete(st.Objects, n.(string))
		}
		joined := str(p, "joined_name", "Joined")
		st.Objects[joined] = &Object{
			Name: joined, Type: "MESH",
			Location: []float64{0, 0, 0}, Rotation: []float64{0, 0, 0}, Scale: []float64{1, 1, 1},
			Keyframes: map[int][]string{},
		}
		return ok("objects joined", map[string]any{"name": joined}), nil

	case "separate_objects":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		part := st.uniqueName(obj.Name)
		st.Objects[part] = &Object{
			Name: part, Type: obj.Type,
			Location: obj.Location, Rotation: obj.Rotation, Scale: obj.Scale,
			Keyframes: map[int][]string{},
		}
		return ok("object separated", map[string]any{"parts": []string{obj.Name, part}}), nil

	case "parent_object":
		child, err := st.object(str(p, "child_name", ""))
		if err != nil {
			return nil, err
		}
		parent := str(p, "parent_name", "")
		if _, err := st.object(parent); err != nil {
			return nil, err
		}
		child.Parent = parent
		return ok("object parented", nil), nil

	case "unparent_object":
		child, err := st.object(str(p, "child_name", ""))
		if err != nil {
			return nil, err
		}
		child.Parent = ""
		return ok("object unparented", nil), nil

	case "get_object_info":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":     obj.Name,
			"type":     obj.Type,
			"location": obj.Location,
			"rotation": obj.Rotation,
			"scale":    obj.Scale,
			"parent":   obj.Parent,
			"material": obj.Material,
		}, nil

	// Materials

	case "create_material":
		name := str(p, "name", "Material")
		st.Materials[name] = &Material{
			Name:      name,
			Type:      str(p, "material_type", "BSDF_PRINCIPLED"),
			BaseColor: defaultVec(vec(p, "base_color"), []float64{0.8, 0.8, 0.8}),
			Metallic:  num(p, "metallic", 0),
			Roughness: num(p, "roughness", 0.5),
			Props:     map[string]any{},
		}
		return ok("material created", map[string]any{"name": name}), nil

	case "assign_material":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		matName := str(p, "material_name", "")
		if _, err := st.material(matName); err != nil {
			return nil, err
		}
		obj.Material = matName
		return ok("material assigned", nil), nil

	case "update_material_properties":
		mat, err := st.material(str(p, "material_name", ""))
		if err != nil {
			return nil, err
		}
		props, _ := p["properties"].(map[string]any)
		for k, v := range props {
			mat.Props[k] = v
		}
		return ok("material updated", map[string]any{"updated": len(props)}), nil

	case "delete_material":
		name := str(p, "material_name", "")
		if _, err := st.material(name); err != nil {
			return nil, err
		}
		delete(st.Materials, name)
		for _, obj := range st.Objects {
			if obj.Material == name {
				obj.Material = ""
			}
		}
		return ok("material deleted", nil), nil

	case "duplicate_material":
		src, err := st.material(str(p, "source_name", ""))
		if err != nil {
			return nil, err
		}
		newName := str(p, "new_name", src.Name+".001")
		dup := *src
		dup.Name = newName
		st.Materials[newName] = &dup
		return ok("material duplicated", map[string]any{"name": newName}), nil

	case "get_material_info":
		mat, err := st.material(str(p, "material_name", ""))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":       mat.Name,
			"type":       mat.Type,
			"base_color": mat.BaseColor,
			"metallic":   mat.Metallic,
			"roughness":  mat.Roughness,
			"properties": mat.Props,
		}, nil

	case "list_materials":
		names := make([]string, 0, len(st.Materials))
		for name := range st.Materials {
			names = append(names, name)
		}
		return map[string]any{"materials": names, "count": len(names)}, nil

	// Mesh operations

	case "edit_mesh":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		op := str(p, "operation", "")
		if op == "" {
			return nil, fmt.Errorf("operation is required")
		}
		return ok(fmt.Sprintf("%s applied to %s", op, obj.Name), nil), nil

	case "add_modifier":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		settings, _ := p["settings"].(map[string]any)
		obj.Modifiers = append(obj.Modifiers, Modifier{
			Name:     str(p, "modifier_name", "Modifier"),
			Type:     strings.ToUpper(str(p, "modifier_type", "SUBSURF")),
			Settings: settings,
		})
		return ok("modifier added", map[string]any{"count": len(obj.Modifiers)}), nil

	case "apply_modifier":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		name := str(p, "modifier_name", "")
		for i := range obj.Modifiers {
			if obj.Modifiers[i].Name == name {
				obj.Modifiers[i].Applied = true
				return ok("modifier applied", nil), nil
			}
		}
		// Applying a modifier that was never added creates then applies it
		settings, _ := p["settings"].(map[string]any)
		obj.Modifiers = append(obj.Modifiers, Modifier{
			Name:     name,
			Type:     strings.ToUpper(str(p, "modifier_type", "SUBSURF")),
			Settings: settings,
			Applied:  true,
		})
		return ok("modifier applied", nil), nil

	case "remove_modifier":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		name := str(p, "modifier_name", "")
		for i := range obj.Modifiers {
			if obj.Modifiers[i].Name == name {
				obj.Modifiers = append(obj.Modifiers[:i], obj.Modifiers[i+1:]...)
				return ok("modifier removed", nil), nil
			}
		}
		return nil, fmt.Errorf("modifier not found: %s", name)

	case "get_mesh_info":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":      obj.Name,
			"vertices":  8,
			"edges":     12,
			"polygons":  6,
			"modifiers": obj.Modifiers,
		}, nil

	case "remesh_object":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		return ok("object remeshed", map[string]any{
			"name":       obj.Name,
			"mode":       strings.ToUpper(str(p, "mode", "VOXEL")),
			"voxel_size": num(p, "voxel_size", 0.1),
		}), nil

	// Animation

	case "create_animation":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		keyframes, _ := p["keyframes"].(map[string]any)
		channel := strings.ToUpper(str(p, "animation_type", "LOCATION"))
		for frameStr := range keyframes {
			frame, err := strconv.Atoi(frameStr)
			if err != nil {
				return nil, fmt.Errorf("invalid frame number: %s", frameStr)
			}
			obj.Keyframes[frame] = append(obj.Keyframes[frame], channel)
		}
		return ok("animation created", map[string]any{"keyframe_count": len(keyframes)}), nil

	case "set_keyframes":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		frame := int(num(p, "frame", 1))
		for _, channel := range []string{"location", "rotation", "scale"} {
			if vec(p, channel) != nil {
				obj.Keyframes[frame] = append(obj.Keyframes[frame], strings.ToUpper(channel))
			}
		}
		return ok("keyframes set", map[string]any{"frame": frame}), nil

	case "play_animation":
		st.Playing = true
		st.FrameStart = int(num(p, "frame_start", float64(st.FrameStart)))
		st.FrameEnd = int(num(p, "frame_end", float64(st.FrameEnd)))
		return ok("animation playing", nil), nil

	case "stop_animation":
		st.Playing = false
		return ok("animation stopped", nil), nil

	case "clear_animation":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		cleared := len(obj.Keyframes)
		obj.Keyframes = map[int][]string{}
		return ok("animation cleared", map[string]any{"cleared": cleared}), nil

	case "get_animation_info":
		obj, err := st.object(str(p, "object_name", ""))
		if err != nil {
			return nil, err
		}
		frames := make([]int, 0, len(obj.Keyframes))
		for f := range obj.Keyframes {
			frames = append(frames, f)
		}
		return map[string]any{
			"object_name": obj.Name,
			"frames":      frames,
			"playing":     st.Playing,
		}, nil

	// Rendering

	case "render_scene":
		return ok("render complete", map[string]any{
			"output_path": str(p, "output_path", "/tmp/render.png"),
			"render_time": 0.25,
		}), nil

	case "set_render_settings":
		settings, _ := p["settings"].(map[string]any)
		for k, v := range settings {
			st.RenderSettings[k] = v
		}
		return ok("render settings updated", map[string]any{"updated": len(settings)}), nil

	case "get_render_settings":
		settings := make(map[string]any, len(st.RenderSettings))
		for k, v := range st.RenderSettings {
			settings[k] = v
		}
		return settings, nil

	case "preview_render":
		return ok("preview rendered", map[string]any{
			"resolution": int(num(p, "resolution", 800)),
			"image_data": tinyPNG,
		}), nil

	case "get_render_preview", "get_viewport_screenshot":
		return map[string]any{
			"success":    true,
			"image_data": tinyPNG,
			"format":     "png",
			"max_size":   int(num(p, "max_size", 800)),
		}, nil

	// File I/O

	case "import_file":
		path := str(p, "file_path", "")
		if path == "" {
			return nil, fmt.Errorf("file_path is required")
		}
		name := st.uniqueName("Imported")
		st.Objects[name] = &Object{
			Name: name, Type: "MESH",
			Location: []float64{0, 0, 0}, Rotation: []float64{0, 0, 0}, Scale: []float64{1, 1, 1},
			Keyframes: map[int][]string{},
		}
		return ok("file imported", map[string]any{"objects": []string{name}}), nil

	case "export_file":
		path := str(p, "file_path", "")
		if path == "" {
			return nil, fmt.Errorf("file_path is required")
		}
		namesRaw, _ := p["object_names"].([]any)
		for _, n := range namesRaw {
			name, _ := n.(string)
			if _, err := st.object(name); err != nil {
				return nil, err
			}
		}
		return ok("file exported", map[string]any{"path": path, "count": len(namesRaw)}), nil

	case "save_scene":
		path := str(p, "file_path", st.SavedPath)
		if path == "" {
			path = "/untitled.blend"
		}
		overwrite, _ := p["overwrite"].(bool)
		if st.SavedPath == path && !overwrite {
			return nil, fmt.Errorf("file exists and overwrite is false: %s", path)
		}
		st.SavedPath = path
		return ok("scene saved", map[string]any{"path": path}), nil

	case "load_scene":
		path := str(p, "file_path", "")
		if path == "" {
			return nil, fmt.Errorf("file_path is required")
		}
		st.Objects = map[string]*Object{}
		st.SavedPath = path
		return ok("scene loaded", map[string]any{"path": path}), nil

	// Camera and lighting

	case "create_camera":
		name := st.uniqueName(str(p, "name", "Camera"))
		st.Objects[name] = &Object{
			Name: name, Type: "CAMERA",
			Location:  defaultVec(vec(p, "location"), []float64{0, -5, 2}),
			Rotation:  defaultVec(vec(p, "rotation"), []float64{1.1, 0, 0}),
			Scale:     []float64{1, 1, 1},
			Keyframes: map[int][]string{},
		}
		st.Cameras[name] = true
		if st.ActiveCam == "" {
			st.ActiveCam = name
		}
		return ok("camera created", map[string]any{"name": name}), nil

	case "set_active_camera":
		name := str(p, "camera_name", "")
		if !st.Cameras[name] {
			return nil, fmt.Errorf("camera not found: %s", name)
		}
		st.ActiveCam = name
		return ok("active camera set", nil), nil

	case "setup_lighting":
		kind := strings.ToUpper(str(p, "lighting_type", "THREE_POINT"))
		counts := map[string]int{"THREE_POINT": 3, "NATURAL": 1, "STUDIO": 4, "SUNSET": 2}
		count, known := counts[kind]
		if !known {
			return nil, fmt.Errorf("unknown lighting type: %s", kind)
		}
		for i := 0; i < count; i++ {
			name := st.uniqueName(fmt.Sprintf("%s_Light", kind))
			st.Lights[name] = &Light{
				Name: name, Type: "AREA",
				Location: defaultVec(vec(p, "location"), []float64{0, 0, 5}),
				Energy:   1000, Color: []float64{1, 1, 1},
			}
			st.Objects[name] = &Object{
				Name: name, Type: "LIGHT",
				Location: st.Lights[name].Location, Rotation: []float64{0, 0, 0}, Scale: []float64{1, 1, 1},
				Keyframes: map[int][]string{},
			}
		}
		return ok("lighting setup created", map[string]any{"light_count": count}), nil

	case "create_light":
		name := st.uniqueName(str(p, "name", "Light"))
		light := &Light{
			Name:     name,
			Type:     strings.ToUpper(str(p, "light_type", "POINT")),
			Location: defaultVec(vec(p, "location"), []float64{0, 0, 5}),
			Energy:   num(p, "energy", 1000),
			Color:    defaultVec(vec(p, "color"), []float64{1, 1, 1}),
		}
		st.Lights[name] = light
		st.Objects[name] = &Object{
			Name: name, Type: "LIGHT",
			Location: light.Location, Rotation: []float64{0, 0, 0}, Scale: []float64{1, 1, 1},
			Keyframes: map[int][]string{},
		}
		return ok("light created", map[string]any{"name": name}), nil

	// Code execution is refused by the stub.

	case "execute_code":
		return nil, fmt.Errorf("execute_code is not supported by the stub listener")

	default:
		return nil, fmt.Errorf("unknown command type: %s", cmd.Type)
	}
}
