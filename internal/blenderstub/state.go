// Package blenderstub emulates the in-Blender listener over TCP. It
// keeps a small in-memory scene graph and answers the same command
// verbs the real addon does, which makes it usable as a development
// target and as a test double.
package blenderstub

import (
	"fmt"
	"sync"
)

// Object is one scene object.
type Object struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Location  []float64        `json:"location"`
	Rotation  []float64        `json:"rotation"`
	Scale     []float64        `json:"scale"`
	Parent    string           `json:"parent,omitempty"`
	Material  string           `json:"material,omitempty"`
	Modifiers []Modifier       `json:"modifiers,omitempty"`
	Keyframes map[int][]string `json:"-"`
}

// Modifier is one modifier on an object.
type Modifier struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
	Applied  bool           `json:"applied"`
}

// Material is one material datablock.
type Material struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	BaseColor []float64      `json:"base_color"`
	Metallic  float64        `json:"metallic"`
	Roughness float64        `json:"roughness"`
	Props     map[string]any `json:"properties,omitempty"`
}

// Light is one light object.
type Light struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Location []float64 `json:"location"`
	Energy   float64   `json:"energy"`
	Color    []float64 `json:"color"`
}

// State is the in-memory scene graph behind the stub listener.
type State struct {
	mu sync.Mutex

	SceneName  string
	Scenes     map[string]bool
	Objects    map[string]*Object
	Materials  map[string]*Material
	Lights     map[string]*Light
	Cameras    map[string]bool
	ActiveCam  string
	FrameStart int
	FrameEnd   int
	FPS        int
	Playing    bool

	WorldColor    []float64
	WorldStrength float64

	RenderSettings map[string]any
	SavedPath      string
}

// NewState returns a state resembling a fresh default scene.
func NewState() *State {
	return &State{
		SceneName:     "Scene",
		Scenes:        map[string]bool{"Scene": true},
		Objects:       map[string]*Object{},
		Materials:     map[string]*Material{},
		Lights:        map[string]*Light{},
		Cameras:       map[string]bool{},
		FrameStart:    1,
		FrameEnd:      250,
		FPS:           24,
		WorldColor:    []float64{0.05, 0.05, 0.05},
		WorldStrength: 1.0,
		RenderSettings: map[string]any{
			"engine":       "CYCLES",
			"resolution_x": 1920,
			"resolution_y": 1080,
			"samples":      128,
		},
	}
}

func defaultVec(v []float64, def []float64) []float64 {
	if len(v) == 3 {
		return v
	}
	out := make([]float64, 3)
	copy(out, def)
	return out
}

// uniqueName appends .001-style suffixes on collision, the way Blender does.
func (s *State) uniqueName(base string) string {
	if _, ok := s.Objects[base]; !ok {
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if _, ok := s.Objects[candidate]; !ok {
			return candidate
		}
	}
}

func (s *State) object(name string) (*Object, error) {
	obj, ok := s.Objects[name]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", name)
	}
	return obj, nil
}

func (s *State) material(name string) (*Material, error) {
	mat, ok := s.Materials[name]
	if !ok {
		return nil, fmt.Errorf("material not found: %s", name)
	}
	return mat, nil
}
