package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// scheduleIDRegex matches the IDs the schedule store hands out
	scheduleIDRegex = regexp.MustCompile(`^sched_[0-9a-f]{8}$`)

	// safePathRegex matches safe path components (alphanumeric, dash, underscore, dot)
	safePathRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	// objectNameRegex matches Blender datablock names (letters, digits, space, dash, underscore, dot)
	objectNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_. -]+$`)
)

// Object types the create_object command accepts
var objectTypes = map[string]bool{
	"CUBE": true, "SPHERE": true, "CYLINDER": true, "CONE": true,
	"PLANE": true, "TORUS": true, "MONKEY": true, "EMPTY": true,
}

// Light types the create_light command accepts
var lightTypes = map[string]bool{
	"SUN": true, "SPOT": true, "POINT": true, "AREA": true,
}

// ValidateScheduleID checks a schedule ID as accepted by the schedule
// tools (sched_ followed by eight hex characters).
func ValidateScheduleID(id string) error {
	if id == "" {
		return fmt.Errorf("schedule_id is required")
	}
	if !scheduleIDRegex.MatchString(id) {
		return fmt.Errorf("invalid schedule ID: %s", id)
	}
	return nil
}

// ValidateObjectName validates a scene datablock name (object, material, scene, camera)
func ValidateObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("name too long (max 63 chars): %s", name)
	}
	if !objectNameRegex.MatchString(name) {
		return fmt.Errorf("invalid name: %s", name)
	}
	return nil
}

// ValidateObjectType checks a primitive type for create_object
func ValidateObjectType(objectType string) error {
	if !objectTypes[strings.ToUpper(objectType)] {
		return fmt.Errorf("unsupported object type: %s", objectType)
	}
	return nil
}

// ValidateLightType checks a light type for create_light
func ValidateLightType(lightType string) error {
	if !lightTypes[strings.ToUpper(lightType)] {
		return fmt.Errorf("unsupported light type: %s", lightType)
	}
	return nil
}

// ValidateVector checks that a coordinate triple has exactly three components
func ValidateVector(name string, v []float64) error {
	if v == nil {
		return nil
	}
	if len(v) != 3 {
		return fmt.Errorf("%s must have exactly 3 components, got %d", name, len(v))
	}
	return nil
}

// ValidateColor checks an RGB or RGBA color with components in [0, 1]
func ValidateColor(name string, c []float64) error {
	if c == nil {
		return nil
	}
	if len(c) != 3 && len(c) != 4 {
		return fmt.Errorf("%s must have 3 or 4 components, got %d", name, len(c))
	}
	for i, v := range c {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s component %d out of range [0,1]: %g", name, i, v)
		}
	}
	return nil
}

// ValidateFrameRange checks that a frame range is sane
func ValidateFrameRange(start, end int) error {
	if start < 0 {
		return fmt.Errorf("frame_start must be non-negative, got %d", start)
	}
	if end < start {
		return fmt.Errorf("frame_end (%d) must be >= frame_start (%d)", end, start)
	}
	return nil
}

// ValidateFilePath checks a listener-side file path (import/export/save/load).
// Absolute paths are fine since they resolve on the Blender host, but
// traversal segments and control characters are rejected.
func ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path traversal detected: %s", path)
	}
	for _, c := range path {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("control character in path")
		}
	}
	return nil
}

// SanitizePath removes path traversal attempts and validates path components
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	// Reject obvious traversal attempts
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path traversal detected: %s", path)
	}

	// Reject absolute paths when relative expected
	if strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("absolute paths not allowed: %s", path)
	}

	// Split and validate each component
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if part == "" {
			continue // Allow trailing/leading slashes
		}
		if !safePathRegex.MatchString(part) {
			return "", fmt.Errorf("unsafe path component: %s", part)
		}
	}

	return path, nil
}
