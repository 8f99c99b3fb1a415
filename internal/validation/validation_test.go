package validation

import (
	"testing"
)

func TestValidateScheduleID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "sched_a1b2c3d4", false},
		{"empty", "", true},
		{"missing prefix", "a1b2c3d4", true},
		{"wrong prefix", "exec_a1b2c3d4", true},
		{"too short", "sched_a1b2", true},
		{"uppercase hex", "sched_A1B2C3D4", true},
		{"path traversal attempt", "../../../etc/passwd", true},
		{"SQL injection attempt", "'; DROP TABLE schedules; --", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScheduleID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScheduleID() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateObjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple name", "Cube", false},
		{"with suffix", "Cube.001", false},
		{"with space", "My Cube", false},
		{"with underscore", "hero_mesh", false},
		{"with dash", "light-key", false},
		{"empty", "", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"shell metachars", "cube;rm -rf /", true},
		{"newline", "cube\nname", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateObjectName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateObjectType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"cube", "CUBE", false},
		{"lowercase accepted", "sphere", false},
		{"torus", "TORUS", false},
		{"unknown", "DODECAHEDRON", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateObjectType() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLightType(t *testing.T) {
	if err := ValidateLightType("SUN"); err != nil {
		t.Errorf("ValidateLightType(SUN) error = %v", err)
	}
	if err := ValidateLightType("point"); err != nil {
		t.Errorf("ValidateLightType(point) error = %v", err)
	}
	if err := ValidateLightType("LASER"); err == nil {
		t.Error("ValidateLightType(LASER) should return error")
	}
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		v       []float64
		wantErr bool
	}{
		{"nil is allowed", nil, false},
		{"three components", []float64{1, 2, 3}, false},
		{"two components", []float64{1, 2}, true},
		{"four components", []float64{1, 2, 3, 4}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVector("location", tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVector() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateColor(t *testing.T) {
	tests := []struct {
		name    string
		c       []float64
		wantErr bool
	}{
		{"nil is allowed", nil, false},
		{"rgb", []float64{0.8, 0.8, 0.8}, false},
		{"rgba", []float64{0.1, 0.2, 0.3, 1.0}, false},
		{"too few", []float64{0.5}, true},
		{"out of range high", []float64{1.5, 0, 0}, true},
		{"out of range low", []float64{-0.1, 0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColor("base_color", tt.c)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColor() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFrameRange(t *testing.T) {
	if err := ValidateFrameRange(1, 250); err != nil {
		t.Errorf("ValidateFrameRange(1, 250) error = %v", err)
	}
	if err := ValidateFrameRange(-1, 10); err == nil {
		t.Error("negative frame_start should return error")
	}
	if err := ValidateFrameRange(100, 50); err == nil {
		t.Error("frame_end before frame_start should return error")
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"simple path", "renders/frame", "renders/frame", false},
		{"single component", "output.png", "output.png", false},
		{"with underscore", "my_render.png", "my_render.png", false},
		{"with dash", "my-render.png", "my-render.png", false},
		{"trailing slash", "renders/out/", "renders/out/", false},
		{"empty", "", "", true},
		{"path traversal", "../../../etc/passwd", "", true},
		{"path traversal in middle", "renders/../../../etc/passwd", "", true},
		{"absolute path", "/etc/passwd", "", true},
		{"unsafe chars semicolon", "out;rm -rf /", "", true},
		{"unsafe chars space", "my render.png", "", true},
		{"unsafe chars ampersand", "out&err.png", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("SanitizePath() = %v, want %v", got, tt.want)
			}
		})
	}
}
