// Package config loads the blendermcp.jsonc configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the single configuration file format for blendermcp.jsonc
type Config struct {
	Server  ServerSection  `json:"server"`
	Blender BlenderSection `json:"blender"`
	Data    DataSection    `json:"data"`
	Limits  LimitsSection  `json:"limits"`
	Cleanup CleanupSection `json:"cleanup"`
	Backup  BackupSection  `json:"backup"`
}

// ServerSection contains HTTP and local socket settings
type ServerSection struct {
	Address    string `json:"address"`
	SocketPath string `json:"socket_path"`
}

// BlenderSection describes how to reach the in-application listener
type BlenderSection struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// Managed launches a headless Blender container exposing the
	// listener port instead of connecting to an existing instance.
	Managed bool   `json:"managed"`
	Image   string `json:"image"`
}

// DataSection contains data directory settings
type DataSection struct {
	Dir string `json:"dir"`
}

// LimitsSection contains rate limiting settings
type LimitsSection struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// CleanupSection contains background cleanup settings
type CleanupSection struct {
	Enabled          bool `json:"enabled"`
	IntervalMinutes  int  `json:"interval_minutes"`
	RetentionMinutes int  `json:"retention_minutes"`
}

// BackupSection contains data directory backup settings
type BackupSection struct {
	Enabled       bool   `json:"enabled"`
	Directory     string `json:"directory"`
	Retention     int    `json:"retention"`
	IntervalHours int    `json:"interval_hours"`
}

// FindConfigPath returns the path to blendermcp.jsonc using precedence:
// 1. configDir + /blendermcp.jsonc (if configDir specified)
// 2. ./config/blendermcp.jsonc (project-local)
// 3. ~/.blender-mcp/config/blendermcp.jsonc (user global)
func FindConfigPath(configDir string) (string, error) {
	if configDir != "" {
		path := filepath.Join(configDir, "blendermcp.jsonc")
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("blendermcp.jsonc not found in %s", configDir)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return path, nil
		}
		return abs, nil
	}

	candidates := []string{
		filepath.Join("config", "blendermcp.jsonc"),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".blender-mcp", "config", "blendermcp.jsonc"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("blendermcp.jsonc not found; tried: %v", candidates)
}

// Load loads configuration from a blendermcp.jsonc file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	jsonData := StripJSONComments(data)

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with all defaults applied
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.SocketPath == "" {
		cfg.Server.SocketPath = "data/blendermcp.sock"
	}

	if cfg.Blender.Host == "" {
		cfg.Blender.Host = "localhost"
	}
	if cfg.Blender.Port == 0 {
		cfg.Blender.Port = 9876
	}
	if cfg.Blender.TimeoutSeconds == 0 {
		cfg.Blender.TimeoutSeconds = 30
	}
	if cfg.Blender.Image == "" {
		cfg.Blender.Image = "blender-headless:latest"
	}

	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}

	if cfg.Limits.RequestsPerSecond == 0 {
		cfg.Limits.RequestsPerSecond = 10
	}
	if cfg.Limits.Burst == 0 {
		cfg.Limits.Burst = 20
	}

	if cfg.Cleanup.IntervalMinutes == 0 {
		cfg.Cleanup.IntervalMinutes = 5
	}
	if cfg.Cleanup.RetentionMinutes == 0 {
		cfg.Cleanup.RetentionMinutes = 60
	}

	if cfg.Backup.Directory == "" {
		cfg.Backup.Directory = "data/backups"
	}
	if cfg.Backup.Retention == 0 {
		cfg.Backup.Retention = 7
	}
	if cfg.Backup.IntervalHours == 0 {
		cfg.Backup.IntervalHours = 24
	}
}

// BlenderAddr returns host:port for the listener, honoring
// BLENDER_HOST and BLENDER_PORT environment overrides.
func (c *Config) BlenderAddr() (string, int) {
	host := c.Blender.Host
	port := c.Blender.Port
	if env := os.Getenv("BLENDER_HOST"); env != "" {
		host = env
	}
	if env := os.Getenv("BLENDER_PORT"); env != "" {
		var p int
		if _, err := fmt.Sscanf(env, "%d", &p); err == nil && p > 0 {
			port = p
		}
	}
	return host, port
}

// DefaultJSONC is written by the init subcommand.
const DefaultJSONC = `{
  // Blender MCP server configuration
  "server": {
    "address": ":8080",
    "socket_path": "data/blendermcp.sock"
  },
  "blender": {
    // Where the in-Blender listener is reachable.
    // BLENDER_HOST / BLENDER_PORT env vars override these.
    "host": "localhost",
    "port": 9876,
    "timeout_seconds": 30,
    // Set managed=true to launch a headless Blender container instead.
    "managed": false,
    "image": "blender-headless:latest"
  },
  "data": {
    "dir": "data"
  },
  "limits": {
    "requests_per_second": 10,
    "burst": 20
  },
  "cleanup": {
    "enabled": true,
    "interval_minutes": 5,
    "retention_minutes": 60
  },
  "backup": {
    "enabled": false,
    "directory": "data/backups",
    "retention": 7,
    "interval_hours": 24
  }
}
`

// WriteDefault writes the default config file into configDir,
// refusing to overwrite an existing one.
func WriteDefault(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "blendermcp.jsonc")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(DefaultJSONC), 0o644); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
