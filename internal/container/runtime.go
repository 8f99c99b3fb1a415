package container

import (
	"context"
	"time"
)

// Runtime defines the container runtime abstraction used to manage
// a headless Blender instance.
type Runtime interface {
	// Lifecycle
	Create(ctx context.Context, config CreateConfig) (string, error)
	Start(ctx context.Context, containerID string) error
	Stop(ctx context.Context, containerID string) error
	Remove(ctx context.Context, containerID string, force bool) error

	// Inspection
	Inspect(ctx context.Context, containerID string) (*ContainerInfo, error)
	Logs(ctx context.Context, containerID string, opts LogsOptions) (string, error)
	Status(ctx context.Context, containerID string) (ContainerStatus, error)

	// Images
	ImageExists(ctx context.Context, imageName string) (bool, error)
	Pull(ctx context.Context, imageName string) error

	// Health
	Ping(ctx context.Context) error
	Close() error

	// Metadata
	Name() string
	IsAvailable() bool
}

// CreateConfig for container creation
type CreateConfig struct {
	Name       string
	Image      string
	Cmd        []string
	Env        []string
	Labels     map[string]string
	AutoRemove bool
	Memory     string // Memory limit (e.g., "4G", "2048M")
	CPUs       int    // Number of CPUs
	Mounts     []Mount
	Ports      []PortBinding
}

// PortBinding publishes a container port on the host
type PortBinding struct {
	HostIP        string
	HostPort      int
	ContainerPort int
}

// MountType represents the type of mount
type MountType string

const (
	MountTypeBind   MountType = "bind"
	MountTypeVolume MountType = "volume"
	MountTypeTmpfs  MountType = "tmpfs"
)

// Mount represents a bind mount or volume
type Mount struct {
	Type     MountType
	Source   string
	Target   string
	ReadOnly bool
}

// LogsOptions for log retrieval
type LogsOptions struct {
	Tail       string
	Timestamps bool
}

// ContainerInfo contains inspection data
type ContainerInfo struct {
	ID        string
	Name      string
	Image     string
	Status    ContainerStatus
	IPAddress string
	Mounts    []Mount
	Env       []string
	CreatedAt time.Time
}

// ContainerStatus enum
type ContainerStatus string

const (
	StatusCreated ContainerStatus = "created"
	StatusRunning ContainerStatus = "running"
	StatusPaused  ContainerStatus = "paused"
	StatusStopped ContainerStatus = "stopped"
	StatusExited  ContainerStatus = "exited"
	StatusDead    ContainerStatus = "dead"
	StatusUnknown ContainerStatus = "unknown"
)
