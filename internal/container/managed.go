package container

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
)

// ListenerPort is the port the Blender listener addon binds inside the
// container image.
const ListenerPort = 9876

// DefaultContainerName is the name used for the managed Blender container.
const DefaultContainerName = "blender-mcp-headless"

// Blender manages the lifecycle of a single headless Blender container
// that exposes the listener port on the host.
type Blender struct {
	runtime  Runtime
	image    string
	name     string
	host     string
	hostPort int

	containerID string
}

// NewBlender creates a managed Blender container handle. The container is
// not started until Start is called. host and hostPort are where the
// listener port gets published.
func NewBlender(rt Runtime, image, host string, hostPort int) *Blender {
	if host == "" {
		host = "127.0.0.1"
	}
	return &Blender{
		runtime:  rt,
		image:    image,
		name:     DefaultContainerName,
		host:     host,
		hostPort: hostPort,
	}
}

// Addr returns the host address where the listener is published.
func (b *Blender) Addr() string {
	return net.JoinHostPort(b.host, strconv.Itoa(b.hostPort))
}

// ContainerID returns the running container's ID, or empty before Start.
func (b *Blender) ContainerID() string {
	return b.containerID
}

// Start pulls the image if needed, removes any stale container with the
// same name, then creates and starts a fresh one.
func (b *Blender) Start(ctx context.Context) error {
	if err := b.runtime.Ping(ctx); err != nil {
		return fmt.Errorf("container runtime unavailable: %w", err)
	}

	if err := b.ensureImage(ctx); err != nil {
		return err
	}

	// A previous run may have left a container behind under our name.
	if info, err := b.runtime.Inspect(ctx, b.name); err == nil {
		logger.Info("Removing stale container %s (%s)", b.name, info.Status)
		if err := b.runtime.Remove(ctx, info.ID, true); err != nil {
			return fmt.Errorf("failed to remove stale container: %w", err)
		}
	}

	id, err := b.runtime.Create(ctx, CreateConfig{
		Name:  b.name,
		Image: b.image,
		Labels: map[string]string{
			"blender-mcp.managed": "true",
		},
		Ports: []PortBinding{
			{HostIP: b.host, HostPort: b.hostPort, ContainerPort: ListenerPort},
		},
	})
	if err != nil {
		return err
	}
	b.containerID = id

	if err := b.runtime.Start(ctx, id); err != nil {
		_ = b.runtime.Remove(ctx, id, true)
		b.containerID = ""
		return err
	}

	logger.Info("Started managed Blender container %s (image %s) on %s", shortID(id), b.image, b.Addr())
	return nil
}

// WaitReady blocks until the published listener port accepts TCP
// connections or the timeout elapses.
func (b *Blender) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	addr := b.Addr()

	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		if b.containerID != "" {
			status, serr := b.runtime.Status(ctx, b.containerID)
			if serr == nil && status != StatusRunning && status != StatusCreated {
				return fmt.Errorf("blender container exited while waiting for listener (status %s)", status)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	return fmt.Errorf("blender listener not ready on %s after %s", addr, timeout)
}

// Logs returns recent container output, useful when startup fails.
func (b *Blender) Logs(ctx context.Context, tail string) (string, error) {
	if b.containerID == "" {
		return "", fmt.Errorf("container not started")
	}
	return b.runtime.Logs(ctx, b.containerID, LogsOptions{Tail: tail})
}

// Stop stops and removes the managed container.
func (b *Blender) Stop(ctx context.Context) error {
	if b.containerID == "" {
		return nil
	}

	if err := b.runtime.Stop(ctx, b.containerID); err != nil {
		logger.Warn("Failed to stop container %s: %v", shortID(b.containerID), err)
	}
	if err := b.runtime.Remove(ctx, b.containerID, true); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	logger.Info("Stopped managed Blender container %s", shortID(b.containerID))
	b.containerID = ""
	return nil
}

func (b *Blender) ensureImage(ctx context.Context) error {
	exists, err := b.runtime.ImageExists(ctx, b.image)
	if err != nil {
		return fmt.Errorf("failed to check image %s: %w", b.image, err)
	}
	if exists {
		return nil
	}

	logger.Info("Pulling image %s", b.image)
	if err := b.runtime.Pull(ctx, b.image); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", b.image, err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
