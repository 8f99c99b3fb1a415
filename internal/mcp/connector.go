// connector.go provides unix socket path utilities for the local CLI transport
package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SocketConnectTimeout is how long clients wait for the socket to appear
const SocketConnectTimeout = 30 * time.Second

// EnsureSocketDir creates the parent directory for a socket path
func EnsureSocketDir(socketPath string) error {
	dir := filepath.Dir(socketPath)
	return os.MkdirAll(dir, 0o755)
}

// RemoveStaleSocket removes a leftover socket file from a previous run.
// A missing file is not an error.
func RemoveStaleSocket(socketPath string) {
	if info, err := os.Stat(socketPath); err == nil && info.Mode()&os.ModeSocket != 0 {
		_ = os.Remove(socketPath)
	}
}

// WaitForSocket waits for a unix socket to appear at the given path
func WaitForSocket(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	checkInterval := 100 * time.Millisecond

	for time.Now().Before(deadline) {
		info, err := os.Stat(socketPath)
		if err == nil && info.Mode()&os.ModeSocket != 0 {
			return nil
		}
		time.Sleep(checkInterval)
	}

	return fmt.Errorf("socket %s did not appear within %v", socketPath, timeout)
}
