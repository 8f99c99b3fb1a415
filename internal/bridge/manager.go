package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/metrics"
)

// DefaultTimeout matches the listener's socket timeout.
const DefaultTimeout = 30 * time.Second

// Manager owns the persistent connection to the listener. It validates
// the connection with a ping before reuse, reconnects once on failure,
// and serializes commands so exactly one is in flight.
type Manager struct {
	addr    string
	timeout time.Duration

	mu            sync.Mutex
	conn          *Conn
	everConnected bool
}

// NewManager creates a manager for the listener at addr. No connection
// is made until the first command.
func NewManager(addr string, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{addr: addr, timeout: timeout}
}

// Addr returns the listener address this manager targets.
func (m *Manager) Addr() string {
	return m.addr
}

// Connected reports whether a live connection is currently held.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil && m.conn.sock != nil
}

// Execute sends a command and returns the listener's result map.
// An existing connection is ping-validated first; a dead one is
// replaced with a single reconnect attempt. A CommandError from the
// listener is returned as-is and does not drop the connection.
func (m *Manager) Execute(ctx context.Context, cmdType string, params map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	conn, err := m.ensureLocked(ctx)
	if err != nil {
		metrics.RecordBridgeCommand(cmdType, "connect_error", time.Since(start))
		return nil, err
	}

	resp, err := conn.Send(ctx, NewCommand(cmdType, params))
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			metrics.RecordBridgeCommand(cmdType, "rejected", time.Since(start))
			return nil, err
		}
		// Socket failure: drop and report. The next call reconnects.
		m.dropLocked()
		metrics.RecordBridgeCommand(cmdType, "error", time.Since(start))
		return nil, fmt.Errorf("communication error with Blender: %w", err)
	}

	metrics.RecordBridgeCommand(cmdType, "ok", time.Since(start))
	result, err := resp.ResultMap()
	if err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", cmdType, err)
	}
	return result, nil
}

// Ping validates the connection with a ping command.
func (m *Manager) Ping(ctx context.Context) error {
	_, err := m.Execute(ctx, "ping", nil)
	return err
}

// ValidateStartup connects and asks the listener for its identity.
// Used at server start; a failure is a warning, not fatal.
func (m *Manager) ValidateStartup(ctx context.Context) (map[string]any, error) {
	return m.Execute(ctx, "get_server_info", nil)
}

// Close drops the persistent connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked()
}

// ensureLocked returns a validated connection, reconnecting once if the
// held one fails its ping. Caller holds m.mu.
func (m *Manager) ensureLocked(ctx context.Context) (*Conn, error) {
	if m.conn != nil {
		if _, err := m.conn.Send(ctx, NewCommand("ping", nil)); err == nil {
			return m.conn, nil
		} else {
			var cmdErr *CommandError
			if errors.As(err, &cmdErr) {
				// Listener answered but dislikes ping; the socket works.
				return m.conn, nil
			}
			logger.Warn("Existing Blender connection invalid: %v", err)
			m.dropLocked()
		}
	}

	conn, err := Dial(m.addr, m.timeout)
	if err != nil {
		return nil, fmt.Errorf("could not connect to Blender at %s (is the addon listener running?): %w", m.addr, err)
	}
	// Only a replacement connection counts as a reconnect
	if m.everConnected {
		metrics.RecordBridgeReconnect()
		logger.Info("Reconnected to Blender")
	} else {
		logger.Info("Created new persistent connection to Blender")
	}
	m.everConnected = true
	metrics.SetBridgeConnected(true)
	m.conn = conn
	return m.conn, nil
}

func (m *Manager) dropLocked() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
		metrics.SetBridgeConnected(false)
	}
}
