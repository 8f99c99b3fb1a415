package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/metrics"
)

const recvBufferSize = 8192

var (
	// ErrNotConnected is returned when a command is sent on a dead connection
	ErrNotConnected = errors.New("not connected to Blender")
	// ErrTimeout is returned when the listener does not answer in time
	ErrTimeout = errors.New("timeout waiting for Blender response")
)

// CommandError carries an error status reported by the listener itself.
// The socket stays healthy when this is returned.
type CommandError struct {
	Type    string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("blender rejected %s: %s", e.Type, e.Message)
}

// Conn is a single TCP connection to the listener. Not safe for
// concurrent use; the Manager serializes access.
type Conn struct {
	addr    string
	timeout time.Duration
	sock    net.Conn
}

// Dial connects to the listener at addr with the given socket timeout.
func Dial(addr string, timeout time.Duration) (*Conn, error) {
	sock, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to Blender at %s: %w", addr, err)
	}
	logger.Info("Connected to Blender at %s", addr)
	return &Conn{addr: addr, timeout: timeout, sock: sock}, nil
}

// Close shuts the socket down.
func (c *Conn) Close() error {
	if c.sock == nil {
		return nil
	}
	err := c.sock.Close()
	c.sock = nil
	return err
}

// Send writes one command and reads the matching response. Any socket
// failure closes the connection; the caller must reconnect.
func (c *Conn) Send(ctx context.Context, cmd *Command) (*Response, error) {
	if c.sock == nil {
		return nil, ErrNotConnected
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding command %s: %w", cmd.Type, err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.sock.SetDeadline(deadline); err != nil {
		c.drop()
		return nil, fmt.Errorf("setting socket deadline: %w", err)
	}

	if _, err := c.sock.Write(payload); err != nil {
		c.drop()
		return nil, fmt.Errorf("writing command %s: %w", cmd.Type, err)
	}

	raw, err := c.receive()
	if err != nil {
		c.drop()
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.drop()
		return nil, fmt.Errorf("decoding response to %s: %w", cmd.Type, err)
	}

	if resp.Status == "error" {
		msg := resp.Message
		if msg == "" {
			msg = "unknown error from Blender"
		}
		return nil, &CommandError{Type: cmd.Type, Message: msg}
	}

	return &resp, nil
}

// receive reads chunks until the accumulated bytes form one valid JSON
// document. The protocol has no framing; a response is complete exactly
// when it parses.
func (c *Conn) receive() ([]byte, error) {
	var acc []byte
	buf := make([]byte, recvBufferSize)

	for {
		n, err := c.sock.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if json.Valid(acc) {
				return acc, nil
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if json.Valid(acc) {
					return acc, nil
				}
				return nil, ErrTimeout
			}
			if len(acc) == 0 {
				return nil, fmt.Errorf("connection closed before receiving data: %w", err)
			}
			if json.Valid(acc) {
				return acc, nil
			}
			return nil, fmt.Errorf("connection closed mid-response: %w", err)
		}
	}
}

func (c *Conn) drop() {
	if c.sock != nil {
		_ = c.sock.Close()
		c.sock = nil
		metrics.SetBridgeConnected(false)
	}
}
