// Package bridge implements the socket protocol to the in-Blender
// listener: single persistent TCP connection, unframed JSON documents,
// strict request/response alternation.
package bridge

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Command is one request document written to the listener socket.
type Command struct {
	Type      string         `json:"type"`
	Params    map[string]any `json:"params"`
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"`
}

// NewCommand builds a command with a fresh ID and current timestamp.
func NewCommand(cmdType string, params map[string]any) *Command {
	if params == nil {
		params = map[string]any{}
	}
	return &Command{
		Type:      cmdType,
		Params:    params,
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
	}
}

// Response is one reply document read from the listener socket.
// A non-empty "error" status carries the listener's message; the
// useful payload lives in Result.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// ResultMap decodes Result into a generic map. A missing or null
// result yields an empty map.
func (r *Response) ResultMap() (map[string]any, error) {
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(r.Result, &m); err != nil {
		return nil, err
	}
	return m, nil
}
