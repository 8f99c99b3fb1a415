package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Operation represents the type of auditable operation
type Operation string

const (
	OpToolCall       Operation = "tool.call"
	OpCodeExecute    Operation = "tool.execute_code"
	OpTokenCreate    Operation = "token.create"
	OpTokenRevoke    Operation = "token.revoke"
	OpScheduleCreate Operation = "schedule.create"
	OpScheduleDelete Operation = "schedule.delete"
	OpSceneLoad      Operation = "scene.load"
	OpSceneClear     Operation = "scene.clear"
)

// Event represents an audit log entry
type Event struct {
	Timestamp  time.Time      `json:"timestamp"`
	Operation  Operation      `json:"operation"`
	TokenID    string         `json:"token_id,omitempty"`
	TokenScope string         `json:"token_scope,omitempty"`
	Tool       string         `json:"tool,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Duration   time.Duration  `json:"duration,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Logger handles audit logging
type Logger struct {
	logger  *slog.Logger
	file    *os.File
	enabled bool
	mu      sync.RWMutex
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Default returns the default audit logger. Until the server installs a
// file-backed logger via SetDefault, events go to stdout.
func Default() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(true)
	}
	return defaultLogger
}

// SetDefault installs l as the default audit logger and returns the
// previous one.
func SetDefault(l *Logger) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultLogger
	defaultLogger = l
	return prev
}

// New creates a new audit logger writing JSON lines to stdout
func New(enabled bool) *Logger {
	return NewWithWriter(enabled, os.Stdout)
}

// NewWithWriter creates an audit logger writing to the given writer
func NewWithWriter(enabled bool, w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &Logger{
		logger:  slog.New(handler),
		enabled: enabled,
	}
}

// NewFileLogger creates an audit logger appending JSON lines to the
// file at path, creating parent directories as needed.
func NewFileLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	l := NewWithWriter(true, f)
	l.file = f
	return l, nil
}

// Close closes the underlying file, if the logger owns one.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetEnabled enables or disables audit logging
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Log records an audit event
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	enabled := l.enabled
	l.mu.RUnlock()

	if !enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("audit", "true"),
		slog.String("operation", string(event.Operation)),
		slog.Bool("success", event.Success),
	}

	if event.TokenID != "" {
		attrs = append(attrs, slog.String("token_id", maskToken(event.TokenID)))
	}
	if event.TokenScope != "" {
		attrs = append(attrs, slog.String("token_scope", event.TokenScope))
	}
	if event.Tool != "" {
		attrs = append(attrs, slog.String("tool", event.Tool))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Float64("duration_ms", float64(event.Duration)/float64(time.Millisecond)))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if event.Details != nil {
		detailsJSON, _ := json.Marshal(event.Details)
		attrs = append(attrs, slog.String("details", string(detailsJSON)))
	}

	l.logger.Info("AUDIT", attrs...)
}

// LogSuccess records a successful operation
func (l *Logger) LogSuccess(op Operation, tokenID, tokenScope, tool string) {
	l.Log(&Event{
		Operation:  op,
		TokenID:    tokenID,
		TokenScope: tokenScope,
		Tool:       tool,
		Success:    true,
	})
}

// LogFailure records a failed operation
func (l *Logger) LogFailure(op Operation, tokenID, tokenScope, tool string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	l.Log(&Event{
		Operation:  op,
		TokenID:    tokenID,
		TokenScope: tokenScope,
		Tool:       tool,
		Success:    false,
		Error:      errMsg,
	})
}

func maskToken(tokenID string) string {
	if len(tokenID) <= 12 {
		return "***"
	}
	return tokenID[:8] + "..."
}

// Convenience functions using default logger

func Log(event *Event) {
	Default().Log(event)
}

func LogSuccess(op Operation, tokenID, tokenScope, tool string) {
	Default().LogSuccess(op, tokenID, tokenScope, tool)
}

func LogFailure(op Operation, tokenID, tokenScope, tool string, err error) {
	Default().LogFailure(op, tokenID, tokenScope, tool, err)
}
