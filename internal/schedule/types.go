package schedule

import (
	"time"
)

// OverlapBehavior defines what to do if a previous run is still active
type OverlapBehavior string

const (
	OverlapSkip     OverlapBehavior = "skip"     // Don't start if previous still running
	OverlapParallel OverlapBehavior = "parallel" // Allow concurrent execution
)

// Schedule represents a tool call executed on a cron cadence.
// The tool name and parameters are stored as-is and dispatched through
// the registry when the schedule fires, so anything callable over MCP
// can be scheduled (nightly renders, scene saves, exports).
type Schedule struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CronExpr       string          `json:"cron_expr"` // Standard 5-field cron expression
	Tool           string          `json:"tool"`      // Tool to invoke when due
	Params         map[string]any  `json:"params,omitempty"`
	Enabled        bool            `json:"enabled"` // Can be paused/resumed
	Overlap        OverlapBehavior `json:"overlap_behavior"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	LastRunAt      *time.Time      `json:"last_run_at,omitempty"`
	NextRunAt      *time.Time      `json:"next_run_at,omitempty"`
	CreatorTokenID string          `json:"creator_token_id"` // Token that created this schedule
	CreatorScope   string          `json:"creator_scope"`    // Scope of creating token for auth
}

// ExecutionStatus represents the outcome of a schedule execution
type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
	ExecutionSkipped ExecutionStatus = "skipped"
)

// Execution represents a single execution of a scheduled task
type Execution struct {
	ID         string          `json:"id"`
	ScheduleID string          `json:"schedule_id"`
	ExecutedAt time.Time       `json:"executed_at"`
	Status     ExecutionStatus `json:"status"`
	Output     string          `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
}

// ScheduleUpdate contains optional fields for updating a schedule
type ScheduleUpdate struct {
	Name     *string          `json:"name,omitempty"`
	CronExpr *string          `json:"cron_expr,omitempty"`
	Tool     *string          `json:"tool,omitempty"`
	Params   map[string]any   `json:"params,omitempty"` // If set, replaces all params
	Enabled  *bool            `json:"enabled,omitempty"`
	Overlap  *OverlapBehavior `json:"overlap_behavior,omitempty"`
}

// ListFilter contains optional filters for listing schedules
type ListFilter struct {
	Tool    string // Filter to schedules invoking this tool
	Enabled *bool  // Filter by enabled status
}

// IsValidOverlapBehavior checks if the overlap behavior is valid
func IsValidOverlapBehavior(b OverlapBehavior) bool {
	return b == OverlapSkip || b == OverlapParallel
}
