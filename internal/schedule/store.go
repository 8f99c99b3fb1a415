package schedule

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrInvalidCron      = errors.New("invalid cron expression")
)

// Store handles schedule persistence
type Store struct {
	db *sql.DB
}

// NewStore creates a new schedule store with SQLite backend
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "schedules.db")
	// Enable WAL mode and busy timeout for better concurrent access
	db, err := sql.Open("sqlite", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cron_expr TEXT NOT NULL,
		tool TEXT NOT NULL,
		params TEXT NOT NULL DEFAULT '{}',
		enabled INTEGER NOT NULL DEFAULT 1,
		overlap_behavior TEXT NOT NULL DEFAULT 'skip',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_run_at DATETIME,
		next_run_at DATETIME,
		creator_token_id TEXT NOT NULL,
		creator_scope TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_schedules_enabled ON schedules(enabled);
	CREATE INDEX IF NOT EXISTS idx_schedules_next_run ON schedules(next_run_at);

	CREATE TABLE IF NOT EXISTS schedule_executions (
		id TEXT PRIMARY KEY,
		schedule_id TEXT NOT NULL,
		executed_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		output TEXT,
		error TEXT,
		duration_ms INTEGER,
		FOREIGN KEY (schedule_id) REFERENCES schedules(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_executions_schedule ON schedule_executions(schedule_id, executed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Create creates a new schedule
func (s *Store) Create(schedule *Schedule) error {
	// Validate cron expression before inserting
	if err := ValidateCron(schedule.CronExpr); err != nil {
		return err
	}

	if schedule.ID == "" {
		schedule.ID = "sched_" + uuid.New().String()[:8]
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	// Calculate next run time if not set
	if schedule.NextRunAt == nil && schedule.Enabled {
		nextRun, err := NextRun(schedule.CronExpr, now)
		if err == nil {
			schedule.NextRunAt = &nextRun
		}
	}

	params, err := marshalParams(schedule.Params)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO schedules (id, name, cron_expr, tool, params, enabled, overlap_behavior,
		                       created_at, updated_at, last_run_at, next_run_at, creator_token_id, creator_scope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID, schedule.Name, schedule.CronExpr, schedule.Tool, params,
		schedule.Enabled, schedule.Overlap,
		schedule.CreatedAt, schedule.UpdatedAt, schedule.LastRunAt, schedule.NextRunAt,
		schedule.CreatorTokenID, schedule.CreatorScope,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	return nil
}

const scheduleColumns = `id, name, cron_expr, tool, params, enabled, overlap_behavior,
	created_at, updated_at, last_run_at, next_run_at, creator_token_id, creator_scope`

func scanSchedule(row interface{ Scan(...any) error }) (*Schedule, error) {
	var schedule Schedule
	var params string
	var lastRunAt, nextRunAt sql.NullTime
	var enabled int

	err := row.Scan(
		&schedule.ID, &schedule.Name, &schedule.CronExpr, &schedule.Tool, &params,
		&enabled, &schedule.Overlap,
		&schedule.CreatedAt, &schedule.UpdatedAt, &lastRunAt, &nextRunAt,
		&schedule.CreatorTokenID, &schedule.CreatorScope,
	)
	if err != nil {
		return nil, err
	}

	schedule.Enabled = enabled != 0
	if lastRunAt.Valid {
		schedule.LastRunAt = &lastRunAt.Time
	}
	if nextRunAt.Valid {
		schedule.NextRunAt = &nextRunAt.Time
	}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &schedule.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params for schedule %s: %w", schedule.ID, err)
		}
	}
	return &schedule, nil
}

// Get retrieves a schedule by ID
func (s *Store) Get(id string) (*Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	schedule, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	return schedule, nil
}

// List returns schedules matching the filter
func (s *Store) List(filter *ListFilter) ([]*Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	var args []any
	var conditions []string

	if filter != nil {
		if filter.Tool != "" {
			conditions = append(conditions, "tool = ?")
			args = append(args, filter.Tool)
		}
		if filter.Enabled != nil {
			conditions = append(conditions, "enabled = ?")
			if *filter.Enabled {
				args = append(args, 1)
			} else {
				args = append(args, 0)
			}
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			query += " AND " + conditions[i]
		}
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schedules []*Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// Update applies partial updates to a schedule
func (s *Store) Update(id string, update *ScheduleUpdate) error {
	// Validate cron expression if being updated
	if update.CronExpr != nil {
		if err := ValidateCron(*update.CronExpr); err != nil {
			return err
		}
	}

	var setClauses []string
	var args []any
	var cronChanged bool

	if update.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *update.Name)
	}
	if update.CronExpr != nil {
		setClauses = append(setClauses, "cron_expr = ?")
		args = append(args, *update.CronExpr)
		cronChanged = true
	}
	if update.Tool != nil {
		setClauses = append(setClauses, "tool = ?")
		args = append(args, *update.Tool)
	}
	if update.Params != nil {
		params, err := marshalParams(update.Params)
		if err != nil {
			return err
		}
		setClauses = append(setClauses, "params = ?")
		args = append(args, params)
	}
	if update.Enabled != nil {
		setClauses = append(setClauses, "enabled = ?")
		if *update.Enabled {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if update.Overlap != nil {
		setClauses = append(setClauses, "overlap_behavior = ?")
		args = append(args, *update.Overlap)
	}

	if len(setClauses) == 0 {
		return nil
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now())
	args = append(args, id)

	query := "UPDATE schedules SET " + setClauses[0]
	for i := 1; i < len(setClauses); i++ {
		query += ", " + setClauses[i]
	}
	query += " WHERE id = ?"

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrScheduleNotFound
	}

	// Recalculate next_run_at if cron expression changed
	if cronChanged {
		nextRun, err := NextRun(*update.CronExpr, time.Now())
		if err == nil {
			_, err = s.db.Exec("UPDATE schedules SET next_run_at = ? WHERE id = ?", nextRun, id)
			if err != nil {
				return fmt.Errorf("failed to update next_run_at: %w", err)
			}
		}
	}

	return nil
}

// Delete removes a schedule and its execution history (CASCADE)
func (s *Store) Delete(id string) error {
	result, err := s.db.Exec("DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrScheduleNotFound
	}

	return nil
}

// ListDue returns enabled schedules where next_run_at <= now
func (s *Store) ListDue(now time.Time) ([]*Schedule, error) {
	rows, err := s.db.Query(`
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE enabled = 1 AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at ASC`, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var schedules []*Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

// UpdateRunTimes updates last_run_at and next_run_at for a schedule
func (s *Store) UpdateRunTimes(id string, lastRun, nextRun time.Time) error {
	result, err := s.db.Exec(`
		UPDATE schedules SET last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?`,
		lastRun, nextRun, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run times: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrScheduleNotFound
	}

	return nil
}

// RecordExecution stores an execution record
func (s *Store) RecordExecution(exec *Execution) error {
	if exec.ID == "" {
		exec.ID = "exec_" + uuid.New().String()[:8]
	}
	if exec.ExecutedAt.IsZero() {
		exec.ExecutedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO schedule_executions (id, schedule_id, executed_at, status, output, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.ScheduleID, exec.ExecutedAt, exec.Status, exec.Output, exec.Error, exec.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// ListExecutions returns the most recent executions for a schedule
func (s *Store) ListExecutions(scheduleID string, limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, schedule_id, executed_at, status, output, error, duration_ms
		FROM schedule_executions
		WHERE schedule_id = ?
		ORDER BY executed_at DESC
		LIMIT ?`, scheduleID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var executions []*Execution
	for rows.Next() {
		var exec Execution
		var output, errMsg sql.NullString
		var durationMs sql.NullInt64

		if err := rows.Scan(&exec.ID, &exec.ScheduleID, &exec.ExecutedAt, &exec.Status, &output, &errMsg, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		exec.Output = output.String
		exec.Error = errMsg.String
		exec.DurationMs = durationMs.Int64
		executions = append(executions, &exec)
	}

	return executions, rows.Err()
}

// PruneExecutions deletes execution records older than the cutoff.
// Returns the number of rows removed.
func (s *Store) PruneExecutions(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM schedule_executions WHERE executed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune executions: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func marshalParams(params map[string]any) (string, error) {
	if params == nil {
		return "{}", nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}
	return string(data), nil
}
