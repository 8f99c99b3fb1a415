package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/logger"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/metrics"
)

// ExecutionFunc is called by the runner when a schedule fires.
// It returns the tool output (summarized for history) and any error.
type ExecutionFunc func(ctx context.Context, schedule *Schedule) (string, error)

// Runner manages scheduled task execution
type Runner struct {
	store       *Store
	executeFunc ExecutionFunc
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	// Track running executions per schedule for overlap handling
	running   map[string]int // schedule ID -> count of running executions
	runningMu sync.Mutex
}

// NewRunner creates a new schedule runner
func NewRunner(store *Store, executeFunc ExecutionFunc) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:       store,
		executeFunc: executeFunc,
		ctx:         ctx,
		cancel:      cancel,
		running:     make(map[string]int),
	}
}

// Start begins the scheduler loop
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.loop()
	logger.Info("Schedule runner started")
}

// Stop gracefully stops the runner and waits for in-flight executions
func (r *Runner) Stop() {
	logger.Info("Stopping schedule runner...")
	r.cancel()
	r.wg.Wait()
	logger.Info("Schedule runner stopped")
}

// loop runs every minute to check for due schedules
func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	// Run immediately on start
	r.checkDueSchedules()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.checkDueSchedules()
		}
	}
}

// checkDueSchedules finds and executes due schedules
func (r *Runner) checkDueSchedules() {
	now := time.Now()
	schedules, err := r.store.ListDue(now)
	if err != nil {
		logger.Error("Failed to list due schedules: %v", err)
		return
	}

	for _, schedule := range schedules {
		r.executeSchedule(schedule)
	}
}

// executeSchedule executes a single schedule respecting overlap behavior
func (r *Runner) executeSchedule(schedule *Schedule) {
	r.runningMu.Lock()
	runningCount := r.running[schedule.ID]

	// Overlap handling: parallel allows concurrency, everything else skips
	if schedule.Overlap != OverlapParallel && runningCount > 0 {
		r.runningMu.Unlock()
		logger.Info("Skipping schedule %s (%s): previous execution still running", schedule.ID, schedule.Name)
		r.recordExecution(schedule, &Execution{
			Status: ExecutionSkipped,
			Error:  "previous execution still running",
		})
		return
	}

	r.running[schedule.ID]++
	r.runningMu.Unlock()

	// Execute in goroutine to not block the ticker
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.runningMu.Lock()
			r.running[schedule.ID]--
			if r.running[schedule.ID] == 0 {
				delete(r.running, schedule.ID)
			}
			r.runningMu.Unlock()
		}()

		r.runSchedule(schedule)
	}()
}

// runSchedule executes the schedule's tool and records the outcome
func (r *Runner) runSchedule(schedule *Schedule) {
	now := time.Now()
	logger.Info("Executing schedule %s (%s): tool %s", schedule.ID, schedule.Name, schedule.Tool)

	r.execute(schedule)

	// Calculate next run time
	nextRun, err := NextRun(schedule.CronExpr, now)
	if err != nil {
		logger.Error("Failed to calculate next run for schedule %s: %v", schedule.ID, err)
		return
	}

	// Update run times in store
	if err := r.store.UpdateRunTimes(schedule.ID, now, nextRun); err != nil {
		logger.Error("Failed to update run times for schedule %s: %v", schedule.ID, err)
	}

	logger.Info("Schedule %s completed, next run at %s", schedule.ID, nextRun.Format(time.RFC3339))
}

// execute runs the tool once and records the execution
func (r *Runner) execute(schedule *Schedule) {
	start := time.Now()
	output, err := r.executeFunc(r.ctx, schedule)

	exec := &Execution{
		ScheduleID: schedule.ID,
		ExecutedAt: start,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		exec.Status = ExecutionFailed
		exec.Error = err.Error()
		logger.Error("Schedule %s tool %s failed: %v", schedule.ID, schedule.Tool, err)
	} else {
		exec.Status = ExecutionSuccess
		exec.Output = output
	}

	metrics.RecordScheduleExecution(string(exec.Status))
	if recordErr := r.store.RecordExecution(exec); recordErr != nil {
		logger.Error("Failed to record execution for schedule %s: %v", schedule.ID, recordErr)
	}
}

// IsRunning returns the number of running executions for a schedule
func (r *Runner) IsRunning(scheduleID string) int {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()
	return r.running[scheduleID]
}

// TriggerNow manually triggers a schedule immediately.
// Run times are not advanced; only scheduled runs move the cron clock.
func (r *Runner) TriggerNow(schedule *Schedule) (string, error) {
	logger.Info("Manually triggering schedule %s (%s)", schedule.ID, schedule.Name)

	start := time.Now()
	output, err := r.executeFunc(r.ctx, schedule)

	exec := &Execution{
		ScheduleID: schedule.ID,
		ExecutedAt: start,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		exec.Status = ExecutionFailed
		exec.Error = err.Error()
	} else {
		exec.Status = ExecutionSuccess
		exec.Output = output
	}
	metrics.RecordScheduleExecution(string(exec.Status))
	if recordErr := r.store.RecordExecution(exec); recordErr != nil {
		logger.Error("Failed to record execution for schedule %s: %v", schedule.ID, recordErr)
	}

	return output, err
}

// recordExecution stores an execution outcome for a schedule
func (r *Runner) recordExecution(schedule *Schedule, exec *Execution) {
	exec.ScheduleID = schedule.ID
	if exec.ExecutedAt.IsZero() {
		exec.ExecutedAt = time.Now()
	}
	metrics.RecordScheduleExecution(string(exec.Status))
	if err := r.store.RecordExecution(exec); err != nil {
		logger.Error("Failed to record execution for schedule %s: %v", schedule.ID, err)
	}
}
