package mcp

import (
	"context"
	"fmt"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/audit"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/schedule"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/validation"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Schedule Management Handlers

type ScheduleCreateParams struct {
	Name     string                    `json:"name" description:"Schedule name"`
	CronExpr string                    `json:"cron_expr" description:"Five-field cron expression"`
	Tool     string                    `json:"tool" description:"Tool to run on schedule"`
	Params   map[string]any            `json:"params,omitempty" description:"Arguments passed to the tool"`
	Enabled  *bool                     `json:"enabled,omitempty" description:"Start enabled (default true)"`
	Overlap  *schedule.OverlapBehavior `json:"overlap,omitempty" description:"Overlap behavior: skip or parallel (default skip)"`
}

func (s *Server) handleScheduleCreate(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleCreateParams) (*mcp.CallToolResult, any, error) {
	authCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, nil, err
	}

	if params.Name == "" {
		return nil, nil, fmt.Errorf("name is required")
	}
	if params.CronExpr == "" {
		return nil, nil, fmt.Errorf("cron_expr is required")
	}
	if params.Tool == "" {
		return nil, nil, fmt.Errorf("tool is required")
	}
	if _, ok := s.registry.GetTool(params.Tool); !ok {
		return nil, nil, fmt.Errorf("unknown tool: %s", params.Tool)
	}

	tokenID, scope := getTokenInfo(authCtx)
	sched := &schedule.Schedule{
		Name:           params.Name,
		CronExpr:       params.CronExpr,
		Tool:           params.Tool,
		Params:         params.Params,
		Enabled:        true,
		Overlap:        schedule.OverlapSkip,
		CreatorTokenID: tokenID,
		CreatorScope:   scope,
	}
	if params.Enabled != nil {
		sched.Enabled = *params.Enabled
	}
	if params.Overlap != nil {
		if !schedule.IsValidOverlapBehavior(*params.Overlap) {
			return nil, nil, fmt.Errorf("invalid overlap: %s", *params.Overlap)
		}
		sched.Overlap = *params.Overlap
	}

	if err := s.scheduleStore.Create(sched); err != nil {
		audit.LogFailure(audit.OpScheduleCreate, tokenID, scope, params.Tool, err)
		return nil, nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	audit.LogSuccess(audit.OpScheduleCreate, tokenID, scope, params.Tool)

	result := "Schedule created.\n\n"
	result += fmt.Sprintf("ID:      %s\n", sched.ID)
	result += fmt.Sprintf("Name:    %s\n", sched.Name)
	result += fmt.Sprintf("Cron:    %s\n", sched.CronExpr)
	result += fmt.Sprintf("Tool:    %s\n", sched.Tool)
	result += fmt.Sprintf("Enabled: %v\n", sched.Enabled)
	if sched.NextRunAt != nil {
		result += fmt.Sprintf("Next Run: %s\n", sched.NextRunAt.Format("2006-01-02 15:04:05"))
	}

	return NewTextResult(result), sched, nil
}

type ScheduleListParams struct {
	Tool    string `json:"tool,omitempty" description:"Only schedules running this tool"`
	Enabled *bool  `json:"enabled,omitempty" description:"Only enabled (true) or disabled (false) schedules"`
}

func (s *Server) handleScheduleList(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleListParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, nil, err
	}

	filter := &schedule.ListFilter{
		Tool:    params.Tool,
		Enabled: params.Enabled,
	}
	schedules, err := s.scheduleStore.List(filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	if len(schedules) == 0 {
		return NewTextResult("No schedules found."), nil, nil
	}

	result := fmt.Sprintf("Found %d schedule(s):\n\n", len(schedules))
	for _, sched := range schedules {
		status := "enabled"
		if !sched.Enabled {
			status = "disabled"
		}
		result += fmt.Sprintf("* %s (%s)\n", sched.Name, sched.ID)
		result += fmt.Sprintf("  Cron:   %s\n", sched.CronExpr)
		result += fmt.Sprintf("  Tool:   %s\n", sched.Tool)
		result += fmt.Sprintf("  Status: %s\n", status)
		if sched.NextRunAt != nil {
			result += fmt.Sprintf("  Next Run: %s\n", sched.NextRunAt.Format("2006-01-02 15:04"))
		}
		result += "\n"
	}

	return NewTextResult(result), schedules, nil
}

type ScheduleGetParams struct {
	ScheduleID string `json:"schedule_id" description:"Schedule to fetch"`
}

func (s *Server) handleScheduleGet(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleGetParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateScheduleID(params.ScheduleID); err != nil {
		return nil, nil, err
	}

	sched, err := s.scheduleStore.Get(params.ScheduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	status := "enabled"
	if !sched.Enabled {
		status = "disabled"
	}

	result := fmt.Sprintf("Schedule: %s\n\n", sched.Name)
	result += fmt.Sprintf("ID:      %s\n", sched.ID)
	result += fmt.Sprintf("Cron:    %s\n", sched.CronExpr)
	result += fmt.Sprintf("Tool:    %s\n", sched.Tool)
	result += fmt.Sprintf("Status:  %s\n", status)
	result += fmt.Sprintf("Overlap: %s\n", sched.Overlap)
	result += fmt.Sprintf("Created: %s\n", sched.CreatedAt.Format("2006-01-02 15:04"))
	if sched.LastRunAt != nil {
		result += fmt.Sprintf("Last Run: %s\n", sched.LastRunAt.Format("2006-01-02 15:04"))
	}
	if sched.NextRunAt != nil {
		result += fmt.Sprintf("Next Run: %s\n", sched.NextRunAt.Format("2006-01-02 15:04"))
	}
	if len(sched.Params) > 0 {
		result += fmt.Sprintf("\nParams: %v\n", sched.Params)
	}

	return NewTextResult(result), sched, nil
}

type ScheduleUpdateParams struct {
	ScheduleID string                    `json:"schedule_id" description:"Schedule to update"`
	Name       *string                   `json:"name,omitempty" description:"New name"`
	CronExpr   *string                   `json:"cron_expr,omitempty" description:"New cron expression"`
	Tool       *string                   `json:"tool,omitempty" description:"New tool"`
	Params     map[string]any            `json:"params,omitempty" description:"Replacement arguments for the tool"`
	Enabled    *bool                     `json:"enabled,omitempty" description:"Enable or disable"`
	Overlap    *schedule.OverlapBehavior `json:"overlap,omitempty" description:"New overlap behavior"`
}

func (s *Server) handleScheduleUpdate(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleUpdateParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateScheduleID(params.ScheduleID); err != nil {
		return nil, nil, err
	}
	if params.Tool != nil {
		if _, ok := s.registry.GetTool(*params.Tool); !ok {
			return nil, nil, fmt.Errorf("unknown tool: %s", *params.Tool)
		}
	}
	if params.Overlap != nil && !schedule.IsValidOverlapBehavior(*params.Overlap) {
		return nil, nil, fmt.Errorf("invalid overlap: %s", *params.Overlap)
	}

	update := &schedule.ScheduleUpdate{
		Name:     params.Name,
		CronExpr: params.CronExpr,
		Tool:     params.Tool,
		Params:   params.Params,
		Enabled:  params.Enabled,
		Overlap:  params.Overlap,
	}
	if err := s.scheduleStore.Update(params.ScheduleID, update); err != nil {
		return nil, nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	return NewTextResult(fmt.Sprintf("Schedule %s updated.", params.ScheduleID)), nil, nil
}

type ScheduleDeleteParams struct {
	ScheduleID string `json:"schedule_id" description:"Schedule to delete"`
}

func (s *Server) handleScheduleDelete(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleDeleteParams) (*mcp.CallToolResult, any, error) {
	authCtx, err := requireAdmin(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateScheduleID(params.ScheduleID); err != nil {
		return nil, nil, err
	}

	tokenID, scope := getTokenInfo(authCtx)
	if err := s.scheduleStore.Delete(params.ScheduleID); err != nil {
		audit.LogFailure(audit.OpScheduleDelete, tokenID, scope, "", err)
		return nil, nil, fmt.Errorf("failed to delete schedule: %w", err)
	}
	audit.LogSuccess(audit.OpScheduleDelete, tokenID, scope, "")

	return NewTextResult(fmt.Sprintf("Schedule %s deleted.", params.ScheduleID)), nil, nil
}

type ScheduleRunNowParams struct {
	ScheduleID string `json:"schedule_id" description:"Schedule to run immediately"`
}

func (s *Server) handleScheduleRunNow(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleRunNowParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateScheduleID(params.ScheduleID); err != nil {
		return nil, nil, err
	}

	sched, err := s.scheduleStore.Get(params.ScheduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if s.scheduleRunner == nil {
		return nil, nil, fmt.Errorf("schedule runner not initialized")
	}

	output, err := s.scheduleRunner.TriggerNow(sched)
	if err != nil {
		return nil, nil, fmt.Errorf("schedule run failed: %w", err)
	}

	result := fmt.Sprintf("Schedule %s ran.\n\n", sched.Name)
	if output != "" {
		result += fmt.Sprintf("Output:\n%s\n", output)
	}
	return NewTextResult(result), nil, nil
}

type ScheduleHistoryParams struct {
	ScheduleID string `json:"schedule_id" description:"Schedule whose executions to list"`
	Limit      int    `json:"limit,omitempty" description:"Maximum executions to return (default 20)"`
}

func (s *Server) handleScheduleHistory(ctx context.Context, request *mcp.CallToolRequest, params *ScheduleHistoryParams) (*mcp.CallToolResult, any, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateScheduleID(params.ScheduleID); err != nil {
		return nil, nil, err
	}

	executions, err := s.scheduleStore.ListExecutions(params.ScheduleID, params.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list executions: %w", err)
	}

	if len(executions) == 0 {
		return NewTextResult("No executions recorded."), nil, nil
	}

	result := fmt.Sprintf("Last %d execution(s):\n\n", len(executions))
	for _, exec := range executions {
		result += fmt.Sprintf("* %s at %s (%s, %dms)\n", exec.ID, exec.ExecutedAt.Format("2006-01-02 15:04:05"), exec.Status, exec.DurationMs)
		if exec.Error != "" {
			result += fmt.Sprintf("  Error: %s\n", exec.Error)
		}
	}

	return NewTextResult(result), executions, nil
}
