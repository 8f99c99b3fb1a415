package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Pervaiz106/Blender-Mcp-Server/internal/audit"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/auth"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/blenderstub"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/bridge"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/config"
	"github.com/Pervaiz106/Blender-Mcp-Server/internal/schedule"
)

// setupTestServer starts an in-process Blender stub and wires a full
// server against it with stores in a temp dir.
func setupTestServer(t *testing.T) (*Server, *blenderstub.Server, *auth.Store) {
	t.Helper()

	stub, err := blenderstub.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start stub: %v", err)
	}
	t.Cleanup(func() { _ = stub.Close() })

	dataDir := t.TempDir()
	authStore, err := auth.NewStore(dataDir)
	if err != nil {
		t.Fatalf("failed to create auth store: %v", err)
	}
	t.Cleanup(func() { _ = authStore.Close() })

	schedStore, err := schedule.NewStore(dataDir)
	if err != nil {
		t.Fatalf("failed to create schedule store: %v", err)
	}
	t.Cleanup(func() { _ = schedStore.Close() })

	br := bridge.NewManager(stub.Addr(), 5*time.Second)
	t.Cleanup(br.Close)

	cfg := config.Default()
	s := NewServer(br, authStore, schedStore, cfg)
	return s, stub, authStore
}

func createTestToken(t *testing.T, store *auth.Store, scope string) *auth.Token {
	t.Helper()
	token, _, err := store.CreateToken("test-"+scope, scope, nil)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	return token
}

func TestServer_HealthCheck(t *testing.T) {
	s, _, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.handleHealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestServer_ReadinessCheck(t *testing.T) {
	s, stub, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	s.handleReadinessCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 while stub is up, got %d", rec.Code)
	}

	_ = stub.Close()

	rec = httptest.NewRecorder()
	s.handleReadinessCheck(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after stub shutdown, got %d", rec.Code)
	}
}

func TestServer_RegistersAllToolGroups(t *testing.T) {
	s, _, _ := setupTestServer(t)

	for _, name := range []string{
		"create_scene", "clear_scene",
		"create_object", "transform_object",
		"create_material", "list_materials",
		"edit_mesh", "remesh_object",
		"create_animation", "set_keyframes",
		"render_scene", "get_render_preview",
		"import_file", "load_scene",
		"create_camera", "create_light",
		"get_viewport_screenshot", "execute_blender_code", "get_server_status",
		"token_create", "token_revoke",
		"schedule_create", "schedule_run_now", "schedule_history",
	} {
		if _, ok := s.registry.GetTool(name); !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestServer_DispatchToolCall(t *testing.T) {
	s, _, authStore := setupTestServer(t)
	token := createTestToken(t, authStore, auth.ScopeAdmin)

	result, err := s.dispatchToolCall(context.Background(), "create_object", map[string]any{
		"object_type": "CUBE",
		"name":        "Box",
	}, token)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("unexpected tool error: %v", result)
	}

	result, err = s.dispatchToolCall(context.Background(), "get_object_info", map[string]any{
		"object_name": "Box",
	}, token)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("unexpected tool error: %v", result)
	}
}

func TestServer_DispatchToolCall_Audited(t *testing.T) {
	s, _, authStore := setupTestServer(t)
	token := createTestToken(t, authStore, auth.ScopeAdmin)

	var buf bytes.Buffer
	prev := audit.SetDefault(audit.NewWithWriter(true, &buf))
	defer audit.SetDefault(prev)

	if _, err := s.dispatchToolCall(context.Background(), "get_scene_info", nil, token); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	line := buf.String()
	if !strings.Contains(line, "tool.call") {
		t.Errorf("audit output missing tool.call operation: %s", line)
	}
	if !strings.Contains(line, "get_scene_info") {
		t.Errorf("audit output missing tool name: %s", line)
	}
	if !strings.Contains(line, "duration_ms") {
		t.Errorf("audit output missing duration: %s", line)
	}
	if strings.Contains(line, token.ID) {
		t.Error("audit output should mask the token ID")
	}

	// Failed calls are audited too.
	buf.Reset()
	if _, err := s.dispatchToolCall(context.Background(), "schedule_get", map[string]any{
		"schedule_id": "bogus",
	}, token); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"success":false`) {
		t.Errorf("failed call should be audited with success=false: %s", buf.String())
	}
}

func TestServer_DispatchToolCall_ReadOnlyDenied(t *testing.T) {
	s, _, authStore := setupTestServer(t)
	token := createTestToken(t, authStore, auth.ScopeAdminRO)

	result, err := s.dispatchToolCall(context.Background(), "create_object", map[string]any{
		"object_type": "CUBE",
	}, token)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); !isErr {
		t.Fatal("expected tool error for read-only token on write tool")
	}
}

func TestServer_DispatchToolCall_ConfirmRequired(t *testing.T) {
	s, _, authStore := setupTestServer(t)
	token := createTestToken(t, authStore, auth.ScopeAdmin)

	if _, err := s.dispatchToolCall(context.Background(), "create_object", map[string]any{
		"object_type": "CUBE",
		"name":        "Doomed",
	}, token); err != nil {
		t.Fatalf("setup dispatch failed: %v", err)
	}

	result, err := s.dispatchToolCall(context.Background(), "delete_object", map[string]any{
		"object_name": "Doomed",
	}, token)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); !isErr {
		t.Fatal("expected error without confirm=true")
	}
	content := result["content"].([]map[string]any)
	if text, _ := content[0]["text"].(string); !strings.Contains(text, "confirm") {
		t.Errorf("error should mention confirm, got %q", text)
	}

	result, err = s.dispatchToolCall(context.Background(), "delete_object", map[string]any{
		"object_name": "Doomed",
		"confirm":     true,
	}, token)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("delete with confirm should succeed: %v", result)
	}
}

func TestServer_ExecuteBlenderCode_AdminOnly(t *testing.T) {
	s, _, authStore := setupTestServer(t)

	if s.isToolAllowed("execute_blender_code", auth.ScopeOperator) {
		t.Error("operator should not be allowed execute_blender_code")
	}
	if !s.isToolAllowed("execute_blender_code", auth.ScopeAdmin) {
		t.Error("admin should be allowed execute_blender_code")
	}

	operator := createTestToken(t, authStore, auth.ScopeOperator)
	result, err := s.dispatchToolCall(context.Background(), "execute_blender_code", map[string]any{
		"code": "print('hi')",
	}, operator)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); !isErr {
		t.Fatal("expected error for operator running code")
	}
}

func TestServer_GetToolsForScope(t *testing.T) {
	s, _, _ := setupTestServer(t)

	adminTools := s.getToolsForScope(auth.ScopeAdmin)
	operatorTools := s.getToolsForScope(auth.ScopeOperator)
	roTools := s.getToolsForScope(auth.ScopeAdminRO)

	if len(adminTools) <= len(operatorTools) {
		t.Errorf("admin should see more tools than operator: %d vs %d", len(adminTools), len(operatorTools))
	}
	if len(operatorTools) <= len(roTools) {
		t.Errorf("operator should see more tools than admin:ro: %d vs %d", len(operatorTools), len(roTools))
	}

	for _, tool := range operatorTools {
		if tool.Access == AccessAdmin {
			t.Errorf("operator should not see admin tool %s", tool.Name)
		}
	}
	for _, tool := range roTools {
		if tool.Access != AccessRead {
			t.Errorf("admin:ro should only see read tools, saw %s (%s)", tool.Name, tool.Access)
		}
	}
}

func TestServer_ExecuteScheduleTool(t *testing.T) {
	s, _, _ := setupTestServer(t)

	sched := &schedule.Schedule{
		ID:   "sched_test",
		Name: "test",
		Tool: "get_scene_info",
	}
	output, err := s.executeScheduleTool(context.Background(), sched)
	if err != nil {
		t.Fatalf("schedule execution failed: %v", err)
	}
	if output == "" {
		t.Error("expected non-empty output")
	}
}

func TestServer_ExecuteScheduleTool_UnknownTool(t *testing.T) {
	s, _, _ := setupTestServer(t)

	sched := &schedule.Schedule{ID: "sched_test", Tool: "no_such_tool"}
	if _, err := s.executeScheduleTool(context.Background(), sched); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestServer_ScheduleGet_ChecksIDFormat(t *testing.T) {
	s, _, authStore := setupTestServer(t)
	token := createTestToken(t, authStore, auth.ScopeAdmin)

	for _, id := range []string{"", "../../etc/passwd", "sched_XYZ", "'; DROP TABLE schedules; --"} {
		result, err := s.dispatchToolCall(context.Background(), "schedule_get", map[string]any{
			"schedule_id": id,
		}, token)
		if err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if isErr, _ := result["isError"].(bool); !isErr {
			t.Errorf("schedule_get with id %q should fail", id)
		}
	}

	// An ID the store handed out is accepted end to end.
	sched := &schedule.Schedule{
		Name:     "nightly",
		CronExpr: "0 3 * * *",
		Tool:     "get_scene_info",
		Enabled:  true,
		Overlap:  schedule.OverlapSkip,
	}
	if err := s.scheduleStore.Create(sched); err != nil {
		t.Fatalf("failed to create schedule: %v", err)
	}
	result, err := s.dispatchToolCall(context.Background(), "schedule_get", map[string]any{
		"schedule_id": sched.ID,
	}, token)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("schedule_get with %s should succeed: %v", sched.ID, result)
	}
}

func TestSummarizeToolResult(t *testing.T) {
	result := map[string]any{
		"content": []map[string]any{{"type": "text", "text": "hello"}},
	}
	if got := summarizeToolResult(result); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}

	long := strings.Repeat("x", 3000)
	result["content"] = []map[string]any{{"type": "text", "text": long}}
	if got := summarizeToolResult(result); len(got) > 2100 {
		t.Errorf("expected truncated output, got %d chars", len(got))
	}

	if got := summarizeToolResult(map[string]any{}); got != "" {
		t.Errorf("expected empty summary, got %q", got)
	}
}

func TestSocketHandler_ProcessRequest(t *testing.T) {
	s, _, authStore := setupTestServer(t)
	h := s.GetSocketHandler()

	_, rawKey, err := authStore.CreateToken("socket-test", auth.ScopeAdmin, nil)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	resp := h.processRequest(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: "ping"})
	if resp.Error != nil {
		t.Fatalf("ping failed: %v", resp.Error)
	}

	resp = h.processRequest(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 2, Method: "bogus"})
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %v", resp.Error)
	}

	params, _ := json.Marshal(map[string]any{"api_key": "bmc_invalid"})
	resp = h.processRequest(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 3, Method: "tools", Params: params})
	if resp.Error == nil || resp.Error.Code != -32001 {
		t.Fatalf("expected invalid key error, got %v", resp.Error)
	}

	params, _ = json.Marshal(map[string]any{"api_key": rawKey})
	resp = h.processRequest(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 4, Method: "tools", Params: params})
	if resp.Error != nil {
		t.Fatalf("tools failed: %v", resp.Error)
	}

	params, _ = json.Marshal(map[string]any{
		"api_key":   rawKey,
		"tool":      "create_object",
		"arguments": map[string]any{"object_type": "SPHERE"},
	})
	resp = h.processRequest(context.Background(), &JSONRPCRequest{JSONRPC: "2.0", ID: 5, Method: "call_tool", Params: params})
	if resp.Error != nil {
		t.Fatalf("call_tool failed: %v", resp.Error)
	}
}
