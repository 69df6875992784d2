package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/abacus/internal/calc"
	"github.com/hpungsan/abacus/internal/config"
	"github.com/hpungsan/abacus/internal/db"
	"github.com/hpungsan/abacus/internal/errors"
	"github.com/hpungsan/abacus/internal/ops"
)

// testSetup creates a repository over a temporary database.
func testSetup(t *testing.T) (*ops.Repository, *config.Config, func()) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var n int
	clock := ops.ClockFunc(func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	})

	cleanup := func() {
		database.Close()
	}
	return ops.NewRepository(database, clock), config.DefaultConfig(), cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("result has no content")
	}
	return r.Content[0].(mcp.TextContent).Text
}

func errorCode(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	if !r.IsError {
		t.Fatalf("expected IsError=true, got %s", resultText(t, r))
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText(t, r)), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)["code"].(string)
}

func TestHandleRecord_Success(t *testing.T) {
	repo, _, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(repo)
	result, err := h.HandleRecord(context.Background(), makeRequest(map[string]any{
		"expression": "2 + 2",
		"result":     "4",
	}))
	if err != nil {
		t.Fatalf("HandleRecord error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var c calc.Calculation
	if err := json.Unmarshal([]byte(resultText(t, result)), &c); err != nil {
		t.Fatalf("failed to unmarshal record: %v", err)
	}
	if c.ID == 0 {
		t.Error("expected a storage-assigned id")
	}
	if c.Expression != "2 + 2" || c.Result != "4" {
		t.Errorf("record = %+v, want 2 + 2 = 4", c)
	}
	if c.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}
}

func TestHandleRecord_Validation(t *testing.T) {
	repo, _, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(repo)
	cases := []struct {
		name string
		args map[string]any
	}{
		{"missing both", map[string]any{}},
		{"missing result", map[string]any{"expression": "1+1"}},
		{"missing expression", map[string]any{"result": "2"}},
		{"empty expression", map[string]any{"expression": "", "result": "2"}},
		{"numeric result", map[string]any{"expression": "1+1", "result": 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := h.HandleRecord(context.Background(), makeRequest(tc.args))
			if err != nil {
				t.Fatalf("HandleRecord error: %v", err)
			}
			if code := errorCode(t, result); code != string(errors.ErrInvalidInput) {
				t.Errorf("code = %s, want %s", code, errors.ErrInvalidInput)
			}
		})
	}

	items, err := repo.ListRecent(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("rejected records were stored: %d items", len(items))
	}
}

func TestHandleList(t *testing.T) {
	repo, _, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(repo)
	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), ops.CreateInput{
			Expression: fmt.Sprintf("%d + 0", i),
			Result:     fmt.Sprint(i),
		})
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	result, err := h.HandleList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleList error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var out ListResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("failed to unmarshal list: %v", err)
	}
	if len(out.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(out.Items))
	}
	if out.Items[0].Expression != "2 + 0" {
		t.Errorf("first item = %q, want newest", out.Items[0].Expression)
	}

	result, err = h.HandleList(context.Background(), makeRequest(map[string]any{"limit": 2}))
	if err != nil {
		t.Fatalf("HandleList error: %v", err)
	}
	out = ListResult{}
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("failed to unmarshal list: %v", err)
	}
	if len(out.Items) != 2 {
		t.Errorf("items = %d, want 2", len(out.Items))
	}
}

func TestHandleList_Empty(t *testing.T) {
	repo, _, cleanup := testSetup(t)
	defer cleanup()

	result, err := NewHandlers(repo).HandleList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleList error: %v", err)
	}
	if text := resultText(t, result); text != `{"items":[]}` {
		t.Errorf("text = %s, want empty items array", text)
	}
}

func TestHandleList_InvalidLimit(t *testing.T) {
	repo, _, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(repo)
	for _, limit := range []any{0, -1, "ten", 2.5} {
		result, err := h.HandleList(context.Background(), makeRequest(map[string]any{"limit": limit}))
		if err != nil {
			t.Fatalf("HandleList error: %v", err)
		}
		if code := errorCode(t, result); code != string(errors.ErrInvalidInput) {
			t.Errorf("limit %v: code = %s, want %s", limit, code, errors.ErrInvalidInput)
		}
	}
}

func TestHandleClear(t *testing.T) {
	repo, _, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(repo)
	if _, err := repo.Create(context.Background(), ops.CreateInput{Expression: "1+1", Result: "2"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	for _, want := range []int64{1, 0} {
		result, err := h.HandleClear(context.Background(), makeRequest(nil))
		if err != nil {
			t.Fatalf("HandleClear error: %v", err)
		}
		var out ops.ClearOutput
		if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
			t.Fatalf("failed to unmarshal clear: %v", err)
		}
		if out.Deleted != want {
			t.Errorf("deleted = %d, want %d", out.Deleted, want)
		}
	}
}

func TestServerRegistration(t *testing.T) {
	repo, cfg, cleanup := testSetup(t)
	defer cleanup()

	tools := NewServer(repo, cfg, "test").ListTools()
	expected := []string{"calculation_list", "calculation_record", "calculation_clear"}

	if len(tools) != len(expected) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expected))
	}
	for _, name := range expected {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	repo, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"calculation_clear", "calculation_clear"}
	tools := NewServer(repo, cfg, "test").ListTools()

	if len(tools) != 2 {
		t.Errorf("registered tool count = %d, want 2", len(tools))
	}
	if _, ok := tools["calculation_clear"]; ok {
		t.Error("disabled tool calculation_clear should not be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	repo, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	if tools := NewServer(repo, cfg, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"calculation_list", "history_purge", "nope"})
	if len(unknown) != 2 || unknown[0] != "history_purge" || unknown[1] != "nope" {
		t.Errorf("unknown = %v, want [history_purge nope]", unknown)
	}
	if unknown := ValidateDisabledTools(nil); len(unknown) != 0 {
		t.Errorf("unknown = %v, want empty", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	want := []string{"calculation_clear", "calculation_list", "calculation_record"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("AllToolNames() = %v, want %v", names, want)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))

	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText(t, r)), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)

	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
	if errObj["message"] != errors.MsgInternal {
		t.Errorf("message=%v, want %q", errObj["message"], errors.MsgInternal)
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	if code := errorCode(t, errorResult(fmt.Errorf("boom"))); code != string(errors.ErrInternal) {
		t.Errorf("code = %s, want %s", code, errors.ErrInternal)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewInvalidInput("expression is required"))

	var payload map[string]any
	if err := json.Unmarshal([]byte(resultText(t, r)), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj := payload["error"].(map[string]any)
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
	if errObj["status"] != float64(400) {
		t.Errorf("status=%v, want 400", errObj["status"])
	}
}
