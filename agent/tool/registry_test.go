package tool

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/hansobored/hanagent/agent/contract"
	workspacex "github.com/hansobored/hanagent/agent/workspace"
)

func newWorkspace(t *testing.T) *workspacex.Workspace {
	t.Helper()
	ws, err := workspacex.New(t.TempDir())
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	if err := ws.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	return ws
}

func toolFn(t *testing.T, group []Tool, name string) contractx.ToolFunc {
	t.Helper()
	for _, tool := range group {
		if tool.Spec.Name == name {
			return tool.Fn
		}
	}
	t.Fatalf("tool %s not in group", name)
	return nil
}

func mustSucceed(t *testing.T, result contractx.ToolResult) any {
	t.Helper()
	if !result.Success {
		t.Fatalf("tool failed: %v", result.Data)
	}
	return result.Data
}

func mustFail(t *testing.T, result contractx.ToolResult, wantSubstr string) {
	t.Helper()
	if result.Success {
		t.Fatalf("tool succeeded, want failure containing %q: %v", wantSubstr, result.Data)
	}
	msg, ok := result.Data.(string)
	if !ok {
		t.Fatalf("failure data is %T, want string", result.Data)
	}
	if !strings.Contains(msg, wantSubstr) {
		t.Fatalf("failure %q missing %q", msg, wantSubstr)
	}
}

func TestRegistryComposesGroupsInOrder(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	registry, err := NewRegistry(FileSystem(ws), Control())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	specs := registry.Specs()
	if specs[0].Name != "create_directory" {
		t.Fatalf("first spec = %s, want create_directory", specs[0].Name)
	}
	if specs[len(specs)-1].Name != contractx.ToolAskUserForInput {
		t.Fatalf("last spec = %s", specs[len(specs)-1].Name)
	}

	if _, ok := registry.Lookup("write_file"); !ok {
		t.Fatal("write_file not registered")
	}
	if _, ok := registry.Lookup("no_such_tool"); ok {
		t.Fatal("unknown name resolved")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(Control(), Control()); err == nil {
		t.Fatal("duplicate tool names must fail construction")
	}
}

func TestRegistryRejectsMissingCallable(t *testing.T) {
	t.Parallel()

	broken := []Tool{{Spec: contractx.ToolSpec{Name: "broken"}}}
	if _, err := NewRegistry(broken); err == nil {
		t.Fatal("tool without callable must fail construction")
	}
}

func TestDispatcherReportsUnknownTool(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(Control())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	result := NewDispatcher(registry).Dispatch(context.Background(), contractx.FunctionCall{Name: "missing_tool"})
	mustFail(t, result, "unknown tool missing_tool")
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	t.Parallel()

	panicking := []Tool{{
		Spec: contractx.ToolSpec{Name: "explode"},
		Fn: func(context.Context, map[string]any) contractx.ToolResult {
			panic("boom")
		},
	}}
	registry, err := NewRegistry(panicking)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	result := NewDispatcher(registry).Dispatch(context.Background(), contractx.FunctionCall{Name: "explode"})
	mustFail(t, result, "panicked")
}
