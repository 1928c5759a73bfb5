package tool

import (
	"context"
	"strings"
	"testing"
	"time"
)

func waitForFinish(t *testing.T, fn func(context.Context, map[string]any) any, pid int) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data := fn(context.Background(), map[string]any{"pid": pid}).(map[string]any)
		if data["status"] == "finished" {
			return data
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("process did not finish in time")
	return nil
}

func TestBackgroundProcessLifecycle(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	group := Processes(NewProcessManager(ws))
	ctx := context.Background()

	start := toolFn(t, group, "start_background_process")
	check := toolFn(t, group, "check_process_status")
	list := toolFn(t, group, "list_running_processes")

	data := mustSucceed(t, start(ctx, map[string]any{
		"command": "sh",
		"args":    []any{"-c", "echo out; echo err >&2; exit 4"},
	})).(map[string]any)
	pid, ok := data["pid"].(int)
	if !ok || pid <= 0 {
		t.Fatalf("pid = %v", data["pid"])
	}

	listing := mustSucceed(t, list(ctx, nil)).(map[string]any)
	if pids, ok := listing["active_pids"].([]int); !ok || len(pids) != 1 || pids[0] != pid {
		t.Fatalf("active pids = %v", listing)
	}

	final := waitForFinish(t, func(ctx context.Context, args map[string]any) any {
		return mustSucceed(t, check(ctx, args))
	}, pid)
	if final["exit_code"] != 4 {
		t.Fatalf("exit code = %v", final["exit_code"])
	}
	if !strings.Contains(final["stdout"].(string), "out") || !strings.Contains(final["stderr"].(string), "err") {
		t.Fatalf("captured output = %v", final)
	}

	// Reporting a finished process forgets it.
	mustFail(t, check(ctx, map[string]any{"pid": pid}), "no background process")
}

func TestSendInputToProcess(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	group := Processes(NewProcessManager(ws))
	ctx := context.Background()

	start := toolFn(t, group, "start_background_process")
	send := toolFn(t, group, "send_input_to_process")
	check := toolFn(t, group, "check_process_status")

	data := mustSucceed(t, start(ctx, map[string]any{
		"command": "sh",
		"args":    []any{"-c", "read line; echo got:$line"},
	})).(map[string]any)
	pid := data["pid"].(int)

	mustSucceed(t, send(ctx, map[string]any{
		"pid":          float64(pid),
		"input_string": "ping",
	}))

	final := waitForFinish(t, func(ctx context.Context, args map[string]any) any {
		return mustSucceed(t, check(ctx, args))
	}, pid)
	if !strings.Contains(final["stdout"].(string), "got:ping") {
		t.Fatalf("stdout = %q", final["stdout"])
	}
}

func TestStopProcess(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	group := Processes(NewProcessManager(ws))
	ctx := context.Background()

	start := toolFn(t, group, "start_background_process")
	stop := toolFn(t, group, "stop_process")
	list := toolFn(t, group, "list_running_processes")

	data := mustSucceed(t, start(ctx, map[string]any{
		"command": "sleep",
		"args":    []any{"60"},
	})).(map[string]any)
	pid := data["pid"].(int)

	mustSucceed(t, stop(ctx, map[string]any{"pid": pid}))

	listing := mustSucceed(t, list(ctx, nil)).(map[string]any)
	if _, stillTracked := listing["active_pids"]; stillTracked {
		t.Fatalf("stopped process still tracked: %v", listing)
	}
}

func TestProcessToolsRejectUnknownPID(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	group := Processes(NewProcessManager(ws))
	ctx := context.Background()

	mustFail(t, toolFn(t, group, "check_process_status")(ctx, map[string]any{"pid": 999999}), "no background process")
	mustFail(t, toolFn(t, group, "stop_process")(ctx, map[string]any{"pid": 999999}), "no background process")
	mustFail(t, toolFn(t, group, "send_input_to_process")(ctx, map[string]any{"pid": 999999, "input_string": "x"}), "no background process")
}
