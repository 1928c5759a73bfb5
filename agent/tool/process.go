package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	contractx "github.com/hansobored/hanagent/agent/contract"
	workspacex "github.com/hansobored/hanagent/agent/workspace"
)

const stopGracePeriod = 5 * time.Second

// ProcessManager tracks background processes by PID. These are
// independent resources outside the orchestration loop's lifecycle: the
// loop never blocks on their completion.
type ProcessManager struct {
	mu        sync.Mutex
	processes map[int]*managedProcess
	workDir   string
}

type managedProcess struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	done    chan struct{}
}

func NewProcessManager(ws *workspacex.Workspace) *ProcessManager {
	return &ProcessManager{
		processes: make(map[int]*managedProcess),
		workDir:   ws.Root(),
	}
}

func (m *ProcessManager) start(command string, args []string) (int, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = m.workDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, fmt.Errorf("open stdin pipe: %w", err)
	}

	proc := &managedProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		done:   make(chan struct{}),
	}
	cmd.Stdout = proc.stdout
	cmd.Stderr = proc.stderr

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid
	m.mu.Lock()
	m.processes[pid] = proc
	m.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(proc.done)
	}()

	return pid, nil
}

func (m *ProcessManager) lookup(pid int) (*managedProcess, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	proc, ok := m.processes[pid]
	return proc, ok
}

func (m *ProcessManager) forget(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.processes, pid)
}

func (m *ProcessManager) activePIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pids := make([]int, 0, len(m.processes))
	for pid := range m.processes {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

func (p *managedProcess) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *managedProcess) exitCode() int {
	if p.cmd.ProcessState != nil {
		return p.cmd.ProcessState.ExitCode()
	}
	return -1
}

// Processes returns the background-process tool group backed by m.
func Processes(m *ProcessManager) []Tool {
	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name:        "start_background_process",
				Description: "Starts a command in the background (e.g. a server or an interactive script) and returns its PID.",
				Params: []contractx.ParamSpec{
					{Name: "command", Type: contractx.ParamString, Description: "Command to start.", Required: true},
					{Name: "args", Type: contractx.ParamArray, Description: "Arguments for the command."},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				command, err := stringArg(args, "command")
				if err != nil {
					return failure("%v", err)
				}
				cmdArgs, err := stringSliceArg(args, "args")
				if err != nil {
					return failure("%v", err)
				}
				pid, err := m.start(command, cmdArgs)
				if err != nil {
					return failure("failed to start background process: %v", err)
				}
				display := strings.Join(append([]string{command}, cmdArgs...), " ")
				return success(map[string]any{
					"pid":     pid,
					"message": fmt.Sprintf("process '%s' started in the background with PID %d", display, pid),
				})
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "send_input_to_process",
				Description: "Sends an input line to a running background process (e.g. to answer a menu prompt).",
				Params: []contractx.ParamSpec{
					{Name: "pid", Type: contractx.ParamNumber, Description: "PID of the process.", Required: true},
					{Name: "input_string", Type: contractx.ParamString, Description: "Input to send.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				pid, err := intArg(args, "pid")
				if err != nil {
					return failure("%v", err)
				}
				input, err := stringArg(args, "input_string")
				if err != nil {
					return failure("%v", err)
				}
				proc, ok := m.lookup(pid)
				if !ok {
					return failure("no background process with PID %d", pid)
				}
				if proc.finished() {
					m.forget(pid)
					return failure("process with PID %d is no longer running", pid)
				}
				if !strings.HasSuffix(input, "\n") {
					input += "\n"
				}
				if _, err := io.WriteString(proc.stdin, input); err != nil {
					return failure("failed to send input to process PID %d: %v", pid, err)
				}
				return success(fmt.Sprintf("input sent to process PID %d", pid))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "check_process_status",
				Description: "Checks whether a background process is still running; returns exit code and captured output once finished.",
				Params: []contractx.ParamSpec{
					{Name: "pid", Type: contractx.ParamNumber, Description: "PID of the process.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				pid, err := intArg(args, "pid")
				if err != nil {
					return failure("%v", err)
				}
				proc, ok := m.lookup(pid)
				if !ok {
					return failure("no background process with PID %d", pid)
				}
				if !proc.finished() {
					return success(map[string]any{
						"pid":    pid,
						"status": "running",
						"note":   "full output is reported once the process has finished",
					})
				}
				m.forget(pid)
				return success(map[string]any{
					"pid":       pid,
					"status":    "finished",
					"exit_code": proc.exitCode(),
					"stdout":    proc.stdout.String(),
					"stderr":    proc.stderr.String(),
				})
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "stop_process",
				Description: "Stops a background process by PID; kills it when it ignores the termination signal.",
				Params: []contractx.ParamSpec{
					{Name: "pid", Type: contractx.ParamNumber, Description: "PID of the process.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				pid, err := intArg(args, "pid")
				if err != nil {
					return failure("%v", err)
				}
				proc, ok := m.lookup(pid)
				if !ok {
					return failure("no background process with PID %d to stop", pid)
				}
				if proc.finished() {
					m.forget(pid)
					return success(fmt.Sprintf("process PID %d was already finished", pid))
				}

				_ = proc.cmd.Process.Signal(syscall.SIGTERM)
				select {
				case <-proc.done:
					m.forget(pid)
					return success(fmt.Sprintf("process with PID %d stopped", pid))
				case <-time.After(stopGracePeriod):
					_ = proc.cmd.Process.Kill()
					<-proc.done
					m.forget(pid)
					return success(fmt.Sprintf("process with PID %d killed after ignoring termination", pid))
				}
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "list_running_processes",
				Description: "Lists the PIDs of all currently tracked background processes.",
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				pids := m.activePIDs()
				if len(pids) == 0 {
					return success(map[string]any{"message": "no active background processes"})
				}
				return success(map[string]any{"active_pids": pids})
			},
		},
	}
}
