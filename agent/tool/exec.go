package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	contractx "github.com/hansobored/hanagent/agent/contract"
	workspacex "github.com/hansobored/hanagent/agent/workspace"
)

const defaultCommandTimeout = 60 * time.Second

// Commands the agent may run inside the workspace. Anything else is
// rejected before it reaches the shell.
var allowedCommands = map[string]struct{}{
	"go": {}, "gofmt": {},
	"python3": {}, "python": {}, "pip3": {}, "pip": {},
	"ls": {}, "cat": {}, "echo": {}, "find": {}, "grep": {},
	"mkdir": {}, "rm": {}, "cp": {}, "mv": {}, "chmod": {},
	"sh": {}, "bash": {},
	"git": {}, "npm": {}, "node": {},
	"make": {}, "gcc": {}, "g++": {}, "clang": {}, "cmake": {},
	"java": {}, "javac": {}, "jar": {},
	"unzip": {}, "tar": {},
}

// Execution returns the command-execution tool group.
func Execution(ws *workspacex.Workspace) []Tool {
	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name: "execute_command",
				Description: "Executes an allow-listed command inside the workspace and returns stdout, stderr, and the exit code. " +
					"'command' must be a single command name (e.g. 'python3'); pass every argument separately in 'args'.",
				Params: []contractx.ParamSpec{
					{Name: "command", Type: contractx.ParamString, Description: "Command name, without arguments.", Required: true},
					{Name: "args", Type: contractx.ParamArray, Description: "Arguments for the command."},
					{Name: "timeout", Type: contractx.ParamNumber, Description: "Timeout in seconds (default 60)."},
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
				timeout := time.Duration(optionalIntArg(args, "timeout", int(defaultCommandTimeout/time.Second))) * time.Second
				return executeCommand(ctx, ws, command, cmdArgs, timeout)
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name: "install_python_package",
				Description: "Installs a Python package with pip so that scripts written in the workspace can import it. " +
					"Use this when a generated script needs an external module.",
				Params: []contractx.ParamSpec{
					{Name: "package_name", Type: contractx.ParamString, Description: "Package to install (e.g. 'requests', 'numpy').", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				pkg, err := stringArg(args, "package_name")
				if err != nil {
					return failure("%v", err)
				}
				return executeCommand(ctx, ws, "pip3", []string{"install", pkg}, defaultCommandTimeout)
			},
		},
	}
}

func executeCommand(ctx context.Context, ws *workspacex.Workspace, command string, args []string, timeout time.Duration) contractx.ToolResult {
	if strings.Contains(command, " ") && len(args) > 0 {
		return failure("security error: command '%s' must not contain spaces when args are given separately; "+
			"pass the bare command name in 'command' and every argument in 'args'", command)
	}
	if _, ok := allowedCommands[command]; !ok {
		return failure("security error: command '%s' is not allowed", command)
	}
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command, args...)
	cmd.Dir = ws.Root()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return failure("command '%s' exceeded the %s timeout", command, timeout)
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return failure("failed to execute command '%s': %v", command, runErr)
		}
	}

	report := fmt.Sprintf("Output STDOUT:\n%s\n", stdout.String())
	if stderr.Len() > 0 {
		report += fmt.Sprintf("Output STDERR:\n%s\n", stderr.String())
	}
	report += fmt.Sprintf("Exit Code: %d", exitCode)

	return success(report)
}
