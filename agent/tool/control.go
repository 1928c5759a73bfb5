package tool

import (
	"context"
	"fmt"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

// Control returns the signal tool group. These tools communicate
// orchestration intent rather than performing work: the invocation loop
// intercepts ask_user_for_input before dispatch and watches for
// signal_task_complete in the dispatched calls.
func Control() []Tool {
	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name:        contractx.ToolSignalTaskComplete,
				Description: "Call this ONCE, at the very end, when every task has been completed successfully.",
				Params: []contractx.ParamSpec{
					{Name: "final_summary", Type: contractx.ParamString, Description: "Short summary of what was accomplished.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				summary := optionalStringArg(args, "final_summary", "")
				return success(fmt.Sprintf("task completion signal received. final summary: %s", summary))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        contractx.ToolAskUserForInput,
				Description: "Asks the user a question and pauses execution. Use for clarification, decisions, or sensitive data.",
				Params: []contractx.ParamSpec{
					{Name: "question", Type: contractx.ParamString, Description: "Question to put to the user.", Required: true},
				},
			},
			// The loop suspends before this runs; the direct invocation
			// path only exists for completeness.
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				question := optionalStringArg(args, "question", "")
				return success(map[string]any{
					"type":     "user_input_request",
					"question": question,
				})
			},
		},
	}
}
