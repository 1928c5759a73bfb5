package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	contractx "github.com/hansobored/hanagent/agent/contract"
	workspacex "github.com/hansobored/hanagent/agent/workspace"
)

const scratchpadFileName = ".scratchpad.json"

// Scratchpad returns the short-term key/value memory tool group, backed
// by a JSON file in the workspace. Unreadable content reads as empty.
func Scratchpad(ws *workspacex.Workspace) []Tool {
	path, err := ws.Resolve(scratchpadFileName)
	if err != nil {
		// The fixed filename cannot escape the workspace.
		panic(err)
	}

	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name:        "write_to_scratchpad",
				Description: "Stores a string in short-term memory under a key.",
				Params: []contractx.ParamSpec{
					{Name: "key", Type: contractx.ParamString, Description: "Key to store under.", Required: true},
					{Name: "value", Type: contractx.ParamString, Description: "Value to store.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				key, err := stringArg(args, "key")
				if err != nil {
					return failure("%v", err)
				}
				value, err := stringArg(args, "value")
				if err != nil {
					return failure("%v", err)
				}

				data := readScratchpad(path)
				data[key] = value
				payload, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return failure("failed to write to scratchpad: %v", err)
				}
				if err := os.WriteFile(path, payload, 0o644); err != nil {
					return failure("failed to write to scratchpad: %v", err)
				}
				return success(fmt.Sprintf("information stored under key '%s'", key))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "read_from_scratchpad",
				Description: "Reads a value from short-term memory by key.",
				Params: []contractx.ParamSpec{
					{Name: "key", Type: contractx.ParamString, Description: "Key to read.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				key, err := stringArg(args, "key")
				if err != nil {
					return failure("%v", err)
				}
				value, ok := readScratchpad(path)[key]
				if !ok {
					return failure("no information found for key '%s'", key)
				}
				return success(value)
			},
		},
	}
}

func readScratchpad(path string) map[string]string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return map[string]string{}
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		return map[string]string{}
	}
	return data
}
