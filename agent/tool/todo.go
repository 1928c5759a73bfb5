package tool

import (
	"context"
	"fmt"

	contractx "github.com/hansobored/hanagent/agent/contract"
	trackerx "github.com/hansobored/hanagent/agent/tracker"
)

// Todo returns the checklist tool group: thin wrappers over the tracked
// artifact so the model can inspect and extend the plan it works
// through. Mutation goes through the tracker's exact-text flip only.
func Todo(file *trackerx.File) []Tool {
	return []Tool{
		{
			Spec: contractx.ToolSpec{
				Name:        "read_todo_list",
				Description: "Reads the current checklist.",
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				doc, err := file.Read()
				if err != nil {
					return failure("failed to read checklist: %v", err)
				}
				if doc == "" {
					return success("the checklist is empty")
				}
				return success(doc)
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "add_todo_item",
				Description: "Appends a new unchecked item to the checklist.",
				Params: []contractx.ParamSpec{
					{Name: "item", Type: contractx.ParamString, Description: "Item text to add.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				item, err := stringArg(args, "item")
				if err != nil {
					return failure("%v", err)
				}
				doc, err := file.Read()
				if err != nil {
					return failure("failed to read checklist: %v", err)
				}
				items := append(trackerx.Parse(doc), trackerx.Item{Text: item})
				if err := file.Write(trackerx.Render(items)); err != nil {
					return failure("failed to write checklist: %v", err)
				}
				return success(fmt.Sprintf("added: %s", item))
			},
		},
		{
			Spec: contractx.ToolSpec{
				Name:        "mark_todo_item_done",
				Description: "Marks the first unchecked checklist item with exactly this text as done.",
				Params: []contractx.ParamSpec{
					{Name: "item", Type: contractx.ParamString, Description: "Exact item text to mark done.", Required: true},
				},
			},
			Fn: func(ctx context.Context, args map[string]any) contractx.ToolResult {
				item, err := stringArg(args, "item")
				if err != nil {
					return failure("%v", err)
				}
				doc, err := file.Read()
				if err != nil {
					return failure("failed to read checklist: %v", err)
				}
				updated := trackerx.MarkDone(item, doc)
				if updated == doc {
					return failure("no unchecked item matches %q", item)
				}
				if err := file.Write(updated); err != nil {
					return failure("failed to write checklist: %v", err)
				}
				return success(fmt.Sprintf("marked done: %s", item))
			},
		},
	}
}
