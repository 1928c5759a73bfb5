package persona

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/hansobored/hanagent/agent/contract"
	trackerx "github.com/hansobored/hanagent/agent/tracker"
)

// Planner turns a task description into a markdown checklist of
// executable steps.
type Planner struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewPlanner(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Planner, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: planner system prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileTextGraph(ctx, chatModel, systemPrompt, "planner.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile planner graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Planner{runner: runner}, nil
}

// Plan produces the checklist in canonical "- [ ] item" form. Replies
// wrapped in code fences are unwrapped; a reply with no checklist items
// is rejected with ErrNoPlan.
func (p *Planner) Plan(ctx context.Context, task string) (string, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return "", fmt.Errorf("%w: task is required", contractx.ErrValidation)
	}

	out, err := p.runner.Invoke(ctx, map[string]any{"input": task})
	if err != nil {
		return "", fmt.Errorf("%w: planner invoke: %v", contractx.ErrModelInvoke, err)
	}

	doc := stripFences(out.Content)
	items := trackerx.Parse(doc)
	if len(items) == 0 {
		return "", fmt.Errorf("%w: planner reply carries no checklist items", contractx.ErrNoPlan)
	}

	return trackerx.Render(items), nil
}

// stripFences unwraps a reply the model wrapped in a markdown code fence,
// tolerating a language tag on the opening line.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
