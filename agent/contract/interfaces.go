package contract

import "context"

// Oracle is one exchange boundary with the LLM: the full transcript goes
// in, one agent turn comes out. The model's reasoning is opaque.
type Oracle interface {
	Generate(ctx context.Context, turns []Turn) (Turn, error)
}

// Planner converts a free-text task into line-oriented checklist text.
type Planner interface {
	Plan(ctx context.Context, task string) (string, error)
}

// Validator judges, from the transcript slice produced by one executor
// attempt, whether the checklist item actually succeeded. It never
// errors: an unreadable judgment defaults to a failed verdict.
type Validator interface {
	Validate(ctx context.Context, task string, item string, slice []Turn) ValidationVerdict
}

// History owns the session transcript.
type History interface {
	Append(turn Turn)
	Snapshot() []Turn
	Len() int
	Save() error
}

// ToolRegistry is the capability table assembled at startup from
// independent provider groups.
type ToolRegistry interface {
	Lookup(name string) (ToolFunc, bool)
	Specs() []ToolSpec
}

// ToolFunc executes one tool invocation. Implementations never panic past
// the dispatcher and report failures inside the envelope.
type ToolFunc func(ctx context.Context, args map[string]any) ToolResult
