package persona

import (
	"context"
	"fmt"
	"strings"

	loopx "github.com/hansobored/hanagent/agent/loop"
)

// Executor scopes the tool-calling conversation loop to one checklist
// item at a time. The loop owns the transcript; Executor only shapes the
// instruction the loop starts from.
type Executor struct {
	loop *loopx.Loop
}

func NewExecutor(loop *loopx.Loop) *Executor {
	return &Executor{loop: loop}
}

// Attempt runs one execution attempt for item. feedback, when non-empty,
// is validator criticism of the previous attempt and turns the scoping
// prompt into a corrective one.
func (e *Executor) Attempt(ctx context.Context, task, item, feedback string) (loopx.Outcome, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall task:\n%s\n\n", strings.TrimSpace(task))
	fmt.Fprintf(&b, "Current checklist item:\n%s\n\n", strings.TrimSpace(item))

	if feedback = strings.TrimSpace(feedback); feedback != "" {
		fmt.Fprintf(&b, "Your previous attempt at this item failed validation:\n%s\n\n", feedback)
		b.WriteString("Fix what the feedback describes, then complete the item.")
	} else {
		b.WriteString("Work only on this checklist item. Use your tools, and stop when the item is done.")
	}

	return e.loop.Invoke(ctx, b.String())
}

// Resume answers the pending question of a suspended attempt.
func (e *Executor) Resume(ctx context.Context, answer string) (loopx.Outcome, error) {
	return e.loop.Resume(ctx, answer)
}

// Suspended reports whether the underlying loop is waiting on Resume.
func (e *Executor) Suspended() bool {
	return e.loop.Suspended()
}
