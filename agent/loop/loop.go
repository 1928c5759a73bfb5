package loop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

const (
	defaultMaxRounds = 40
	defaultToolPause = 2 * time.Second
)

// Dispatcher executes one tool call and reports the normalized envelope.
type Dispatcher interface {
	Dispatch(ctx context.Context, call contractx.FunctionCall) contractx.ToolResult
}

// Outcome is the terminal state of one Invoke or Resume. Exactly one of
// the three shapes holds: Completed with a FinalSummary, a non-empty
// Question awaiting user input, or a plain Reply turn.
type Outcome struct {
	Reply        *contractx.Turn
	Question     string
	FinalSummary string
	Completed    bool
}

// NeedsInput reports whether the loop is suspended on a user question.
func (o Outcome) NeedsInput() bool {
	return o.Question != ""
}

// pendingBatch is one agent turn's call requests mid-dispatch. results is
// always index-aligned with calls, so len(results) is the next call to run.
type pendingBatch struct {
	calls   []contractx.FunctionCall
	results []contractx.Part
}

// Loop drives one model conversation: generate, dispatch requested tool
// calls strictly in order, feed results back, repeat until the model
// answers in text, signals completion, or asks the user a question.
type Loop struct {
	oracle     contractx.Oracle
	history    contractx.History
	dispatcher Dispatcher
	limiter    *rate.Limiter
	maxRounds  int
	pending    *pendingBatch
}

type Option func(*Loop)

// WithToolPause sets the minimum interval between consecutive tool
// dispatches within a batch.
func WithToolPause(pause time.Duration) Option {
	return func(l *Loop) {
		l.limiter = rate.NewLimiter(rate.Every(pause), 1)
	}
}

// WithMaxRounds caps how many generate/dispatch rounds one invocation may
// take before giving up.
func WithMaxRounds(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxRounds = n
		}
	}
}

func New(oracle contractx.Oracle, history contractx.History, dispatcher Dispatcher, opts ...Option) *Loop {
	l := &Loop{
		oracle:     oracle,
		history:    history,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Every(defaultToolPause), 1),
		maxRounds:  defaultMaxRounds,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Suspended reports whether a previous outcome asked for user input and
// the loop is waiting on Resume.
func (l *Loop) Suspended() bool {
	return l.pending != nil
}

// Invoke appends userText as a user turn and runs the conversation to an
// outcome. A suspended loop must be resumed or discarded first.
func (l *Loop) Invoke(ctx context.Context, userText string) (Outcome, error) {
	if l.pending != nil {
		return Outcome{}, fmt.Errorf("loop is suspended on a question; call Resume")
	}

	l.history.Append(contractx.Turn{
		Role:  contractx.RoleUser,
		Parts: []contractx.Part{contractx.TextPart(userText)},
	})
	return l.run(ctx)
}

// Resume answers a pending ask_user_for_input call. The answer is written
// back as that call's successful response, the rest of the suspended batch
// is dispatched, and the conversation continues.
func (l *Loop) Resume(ctx context.Context, answer string) (Outcome, error) {
	if l.pending == nil {
		return Outcome{}, contractx.ErrNotSuspended
	}

	batch := l.pending
	l.pending = nil
	batch.results = append(batch.results, contractx.ResponsePart(
		contractx.ToolAskUserForInput,
		contractx.ToolResult{Success: true, Data: answer}.AsResponse(),
	))

	outcome, settled, err := l.runBatch(ctx, batch)
	if err != nil {
		return Outcome{}, err
	}
	if settled {
		return outcome, nil
	}
	return l.run(ctx)
}

func (l *Loop) run(ctx context.Context) (Outcome, error) {
	for round := 0; round < l.maxRounds; round++ {
		reply, err := l.oracle.Generate(ctx, l.history.Snapshot())
		if err != nil {
			return Outcome{}, err
		}
		l.history.Append(reply)

		calls := reply.CallRequests()
		if len(calls) == 0 {
			replyCopy := reply
			return Outcome{Reply: &replyCopy}, nil
		}

		outcome, settled, err := l.runBatch(ctx, &pendingBatch{calls: calls})
		if err != nil {
			return Outcome{}, err
		}
		if settled {
			return outcome, nil
		}
	}

	return Outcome{}, fmt.Errorf("%w: no resolution after %d rounds", contractx.ErrRoundBudget, l.maxRounds)
}

// runBatch dispatches the batch from where it left off. It settles the
// invocation when the batch carries a completion signal or suspends on a
// user question; otherwise the full tool turn is appended and the caller
// continues the conversation.
func (l *Loop) runBatch(ctx context.Context, batch *pendingBatch) (Outcome, bool, error) {
	// A completion signal anywhere in the batch takes precedence over
	// suspension: the remaining calls still run, but nothing waits on the
	// user once the task is declared done.
	summary, completing := completionSignal(batch.calls)

	for i := len(batch.results); i < len(batch.calls); i++ {
		call := batch.calls[i]

		if call.Name == contractx.ToolAskUserForInput && !completing {
			l.pending = batch
			return Outcome{Question: questionOf(call)}, true, nil
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return Outcome{}, false, err
		}
		result := l.dispatcher.Dispatch(ctx, call)
		batch.results = append(batch.results, contractx.ResponsePart(call.Name, result.AsResponse()))
	}

	l.history.Append(contractx.Turn{Role: contractx.RoleTool, Parts: batch.results})

	if completing {
		return Outcome{Completed: true, FinalSummary: summary}, true, nil
	}
	return Outcome{}, false, nil
}

func completionSignal(calls []contractx.FunctionCall) (string, bool) {
	for _, call := range calls {
		if call.Name != contractx.ToolSignalTaskComplete {
			continue
		}
		if s, ok := call.Args["final_summary"].(string); ok {
			return strings.TrimSpace(s), true
		}
		return "", true
	}
	return "", false
}

func questionOf(call contractx.FunctionCall) string {
	if q, ok := call.Args["question"].(string); ok {
		return strings.TrimSpace(q)
	}
	return ""
}
