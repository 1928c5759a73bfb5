package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/hansobored/hanagent/agent/contract"
	loopx "github.com/hansobored/hanagent/agent/loop"
	trackerx "github.com/hansobored/hanagent/agent/tracker"
)

const defaultMaxRetries = 2

// Status is the terminal disposition of one Run or Resume.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusAborted    Status = "aborted"
	StatusNeedsInput Status = "needs_input"

	// statusItemDone is internal: one item passed validation and the
	// outer walk continues. It never escapes Run or Resume.
	statusItemDone Status = "item_done"
)

// Result reports how a task run ended. Question and Item are set for
// needs_input; Item and Reasoning for aborted; Summary for complete.
type Result struct {
	Status    Status
	Summary   string
	Question  string
	Item      string
	Reasoning string
}

// Executor runs one tool-calling attempt scoped to a checklist item.
type Executor interface {
	Attempt(ctx context.Context, task, item, feedback string) (loopx.Outcome, error)
	Resume(ctx context.Context, answer string) (loopx.Outcome, error)
}

type Config struct {
	// MaxRetries bounds validation failures per item; an item gets
	// MaxRetries+1 attempts before the run aborts.
	MaxRetries int
}

// Orchestrator walks the plan -> execute -> validate state machine: the
// planner writes the checklist, the executor attempts the first pending
// item, the validator judges the attempt, and the tracker records
// progress between runs.
type Orchestrator struct {
	planner   contractx.Planner
	executor  Executor
	validator contractx.Validator
	history   contractx.History
	checklist *trackerx.File

	maxRetries int
	suspended  *suspension
}

// suspension freezes an in-flight attempt while the executor waits on a
// user answer.
type suspension struct {
	task       string
	item       string
	retryCount int
	sliceStart int
}

func New(
	planner contractx.Planner,
	executor Executor,
	validator contractx.Validator,
	history contractx.History,
	checklist *trackerx.File,
	cfg Config,
) (*Orchestrator, error) {
	if planner == nil {
		return nil, errors.New("planner is required")
	}
	if executor == nil {
		return nil, errors.New("executor is required")
	}
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if history == nil {
		return nil, errors.New("history store is required")
	}
	if checklist == nil {
		return nil, errors.New("checklist file is required")
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Orchestrator{
		planner:    planner,
		executor:   executor,
		validator:  validator,
		history:    history,
		checklist:  checklist,
		maxRetries: maxRetries,
	}, nil
}

// Suspended reports whether the last run stopped on a user question.
func (o *Orchestrator) Suspended() bool {
	return o.suspended != nil
}

// Run plans the task and drives the checklist to a terminal result.
func (o *Orchestrator) Run(ctx context.Context, task string) (Result, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Result{}, fmt.Errorf("%w: task is required", contractx.ErrValidation)
	}
	if o.suspended != nil {
		return Result{}, fmt.Errorf("a suspended run is pending; call Resume or discard it")
	}

	plan, err := o.planner.Plan(ctx, task)
	if err != nil {
		return Result{}, fmt.Errorf("plan task: %w", err)
	}
	if err := o.checklist.Write(plan); err != nil {
		return Result{}, fmt.Errorf("persist checklist: %w", err)
	}
	log.Info().Int("items", len(trackerx.Parse(plan))).Msg("plan accepted")

	return o.advance(ctx, task)
}

// Resume feeds the user's answer into the suspended attempt and continues
// the run where it stopped.
func (o *Orchestrator) Resume(ctx context.Context, answer string) (Result, error) {
	if o.suspended == nil {
		return Result{}, contractx.ErrNotSuspended
	}

	susp := *o.suspended
	o.suspended = nil

	outcome, err := o.executor.Resume(ctx, answer)
	if err != nil {
		return Result{}, fmt.Errorf("resume attempt: %w", err)
	}

	result, retry, feedback, err := o.settle(ctx, susp, outcome)
	if err != nil {
		return Result{}, err
	}
	if retry {
		result, terminal, err := o.attempt(ctx, susp.task, susp.item, susp.retryCount+1, feedback)
		if err != nil || terminal {
			return result, err
		}
		return o.advance(ctx, susp.task)
	}
	if result.Status == statusItemDone {
		return o.advance(ctx, susp.task)
	}
	return result, nil
}

// advance works through pending checklist items until one suspends, one
// aborts, or none remain.
func (o *Orchestrator) advance(ctx context.Context, task string) (Result, error) {
	for {
		doc, err := o.checklist.Read()
		if err != nil {
			return Result{}, fmt.Errorf("read checklist: %w", err)
		}

		item, ok := trackerx.NextPending(doc)
		if !ok {
			return Result{Status: StatusComplete, Summary: "every checklist item is done"}, nil
		}

		result, terminal, err := o.attempt(ctx, task, item, 0, "")
		if err != nil || terminal {
			return result, err
		}
	}
}

// attempt drives one item through its retry budget. terminal is false
// only when the item validated successfully and the walk should move on.
func (o *Orchestrator) attempt(ctx context.Context, task, item string, retryCount int, feedback string) (Result, bool, error) {
	for {
		susp := suspension{
			task:       task,
			item:       item,
			retryCount: retryCount,
			sliceStart: o.history.Len(),
		}

		outcome, err := o.executor.Attempt(ctx, task, item, feedback)
		if err != nil {
			return Result{}, true, fmt.Errorf("attempt %q: %w", item, err)
		}

		result, retry, nextFeedback, err := o.settle(ctx, susp, outcome)
		if err != nil {
			return Result{}, true, err
		}
		if retry {
			retryCount = susp.retryCount + 1
			feedback = nextFeedback
			continue
		}
		return result, result.Status != statusItemDone, nil
	}
}

// settle classifies one attempt outcome. retry=true means validation
// failed within budget and the caller should re-attempt with feedback.
func (o *Orchestrator) settle(ctx context.Context, susp suspension, outcome loopx.Outcome) (Result, bool, string, error) {
	if err := o.history.Save(); err != nil {
		log.Warn().Err(err).Msg("persist history failed")
	}

	if outcome.NeedsInput() {
		o.suspended = &susp
		return Result{Status: StatusNeedsInput, Question: outcome.Question, Item: susp.item}, false, "", nil
	}

	// An explicit completion signal outranks per-item validation.
	if outcome.Completed {
		o.markDone(susp.item)
		summary := outcome.FinalSummary
		if summary == "" {
			summary = "task reported complete"
		}
		return Result{Status: StatusComplete, Summary: summary}, false, "", nil
	}

	slice := o.history.Snapshot()
	if susp.sliceStart < len(slice) {
		slice = slice[susp.sliceStart:]
	}
	verdict := o.validator.Validate(ctx, susp.task, susp.item, slice)

	if verdict.IsSuccessful {
		o.markDone(susp.item)
		log.Info().Str("item", susp.item).Msg("item validated")
		return Result{Status: statusItemDone, Item: susp.item}, false, "", nil
	}

	if susp.retryCount+1 > o.maxRetries {
		log.Warn().Str("item", susp.item).Int("failures", susp.retryCount+1).Msg("retry budget exhausted")
		return Result{Status: StatusAborted, Item: susp.item, Reasoning: verdict.Reasoning}, false, "", nil
	}

	return Result{}, true, feedbackOf(verdict), nil
}

func (o *Orchestrator) markDone(item string) {
	doc, err := o.checklist.Read()
	if err != nil {
		log.Warn().Err(err).Msg("read checklist for mark")
		return
	}
	updated := trackerx.MarkDone(item, doc)
	if updated == doc {
		log.Warn().Str("item", item).Msg("checklist item not found for mark")
		return
	}
	if err := o.checklist.Write(updated); err != nil {
		log.Warn().Err(err).Msg("persist checklist mark")
	}
}

func feedbackOf(verdict contractx.ValidationVerdict) string {
	reasoning := strings.TrimSpace(verdict.Reasoning)
	suggestion := strings.TrimSpace(verdict.Suggestion)
	switch {
	case reasoning != "" && suggestion != "":
		return reasoning + ". Suggested fix: " + suggestion
	case suggestion != "":
		return suggestion
	default:
		return reasoning
	}
}
