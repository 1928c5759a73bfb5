package persona

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/hansobored/hanagent/agent/contract"
	loopx "github.com/hansobored/hanagent/agent/loop"
)

type fakeChatModel struct {
	content string
	err     error
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestPlannerCanonicalizesChecklist(t *testing.T) {
	t.Parallel()

	reply := "```markdown\n[ ] download the dataset\n- [ ] clean the rows\n```"
	planner, err := NewPlanner(context.Background(), &fakeChatModel{content: reply}, "plan tasks")
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	plan, err := planner.Plan(context.Background(), "prepare the dataset")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	want := "- [ ] download the dataset\n- [ ] clean the rows\n"
	if plan != want {
		t.Fatalf("plan = %q, want %q", plan, want)
	}
}

func TestPlannerRejectsReplyWithoutItems(t *testing.T) {
	t.Parallel()

	planner, err := NewPlanner(context.Background(), &fakeChatModel{content: "I cannot plan this."}, "plan tasks")
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	if _, err := planner.Plan(context.Background(), "do something"); !errors.Is(err, contractx.ErrNoPlan) {
		t.Fatalf("err = %v, want ErrNoPlan", err)
	}
}

func TestPlannerRejectsEmptyTask(t *testing.T) {
	t.Parallel()

	planner, err := NewPlanner(context.Background(), &fakeChatModel{content: "- [ ] x"}, "plan tasks")
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	if _, err := planner.Plan(context.Background(), "   "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestValidatorParsesWrappedVerdict(t *testing.T) {
	t.Parallel()

	reply := "Here is my judgment:\n```json\n{\"is_successful\": true, \"reasoning\": \"file exists with the right content\", \"suggestion\": \"\"}\n```"
	validator, err := NewValidator(context.Background(), &fakeChatModel{content: reply}, "judge attempts")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	verdict := validator.Validate(context.Background(), "task", "item", nil)
	if !verdict.IsSuccessful {
		t.Fatalf("verdict = %+v, want success", verdict)
	}
	if verdict.Reasoning != "file exists with the right content" {
		t.Fatalf("reasoning = %q", verdict.Reasoning)
	}
}

func TestValidatorFallsBackOnGarbage(t *testing.T) {
	t.Parallel()

	validator, err := NewValidator(context.Background(), &fakeChatModel{content: "looks fine to me"}, "judge attempts")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	verdict := validator.Validate(context.Background(), "task", "item", nil)
	if verdict.IsSuccessful {
		t.Fatal("unparseable output must not pass validation")
	}
	if verdict.Suggestion != "retry the step" {
		t.Fatalf("suggestion = %q", verdict.Suggestion)
	}
}

func TestValidatorFallsBackOnModelError(t *testing.T) {
	t.Parallel()

	validator, err := NewValidator(context.Background(), &fakeChatModel{err: errors.New("boom")}, "judge attempts")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}

	verdict := validator.Validate(context.Background(), "task", "item", nil)
	if verdict.IsSuccessful {
		t.Fatal("model failure must not pass validation")
	}
}

func TestRenderTranscriptCoversAllPartKinds(t *testing.T) {
	t.Parallel()

	out := renderTranscript([]contractx.Turn{
		{Role: contractx.RoleUser, Parts: []contractx.Part{contractx.TextPart("do it")}},
		{Role: contractx.RoleAgent, Parts: []contractx.Part{contractx.CallPart("read_file", map[string]any{"path": "a"})}},
		{Role: contractx.RoleTool, Parts: []contractx.Part{contractx.ResponsePart("read_file", map[string]any{"success": true})}},
	})

	for _, want := range []string{"[user] do it", "call read_file", "read_file -> "} {
		if !strings.Contains(out, want) {
			t.Fatalf("transcript %q missing %q", out, want)
		}
	}
}

type echoOracle struct{}

func (echoOracle) Generate(_ context.Context, _ []contractx.Turn) (contractx.Turn, error) {
	return contractx.Turn{Role: contractx.RoleAgent, Parts: []contractx.Part{contractx.TextPart("done")}}, nil
}

type sinkHistory struct {
	turns []contractx.Turn
}

func (h *sinkHistory) Append(turn contractx.Turn) { h.turns = append(h.turns, turn) }
func (h *sinkHistory) Snapshot() []contractx.Turn { return h.turns }
func (h *sinkHistory) Len() int                   { return len(h.turns) }
func (h *sinkHistory) Save() error                { return nil }

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(_ context.Context, _ contractx.FunctionCall) contractx.ToolResult {
	return contractx.ToolResult{Success: true, Data: "ok"}
}

func TestExecutorShapesScopingPrompt(t *testing.T) {
	t.Parallel()

	hist := &sinkHistory{}
	exec := NewExecutor(loopx.New(echoOracle{}, hist, noopDispatcher{}, loopx.WithToolPause(0)))

	if _, err := exec.Attempt(context.Background(), "build a site", "write index.html", ""); err != nil {
		t.Fatalf("Attempt: %v", err)
	}

	prompt := hist.turns[0].TextContent()
	for _, want := range []string{"build a site", "write index.html", "Work only on this checklist item"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt %q missing %q", prompt, want)
		}
	}
	if strings.Contains(prompt, "failed validation") {
		t.Fatal("first attempt must not carry corrective framing")
	}
}

func TestExecutorShapesCorrectivePrompt(t *testing.T) {
	t.Parallel()

	hist := &sinkHistory{}
	exec := NewExecutor(loopx.New(echoOracle{}, hist, noopDispatcher{}, loopx.WithToolPause(0)))

	if _, err := exec.Attempt(context.Background(), "build a site", "write index.html", "the title tag is missing"); err != nil {
		t.Fatalf("Attempt: %v", err)
	}

	prompt := hist.turns[0].TextContent()
	for _, want := range []string{"failed validation", "the title tag is missing"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt %q missing %q", prompt, want)
		}
	}
}
