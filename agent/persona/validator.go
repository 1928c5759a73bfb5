package persona

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

// Validator judges one executor attempt against the checklist item it was
// scoped to. It never returns an error: anything that prevents a verdict
// collapses into a conservative failure so the orchestrator retries.
type Validator struct {
	runner compose.Runnable[map[string]any, contractx.ValidationVerdict]
}

func NewValidator(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Validator, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: validator system prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileParsedGraph(ctx, chatModel, systemPrompt, "validator.model_graph", parseVerdict)
	if err != nil {
		return nil, fmt.Errorf("%w: compile validator graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Validator{runner: runner}, nil
}

func (v *Validator) Validate(ctx context.Context, task, item string, slice []contractx.Turn) contractx.ValidationVerdict {
	payload := fmt.Sprintf(
		"Overall task:\n%s\n\nChecklist item under review:\n%s\n\nAttempt transcript:\n%s",
		strings.TrimSpace(task), strings.TrimSpace(item), renderTranscript(slice),
	)

	verdict, err := v.runner.Invoke(ctx, map[string]any{"input": payload})
	if err != nil {
		log.Warn().Err(err).Str("item", item).Msg("validator invoke failed, treating attempt as unverified")
		return contractx.ValidationVerdict{
			IsSuccessful: false,
			Reasoning:    fmt.Sprintf("validator unavailable: %v", err),
			Suggestion:   "retry the step",
		}
	}
	return verdict
}

// parseVerdict tolerates prose and fences around the JSON object: it
// parses the span between the first '{' and the last '}'. Unparseable
// output yields the conservative failure verdict.
func parseVerdict(msg *schema.Message) contractx.ValidationVerdict {
	fallback := contractx.ValidationVerdict{
		IsSuccessful: false,
		Reasoning:    "could not parse validator output",
		Suggestion:   "retry the step",
	}

	content := msg.Content
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fallback
	}

	var verdict contractx.ValidationVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return fallback
	}
	return verdict
}

// renderTranscript flattens the attempt slice into role-tagged lines so
// the validator sees tool activity, not just chat text.
func renderTranscript(turns []contractx.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		for _, part := range turn.Parts {
			switch {
			case part.Text != "":
				fmt.Fprintf(&b, "[%s] %s\n", turn.Role, part.Text)
			case part.FunctionCall != nil:
				args, _ := json.Marshal(part.FunctionCall.Args)
				fmt.Fprintf(&b, "[%s] call %s(%s)\n", turn.Role, part.FunctionCall.Name, args)
			case part.FunctionResponse != nil:
				resp, _ := json.Marshal(part.FunctionResponse.Response)
				fmt.Fprintf(&b, "[%s] %s -> %s\n", turn.Role, part.FunctionResponse.Name, resp)
			}
		}
	}
	return b.String()
}
