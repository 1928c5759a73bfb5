package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

// Persisted transcripts carry no tool-call IDs; the wire protocol wants
// them. IDs are derived deterministically from the turn and call index so
// a request and its result, paired in order, always agree.
func callID(turnIdx, callIdx int, name string) string {
	return fmt.Sprintf("call_%d_%d_%s", turnIdx, callIdx, name)
}

func toMessages(systemPrompt string, turns []contractx.Turn) ([]*schema.Message, error) {
	messages := make([]*schema.Message, 0, len(turns)+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))

	// Tracks the most recent agent turn carrying calls, so the tool turn
	// that follows can reuse its IDs.
	lastCallTurn := -1

	for i, turn := range turns {
		switch turn.Role {
		case contractx.RoleUser:
			messages = append(messages, schema.UserMessage(turn.TextContent()))

		case contractx.RoleAgent:
			msg := &schema.Message{
				Role:    schema.Assistant,
				Content: turn.TextContent(),
			}
			for j, call := range turn.CallRequests() {
				rawArgs, err := json.Marshal(call.Args)
				if err != nil {
					return nil, fmt.Errorf("%w: marshal args of %s: %v", contractx.ErrSchemaViolation, call.Name, err)
				}
				msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
					ID:   callID(i, j, call.Name),
					Type: "function",
					Function: schema.FunctionCall{
						Name:      call.Name,
						Arguments: string(rawArgs),
					},
				})
			}
			if len(msg.ToolCalls) > 0 {
				lastCallTurn = i
			}
			messages = append(messages, msg)

		case contractx.RoleTool:
			for j, part := range turn.Parts {
				if part.FunctionResponse == nil {
					return nil, fmt.Errorf("%w: tool turn carries a non-response part", contractx.ErrSchemaViolation)
				}
				payload, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("%w: marshal response of %s: %v", contractx.ErrSchemaViolation, part.FunctionResponse.Name, err)
				}
				messages = append(messages, schema.ToolMessage(string(payload), callID(lastCallTurn, j, part.FunctionResponse.Name)))
			}

		default:
			return nil, fmt.Errorf("%w: unknown role %q", contractx.ErrSchemaViolation, turn.Role)
		}
	}

	return messages, nil
}

func fromMessage(msg *schema.Message) (contractx.Turn, error) {
	turn := contractx.Turn{Role: contractx.RoleAgent}

	if content := strings.TrimSpace(msg.Content); content != "" {
		turn.Parts = append(turn.Parts, contractx.TextPart(content))
	}

	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return contractx.Turn{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.Turn{}, fmt.Errorf("%w: invalid tool args for %s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}
		turn.Parts = append(turn.Parts, contractx.CallPart(name, args))
	}

	return turn, nil
}

func toToolInfos(specs []contractx.ToolSpec) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(specs))
	for _, spec := range specs {
		params := make(map[string]*schema.ParameterInfo, len(spec.Params))
		for _, p := range spec.Params {
			params[p.Name] = toParameterInfo(p)
		}
		info := &schema.ToolInfo{
			Name: spec.Name,
			Desc: spec.Description,
		}
		if len(params) > 0 {
			info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
		}
		infos = append(infos, info)
	}
	return infos
}

func toParameterInfo(p contractx.ParamSpec) *schema.ParameterInfo {
	info := &schema.ParameterInfo{
		Desc:     p.Description,
		Required: p.Required,
	}
	switch p.Type {
	case contractx.ParamNumber:
		info.Type = schema.Number
	case contractx.ParamInteger:
		info.Type = schema.Integer
	case contractx.ParamBoolean:
		info.Type = schema.Boolean
	case contractx.ParamArray:
		info.Type = schema.Array
		info.ElemInfo = &schema.ParameterInfo{Type: schema.String}
	default:
		info.Type = schema.String
	}
	return info
}
