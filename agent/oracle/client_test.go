package oracle

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

type fakeChatModel struct {
	reply      *schema.Message
	err        error
	boundTools []*schema.ToolInfo
	gotInput   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.gotInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.boundTools = tools
	return f, nil
}

func TestGenerateRoundTrip(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{
		reply: &schema.Message{
			Role:    schema.Assistant,
			Content: "working on it",
			ToolCalls: []schema.ToolCall{
				{
					ID:   "abc",
					Type: "function",
					Function: schema.FunctionCall{
						Name:      "read_file",
						Arguments: `{"path":"notes.txt"}`,
					},
				},
			},
		},
	}

	client, err := New(fake, "you are helpful", []contractx.ToolSpec{
		{
			Name:        "read_file",
			Description: "reads a file",
			Params: []contractx.ParamSpec{
				{Name: "path", Type: contractx.ParamString, Description: "path", Required: true},
			},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	turns := []contractx.Turn{
		{Role: contractx.RoleUser, Parts: []contractx.Part{contractx.TextPart("read my notes")}},
	}

	reply, err := client.Generate(context.Background(), turns)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if reply.Role != contractx.RoleAgent {
		t.Fatalf("reply role = %q, want agent", reply.Role)
	}
	if got := reply.TextContent(); got != "working on it" {
		t.Fatalf("reply text = %q", got)
	}
	calls := reply.CallRequests()
	if len(calls) != 1 || calls[0].Name != "read_file" {
		t.Fatalf("reply calls = %+v", calls)
	}
	if calls[0].Args["path"] != "notes.txt" {
		t.Fatalf("call args = %+v", calls[0].Args)
	}

	if len(fake.boundTools) != 1 || fake.boundTools[0].Name != "read_file" {
		t.Fatalf("bound tools = %+v", fake.boundTools)
	}
	if len(fake.gotInput) != 2 {
		t.Fatalf("input message count = %d, want system + user", len(fake.gotInput))
	}
	if fake.gotInput[0].Role != schema.System || fake.gotInput[0].Content != "you are helpful" {
		t.Fatalf("first message = %+v, want system prompt", fake.gotInput[0])
	}
}

func TestGenerateClassifiesBlockedError(t *testing.T) {
	t.Parallel()

	client, err := New(&fakeChatModel{err: errors.New("finish_reason: content_filter")}, "p", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Generate(context.Background(), []contractx.Turn{
		{Role: contractx.RoleUser, Parts: []contractx.Part{contractx.TextPart("hi")}},
	})
	if !errors.Is(err, contractx.ErrModelBlocked) {
		t.Fatalf("err = %v, want ErrModelBlocked", err)
	}
}

func TestGenerateWrapsInvokeError(t *testing.T) {
	t.Parallel()

	client, err := New(&fakeChatModel{err: errors.New("connection refused")}, "p", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Generate(context.Background(), []contractx.Turn{
		{Role: contractx.RoleUser, Parts: []contractx.Part{contractx.TextPart("hi")}},
	})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("err = %v, want ErrModelInvoke", err)
	}
}

func TestToMessagesPairsCallsWithResponses(t *testing.T) {
	t.Parallel()

	turns := []contractx.Turn{
		{Role: contractx.RoleUser, Parts: []contractx.Part{contractx.TextPart("do two things")}},
		{Role: contractx.RoleAgent, Parts: []contractx.Part{
			contractx.CallPart("first_tool", map[string]any{"n": float64(1)}),
			contractx.CallPart("second_tool", nil),
		}},
		{Role: contractx.RoleTool, Parts: []contractx.Part{
			contractx.ResponsePart("first_tool", map[string]any{"success": true, "data": "ok"}),
			contractx.ResponsePart("second_tool", map[string]any{"success": true, "data": "done"}),
		}},
	}

	messages, err := toMessages("sys", turns)
	if err != nil {
		t.Fatalf("toMessages: %v", err)
	}
	// system + user + assistant + two tool messages
	if len(messages) != 5 {
		t.Fatalf("message count = %d, want 5", len(messages))
	}

	assistant := messages[2]
	if len(assistant.ToolCalls) != 2 {
		t.Fatalf("assistant tool calls = %d, want 2", len(assistant.ToolCalls))
	}
	if messages[3].ToolCallID != assistant.ToolCalls[0].ID {
		t.Fatalf("first response id %q does not match call id %q", messages[3].ToolCallID, assistant.ToolCalls[0].ID)
	}
	if messages[4].ToolCallID != assistant.ToolCalls[1].ID {
		t.Fatalf("second response id %q does not match call id %q", messages[4].ToolCallID, assistant.ToolCalls[1].ID)
	}
}

func TestFromMessageRejectsMalformedArguments(t *testing.T) {
	t.Parallel()

	_, err := fromMessage(&schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{Function: schema.FunctionCall{Name: "read_file", Arguments: "{not json"}},
		},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("err = %v, want ErrSchemaViolation", err)
	}
}
