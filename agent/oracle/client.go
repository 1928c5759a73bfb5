package oracle

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

// Client adapts a tool-calling chat model to the Oracle contract: the
// whole transcript goes in, one agent turn comes out.
type Client struct {
	model        einomodel.ToolCallingChatModel
	systemPrompt string
}

func New(chatModel einomodel.ToolCallingChatModel, systemPrompt string, specs []contractx.ToolSpec) (*Client, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrModelInvoke)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: executor system prompt is empty", contractx.ErrPromptMissing)
	}

	if len(specs) > 0 {
		bound, err := chatModel.WithTools(toToolInfos(specs))
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		chatModel = bound
	}

	return &Client{
		model:        chatModel,
		systemPrompt: strings.TrimSpace(systemPrompt),
	}, nil
}

func (c *Client) Generate(ctx context.Context, turns []contractx.Turn) (contractx.Turn, error) {
	messages, err := toMessages(c.systemPrompt, turns)
	if err != nil {
		return contractx.Turn{}, err
	}

	reply, err := c.model.Generate(ctx, messages)
	if err != nil {
		if isBlockedError(err) {
			return contractx.Turn{}, fmt.Errorf("%w: %v", contractx.ErrModelBlocked, err)
		}
		return contractx.Turn{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if reply == nil {
		return contractx.Turn{}, fmt.Errorf("%w: empty model reply", contractx.ErrModelInvoke)
	}

	return fromMessage(reply)
}

// isBlockedError distinguishes a rejected/filtered request from an
// ordinary transport fault so the caller can report them apart.
func isBlockedError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "content_filter") ||
		strings.Contains(msg, "content filter") ||
		strings.Contains(msg, "blocked") ||
		strings.Contains(msg, "moderation")
}
