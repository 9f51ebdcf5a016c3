package modelgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient implements Client on top of the Anthropic Messages API.
// Tool-use blocks, text blocks, and usage are translated both directions;
// a system prompt is carried as the SDK's dedicated System field rather
// than folded into the message list.
type anthropicClient struct {
	msg            *sdk.MessageService
	model          string
	maxTokens      int
	thinkingBudget int64
}

func newAnthropicClient(cfg ProviderConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("modelgw: anthropic requires an API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("modelgw: anthropic requires a model")
	}
	c := sdk.NewClient(option.WithAPIKey(cfg.APIKey))
	return &anthropicClient{msg: &c.Messages, model: cfg.Model, maxTokens: 4096}, nil
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		if isAnthropicRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return nil, fmt.Errorf("modelgw: anthropic messages.new: %w", err)
	}
	return translateAnthropicResponse(msg)
}

func (c *anthropicClient) prepareRequest(req Request) (*sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("modelgw: anthropic request requires at least one message")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	msgs := make([]sdk.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		blocks, err := anthropicBlocksFor(m)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case RoleUser, RoleTool:
			msgs = append(msgs, sdk.NewUserMessage(blocks...))
		case RoleAssistant:
			msgs = append(msgs, sdk.NewAssistantMessage(blocks...))
		}
	}
	if len(msgs) == 0 {
		return nil, errors.New("modelgw: anthropic request has no user/assistant turns")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	system := req.System
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		tools := make([]sdk.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			schema, err := anthropicToolSchema(t.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("modelgw: anthropic tool %q schema: %w", t.Name, err)
			}
			u := sdk.ToolUnionParamOfTool(schema, t.Name)
			if u.OfTool != nil {
				u.OfTool.Description = sdk.String(t.Description)
			}
			tools = append(tools, u)
		}
		params.Tools = tools
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.ThinkingBudget > 0 {
		params.Thinking = sdk.ThinkingConfigParamOfEnabled(req.ThinkingBudget)
	}
	return &params, nil
}

func anthropicBlocksFor(m Message) ([]sdk.ContentBlockParamUnion, error) {
	var blocks []sdk.ContentBlockParamUnion
	if m.Content != "" {
		blocks = append(blocks, sdk.NewTextBlock(m.Content))
	}
	for _, tc := range m.ToolCalls {
		var input any = map[string]any{}
		if len(tc.Args) > 0 {
			if err := json.Unmarshal(tc.Args, &input); err != nil {
				return nil, fmt.Errorf("modelgw: anthropic tool_use args for %q: %w", tc.Name, err)
			}
		}
		blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, tc.Name))
	}
	if m.Role == RoleTool && m.ToolCallID != "" {
		blocks = append(blocks, sdk.NewToolResultBlock(m.ToolCallID, m.Content, false))
	}
	return blocks, nil
}

func anthropicToolSchema(raw json.RawMessage) (sdk.ToolInputSchemaParam, error) {
	if len(raw) == 0 {
		return sdk.ToolInputSchemaParam{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return sdk.ToolInputSchemaParam{}, err
	}
	return sdk.ToolInputSchemaParam{ExtraFields: m}, nil
}

func translateAnthropicResponse(msg *sdk.Message) (*Response, error) {
	if msg == nil {
		return nil, errors.New("modelgw: anthropic response is nil")
	}
	out := Message{}
	out.Role = RoleAssistant
	var toolCalls []ToolCall
	var text string
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text += block.Text
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			toolCalls = append(toolCalls, ToolCall{ID: block.ID, Name: block.Name, Args: args})
		}
	}
	out.Content = text
	out.ToolCalls = toolCalls

	return &Response{
		Message: out,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func isAnthropicRateLimited(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
