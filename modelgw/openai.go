package modelgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openAIClient implements Client on top of the Chat Completions API and
// serves both the "openai" and "azure" providers. An azure client sends
// the token cap as max_completion_tokens and an openai client as
// max_tokens; the choice depends on the provider alone, not on the model,
// and no reasoning_effort parameter is sent for either.
type openAIClient struct {
	client openai.Client
	model  string
	azure  bool
}

func newOpenAIClient(cfg ProviderConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("modelgw: openai/azure requires an API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("modelgw: openai/azure requires a model")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Provider == "azure" {
		if cfg.Endpoint == "" {
			return nil, errors.New("modelgw: azure requires an endpoint")
		}
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return &openAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		azure:  cfg.Provider == "azure",
	}, nil
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := c.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Chat.Completions.New(ctx, *params)
	if err != nil {
		if isOpenAIRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
		return nil, fmt.Errorf("modelgw: openai chat.completions.new: %w", err)
	}
	return translateOpenAIResponse(resp)
}

func (c *openAIClient) prepareRequest(req Request) (*openai.ChatCompletionNewParams, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		case RoleTool:
			msgs = append(msgs, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	params := &openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			var params map[string]any
			if len(t.InputSchema) > 0 {
				if err := json.Unmarshal(t.InputSchema, &params); err != nil {
					return nil, fmt.Errorf("modelgw: openai tool %q schema: %w", t.Name, err)
				}
			}
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  params,
				},
			})
		}
		params.Tools = tools
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	if c.azure {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	} else {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params, nil
}

func translateOpenAIResponse(resp *openai.ChatCompletion) (*Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("modelgw: openai response has no choices")
	}
	choice := resp.Choices[0].Message
	out := Message{}
	out.Role = RoleAssistant
	out.Content = choice.Content
	for _, tc := range choice.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: json.RawMessage(tc.Function.Arguments),
		})
	}
	return &Response{
		Message: out,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func isOpenAIRateLimited(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
