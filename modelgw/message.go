// Package modelgw is the Model Gateway: a provider-agnostic façade over the
// Anthropic, OpenAI/Azure, and Google chat-completion APIs, with bounded
// retry, per-attempt timeouts, and token-threshold conversation compaction
// layered on top of whichever provider client actually answers the call.
package modelgw

import (
	"encoding/json"

	"github.com/bioagentic/orchestrator/graph"
)

// Role names used in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is one tool invocation requested by a provider inside an
// assistant turn. Args is left as raw JSON until a tool's Run method
// unmarshals it into its own parameter type.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// Message is a single turn of a conversation, extending graph.Message with
// the tool-call request/response fields every provider's chat API needs.
// ToolCalls is set on an assistant turn that requested tool use;
// ToolCallID is set on a tool-role turn answering one specific call.
type Message struct {
	graph.Message
	ToolCalls  []ToolCall
	ToolCallID string
}

// Usage reports token consumption for one completion call. Providers that
// omit usage in their response leave both fields zero; callers needing an
// estimate fall back to CountTokens.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ToolSchema describes one callable tool to a provider in its own
// tool/function-calling format.
type ToolSchema struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Request is a provider-agnostic chat completion request.
type Request struct {
	Messages       []Message
	System         string
	Tools          []ToolSchema
	MaxTokens      int
	Temperature    float64
	ThinkingBudget int64 // Anthropic extended-thinking budget; ignored by other providers
}

// Response is a completed turn plus the usage the provider reported (or
// the gateway estimated) for it.
type Response struct {
	Message Message
	Usage   Usage
}
