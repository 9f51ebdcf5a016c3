package modelgw

import (
	"context"
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"

	golog "github.com/bioagentic/orchestrator/log"
)

// DefaultCompactionThreshold is the approximate token count above which
// CompactIfNeeded replaces the conversation middle with a summary.
const DefaultCompactionThreshold = 80_000

var tokenEncoding = "cl100k_base"

// CountTokens approximates the token count of text using the same
// encoding the default model family uses. A tiktoken-go encoder is cached
// per-process by the library itself, so repeated calls are cheap.
func CountTokens(text string) int {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		// No usable encoder: fall back to a crude but deterministic estimate
		// rather than fail the caller over a token-accounting nicety.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func countMessages(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += CountTokens(m.Content)
	}
	return total
}

// CompactIfNeeded summarizes the conversation middle when its approximate
// token count exceeds threshold (DefaultCompactionThreshold if zero),
// using summarizerCfg for the summarization call. On any error from the
// summarizer, messages is returned unchanged — compaction failure must
// never abort the run.
func CompactIfNeeded(ctx context.Context, messages []Message, threshold int, summarizerCfg ProviderConfig) []Message {
	if threshold <= 0 {
		threshold = DefaultCompactionThreshold
	}
	if countMessages(messages) <= threshold {
		return messages
	}

	firstHumanIdx := -1
	for i, m := range messages {
		if m.Role == RoleUser {
			firstHumanIdx = i
			break
		}
	}
	if firstHumanIdx < 0 || firstHumanIdx+1 >= len(messages) {
		return messages
	}

	middle := messages[firstHumanIdx+1:]
	if len(middle) == 0 {
		return messages
	}

	rendered := renderMiddle(middle)
	summary, err := summarize(ctx, rendered, summarizerCfg)
	if err != nil {
		golog.Warn("message compaction: summarizer call failed, keeping full conversation: %v", err)
		return messages
	}

	compacted := make([]Message, 0, firstHumanIdx+2)
	compacted = append(compacted, messages[:firstHumanIdx]...)
	summaryMsg := Message{}
	summaryMsg.Role = RoleSystem
	summaryMsg.Content = "# Background (compacted conversation)\n\n" + summary
	compacted = append(compacted, summaryMsg, messages[firstHumanIdx])
	return compacted
}

// renderMiddle serializes a message slice to the plain-text transcript the
// summarizer prompt expects, following the same per-role rendering the
// rest of the conversation history would be shown to a model in.
func renderMiddle(middle []Message) string {
	var sb strings.Builder
	for _, m := range middle {
		switch {
		case len(m.ToolCalls) > 0:
			for _, tc := range m.ToolCalls {
				fmt.Fprintf(&sb, "[assistant] Called tool '%s' with args: %s\n%s\n", tc.Name, string(tc.Args), m.Content)
			}
		case m.Role == RoleTool:
			fmt.Fprintf(&sb, "[tool (%s)]\n%s\n", m.ToolCallID, m.Content)
		default:
			content := m.Content
			if content == "" {
				content = "[image]"
			}
			fmt.Fprintf(&sb, "[%s] %s\n", m.Role, content)
		}
	}
	return sb.String()
}

const summarizationSystemPrompt = "Summarize the conversation below in no more than 1000 words, " +
	"preserving decisions made, evidence gathered, and open threads. Do not include meta-commentary."

func summarize(ctx context.Context, rendered string, cfg ProviderConfig) (string, error) {
	userTurn := Message{}
	userTurn.Role = RoleUser
	userTurn.Content = rendered

	req := Request{
		System:    summarizationSystemPrompt,
		Messages:  []Message{userTurn},
		MaxTokens: 2048,
	}
	msg, err := Call(ctx, cfg, req, RetryPolicy{})
	if err != nil {
		return "", err
	}
	return msg.Message.Content, nil
}
