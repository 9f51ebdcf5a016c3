package modelgw_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/modelgw"
)

func userMsg(content string) modelgw.Message {
	m := modelgw.Message{}
	m.Role = modelgw.RoleUser
	m.Content = content
	return m
}

func systemMsg(content string) modelgw.Message {
	m := modelgw.Message{}
	m.Role = modelgw.RoleSystem
	m.Content = content
	return m
}

func TestCompactIfNeededLeavesShortConversationUnchanged(t *testing.T) {
	messages := []modelgw.Message{systemMsg("sys"), userMsg("hello")}
	out := modelgw.CompactIfNeeded(context.Background(), messages, 80_000, modelgw.ProviderConfig{})
	require.Equal(t, messages, out)
}

func TestCompactIfNeededFallsBackOnSummarizerError(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	messages := []modelgw.Message{systemMsg("sys"), userMsg("first"), userMsg(long)}
	// No provider configured (empty APIKey): the summarizer call must fail
	// fast, and compaction must return the original conversation.
	out := modelgw.CompactIfNeeded(context.Background(), messages, 10, modelgw.ProviderConfig{Provider: "anthropic"})
	require.Equal(t, messages, out)
}

func TestCountTokensIsPositiveForNonEmptyText(t *testing.T) {
	require.Greater(t, modelgw.CountTokens("hello world, this is a test sentence"), 0)
}

func TestCountTokensIsZeroForEmptyText(t *testing.T) {
	require.Equal(t, 0, modelgw.CountTokens(""))
}
