package dswizard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/tool"
)

func assistantMessage(id string, calls ...modelgw.ToolCall) modelgw.Message {
	return modelgw.Message{
		Message:   graph.Message{ID: id, Role: modelgw.RoleAssistant},
		ToolCalls: calls,
	}
}

func TestPlanRouterEndsWhenNoToolCalls(t *testing.T) {
	s := State{BaseState: agent.BaseState{Messages: []modelgw.Message{assistantMessage("m1")}}}
	label, err := planRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "end", label)
}

func TestPlanRouterDispatchesToolCalls(t *testing.T) {
	s := State{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1", modelgw.ToolCall{ID: "c1", Name: "execute_code"}),
	}}}
	label, err := planRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "tool", label)
}

func TestCodeRouterEndsWhenNoToolCalls(t *testing.T) {
	s := State{BaseState: agent.BaseState{Messages: []modelgw.Message{assistantMessage("m1")}}}
	label, err := codeRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "end", label)
}

func TestMergerDedupesMessagesAndKeepsAnalysisPlan(t *testing.T) {
	current := State{
		BaseState:    agent.BaseState{Messages: []modelgw.Message{{Message: graph.Message{ID: "m1"}}}},
		AnalysisPlan: "1. load data\n2. print summary",
	}
	update := State{
		BaseState:    agent.BaseState{Messages: []modelgw.Message{{Message: graph.Message{ID: "m1"}}, {Message: graph.Message{ID: "m2"}}}},
		AnalysisPlan: "1. load data\n2. print summary",
	}

	merged := merger{}.Merge(current, update)
	require.Len(t, merged.Messages, 2)
	require.Equal(t, "1. load data\n2. print summary", merged.AnalysisPlan)
}

func TestPlanToolSchemasIncludesCreateAnalysisPlan(t *testing.T) {
	names := map[string]bool{}
	for _, schema := range planToolSchemas(tool.NewRegistry()) {
		names[schema.Name] = true
	}
	require.True(t, names[analysisPlanToolName])
}
