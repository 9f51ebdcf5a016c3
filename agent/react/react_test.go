package react

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
)

func assistantMessage(id string, calls ...modelgw.ToolCall) modelgw.Message {
	return modelgw.Message{
		Message:   graph.Message{ID: id, Role: modelgw.RoleAssistant},
		ToolCalls: calls,
	}
}

func TestRouterEndsWhenNoToolCalls(t *testing.T) {
	s := State{BaseState: agent.BaseState{Messages: []modelgw.Message{assistantMessage("m1")}}}
	label, err := router(nil, s)
	require.NoError(t, err)
	require.Equal(t, "end", label)
}

func TestRouterDispatchesToolCalls(t *testing.T) {
	s := State{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1", modelgw.ToolCall{ID: "c1", Name: "execute_code"}),
	}}}
	label, err := router(nil, s)
	require.NoError(t, err)
	require.Equal(t, "tool", label)
}

func TestMergerDedupesMessagesByID(t *testing.T) {
	current := State{BaseState: agent.BaseState{
		Messages: []modelgw.Message{{Message: graph.Message{ID: "m1"}}},
	}}
	update := State{BaseState: agent.BaseState{
		Messages: []modelgw.Message{{Message: graph.Message{ID: "m1"}}, {Message: graph.Message{ID: "m2"}}},
	}}

	merged := merger{}.Merge(current, update)
	require.Len(t, merged.Messages, 2)
	require.Equal(t, "m1", merged.Messages[0].ID)
	require.Equal(t, "m2", merged.Messages[1].ID)
}
