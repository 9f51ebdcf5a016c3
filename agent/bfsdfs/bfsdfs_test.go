package bfsdfs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
)

func assistantMessage(id string, calls ...modelgw.ToolCall) modelgw.Message {
	return modelgw.Message{
		Message:   graph.Message{ID: id, Role: modelgw.RoleAssistant},
		ToolCalls: calls,
	}
}

func TestOrchestratorRouterPrefersBreadthFirstOverDepthFirst(t *testing.T) {
	s := OrchestratorState{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1",
			modelgw.ToolCall{ID: "c1", Name: toolGoDepthFirstSearch},
			modelgw.ToolCall{ID: "c2", Name: toolGoBreadthFirstSearch},
		),
	}}}
	label, err := orchestratorRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "bfs", label)
}

func TestOrchestratorRouterFallsBackToToolNode(t *testing.T) {
	s := OrchestratorState{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1", modelgw.ToolCall{ID: "c1", Name: "add_to_graph"}),
	}}}
	label, err := orchestratorRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "tool", label)
}

func TestOrchestratorRouterEndsWhenNoToolCalls(t *testing.T) {
	s := OrchestratorState{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1"),
	}}}
	label, err := orchestratorRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "end", label)
}

func TestMapToSubAgentParsesSearchCallArgs(t *testing.T) {
	args, _ := json.Marshal(searchCallArgs{SearchTarget: "BRCA1", KnowledgeBases: []string{"gene", "pubmed_papers"}})
	s := OrchestratorState{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1", modelgw.ToolCall{ID: "c1", Name: toolGoBreadthFirstSearch, Args: args}),
	}}}

	child := mapToSubAgent(config.Budgets{SubagentActionRoundsBudget: 3}, toolGoBreadthFirstSearch)(s)
	require.Equal(t, "BRCA1", child.SearchTarget)
	require.Equal(t, []string{"gene", "pubmed_papers"}, child.KnowledgeBases)
	require.Equal(t, 3, child.ActionRoundsBudget)
}

func TestMapFromSubAgentAnswersOriginatingToolCall(t *testing.T) {
	parent := OrchestratorState{BaseState: agent.BaseState{Messages: []modelgw.Message{
		assistantMessage("m1", modelgw.ToolCall{ID: "call-123", Name: toolGoBreadthFirstSearch}),
	}}}
	child := subAgentState{
		BaseState: agent.BaseState{
			Messages:          []modelgw.Message{{Message: graph.Message{Content: "found 3 papers"}}},
			TotalInputTokens:  10,
			TotalOutputTokens: 20,
		},
		SearchTarget: "BRCA1",
	}

	update := mapFromSubAgent(directionBreadthFirst)(parent, child)
	require.Len(t, update.Messages, 1)
	require.Equal(t, "call-123", update.Messages[0].ToolCallID)
	require.Equal(t, "found 3 papers", update.Messages[0].Content)
	require.Equal(t, 10, update.TotalInputTokens)
	require.Equal(t, 20, update.TotalOutputTokens)
	require.Equal(t, 1, update.CurrentSearchRound)
	require.Equal(t, []string{"BRCA1"}, update.CompletedSearches)
}

func TestOrchestratorMergerDedupesMessagesAndAccumulatesSearches(t *testing.T) {
	current := OrchestratorState{BaseState: agent.BaseState{
		Messages: []modelgw.Message{{Message: graph.Message{ID: "m1"}}},
	}, CompletedSearches: []string{"BRCA1"}}
	update := OrchestratorState{BaseState: agent.BaseState{
		Messages: []modelgw.Message{{Message: graph.Message{ID: "m1"}}, {Message: graph.Message{ID: "m2"}}},
	}, CompletedSearches: []string{"TP53"}}

	merged := orchestratorMerger{}.Merge(current, update)
	require.Len(t, merged.Messages, 2)
	require.Equal(t, []string{"BRCA1", "TP53"}, merged.CompletedSearches)
}

func TestToolsForKnowledgeBaseResolvesEachDocumentedKey(t *testing.T) {
	require.Len(t, toolsForKnowledgeBase("pubmed_papers"), 1)
	require.Len(t, toolsForKnowledgeBase("gene_set"), 1)
	require.Len(t, toolsForKnowledgeBase("gene"), 1)
	require.Len(t, toolsForKnowledgeBase("disease"), 1)
	require.Len(t, toolsForKnowledgeBase("drug"), 1)
	require.Empty(t, toolsForKnowledgeBase("clinicaltrials"))
	require.Empty(t, toolsForKnowledgeBase("not_a_real_knowledge_base"))
}

func TestRegistryForKnowledgeBasesCombinesMultipleKeys(t *testing.T) {
	r := registryForKnowledgeBases([]string{"pubmed_papers", "gene_set"})
	schemas := r.Schemas()
	require.Len(t, schemas, 2)
}
