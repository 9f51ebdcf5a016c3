package bfsdfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
)

// searchSubgraph holds the two compiled sub-graphs the orchestrator
// routes into. BFS and DFS share one topology (sub_agent_node ↔
// sub_tool_node, exit when the model stops calling tools); they differ
// only in how their system prompt frames the exploration strategy, so
// buildSearchSubgraph takes a direction string instead of being
// duplicated.
type searchSubgraph struct {
	bfs *graph.StateRunnable[subAgentState]
	dfs *graph.StateRunnable[subAgentState]
}

const (
	directionBreadthFirst = "breadth-first"
	directionDepthFirst   = "depth-first"
)

func buildSearchSubgraphs(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy) (*searchSubgraph, error) {
	bfs, err := buildSearchSubgraph(directionBreadthFirst, cfg, policy)
	if err != nil {
		return nil, fmt.Errorf("bfsdfs: build bfs subgraph: %w", err)
	}
	dfs, err := buildSearchSubgraph(directionDepthFirst, cfg, policy)
	if err != nil {
		return nil, fmt.Errorf("bfsdfs: build dfs subgraph: %w", err)
	}
	return &searchSubgraph{bfs: bfs, dfs: dfs}, nil
}

func buildSearchSubgraph(direction string, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy) (*graph.StateRunnable[subAgentState], error) {
	g := graph.NewStateGraph[subAgentState]()

	g.AddNode("sub_agent_node", "calls the model with the search target and its knowledge-base tool set",
		func(ctx context.Context, s subAgentState) (subAgentState, error) {
			return subAgentNode(ctx, direction, cfg, policy, s)
		})

	g.AddNode("sub_tool_node", "dispatches the sub-agent's tool calls against its knowledge-base tool set",
		func(ctx context.Context, s subAgentState) (subAgentState, error) {
			return subToolNode(ctx, s)
		})

	g.AddConditionalEdge("sub_agent_node", subAgentRouter, map[string]string{
		"tool": "sub_tool_node",
		"end":  graph.END,
	})
	g.AddEdge("sub_tool_node", "sub_agent_node")
	g.SetEntryPoint("sub_agent_node")
	g.SetSchema(subAgentMerger{})

	return g.Compile()
}

func subAgentRouter(ctx context.Context, s subAgentState) (string, error) {
	last := s.Messages[len(s.Messages)-1]
	if last.Role == modelgw.RoleAssistant && len(last.ToolCalls) == 0 {
		return "end", nil
	}
	return "tool", nil
}

// subAgentNode returns only the messages this step adds, not the full
// accumulated history: Messages is merged by AppendMessagesReducer, which
// concatenates a returned update onto the already-accumulated state, so a
// node must hand back a delta rather than state+delta.
func subAgentNode(ctx context.Context, direction string, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, s subAgentState) (subAgentState, error) {
	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.SearchTarget},
		})
	}

	registry := registryForKnowledgeBases(s.KnowledgeBases)
	system := subAgentSystemPrompt(direction, s)

	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: history,
		System:   system,
		Tools:    registry.Schemas(),
	}, policy)
	if err != nil {
		return s, fmt.Errorf("bfsdfs: sub-agent call: %w", err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = newMessages
	s.Round++
	return s, nil
}

func subToolNode(ctx context.Context, s subAgentState) (subAgentState, error) {
	last := s.Messages[len(s.Messages)-1]
	registry := registryForKnowledgeBases(s.KnowledgeBases)
	results := registry.Dispatch(ctx, last)
	for i := range results {
		results[i].ID = uuid.NewString()
	}
	s.Messages = results
	return s, nil
}

// subAgentSystemPrompt assembles the sub-agent's system prompt from a
// fixed framing paragraph plus one fragment per selected knowledge base,
// embedding the current round against its budget floor so the model sees
// its own remaining budget rather than being cut off without warning.
func subAgentSystemPrompt(direction string, s subAgentState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are running a %s literature search for: %q\n", direction, s.SearchTarget)
	fmt.Fprintf(&sb, "current_round/budget: %d/%d\n", s.Round, s.ActionRoundsBudget)
	for _, kb := range s.KnowledgeBases {
		sb.WriteString(systemPromptFragment(kb))
		sb.WriteString("\n")
	}
	sb.WriteString("Stop calling tools once you have enough to answer.")
	return sb.String()
}
