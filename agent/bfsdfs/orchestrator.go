package bfsdfs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/evigraph"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
	"github.com/bioagentic/orchestrator/tool"
)

const (
	toolGoBreadthFirstSearch = "go_breadth_first_search"
	toolGoDepthFirstSearch   = "go_depth_first_search"
)

var searchCallSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"search_target": {"type": "string"},
		"knowledge_bases": {
			"type": "array",
			"items": {"type": "string", "enum": ["pubmed_papers", "clinicaltrials", "gene_set", "gene", "disease", "drug", "variant"]}
		}
	},
	"required": ["search_target", "knowledge_bases"]
}`)

var searchCallToolSchemas = []modelgw.ToolSchema{
	{Name: toolGoBreadthFirstSearch, Description: "Dispatch a breadth-first literature search over the given knowledge bases.", InputSchema: searchCallSchema},
	{Name: toolGoDepthFirstSearch, Description: "Dispatch a depth-first literature search over the given knowledge bases.", InputSchema: searchCallSchema},
}

type searchCallArgs struct {
	SearchTarget   string   `json:"search_target"`
	KnowledgeBases []string `json:"knowledge_bases"`
}

// New builds the BFS/DFS literature researcher: an orchestrator graph
// wrapping a compiled BFS sub-graph and a compiled DFS sub-graph, with
// direct access to the evidence graph and the sandbox. sb and manager may
// be nil; a nil manager simply means add_to_graph/retrieve_from_graph and
// the final evidence_graph_data are unavailable for this run.
func New(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, budgets config.Budgets, sb *sandbox.Sandbox, manager *evigraph.Manager) (*agent.Agent[OrchestratorState], error) {
	subgraphs, err := buildSearchSubgraphs(cfg, policy)
	if err != nil {
		return nil, err
	}

	directRegistry := directTools(sb, manager)

	g := graph.NewStateGraph[OrchestratorState]()

	g.AddNode("orchestrator_node", "calls the model with the current round budgets and the orchestrator's own tool set",
		func(ctx context.Context, s OrchestratorState) (OrchestratorState, error) {
			return orchestratorNode(ctx, cfg, policy, directRegistry, s)
		})

	g.AddNode("tool_node", "dispatches add_to_graph/retrieve_from_graph/code_execution calls",
		func(ctx context.Context, s OrchestratorState) (OrchestratorState, error) {
			return orchestratorToolNode(ctx, directRegistry, s)
		})

	g.AddNode("bfs_workflow", "runs the breadth-first search sub-graph for one go_breadth_first_search call",
		graph.AsSubgraphNode(subgraphs.bfs, mapToSubAgent(budgets, toolGoBreadthFirstSearch), mapFromSubAgent(directionBreadthFirst)))

	g.AddNode("dfs_workflow", "runs the depth-first search sub-graph for one go_depth_first_search call",
		graph.AsSubgraphNode(subgraphs.dfs, mapToSubAgent(budgets, toolGoDepthFirstSearch), mapFromSubAgent(directionDepthFirst)))

	g.AddConditionalEdge("orchestrator_node", orchestratorRouter, map[string]string{
		"bfs":  "bfs_workflow",
		"dfs":  "dfs_workflow",
		"tool": "tool_node",
		"end":  graph.END,
	})
	g.AddEdge("tool_node", "orchestrator_node")
	g.AddEdge("bfs_workflow", "orchestrator_node")
	g.AddEdge("dfs_workflow", "orchestrator_node")
	g.SetEntryPoint("orchestrator_node")
	g.SetSchema(orchestratorMerger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("bfsdfs: compile orchestrator graph: %w", err)
	}

	newState := func(query string) OrchestratorState {
		return OrchestratorState{
			BaseState:              agent.BaseState{Query: query},
			MainActionRoundsBudget: budgets.MainActionRoundsBudget,
			MainSearchRoundsBudget: budgets.MainSearchRoundsBudget,
		}
	}

	toResults := func(final OrchestratorState) agent.ExecutionResults {
		results := agent.ExecutionResults{
			MessageHistory:    final.Messages,
			TotalInputTokens:  final.TotalInputTokens,
			TotalOutputTokens: final.TotalOutputTokens,
		}
		if len(final.Messages) > 0 {
			results.FinalResponse = final.Messages[len(final.Messages)-1].Content
		}
		if manager != nil {
			results.EvidenceGraphData = manager.TextOverview(evigraph.OverviewOptions{IncludeStatistics: true})
		}
		return results
	}

	return agent.New(runnable, sb, budgets.OrchestratorRecursionLimit, newState, toResults), nil
}

// directTools is the registry orchestrator_node/tool_node dispatch
// against directly — everything except the two search dispatch calls,
// which the router intercepts before a tool ever runs.
func directTools(sb *sandbox.Sandbox, manager *evigraph.Manager) *tool.Registry {
	tools := []tool.Tool{tool.NewCodeExecution(sb)}
	if manager != nil {
		tools = append(tools, tool.NewAddToGraph(manager), tool.NewRetrieveFromGraph(manager))
	}
	return tool.NewRegistry(tools...)
}

func orchestratorNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry, s OrchestratorState) (OrchestratorState, error) {
	system := fmt.Sprintf(
		"You are the literature research orchestrator. current_action_round/budget: %d/%d. current_search_round/budget: %d/%d.",
		s.CurrentActionRound, s.MainActionRoundsBudget, s.CurrentSearchRound, s.MainSearchRoundsBudget,
	)

	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.Query},
		})
	}

	tools := append(append([]modelgw.ToolSchema{}, registry.Schemas()...), searchCallToolSchemas...)

	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: history,
		System:   system,
		Tools:    tools,
	}, policy)
	if err != nil {
		return s, fmt.Errorf("bfsdfs: orchestrator call: %w", err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = newMessages
	s.CompletedSearches = nil
	s.CurrentActionRound++
	return s, nil
}

// orchestratorToolNode, like subAgentNode, returns only the tool
// messages this step adds — Messages is merged by concatenation, not
// replacement.
func orchestratorToolNode(ctx context.Context, registry *tool.Registry, s OrchestratorState) (OrchestratorState, error) {
	last := s.Messages[len(s.Messages)-1]
	results := registry.Dispatch(ctx, last)
	for i := range results {
		results[i].ID = uuid.NewString()
	}
	s.Messages = results
	s.CompletedSearches = nil
	return s, nil
}

// orchestratorRouter implements spec's ordered routing rule: a
// go_breadth_first_search call wins over go_depth_first_search, which
// wins over any other tool call, which wins over ending the run.
func orchestratorRouter(ctx context.Context, s OrchestratorState) (string, error) {
	last := s.Messages[len(s.Messages)-1]
	if _, ok := findToolCall(last, toolGoBreadthFirstSearch); ok {
		return "bfs", nil
	}
	if _, ok := findToolCall(last, toolGoDepthFirstSearch); ok {
		return "dfs", nil
	}
	if len(last.ToolCalls) > 0 {
		return "tool", nil
	}
	return "end", nil
}

func findToolCall(msg modelgw.Message, name string) (modelgw.ToolCall, bool) {
	for _, c := range msg.ToolCalls {
		if c.Name == name {
			return c, true
		}
	}
	return modelgw.ToolCall{}, false
}

// mapToSubAgent projects the orchestrator's state onto a fresh
// sub-agent run for the one matching search call on the last assistant
// message — the orchestrator state schema never runs more than one BFS
// or DFS call per routing decision, so there is exactly one such call
// present whenever this runs.
func mapToSubAgent(budgets config.Budgets, callName string) func(OrchestratorState) subAgentState {
	return func(parent OrchestratorState) subAgentState {
		last := parent.Messages[len(parent.Messages)-1]
		call, _ := findToolCall(last, callName)

		// mapIn has no error return; a malformed call simply starts the
		// sub-agent with an empty target and knowledge-base list rather
		// than aborting the parent graph.
		var args searchCallArgs
		_ = json.Unmarshal(call.Args, &args)

		return subAgentState{
			BaseState:          agent.BaseState{Query: args.SearchTarget},
			SearchTarget:       args.SearchTarget,
			KnowledgeBases:     args.KnowledgeBases,
			ActionRoundsBudget: budgets.SubagentActionRoundsBudget,
		}
	}
}

// mapFromSubAgent folds a finished sub-agent run back into the parent:
// it answers the originating tool call with the sub-agent's last message
// so the conversation's tool_call_id contract stays intact, accumulates
// token usage, and records the search target completed. Like every
// node's return value, Messages and CompletedSearches carry only this
// step's new entries — both are merged by concatenation, not replacement.
func mapFromSubAgent(direction string) func(OrchestratorState, subAgentState) OrchestratorState {
	return func(parent OrchestratorState, child subAgentState) OrchestratorState {
		callName := toolGoBreadthFirstSearch
		if direction == directionDepthFirst {
			callName = toolGoDepthFirstSearch
		}
		last := parent.Messages[len(parent.Messages)-1]
		call, _ := findToolCall(last, callName)

		summary := ""
		if len(child.Messages) > 0 {
			summary = child.Messages[len(child.Messages)-1].Content
		}

		parent.Messages = []modelgw.Message{{
			Message:    graph.Message{ID: uuid.NewString(), Role: modelgw.RoleTool, Content: summary},
			ToolCallID: call.ID,
		}}
		parent.TotalInputTokens += child.TotalInputTokens
		parent.TotalOutputTokens += child.TotalOutputTokens
		parent.CurrentSearchRound++
		parent.CompletedSearches = []string{child.SearchTarget}
		return parent
	}
}
