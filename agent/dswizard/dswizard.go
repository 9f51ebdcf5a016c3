package dswizard

import (
	"fmt"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
	"github.com/bioagentic/orchestrator/tool"
)

// New builds the data-science wizard: a plan sub-graph that explores
// the workspace and settles on an analysis plan, feeding directly into
// a code sub-graph that implements and executes it. Both sub-graphs
// share the same state type, so the boundary between them
// (graph.AsSubgraphNode's mapIn/mapOut) is the identity function rather
// than a projection — AnalysisPlan simply carries across unchanged.
func New(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, budgets config.Budgets, sb *sandbox.Sandbox) (*agent.Agent[State], error) {
	registry := tool.NewRegistry(tool.NewCodeExecution(sb))

	planGraph, err := buildPlanSubgraph(cfg, policy, registry)
	if err != nil {
		return nil, err
	}
	codeGraph, err := buildCodeSubgraph(cfg, policy, registry)
	if err != nil {
		return nil, err
	}

	identity := func(s State) State { return s }
	identityOut := func(_ State, sub State) State { return sub }

	g := graph.NewStateGraph[State]()
	g.AddNode("plan_agent", "runs the plan sub-graph to completion", graph.AsSubgraphNode(planGraph, identity, identityOut))
	g.AddNode("code_agent", "runs the code sub-graph to completion", graph.AsSubgraphNode(codeGraph, identity, identityOut))
	g.AddEdge("plan_agent", "code_agent")
	g.AddEdge("code_agent", graph.END)
	g.SetEntryPoint("plan_agent")
	g.SetSchema(merger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("dswizard: compile graph: %w", err)
	}

	newState := func(query string) State {
		return State{BaseState: agent.BaseState{Query: query}}
	}

	toResults := func(final State) agent.ExecutionResults {
		results := agent.ExecutionResults{
			MessageHistory:    final.Messages,
			TotalInputTokens:  final.TotalInputTokens,
			TotalOutputTokens: final.TotalOutputTokens,
		}
		if len(final.Messages) > 0 {
			results.FinalResponse = final.Messages[len(final.Messages)-1].Content
		}
		return results
	}

	return agent.New(runnable, sb, budgets.ReactRecursionLimit, newState, toResults), nil
}
