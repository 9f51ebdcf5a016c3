package dswizard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/tool"
)

const codeAgentSystemPromptTemplate = `You are a code generation agent. Convert the ANALYSIS_PLAN below into correct, complete Python code with execute_code, then answer the user's question from the execution results.

Review the plan and check each step's feasibility before committing to it; if a step turns out infeasible, explore further with execute_code, then retry. Once every step is feasible and you have the final execution results, answer the user directly instead of calling another tool.

ANALYSIS_PLAN:

%s`

func buildCodeSubgraph(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry) (*graph.StateRunnable[State], error) {
	g := graph.NewStateGraph[State]()

	g.AddNode("code_agent_node", "calls the model with the analysis plan and the execute_code tool",
		func(ctx context.Context, s State) (State, error) {
			return codeAgentNode(ctx, cfg, policy, registry, s)
		})
	g.AddNode("tool_node", "dispatches execute_code calls",
		func(ctx context.Context, s State) (State, error) {
			return codeToolNode(ctx, registry, s)
		})

	g.AddConditionalEdge("code_agent_node", codeRouter, map[string]string{
		"tool": "tool_node",
		"end":  graph.END,
	})
	g.AddEdge("tool_node", "code_agent_node")
	g.SetEntryPoint("code_agent_node")
	g.SetSchema(merger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("dswizard: compile code subgraph: %w", err)
	}
	return runnable, nil
}

func codeAgentNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry, s State) (State, error) {
	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.Query},
		})
	}

	system := fmt.Sprintf(codeAgentSystemPromptTemplate, s.AnalysisPlan)
	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: history,
		System:   system,
		Tools:    registry.Schemas(),
	}, policy)
	if err != nil {
		return s, fmt.Errorf("dswizard: code agent call: %w", err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = newMessages
	s.Round++
	return s, nil
}

func codeToolNode(ctx context.Context, registry *tool.Registry, s State) (State, error) {
	last := s.Messages[len(s.Messages)-1]
	results := registry.Dispatch(ctx, last)
	for i := range results {
		results[i].ID = uuid.NewString()
	}
	s.Messages = results
	return s, nil
}

func codeRouter(ctx context.Context, s State) (string, error) {
	last := s.Messages[len(s.Messages)-1]
	if last.Role == modelgw.RoleAssistant && len(last.ToolCalls) == 0 {
		return "end", nil
	}
	return "tool", nil
}
