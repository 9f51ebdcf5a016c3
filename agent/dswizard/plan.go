package dswizard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/tool"
)

const planAgentSystemPrompt = `You are an expert data analysis agent. Create a step-by-step analysis plan written in natural language so it can be faithfully implemented as Python code.

First explore the registered datasets with execute_code calls to confirm table/column names, data types, value ranges, and package availability. Once confident, call create_analysis_plan with a plan that covers both the steps to resolve the question and the quality-control checks that assess the result. Review the plan; if it is incomplete or ambiguous about which data to use, go back to exploring. Once it is complete, respond with only: "The analysis plan is complete."`

func buildPlanSubgraph(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry) (*graph.StateRunnable[State], error) {
	g := graph.NewStateGraph[State]()

	g.AddNode("plan_agent_node", "calls the model with the exploration tool set plus create_analysis_plan",
		func(ctx context.Context, s State) (State, error) {
			return planAgentNode(ctx, cfg, policy, registry, s)
		})
	g.AddNode("tool_node", "dispatches execute_code calls directly and create_analysis_plan specially, since it needs conversation context no ordinary tool receives",
		func(ctx context.Context, s State) (State, error) {
			return planToolNode(ctx, cfg, policy, registry, s)
		})

	g.AddConditionalEdge("plan_agent_node", planRouter, map[string]string{
		"tool": "tool_node",
		"end":  graph.END,
	})
	g.AddEdge("tool_node", "plan_agent_node")
	g.SetEntryPoint("plan_agent_node")
	g.SetSchema(merger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("dswizard: compile plan subgraph: %w", err)
	}
	return runnable, nil
}

func planToolSchemas(registry *tool.Registry) []modelgw.ToolSchema {
	return append(append([]modelgw.ToolSchema{}, registry.Schemas()...), modelgw.ToolSchema{
		Name:        analysisPlanToolName,
		Description: "Create a step-by-step analysis plan written in natural language to ensure it can be faithfully implemented as Python code.",
		InputSchema: analysisPlanSchema,
	})
}

func planAgentNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry, s State) (State, error) {
	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.Query},
		})
	}

	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: history,
		System:   planAgentSystemPrompt,
		Tools:    planToolSchemas(registry),
	}, policy)
	if err != nil {
		return s, fmt.Errorf("dswizard: plan agent call: %w", err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = newMessages
	s.Round++
	return s, nil
}

// planToolNode special-cases create_analysis_plan the way the original
// agent's tool node does: every other call dispatches through the
// ordinary registry, but create_analysis_plan needs the running
// conversation as context, which registry.Dispatch has no way to supply
// alongside a call's own JSON args.
func planToolNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry, s State) (State, error) {
	last := s.Messages[len(s.Messages)-1]
	newMessages := make([]modelgw.Message, 0, len(last.ToolCalls))
	var plan string

	for _, call := range last.ToolCalls {
		if call.Name != analysisPlanToolName {
			result := registry.Dispatch(ctx, modelgw.Message{
				Message:   graph.Message{Role: modelgw.RoleAssistant},
				ToolCalls: []modelgw.ToolCall{call},
			})
			for i := range result {
				result[i].ID = uuid.NewString()
			}
			newMessages = append(newMessages, result...)
			continue
		}

		var args analysisPlanArgs
		_ = json.Unmarshal(call.Args, &args)
		generated, err := buildAnalysisPlan(ctx, cfg, policy, args.Instructions, s.Messages)
		content := generated
		if err != nil {
			content = fmt.Sprintf("create_analysis_plan failed: %v", err)
		} else {
			plan = generated
		}
		newMessages = append(newMessages, modelgw.Message{
			Message:    graph.Message{ID: uuid.NewString(), Role: modelgw.RoleTool, Content: content},
			ToolCallID: call.ID,
		})
	}

	s.Messages = newMessages
	if plan != "" {
		s.AnalysisPlan = plan
	}
	return s, nil
}

func planRouter(ctx context.Context, s State) (string, error) {
	last := s.Messages[len(s.Messages)-1]
	if last.Role == modelgw.RoleAssistant && len(last.ToolCalls) == 0 {
		return "end", nil
	}
	return "tool", nil
}
