// Package react implements the ReAct code-runner personality: a model
// that alternates between reasoning and calling code_execution until it
// stops calling tools, the simplest possible graph over the shared
// engine (agent_node ↔ tool_node, no sub-graphs, no budgets beyond the
// recursion limit).
package react

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
	"github.com/bioagentic/orchestrator/tool"
)

// State is the ReAct runner's state: the shared conversation log plus
// nothing else, since this personality has no budgeted rounds or
// secondary workflow fields to track.
type State struct {
	agent.BaseState
}

const systemPrompt = "You can write and execute Python code with the execute_code tool to answer the question. Use code whenever a computation would settle the answer more reliably than reasoning alone."

// New builds the ReAct code-runner. sb may be nil; code_execution then
// degrades to returning a clear per-call error instead of the agent
// failing to start, per the sandbox-optionality contract every
// personality honors.
func New(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, budgets config.Budgets, sb *sandbox.Sandbox) (*agent.Agent[State], error) {
	registry := tool.NewRegistry(tool.NewCodeExecution(sb))

	g := graph.NewStateGraph[State]()

	g.AddNode("agent_node", "calls the model with the running conversation and the code_execution tool",
		func(ctx context.Context, s State) (State, error) {
			return agentNode(ctx, cfg, policy, registry, s)
		})
	g.AddNode("tool_node", "dispatches the model's code_execution calls",
		func(ctx context.Context, s State) (State, error) {
			return toolNode(ctx, registry, s)
		})

	g.AddConditionalEdge("agent_node", router, map[string]string{
		"tool": "tool_node",
		"end":  graph.END,
	})
	g.AddEdge("tool_node", "agent_node")
	g.SetEntryPoint("agent_node")
	g.SetSchema(merger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("react: compile graph: %w", err)
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

func agentNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, registry *tool.Registry, s State) (State, error) {
	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.Query},
		})
	}

	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: history,
		System:   systemPrompt,
		Tools:    registry.Schemas(),
	}, policy)
	if err != nil {
		return s, fmt.Errorf("react: agent call: %w", err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = newMessages
	s.Round++
	return s, nil
}

// toolNode, like agentNode, returns only the tool messages this step
// adds — Messages is merged by concatenation, not replacement.
func toolNode(ctx context.Context, registry *tool.Registry, s State) (State, error) {
	last := s.Messages[len(s.Messages)-1]
	results := registry.Dispatch(ctx, last)
	for i := range results {
		results[i].ID = uuid.NewString()
	}
	s.Messages = results
	return s, nil
}

func router(ctx context.Context, s State) (string, error) {
	last := s.Messages[len(s.Messages)-1]
	if last.Role == modelgw.RoleAssistant && len(last.ToolCalls) == 0 {
		return "end", nil
	}
	return "tool", nil
}

// merger exists for the same reason bfsdfs's does: State embeds
// agent.BaseState, which graph.NewStructSchema's shallow reflection
// cannot see into, so Messages needs a hand-written dedup-append
// Merger instead of struct-tag derivation.
type merger struct{}

func (merger) Merge(current, update State) State {
	merged := update
	merged.Messages = agent.MergeMessages(current.Messages, update.Messages)
	return merged
}
