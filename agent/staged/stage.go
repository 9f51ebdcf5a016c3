package staged

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/tool"
)

// slrStage describes one stage of the SLR pipeline: its own system
// prompt, its own (possibly empty) tool set, and a finalize step that
// reads the stage's final assistant message and folds the result into
// the fields the next stage needs. addStage wires all three into the
// shared SLRState graph as stage_entry → tool_dispatch ↔ stage_continue
// → finalize_stage, reusing one model-call node for both stage_entry and
// every subsequent round (stage_continue is not a distinct node — it is
// the same node re-entered after a tool result, exactly like every other
// agent/tool loop in this module).
type slrStage struct {
	name     string
	system   func(s SLRState) string
	registry func(s SLRState) *tool.Registry
	finalize func(s SLRState, final modelgw.Message) SLRState
}

// addStage adds one stage's three nodes to g and returns its entry node
// name (for wiring an edge into it) and its finalize node name (for
// wiring an edge out of it to the next stage, or to graph.END).
func addStage(g *graph.StateGraph[SLRState], cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, stage slrStage) (entry, finalize string) {
	entry = stage.name + "_agent"
	toolNode := stage.name + "_tool"
	finalize = stage.name + "_finalize"

	g.AddNode(entry, fmt.Sprintf("calls the model for the %s stage", stage.name),
		func(ctx context.Context, s SLRState) (SLRState, error) {
			return stageAgentNode(ctx, cfg, policy, stage, s)
		})
	g.AddNode(toolNode, fmt.Sprintf("dispatches the %s stage's tool calls", stage.name),
		func(ctx context.Context, s SLRState) (SLRState, error) {
			return stageToolNode(ctx, stage, s)
		})
	g.AddNode(finalize, fmt.Sprintf("folds the %s stage's result into the pipeline state", stage.name),
		func(ctx context.Context, s SLRState) (SLRState, error) {
			last := s.Messages[len(s.Messages)-1]
			return stage.finalize(s, last), nil
		})

	g.AddConditionalEdge(entry, stageRouter, map[string]string{
		"tool": toolNode,
		"end":  finalize,
	})
	g.AddEdge(toolNode, entry)

	return entry, finalize
}

func stageAgentNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, stage slrStage, s SLRState) (SLRState, error) {
	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.Query},
		})
	}

	registry := stage.registry(s)
	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: history,
		System:   stage.system(s),
		Tools:    registry.Schemas(),
	}, policy)
	if err != nil {
		return s, fmt.Errorf("staged: %s stage call: %w", stage.name, err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = newMessages
	s.Round++
	return s, nil
}

func stageToolNode(ctx context.Context, stage slrStage, s SLRState) (SLRState, error) {
	last := s.Messages[len(s.Messages)-1]
	registry := stage.registry(s)
	results := registry.Dispatch(ctx, last)
	for i := range results {
		results[i].ID = uuid.NewString()
	}
	s.Messages = results
	return s, nil
}

func stageRouter(ctx context.Context, s SLRState) (string, error) {
	last := s.Messages[len(s.Messages)-1]
	if last.Role == modelgw.RoleAssistant && len(last.ToolCalls) == 0 {
		return "end", nil
	}
	return "tool", nil
}
