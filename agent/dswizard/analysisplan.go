package dswizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
)

const analysisPlanToolName = "create_analysis_plan"

const analysisPlanSystemPrompt = `You are a precise and obedient assistant responsible for creating a structured analysis plan.

You are given INSTRUCTIONS (the key logical steps to cover) and CONTEXT (the prior dataset exploration in this conversation). Reflect the successful and failed exploration attempts in CONTEXT so the plan carries forward the right table/column/value references, library imports, and processing hints.

The plan must be natural language, understandable by a non-technical reader, with only pseudo-code where a step's logic needs it. Wrap your entire answer in <analysis_plan> and </analysis_plan> tags and nothing else.`

var analysisPlanSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"instructions": {"type": "string", "description": "the key logical steps the plan should cover, under 200 words"}
	},
	"required": ["instructions"]
}`)

type analysisPlanArgs struct {
	Instructions string `json:"instructions"`
}

// buildAnalysisPlan is create_analysis_plan's implementation. Unlike an
// ordinary tool.Tool, it needs the running conversation as context, so
// the plan sub-graph's tool node calls it directly instead of going
// through tool.Registry — the Tool interface's Run(ctx, args) has no way
// to receive a history argument alongside a call's own JSON args.
func buildAnalysisPlan(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, instructions string, history []modelgw.Message) (string, error) {
	contextStr := sandbox.MiddleTruncate(summarizeHistory(history), sandbox.ToolVisibleTokenLimit)

	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: []modelgw.Message{
			{Message: graph.Message{Role: modelgw.RoleUser, Content: "CONTEXT:\n\n" + contextStr}},
			{Message: graph.Message{Role: modelgw.RoleUser, Content: "INSTRUCTIONS:\n\n" + instructions}},
		},
		System: analysisPlanSystemPrompt,
	}, policy)
	if err != nil {
		return "", fmt.Errorf("dswizard: create_analysis_plan call: %w", err)
	}
	return resp.Message.Content, nil
}

func summarizeHistory(history []modelgw.Message) string {
	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s:\n\n%s\n\n", m.Role, m.Content)
	}
	return sb.String()
}
