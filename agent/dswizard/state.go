// Package dswizard implements the plan-then-code data-science wizard: a
// plan sub-graph that explores the registered datasets and settles on a
// natural-language analysis plan, followed by a code sub-graph that
// turns that plan into executed Python/R and a final answer.
package dswizard

import "github.com/bioagentic/orchestrator/agent"

// State is shared by both the plan and code sub-graphs so
// graph.AsSubgraphNode's mapIn/mapOut can be the identity function
// between them — the plan sub-graph's AnalysisPlan output is exactly
// what the code sub-graph reads back in.
type State struct {
	agent.BaseState

	AnalysisPlan string
}
