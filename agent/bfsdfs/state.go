// Package bfsdfs implements the BFS/DFS literature researcher: an
// orchestrator graph that dispatches either a breadth-first or
// depth-first literature search to a sub-agent, plus direct access to
// the evidence graph and the sandbox, all bounded by round budgets the
// model sees injected into its own prompt every turn.
package bfsdfs

import "github.com/bioagentic/orchestrator/agent"

// OrchestratorState is the top-level graph's state. CurrentActionRound
// counts every pass through orchestrator_node; CurrentSearchRound counts
// only the passes that dispatched into a BFS or DFS sub-graph — both are
// embedded in the next prompt so the model can see its own remaining
// budget rather than being cut off silently.
type OrchestratorState struct {
	agent.BaseState

	CurrentActionRound int
	CurrentSearchRound int

	MainActionRoundsBudget int
	MainSearchRoundsBudget int

	EvidenceGraphScope string
	CompletedSearches  []string `merge:"append"`
}

// subAgentState is the BFS/DFS sub-graph's own state: a fresh message
// history seeded from the search target, scoped to the knowledge bases
// the orchestrator selected for this one call.
type subAgentState struct {
	agent.BaseState

	SearchTarget   string
	KnowledgeBases []string

	ActionRoundsBudget int
}
