package bfsdfs

import "github.com/bioagentic/orchestrator/agent"

// Both state types here embed agent.BaseState, which puts Messages one
// level below what graph.NewStructSchema's reflection looks at — so each
// gets its own hand-written Merger instead of relying on struct-tag
// auto-derivation, matching ReplaceReducer everywhere except the fields
// that actually accumulate.

type orchestratorMerger struct{}

func (orchestratorMerger) Merge(current, update OrchestratorState) OrchestratorState {
	merged := update
	merged.Messages = agent.MergeMessages(current.Messages, update.Messages)
	merged.CompletedSearches = append(append([]string{}, current.CompletedSearches...), update.CompletedSearches...)
	return merged
}

type subAgentMerger struct{}

func (subAgentMerger) Merge(current, update subAgentState) subAgentState {
	merged := update
	merged.Messages = agent.MergeMessages(current.Messages, update.Messages)
	return merged
}
