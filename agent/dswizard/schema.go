package dswizard

import "github.com/bioagentic/orchestrator/agent"

// State embeds agent.BaseState, so both sub-graphs need a hand-written
// Merger instead of struct-tag derivation — see the agent/ and
// agent/bfsdfs DESIGN.md entries for why graph.NewStructSchema's shallow
// reflection can't see Messages through the embedding.
type merger struct{}

func (merger) Merge(current, update State) State {
	merged := update
	merged.Messages = agent.MergeMessages(current.Messages, update.Messages)
	return merged
}
