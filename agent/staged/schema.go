package staged

import "github.com/bioagentic/orchestrator/agent"

// Both SLRState and DocGenState embed agent.BaseState, so each needs a
// hand-written Merger instead of struct-tag derivation — see the
// agent/ and agent/bfsdfs DESIGN.md entries for why.

type slrMerger struct{}

func (slrMerger) Merge(current, update SLRState) SLRState {
	merged := update
	merged.Messages = agent.MergeMessages(current.Messages, update.Messages)
	return merged
}

type docGenMerger struct{}

func (docGenMerger) Merge(current, update DocGenState) DocGenState {
	merged := update
	merged.Messages = agent.MergeMessages(current.Messages, update.Messages)
	return merged
}
