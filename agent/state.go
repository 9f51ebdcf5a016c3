package agent

import "github.com/bioagentic/orchestrator/modelgw"

// BaseState is the common conversation log every topology-specific state
// struct in this module's sibling packages embeds: BFS/DFS literature
// research, the staged SLR/DocGen workflow, the ReAct code runner, and the
// data-science wizard all accumulate the same kind of message history and
// round/token counters even though each routes between very different
// nodes.
//
// graph.NewStructSchema only inspects a state type's own top-level
// fields, so embedding BaseState hides Messages from the automatic
// struct-tag derivation a flat state type would get for free — a
// StateGraph built over a type that embeds BaseState must call
// SetSchema with a Merger that knows to reach into the embedded field
// and apply MergeMessages itself, rather than relying on Compile to
// derive one. The merge tag below documents the field's intended
// semantics for readers; it has no effect unless a state type is flat.
type BaseState struct {
	Query string

	Messages []modelgw.Message `merge:"append-dedup"`

	Round             int
	TotalInputTokens  int
	TotalOutputTokens int

	Done bool
}

// RecordUsage folds one model call's token usage into the running totals.
// It is a plain method, not a reducer: callers add its result to the
// partial state they return from a node, and the struct schema's default
// ReplaceReducer on these int fields is what Merge applies afterward — so
// a node must add the running total itself rather than rely on the schema
// to accumulate across steps.
func (s BaseState) RecordUsage(u modelgw.Usage) BaseState {
	s.TotalInputTokens += u.InputTokens
	s.TotalOutputTokens += u.OutputTokens
	return s
}

// MergeMessages concatenates update onto current, skipping any message
// whose ID already appears in current — the same rule
// graph.AppendMessagesReducer applies via reflection, reimplemented here
// as a concretely-typed helper for state types that embed BaseState and
// so need a hand-written Merger instead of struct-tag derivation.
func MergeMessages(current, update []modelgw.Message) []modelgw.Message {
	seen := make(map[string]struct{}, len(current))
	for _, m := range current {
		if m.ID != "" {
			seen[m.ID] = struct{}{}
		}
	}
	out := append([]modelgw.Message{}, current...)
	for _, m := range update {
		if m.ID != "" {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
		}
		out = append(out, m)
	}
	return out
}
