// Package staged implements the two linear, stage-by-stage agent
// personalities built on the shared engine: the systematic literature
// review (SLR) pipeline and the document-generation (DocGen) pipeline.
// Both are a sequence of mini-graphs sharing one shape — a model-call
// node, a tool-dispatch node reached only when the model actually calls
// a tool, and a finalize node that folds the stage's result into the
// next stage's input — rather than one long undifferentiated loop.
package staged

import "github.com/bioagentic/orchestrator/agent"

// SLRState is the state threaded through every SLR stage. Messages
// accumulates across the whole pipeline the same way it does in every
// other personality; each stage changes only its own system prompt and
// which of the fields below it writes.
type SLRState struct {
	agent.BaseState

	MaxSearchResults    int
	MaxStudiesToScreen  int
	MaxStudiesToInclude int
	MetaAnalysis        bool

	IdentifiedPubmed []string
	IdentifiedCTGov  []string
	IncludedStudies  []string
	Extractions      []string
	Synthesis        string
	FinalReport      string
}
