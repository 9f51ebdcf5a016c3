package staged

import "github.com/bioagentic/orchestrator/agent"

// Section is one entry of a document template: a title and the
// guidance the writer/reviewer loop uses to judge the section's
// content.
type Section struct {
	Title    string
	Guidance string
}

// DocGenState is the state threaded through the document-generation
// pipeline. SourceDocuments is populated once, by the initialize stage,
// from the sandbox workspace; everything else tracks progress through
// the per-section write/review/revise loop.
type DocGenState struct {
	agent.BaseState

	Template                []Section
	MaxIterationsPerSection int

	SourceDocuments string

	CurrentSectionIndex int
	IterationCount      int
	Draft               string

	CompletedSections []string
	FinalDocument     string
}
