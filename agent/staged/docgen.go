package staged

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
)

const initializeSnippet = `import os
for root, _, files in os.walk("/workdir"):
    for name in files:
        path = os.path.join(root, name)
        print(f"=== {path} ===")
        try:
            with open(path, "r", errors="replace") as f:
                print(f.read())
        except Exception as e:
            print(f"<unreadable: {e}>")
`

const writeSystemPromptTemplate = `You are writing the %q section of a document.

Guidance: %s

Source documents from the workspace:
%s

Write only the section's content, starting with a Markdown heading "# %s".`

const reviewSystemPromptTemplate = `You are reviewing a draft of the %q section against this guidance: %s

If the draft satisfies the guidance, respond with exactly "APPROVED". Otherwise respond with "NEEDS_REVISION: " followed by what is missing or wrong.`

// NewDocGen builds the document-generation pipeline: initialize → for
// each template section, a write/review/revise loop bounded by
// MaxIterationsPerSection → assemble.
func NewDocGen(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, budgets config.Budgets, sb *sandbox.Sandbox, template []Section) (*agent.Agent[DocGenState], error) {
	g := graph.NewStateGraph[DocGenState]()

	g.AddNode("initialize", "reads and caches source documents from the sandbox workspace",
		func(ctx context.Context, s DocGenState) (DocGenState, error) {
			return initializeNode(ctx, sb, s)
		})
	g.AddNode("write_draft", "drafts the current section from its guidance and the source documents",
		func(ctx context.Context, s DocGenState) (DocGenState, error) {
			return writeDraftNode(ctx, cfg, policy, s)
		})
	g.AddNode("review", "reviews the current draft against its section guidance",
		func(ctx context.Context, s DocGenState) (DocGenState, error) {
			return reviewNode(ctx, cfg, policy, s)
		})
	g.AddNode("complete_section", "records the approved draft and advances to the next section",
		completeSectionNode)
	g.AddNode("assemble", "concatenates every completed section into the final document",
		assembleNode)

	g.AddEdge("initialize", "write_draft")
	g.AddEdge("write_draft", "review")
	g.AddConditionalEdge("review", reviewRouter, map[string]string{
		"revise":   "write_draft",
		"complete": "complete_section",
	})
	g.AddConditionalEdge("complete_section", nextSectionRouter, map[string]string{
		"next_section": "write_draft",
		"assemble":     "assemble",
	})
	g.AddEdge("assemble", graph.END)
	g.SetEntryPoint("initialize")
	g.SetSchema(docGenMerger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("staged: compile DocGen graph: %w", err)
	}

	newState := func(query string) DocGenState {
		return DocGenState{
			BaseState:               agent.BaseState{Query: query},
			Template:                template,
			MaxIterationsPerSection: budgets.MaxIterationsPerSection,
		}
	}

	toResults := func(final DocGenState) agent.ExecutionResults {
		return agent.ExecutionResults{
			MessageHistory:    final.Messages,
			TotalInputTokens:  final.TotalInputTokens,
			TotalOutputTokens: final.TotalOutputTokens,
			CompletedSections: final.CompletedSections,
			FinalDocument:     final.FinalDocument,
			FinalResponse:     final.FinalDocument,
		}
	}

	return agent.New(runnable, sb, budgets.ReactRecursionLimit, newState, toResults), nil
}

func initializeNode(ctx context.Context, sb *sandbox.Sandbox, s DocGenState) (DocGenState, error) {
	if sb == nil {
		return s, nil
	}
	res, err := sb.Execute(ctx, sandbox.Python, initializeSnippet)
	if err != nil {
		return s, nil
	}
	s.SourceDocuments = sandbox.MiddleTruncate(res.Stdout, sandbox.ToolVisibleTokenLimit)
	return s, nil
}

func writeDraftNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, s DocGenState) (DocGenState, error) {
	section := s.Template[s.CurrentSectionIndex]
	system := fmt.Sprintf(writeSystemPromptTemplate, section.Title, section.Guidance, s.SourceDocuments, section.Title)

	var newMessages []modelgw.Message
	if len(s.Messages) == 0 {
		newMessages = append(newMessages, modelgw.Message{
			Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: s.Query},
		})
	}

	history := append(append([]modelgw.Message{}, s.Messages...), newMessages...)
	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{Messages: history, System: system}, policy)
	if err != nil {
		return s, fmt.Errorf("staged: write_draft call for %q: %w", section.Title, err)
	}

	resp.Message.ID = uuid.NewString()
	newMessages = append(newMessages, resp.Message)

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Draft = resp.Message.Content
	s.Messages = newMessages
	s.Round++
	return s, nil
}

func reviewNode(ctx context.Context, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, s DocGenState) (DocGenState, error) {
	section := s.Template[s.CurrentSectionIndex]
	system := fmt.Sprintf(reviewSystemPromptTemplate, section.Title, section.Guidance)

	resp, err := modelgw.Call(ctx, cfg, modelgw.Request{
		Messages: []modelgw.Message{{Message: graph.Message{Role: modelgw.RoleUser, Content: s.Draft}}},
		System:   system,
	}, policy)
	if err != nil {
		return s, fmt.Errorf("staged: review call for %q: %w", section.Title, err)
	}

	s.BaseState = s.RecordUsage(resp.Usage)
	s.Messages = []modelgw.Message{{
		Message: graph.Message{ID: uuid.NewString(), Role: modelgw.RoleUser, Content: "REVIEWER: " + resp.Message.Content},
	}}
	s.IterationCount++
	return s, nil
}

// reviewRouter implements the review gate exactly as documented: hitting
// the iteration cap forces completion regardless of content; otherwise
// NEEDS_REVISION sends the section back to another draft, APPROVED (and
// not also NEEDS_REVISION) completes it, and anything else defaults to
// complete.
func reviewRouter(ctx context.Context, s DocGenState) (string, error) {
	if s.IterationCount >= s.MaxIterationsPerSection {
		return "complete", nil
	}
	content := s.Messages[len(s.Messages)-1].Content
	if strings.Contains(content, "NEEDS_REVISION") {
		return "revise", nil
	}
	if strings.Contains(content, "APPROVED") {
		return "complete", nil
	}
	return "complete", nil
}

func completeSectionNode(ctx context.Context, s DocGenState) (DocGenState, error) {
	s.CompletedSections = append(append([]string{}, s.CompletedSections...), s.Draft)
	s.CurrentSectionIndex++
	s.IterationCount = 0
	s.Draft = ""
	return s, nil
}

func nextSectionRouter(ctx context.Context, s DocGenState) (string, error) {
	if s.CurrentSectionIndex >= len(s.Template) {
		return "assemble", nil
	}
	return "next_section", nil
}

func assembleNode(ctx context.Context, s DocGenState) (DocGenState, error) {
	s.FinalDocument = strings.Join(s.CompletedSections, "\n\n---\n\n")
	s.Done = true
	return s, nil
}
