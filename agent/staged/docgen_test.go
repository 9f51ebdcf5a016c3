package staged

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
)

func userMessage(id, content string) modelgw.Message {
	return modelgw.Message{Message: graph.Message{ID: id, Role: modelgw.RoleUser, Content: content}}
}

func TestReviewRouterForcesCompleteAtIterationCap(t *testing.T) {
	s := DocGenState{
		MaxIterationsPerSection: 2,
		IterationCount:          2,
	}
	s.Messages = []modelgw.Message{userMessage("r1", "REVIEWER: NEEDS_REVISION: still missing the conclusion")}

	label, err := reviewRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "complete", label)
}

func TestReviewRouterRevisesOnNeedsRevision(t *testing.T) {
	s := DocGenState{MaxIterationsPerSection: 5, IterationCount: 1}
	s.Messages = []modelgw.Message{userMessage("r1", "REVIEWER: NEEDS_REVISION: add a citation")}

	label, err := reviewRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "revise", label)
}

func TestReviewRouterCompletesOnApproved(t *testing.T) {
	s := DocGenState{MaxIterationsPerSection: 5, IterationCount: 1}
	s.Messages = []modelgw.Message{userMessage("r1", "REVIEWER: APPROVED")}

	label, err := reviewRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "complete", label)
}

func TestReviewRouterDefaultsToComplete(t *testing.T) {
	s := DocGenState{MaxIterationsPerSection: 5, IterationCount: 1}
	s.Messages = []modelgw.Message{userMessage("r1", "REVIEWER: looks fine I guess")}

	label, err := reviewRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "complete", label)
}

func TestCompleteSectionNodeAdvancesAndResets(t *testing.T) {
	s := DocGenState{
		Template:            []Section{{Title: "Intro"}, {Title: "Methods"}},
		CurrentSectionIndex: 0,
		IterationCount:      3,
		Draft:               "# Intro\n\nSome content.",
	}

	next, err := completeSectionNode(nil, s)
	require.NoError(t, err)
	require.Equal(t, []string{"# Intro\n\nSome content."}, next.CompletedSections)
	require.Equal(t, 1, next.CurrentSectionIndex)
	require.Equal(t, 0, next.IterationCount)
	require.Equal(t, "", next.Draft)
}

func TestNextSectionRouterStopsAtTemplateEnd(t *testing.T) {
	s := DocGenState{Template: []Section{{Title: "Intro"}}, CurrentSectionIndex: 1}
	label, err := nextSectionRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "assemble", label)

	s.CurrentSectionIndex = 0
	label, err = nextSectionRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "next_section", label)
}

func TestAssembleNodeJoinsSectionsAndMarksDone(t *testing.T) {
	s := DocGenState{CompletedSections: []string{"# Intro", "# Methods"}}
	out, err := assembleNode(nil, s)
	require.NoError(t, err)
	require.Equal(t, "# Intro\n\n---\n\n# Methods", out.FinalDocument)
	require.True(t, out.Done)
	require.True(t, strings.Contains(out.FinalDocument, "---"))
}

func TestDocGenMergerDedupesMessagesAndKeepsSections(t *testing.T) {
	current := DocGenState{BaseState: agent.BaseState{
		Messages: []modelgw.Message{userMessage("m1", "draft")},
	}}
	update := DocGenState{
		BaseState: agent.BaseState{
			Messages: []modelgw.Message{userMessage("m1", "draft"), userMessage("m2", "REVIEWER: APPROVED")},
		},
		CompletedSections: []string{"# Intro"},
	}

	merged := docGenMerger{}.Merge(current, update)
	require.Len(t, merged.Messages, 2)
	require.Equal(t, "m1", merged.Messages[0].ID)
	require.Equal(t, "m2", merged.Messages[1].ID)
	require.Equal(t, []string{"# Intro"}, merged.CompletedSections)
}
