package staged

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
)

func toolMessage(id, content string) modelgw.Message {
	return modelgw.Message{Message: graph.Message{ID: id, Role: modelgw.RoleTool, Content: content}}
}

func TestExtractPMIDsDedupesAndFormats(t *testing.T) {
	text := "Found PMID: 123 and PMID:456. Also PMID: 123 again."
	got := dedupStrings(extractPMIDs(text))
	require.Equal(t, []string{"PMID:123", "PMID:456"}, got)
}

func TestExtractNCTIDsDedupes(t *testing.T) {
	text := "Trials NCT01234567 and NCT09999999, repeated NCT01234567."
	got := extractNCTIDs(text)
	require.Equal(t, []string{"NCT01234567", "NCT09999999"}, got)
}

func TestAllToolContentJoinsOnlyToolMessages(t *testing.T) {
	messages := []modelgw.Message{
		{Message: graph.Message{Role: modelgw.RoleUser, Content: "ignored"}},
		toolMessage("t1", "PMID: 111"),
		toolMessage("t2", "PMID: 222"),
	}
	content := allToolContent(messages)
	require.Contains(t, content, "PMID: 111")
	require.Contains(t, content, "PMID: 222")
	require.NotContains(t, content, "ignored")
}

func TestExtractIncludedRejectsIdentifiersNotInCandidates(t *testing.T) {
	text := "INCLUDE: PMID:111\nINCLUDE: PMID:999\nsome other line\nINCLUDE: NCT01234567"
	candidates := []string{"PMID:111", "NCT01234567"}

	got := extractIncluded(text, candidates)
	require.Equal(t, []string{"PMID:111", "NCT01234567"}, got)
}

func TestExtractIncludedDedupes(t *testing.T) {
	text := "INCLUDE: PMID:111\nINCLUDE: PMID:111"
	got := extractIncluded(text, []string{"PMID:111"})
	require.Equal(t, []string{"PMID:111"}, got)
}

func TestSplitParagraphsTrimsAndSkipsEmpty(t *testing.T) {
	text := "First paragraph.\n\n\n\nSecond paragraph.\n\n  \n\nThird."
	got := splitParagraphs(text)
	require.Equal(t, []string{"First paragraph.", "Second paragraph.", "Third."}, got)
}

func TestCapStringsCapsAtMax(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	require.Equal(t, []string{"a", "b"}, capStrings(in, 2))
	require.Equal(t, in, capStrings(in, 0))
	require.Equal(t, in, capStrings(in, 10))
}

func TestStageRouterEndsWhenNoToolCalls(t *testing.T) {
	s := SLRState{}
	s.Messages = []modelgw.Message{{Message: graph.Message{Role: modelgw.RoleAssistant}}}
	label, err := stageRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "end", label)
}

func TestStageRouterDispatchesToolCalls(t *testing.T) {
	s := SLRState{}
	s.Messages = []modelgw.Message{{
		Message:   graph.Message{Role: modelgw.RoleAssistant},
		ToolCalls: []modelgw.ToolCall{{ID: "c1", Name: "pubmed_search"}},
	}}
	label, err := stageRouter(nil, s)
	require.NoError(t, err)
	require.Equal(t, "tool", label)
}

func TestSLRMergerDedupesMessagesAndKeepsFields(t *testing.T) {
	current := SLRState{}
	current.Messages = []modelgw.Message{toolMessage("m1", "PMID: 111")}

	update := SLRState{}
	update.Messages = []modelgw.Message{toolMessage("m1", "PMID: 111"), toolMessage("m2", "PMID: 222")}
	update.IdentifiedPubmed = []string{"PMID:111", "PMID:222"}

	merged := slrMerger{}.Merge(current, update)
	require.Len(t, merged.Messages, 2)
	require.Equal(t, []string{"PMID:111", "PMID:222"}, merged.IdentifiedPubmed)
}
