package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/graph"
)

type reportState struct {
	Section string
	Tags    []string        `merge:"append"`
	Log     []graph.Message `merge:"append-dedup"`
}

func TestStructSchemaReplacesUntaggedFields(t *testing.T) {
	s, err := graph.NewStructSchema[reportState]()
	require.NoError(t, err)

	out := s.Merge(reportState{Section: "intro"}, reportState{Section: "methods"})
	require.Equal(t, "methods", out.Section)
}

func TestStructSchemaAppendsTaggedSlices(t *testing.T) {
	s, err := graph.NewStructSchema[reportState]()
	require.NoError(t, err)

	out := s.Merge(reportState{Tags: []string{"a"}}, reportState{Tags: []string{"b", "c"}})
	require.Equal(t, []string{"a", "b", "c"}, out.Tags)
}

func TestNewStructSchemaRejectsNonStruct(t *testing.T) {
	_, err := graph.NewStructSchema[int]()
	require.Error(t, err)
}
