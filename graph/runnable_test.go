package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/graph"
)

type counterState struct {
	Count    int
	Messages []graph.Message `merge:"append-dedup"`
	Tags     []string        `merge:"append"`
}

func incrementNode(n int) graph.NodeFunc[counterState] {
	return func(ctx context.Context, s counterState) (counterState, error) {
		return counterState{Count: s.Count + n}, nil
	}
}

func TestInvokeRunsNodesSequentially(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", incrementNode(1))
	g.AddNode("b", "", incrementNode(10))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", graph.END)

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counterState{})
	require.NoError(t, err)
	require.Equal(t, 11, out.Count)
}

func TestConditionalEdgeRouting(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("start", "", incrementNode(1))
	g.AddNode("even", "", incrementNode(100))
	g.AddNode("odd", "", incrementNode(-100))
	g.SetEntryPoint("start")
	g.AddConditionalEdge("start", func(ctx context.Context, s counterState) (string, error) {
		if s.Count%2 == 0 {
			return "is_even", nil
		}
		return "is_odd", nil
	}, map[string]string{"is_even": "even", "is_odd": "odd"})
	g.AddEdge("even", graph.END)
	g.AddEdge("odd", graph.END)

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counterState{Count: 1})
	require.NoError(t, err)
	require.Equal(t, 102, out.Count) // start: 1+1=2 (even) -> even adds 100 -> 102
}

func TestRecursionLimitExceeded(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("loop", "", incrementNode(1))
	g.SetEntryPoint("loop")
	g.AddEdge("loop", "loop")

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.InvokeWithConfig(context.Background(), counterState{}, &graph.Config{RecursionLimit: 5})
	require.Error(t, err)
	require.True(t, errors.Is(err, graph.ErrRecursionLimit))
}

func TestNodeErrorPropagatesWithoutRetry(t *testing.T) {
	attempts := 0
	g := graph.NewStateGraph[counterState]()
	g.AddNode("fails", "", func(ctx context.Context, s counterState) (counterState, error) {
		attempts++
		return s, errors.New("boom")
	})
	g.SetEntryPoint("fails")
	g.AddEdge("fails", graph.END)

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), counterState{})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestNodePanicIsRecoveredAsError(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("panics", "", func(ctx context.Context, s counterState) (counterState, error) {
		panic("unexpected")
	})
	g.SetEntryPoint("panics")
	g.AddEdge("panics", graph.END)

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), counterState{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "panicked")
}

func TestAppendDedupReducerSkipsDuplicateMessageIDs(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("append", "", func(ctx context.Context, s counterState) (counterState, error) {
		return counterState{Messages: []graph.Message{{ID: "m1", Content: "hi"}}}, nil
	})
	g.SetEntryPoint("append")
	g.AddEdge("append", "append2")
	g.AddNode("append2", "", func(ctx context.Context, s counterState) (counterState, error) {
		return counterState{Messages: []graph.Message{{ID: "m1", Content: "hi-again"}, {ID: "m2", Content: "new"}}}, nil
	})
	g.AddEdge("append2", graph.END)

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counterState{})
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	require.Equal(t, "m1", out.Messages[0].ID)
	require.Equal(t, "m2", out.Messages[1].ID)
}

func TestStreamEmitsSnapshotPerNode(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", incrementNode(1))
	g.AddNode("b", "", incrementNode(1))
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", graph.END)

	r, err := g.Compile()
	require.NoError(t, err)

	var nodes []string
	for snap := range r.Stream(context.Background(), counterState{}, nil) {
		require.NoError(t, snap.Err)
		nodes = append(nodes, snap.Node)
	}
	require.Equal(t, []string{"a", "b"}, nodes)
}

func TestCompileRejectsMissingEntryPoint(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", incrementNode(1))
	_, err := g.Compile()
	require.ErrorIs(t, err, graph.ErrNoEntryPoint)
}

func TestCompileRejectsDanglingEdge(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", incrementNode(1))
	g.SetEntryPoint("a")
	g.AddEdge("a", "ghost")
	_, err := g.Compile()
	require.ErrorIs(t, err, graph.ErrNodeNotFound)
}

func TestAsSubgraphNodeProjectsStateAcrossTypes(t *testing.T) {
	type childState struct{ X int }
	cg := graph.NewStateGraph[childState]()
	cg.AddNode("double", "", func(ctx context.Context, s childState) (childState, error) {
		return childState{X: s.X * 2}, nil
	})
	cg.SetEntryPoint("double")
	cg.AddEdge("double", graph.END)
	child, err := cg.Compile()
	require.NoError(t, err)

	parent := graph.NewStateGraph[counterState]()
	parent.AddNode("sub", "", graph.AsSubgraphNode(child,
		func(p counterState) childState { return childState{X: p.Count} },
		func(p counterState, c childState) counterState { return counterState{Count: c.X} },
	))
	parent.SetEntryPoint("sub")
	parent.AddEdge("sub", graph.END)
	pr, err := parent.Compile()
	require.NoError(t, err)

	out, err := pr.Invoke(context.Background(), counterState{Count: 21})
	require.NoError(t, err)
	require.Equal(t, 42, out.Count)
}
