package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/graph"
)

type echoState struct {
	Query    string
	Response string
}

func buildEchoGraph(t *testing.T) *graph.StateRunnable[echoState] {
	t.Helper()
	g := graph.NewStateGraph[echoState]()
	g.AddNode("respond", "echoes the query back as the response", func(ctx context.Context, s echoState) (echoState, error) {
		return echoState{Response: "echo: " + s.Query}, nil
	})
	g.SetEntryPoint("respond")
	g.AddEdge("respond", graph.END)
	runnable, err := g.Compile()
	require.NoError(t, err)
	return runnable
}

func TestGoReturnsExecutionResultsFromFinalState(t *testing.T) {
	runnable := buildEchoGraph(t)
	a := agent.New(runnable, nil, 10,
		func(query string) echoState { return echoState{Query: query} },
		func(final echoState) agent.ExecutionResults {
			return agent.ExecutionResults{FinalResponse: final.Response}
		},
	)

	results, err := a.Go(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "echo: hello", results.FinalResponse)
	require.Nil(t, results.Sandbox)
}

func TestGenerateStreamsOneSnapshotPerNode(t *testing.T) {
	runnable := buildEchoGraph(t)
	a := agent.New(runnable, nil, 10,
		func(query string) echoState { return echoState{Query: query} },
		func(final echoState) agent.ExecutionResults {
			return agent.ExecutionResults{FinalResponse: final.Response}
		},
	)

	ch, err := a.Generate(context.Background(), "hi")
	require.NoError(t, err)

	var snapshots []graph.Snapshot[echoState]
	for snap := range ch {
		snapshots = append(snapshots, snap)
	}
	require.Len(t, snapshots, 1)
	require.Equal(t, "echo: hi", snapshots[0].State.Response)
}

func TestRegisterWorkspaceFailsCleanlyWithoutSandbox(t *testing.T) {
	runnable := buildEchoGraph(t)
	a := agent.New(runnable, nil, 10,
		func(query string) echoState { return echoState{Query: query} },
		func(final echoState) agent.ExecutionResults { return agent.ExecutionResults{} },
	)
	err := a.RegisterWorkspace(context.Background(), "", false)
	require.Error(t, err)
}

func TestClearWorkspaceIsNoOpWithoutSandbox(t *testing.T) {
	runnable := buildEchoGraph(t)
	a := agent.New(runnable, nil, 10,
		func(query string) echoState { return echoState{Query: query} },
		func(final echoState) agent.ExecutionResults { return agent.ExecutionResults{} },
	)
	require.NoError(t, a.ClearWorkspace(context.Background()))
}

func TestExecutionResultsToJSONWritesFile(t *testing.T) {
	r := agent.ExecutionResults{FinalResponse: "done", TotalInputTokens: 42}
	path := t.TempDir() + "/results.json"
	text, err := r.ToJSON(path)
	require.NoError(t, err)
	require.Contains(t, text, "\"final_response\": \"done\"")
}
