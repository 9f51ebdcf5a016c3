package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/stretchr/testify/require"
)

func TestFilepathExtRecognizesTabularExtensions(t *testing.T) {
	require.Equal(t, ".csv", filepathExt("/workdir/cohort.CSV"))
	require.Equal(t, ".parquet", filepathExt("data.parquet"))
	require.Equal(t, "", filepathExt("no_extension"))
}

func TestInterpreterForRejectsUnknownLanguage(t *testing.T) {
	_, err := interpreterFor(Language("julia"))
	require.Error(t, err)
}

// skipIfNoDocker lets the container-lifecycle tests run on machines with a
// live daemon while staying green everywhere else, the same shape the
// gateway-backed integration tests in this corpus use for a missing API key.
func skipIfNoDocker(t *testing.T) *client.Client {
	t.Helper()
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skip("docker client unavailable, skipping sandbox integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		t.Skip("no docker daemon reachable, skipping sandbox integration test")
	}
	return cli
}

func TestExecutePythonSnippetReturnsStdout(t *testing.T) {
	skipIfNoDocker(t)

	ctx := context.Background()
	sb, err := New(ctx, "python:3.11-slim")
	require.NoError(t, err)
	defer sb.Stop(ctx)

	res, err := sb.Execute(ctx, Python, `print("hello from sandbox")`)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Contains(t, res.Stdout, "hello from sandbox")
}

func TestClearWorkspacePreservesMarkedFiles(t *testing.T) {
	skipIfNoDocker(t)

	ctx := context.Background()
	sb, err := New(ctx, "python:3.11-slim")
	require.NoError(t, err)
	defer sb.Stop(ctx)

	_, err = sb.Execute(ctx, Python, `open("keep.txt","w").write("x"); open("drop.txt","w").write("y")`)
	require.NoError(t, err)
	sb.Preserve("keep.txt")
	require.NoError(t, sb.ClearWorkspace(ctx))

	res, err := sb.Execute(ctx, Python, `import os; print(sorted(os.listdir(".")))`)
	require.NoError(t, err)
	require.Contains(t, res.Stdout, "keep.txt")
	require.NotContains(t, res.Stdout, "drop.txt")
}
