package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/sandbox"

	golog "github.com/bioagentic/orchestrator/log"
)

// companionModuleSource is the fixed asset packed into the container's
// site-packages when RegisterWorkspace is asked to install tools — just
// enough for executed code to `import bioagent_tools` and find the
// workspace/evidence-graph paths an execution expects, without this
// module needing to ship a real Python package.
const companionModuleSource = `"""Runtime helpers available to code executed inside the sandbox."""

WORKSPACE = "/workdir"
`

const companionModuleName = "bioagent_tools.py"

// Agent is the public surface every personality in this module shares:
// RegisterWorkspace, Generate (streaming), Go (blocking), ClearWorkspace.
// S is the agent's own state type; ToResults projects a finished run's
// state into an ExecutionResults.
type Agent[S any] struct {
	Runnable       *graph.StateRunnable[S]
	Sandbox        *sandbox.Sandbox
	RecursionLimit int

	NewState  func(query string) S
	ToResults func(final S) ExecutionResults
}

// New builds an Agent around a compiled graph. sb may be nil: a
// degraded-mode agent still runs, it just can't service RegisterWorkspace
// or any tool that needs a container.
func New[S any](runnable *graph.StateRunnable[S], sb *sandbox.Sandbox, recursionLimit int,
	newState func(string) S, toResults func(S) ExecutionResults) *Agent[S] {
	return &Agent[S]{
		Runnable:       runnable,
		Sandbox:        sb,
		RecursionLimit: recursionLimit,
		NewState:       newState,
		ToResults:      toResults,
	}
}

// RegisterWorkspace uploads every *.csv file in localDir into the sandbox
// workspace, marking each preserved so a later ClearWorkspace (or a
// between-task cleanup) keeps them, and — when installTools is true —
// installs a companion module into the interpreter's site-packages so
// executed code can import it.
func (a *Agent[S]) RegisterWorkspace(ctx context.Context, localDir string, installTools bool) error {
	if a.Sandbox == nil {
		return fmt.Errorf("agent: register_workspace: sandbox is unavailable in this run")
	}

	if localDir != "" {
		entries, err := os.ReadDir(localDir)
		if err != nil {
			return fmt.Errorf("agent: register_workspace: read %s: %w", localDir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				continue
			}
			hostPath := filepath.Join(localDir, e.Name())
			if err := a.Sandbox.Upload(ctx, hostPath); err != nil {
				return fmt.Errorf("agent: register_workspace: upload %s: %w", hostPath, err)
			}
			a.Sandbox.Preserve(e.Name())
		}
	}

	if installTools {
		siteDir, err := a.Sandbox.SitePackagesDir(ctx)
		if err != nil {
			return fmt.Errorf("agent: register_workspace: install tools: %w", err)
		}
		dest := siteDir + "/" + companionModuleName
		if err := a.Sandbox.WriteFile(ctx, dest, []byte(companionModuleSource)); err != nil {
			return fmt.Errorf("agent: register_workspace: install tools: %w", err)
		}
	}

	return nil
}

// Generate streams state snapshots for one run, in the shape
// graph.StateRunnable.Stream already provides.
func (a *Agent[S]) Generate(ctx context.Context, query string) (<-chan graph.Snapshot[S], error) {
	if a.Runnable == nil {
		return nil, fmt.Errorf("agent: generate: no compiled graph")
	}
	initial := a.NewState(query)
	cfg := &graph.Config{RecursionLimit: a.RecursionLimit, StreamMode: graph.StreamValues}
	return a.Runnable.Stream(ctx, initial, cfg), nil
}

// Go runs to completion and returns the final ExecutionResults.
func (a *Agent[S]) Go(ctx context.Context, query string) (*ExecutionResults, error) {
	if a.Runnable == nil {
		return nil, fmt.Errorf("agent: go: no compiled graph")
	}
	initial := a.NewState(query)
	cfg := &graph.Config{RecursionLimit: a.RecursionLimit}
	final, err := a.Runnable.InvokeWithConfig(ctx, initial, cfg)
	if err != nil {
		return nil, err
	}
	results := a.ToResults(final)
	results.Sandbox = a.Sandbox
	return &results, nil
}

// ClearWorkspace tears down the sandbox, if one is attached. A
// degraded-mode agent (nil Sandbox) treats this as a no-op rather than an
// error, since there is nothing to tear down.
func (a *Agent[S]) ClearWorkspace(ctx context.Context) error {
	if a.Sandbox == nil {
		return nil
	}
	if err := a.Sandbox.Stop(ctx); err != nil {
		golog.Warn("agent: clear_workspace: %v", err)
		return err
	}
	return nil
}
