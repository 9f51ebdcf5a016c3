package graph

import (
	"context"
	"fmt"
)

// DefaultRecursionLimit bounds the number of node executions in a single
// run when the caller does not supply a Config. It exists to turn an
// accidental routing cycle into a returned error instead of a hang.
const DefaultRecursionLimit = 25

// StreamMode selects what Stream puts in each Snapshot.State.
type StreamMode int

const (
	// StreamValues emits the full accumulated state after each node.
	StreamValues StreamMode = iota
	// StreamUpdates emits only the partial value the node returned, before
	// it was merged into the running state.
	StreamUpdates
)

// Config controls a single Invoke or Stream call.
type Config struct {
	// RecursionLimit caps the number of node executions before the run
	// aborts with ErrRecursionLimit. Zero means DefaultRecursionLimit.
	RecursionLimit int
	// StreamMode selects Snapshot content for Stream; ignored by Invoke.
	StreamMode StreamMode
}

func (c *Config) recursionLimit() int {
	if c == nil || c.RecursionLimit <= 0 {
		return DefaultRecursionLimit
	}
	return c.RecursionLimit
}

// StateRunnable is a compiled, immutable graph ready to execute. It holds
// no per-run mutable state, so a single StateRunnable may be invoked
// concurrently from multiple goroutines as long as its NodeFuncs are
// themselves safe for concurrent use.
type StateRunnable[S any] struct {
	graph  *StateGraph[S]
	schema Merger[S]
}

// Invoke runs the graph from its entry point to completion, returning the
// final accumulated state. Execution is sequential: exactly one node is
// "current" at any moment, matching the single-threaded, cooperative
// execution model a single agent invocation runs under. A node that
// returns an error stops the run immediately; Invoke never retries.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initial S) (S, error) {
	return r.InvokeWithConfig(ctx, initial, nil)
}

// InvokeWithConfig is Invoke with an explicit Config.
func (r *StateRunnable[S]) InvokeWithConfig(ctx context.Context, initial S, cfg *Config) (S, error) {
	state := initial
	current := r.graph.entryPoint
	limit := cfg.recursionLimit()

	for steps := 0; ; steps++ {
		if current == END {
			return state, nil
		}
		if steps >= limit {
			var zero S
			return zero, fmt.Errorf("%w: after %d steps", ErrRecursionLimit, steps)
		}
		if err := ctx.Err(); err != nil {
			var zero S
			return zero, err
		}

		n, ok := r.graph.nodes[current]
		if !ok {
			var zero S
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		update, err := runNode(ctx, n, state)
		if err != nil {
			var zero S
			return zero, fmt.Errorf("graph: node %q: %w", current, err)
		}
		state = r.schema.Merge(state, update)

		next, err := r.next(ctx, current, state)
		if err != nil {
			var zero S
			return zero, err
		}
		current = next
	}
}

// runNode invokes a node's function, recovering a panic into an error so a
// single misbehaving node cannot take down the process running the graph.
// A recovered panic is handled identically to any other node error: it
// propagates out of Invoke/Stream, the graph performs no retry.
func runNode[S any](ctx context.Context, n *node[S], state S) (update S, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero S
			update = zero
			err = fmt.Errorf("graph: node %q panicked: %v", n.name, rec)
		}
	}()
	return n.fn(ctx, state)
}

func (r *StateRunnable[S]) next(ctx context.Context, current string, state S) (string, error) {
	if c, ok := r.graph.conditionals[current]; ok {
		label, err := c.router(ctx, state)
		if err != nil {
			return "", fmt.Errorf("graph: router after %q: %w", current, err)
		}
		to, ok := c.pathMap[label]
		if !ok {
			return "", fmt.Errorf("graph: router after %q returned unmapped label %q", current, label)
		}
		return to, nil
	}
	if to, ok := r.graph.edges[current]; ok {
		return to, nil
	}
	// No outgoing edge declared: treat as an implicit end, mirroring a
	// graph that simply stops producing transitions.
	return END, nil
}

// Snapshot is one step's output, emitted by Stream after the node that
// produced it has run and been merged into the running state.
type Snapshot[S any] struct {
	Node  string
	State S
	Err   error
}

// Stream runs the graph like Invoke but emits a Snapshot after every node,
// closing the channel when the run reaches END or fails. The final
// Snapshot on an aborted run carries the error in Err. Callers that only
// want the end result can drain the channel and take the last value,
// equivalent to Invoke.
func (r *StateRunnable[S]) Stream(ctx context.Context, initial S, cfg *Config) <-chan Snapshot[S] {
	out := make(chan Snapshot[S])
	go func() {
		defer close(out)
		state := initial
		current := r.graph.entryPoint
		limit := cfg.recursionLimit()

		for steps := 0; ; steps++ {
			if current == END {
				return
			}
			if steps >= limit {
				out <- Snapshot[S]{State: state, Err: fmt.Errorf("%w: after %d steps", ErrRecursionLimit, steps)}
				return
			}
			if err := ctx.Err(); err != nil {
				out <- Snapshot[S]{State: state, Err: err}
				return
			}

			n, ok := r.graph.nodes[current]
			if !ok {
				out <- Snapshot[S]{State: state, Err: fmt.Errorf("%w: %s", ErrNodeNotFound, current)}
				return
			}

			update, err := runNode(ctx, n, state)
			if err != nil {
				out <- Snapshot[S]{Node: current, State: state, Err: fmt.Errorf("graph: node %q: %w", current, err)}
				return
			}
			state = r.schema.Merge(state, update)

			emitted := state
			if cfg != nil && cfg.StreamMode == StreamUpdates {
				emitted = update
			}
			select {
			case out <- Snapshot[S]{Node: current, State: emitted}:
			case <-ctx.Done():
				return
			}

			next, err := r.next(ctx, current, state)
			if err != nil {
				out <- Snapshot[S]{Node: current, State: state, Err: err}
				return
			}
			current = next
		}
	}()
	return out
}

// AsSubgraphNode wraps a compiled sub-runnable as a NodeFunc usable in a
// parent graph of a different state type. The parent sees one node; the
// sub-runnable's own steps never appear in the parent's Stream output
// unless the caller separately streams the sub-runnable itself. mapIn
// projects parent state onto the sub-runnable's initial state; mapOut
// folds the sub-runnable's final state back into a parent-shaped update.
func AsSubgraphNode[P any, C any](sub *StateRunnable[C], mapIn func(P) C, mapOut func(P, C) P) NodeFunc[P] {
	return func(ctx context.Context, parent P) (P, error) {
		childInitial := mapIn(parent)
		childFinal, err := sub.Invoke(ctx, childInitial)
		if err != nil {
			var zero P
			return zero, err
		}
		return mapOut(parent, childFinal), nil
	}
}
