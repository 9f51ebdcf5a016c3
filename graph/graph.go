// Package graph implements a small state-machine graph executor in the
// style of LangGraph: nodes are plain functions over a shared state type,
// edges route control flow between them, and the compiled graph is invoked
// or streamed to completion.
//
// Unlike the general-purpose executor this package grew from, the executor
// here is deliberately single-threaded and has no node-level retry or
// checkpointing: a node that returns an error propagates it out of Invoke
// unchanged, and restart behavior is the caller's concern, not the graph's.
package graph

import "errors"

// END is the sentinel node name that terminates a run when reached as the
// target of an edge or the result of a conditional router.
const END = "END"

// Sentinel errors returned by graph construction and execution.
var (
	// ErrNoEntryPoint is returned by Compile when SetEntryPoint was never called.
	ErrNoEntryPoint = errors.New("graph: no entry point set")
	// ErrNodeNotFound is returned when an edge or entry point references an
	// unregistered node name.
	ErrNodeNotFound = errors.New("graph: node not found")
	// ErrDuplicateNode is returned by AddNode when the name is already registered.
	ErrDuplicateNode = errors.New("graph: duplicate node name")
	// ErrRecursionLimit is returned by Invoke/Stream when a run exceeds its
	// configured step budget without reaching END.
	ErrRecursionLimit = errors.New("graph: recursion limit exceeded")
)

// Edge is an unconditional transition from one node to another.
type Edge struct {
	From string
	To   string
}
