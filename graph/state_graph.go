package graph

import (
	"context"
	"fmt"
)

// NodeFunc is a single step of a run. It receives the state accumulated so
// far and returns a partial update that the compiled graph's schema merges
// into it. A returned error aborts the run; it is never retried or
// swallowed by the executor.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc inspects state after a node has run and returns the label of
// the outgoing conditional edge to follow.
type RouterFunc[S any] func(ctx context.Context, state S) (string, error)

type node[S any] struct {
	name        string
	description string
	fn          NodeFunc[S]
}

type conditional[S any] struct {
	router  RouterFunc[S]
	pathMap map[string]string
}

// Merger merges a node's partial return value into accumulated state. A
// *StructSchema[S] satisfies this; callers may also supply their own.
type Merger[S any] interface {
	Merge(current, update S) S
}

// StateGraph builds a node/edge topology over a state type S. Call Compile
// once construction is done to obtain a runnable, immutable StateRunnable.
type StateGraph[S any] struct {
	nodes        map[string]*node[S]
	order        []string
	edges        map[string]string // unconditional: from -> to
	conditionals map[string]*conditional[S]
	entryPoint   string
	schema       Merger[S]
}

// NewStateGraph creates an empty graph over state type S.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:        make(map[string]*node[S]),
		edges:        make(map[string]string),
		conditionals: make(map[string]*conditional[S]),
	}
}

// SetSchema installs the merge strategy used to fold each node's return
// value into the running state. If never called, Compile derives one via
// NewStructSchema[S], which replaces every field unless it is tagged
// `merge:"append"` or `merge:"append-dedup"`.
func (g *StateGraph[S]) SetSchema(m Merger[S]) *StateGraph[S] {
	g.schema = m
	return g
}

// AddNode registers a named step. description is carried through for
// logging and visualization only.
func (g *StateGraph[S]) AddNode(name, description string, fn NodeFunc[S]) *StateGraph[S] {
	if _, exists := g.nodes[name]; exists {
		panic(fmt.Errorf("%w: %s", ErrDuplicateNode, name))
	}
	g.nodes[name] = &node[S]{name: name, description: description, fn: fn}
	g.order = append(g.order, name)
	return g
}

// AddEdge adds an unconditional transition. to may be graph.END.
func (g *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdge adds a router-driven transition from a node. The
// router's returned label is looked up in pathMap to find the next node;
// an unmapped label is a run-time error. A pathMap value of graph.END ends
// the run on that branch.
func (g *StateGraph[S]) AddConditionalEdge(from string, router RouterFunc[S], pathMap map[string]string) *StateGraph[S] {
	g.conditionals[from] = &conditional[S]{router: router, pathMap: pathMap}
	return g
}

// SetEntryPoint designates the first node a run executes.
func (g *StateGraph[S]) SetEntryPoint(name string) *StateGraph[S] {
	g.entryPoint = name
	return g
}

// Compile validates the topology and returns an immutable runnable.
// Construction errors (missing entry point, dangling edge references) are
// caught here rather than at Invoke time.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrNoEntryPoint
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %q", ErrNodeNotFound, g.entryPoint)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from)
		}
		if to != END {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("%w: edge target %q", ErrNodeNotFound, to)
			}
		}
	}
	for from, c := range g.conditionals {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %q", ErrNodeNotFound, from)
		}
		for label, to := range c.pathMap {
			if to != END {
				if _, ok := g.nodes[to]; !ok {
					return nil, fmt.Errorf("%w: conditional edge %q -> %q", ErrNodeNotFound, label, to)
				}
			}
		}
	}

	schema := g.schema
	if schema == nil {
		s, err := NewStructSchema[S]()
		if err != nil {
			return nil, fmt.Errorf("graph: no schema given and %w", err)
		}
		schema = s
	}

	return &StateRunnable[S]{graph: g, schema: schema}, nil
}
