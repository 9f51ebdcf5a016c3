// Package tool implements the tool-calling surface agents dispatch
// against: a common Tool interface, a Dispatch function that turns a
// model's tool-call requests into ToolMessage results without ever
// panicking out of the call, and the concrete tools themselves (sandbox
// code execution, evidence-graph read/write, web search, and a set of
// biomedical database clients).
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bioagentic/orchestrator/modelgw"

	golog "github.com/bioagentic/orchestrator/log"
)

// Tool is anything an agent can invoke by name with JSON-encoded
// arguments and get back text.
type Tool interface {
	Name() string
	Description() string
	// Schema is the JSON Schema for Run's args, advertised to a model
	// provider alongside Name/Description.
	Schema() json.RawMessage
	Run(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry is a name-indexed set of tools available to one agent.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a Registry from a set of tools, keyed by their own
// Name(). A later tool with a name already present overwrites the
// earlier one.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Schemas returns the ToolSchema list modelgw.Request expects, in
// registration order... Go maps have no order, so this returns whatever
// order ranging the map produces; callers that need a stable order should
// sort by name.
func (r *Registry) Schemas() []modelgw.ToolSchema {
	out := make([]modelgw.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, modelgw.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		})
	}
	return out
}

// Dispatch runs every tool call attached to lastAssistant and returns one
// ToolMessage per call, in the same order. A tool that is unknown or that
// returns an error produces a ToolMessage whose content describes the
// failure instead of aborting the batch — a single bad tool call must
// never stop the other calls in the same assistant turn from running.
func (r *Registry) Dispatch(ctx context.Context, lastAssistant modelgw.Message) []modelgw.Message {
	results := make([]modelgw.Message, 0, len(lastAssistant.ToolCalls))
	for _, call := range lastAssistant.ToolCalls {
		results = append(results, r.dispatchOne(ctx, call))
	}
	return results
}

func (r *Registry) dispatchOne(ctx context.Context, call modelgw.ToolCall) modelgw.Message {
	content := r.runOne(ctx, call)
	msg := modelgw.Message{ToolCallID: call.ID}
	msg.Role = modelgw.RoleTool
	msg.Content = content
	return msg
}

// runOne recovers a panicking tool implementation into an error string:
// a buggy third-party tool must degrade to a visible failure, not take
// down the whole dispatch batch.
func (r *Registry) runOne(ctx context.Context, call modelgw.ToolCall) (result string) {
	defer func() {
		if p := recover(); p != nil {
			golog.Error("tool: %s panicked: %v", call.Name, p)
			result = fmt.Sprintf("Error executing tool %s: %v", call.Name, p)
		}
	}()

	t, ok := r.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Error executing tool %s: not registered", call.Name)
	}
	out, err := t.Run(ctx, call.Args)
	if err != nil {
		golog.Warn("tool: %s returned error: %v", call.Name, err)
		return fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
	}
	return out
}
