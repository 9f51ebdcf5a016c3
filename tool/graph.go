package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bioagentic/orchestrator/evigraph"
)

// AddToGraph wraps an evigraph.Manager's AddToGraph as a tool so an agent
// can record entities and relations it discovers during a run.
type AddToGraph struct {
	Manager *evigraph.Manager
}

func NewAddToGraph(m *evigraph.Manager) *AddToGraph { return &AddToGraph{Manager: m} }

func (t *AddToGraph) Name() string { return "add_to_graph" }

func (t *AddToGraph) Description() string {
	return "Record entities and relations discovered during research into the evidence graph. " +
		"Entities need a name and entity_type; relations need from, to, and type."
}

var addToGraphSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"entities": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"entity_type": {"type": "string"},
					"observations": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["name", "entity_type"]
			}
		},
		"relations": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"from": {"type": "string"},
					"to": {"type": "string"},
					"type": {"type": "string"}
				},
				"required": ["from", "to", "type"]
			}
		}
	}
}`)

func (t *AddToGraph) Schema() json.RawMessage { return addToGraphSchema }

func (t *AddToGraph) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var input map[string]any
	if err := json.Unmarshal(args, &input); err != nil {
		return "", fmt.Errorf("add_to_graph: invalid args: %w", err)
	}
	result := t.Manager.AddToGraph(input)
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("add_to_graph: encode result: %w", err)
	}
	return string(out), nil
}

// RetrieveFromGraph wraps SearchNodes/OpenNodes/TextOverview as a single
// read tool: a query string searches by substring match; an empty query
// with names set opens exactly those entities; an empty query and no
// names returns a full overview.
type RetrieveFromGraph struct {
	Manager *evigraph.Manager
}

func NewRetrieveFromGraph(m *evigraph.Manager) *RetrieveFromGraph {
	return &RetrieveFromGraph{Manager: m}
}

func (t *RetrieveFromGraph) Name() string { return "retrieve_from_graph" }

func (t *RetrieveFromGraph) Description() string {
	return "Read from the evidence graph: search by keyword, open specific named entities, " +
		"or get a full text overview when both query and names are omitted."
}

var retrieveFromGraphSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"query": {"type": "string"},
		"names": {"type": "array", "items": {"type": "string"}},
		"top_k": {"type": "integer"}
	}
}`)

func (t *RetrieveFromGraph) Schema() json.RawMessage { return retrieveFromGraphSchema }

type retrieveFromGraphArgs struct {
	Query string   `json:"query"`
	Names []string `json:"names"`
	TopK  int      `json:"top_k"`
}

func (t *RetrieveFromGraph) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var a retrieveFromGraphArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return "", fmt.Errorf("retrieve_from_graph: invalid args: %w", err)
		}
	}

	switch {
	case a.Query != "":
		topK := a.TopK
		if topK <= 0 {
			topK = 10
		}
		results := t.Manager.SearchNodes(a.Query, topK)
		out, err := json.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("retrieve_from_graph: encode results: %w", err)
		}
		return string(out), nil
	case len(a.Names) > 0:
		entities, relations := t.Manager.OpenNodes(a.Names)
		out, err := json.Marshal(map[string]any{"entities": entities, "relations": relations})
		if err != nil {
			return "", fmt.Errorf("retrieve_from_graph: encode nodes: %w", err)
		}
		return string(out), nil
	default:
		return t.Manager.TextOverview(evigraph.OverviewOptions{IncludeStatistics: true}), nil
	}
}
