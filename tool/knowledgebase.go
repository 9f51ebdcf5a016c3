package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// aggregateTool is a "unified search" knowledge-base tool covering the
// gene/disease/drug/variant rows: one canonical name fronting several of
// this package's single-source REST clients, querying each in turn and
// concatenating their rendered text under a labeled heading so a model
// sees every source it aggregates over without having to call each one
// individually.
type aggregateTool struct {
	name        string
	description string
	schema      json.RawMessage
	sources     []namedSource
}

type namedSource struct {
	label string
	tool  Tool
}

func (t *aggregateTool) Name() string           { return t.name }
func (t *aggregateTool) Description() string    { return t.description }
func (t *aggregateTool) Schema() json.RawMessage { return t.schema }

func (t *aggregateTool) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var sb strings.Builder
	gotAny := false
	for _, src := range t.sources {
		out, err := src.tool.Run(ctx, args)
		if err != nil {
			fmt.Fprintf(&sb, "== %s ==\n(unavailable: %v)\n\n", src.label, err)
			continue
		}
		gotAny = true
		fmt.Fprintf(&sb, "== %s ==\n%s\n\n", src.label, out)
	}
	if !gotAny {
		return "", fmt.Errorf("%s: no underlying source returned data", t.name)
	}
	return sb.String(), nil
}

// NewGeneSearch aggregates KEGG gene/pathway lookups with Open Targets'
// target search under the canonical "gene" knowledge base name.
func NewGeneSearch() *aggregateTool {
	return &aggregateTool{
		name:        "gene",
		description: "Unified gene search across KEGG (pathways, interactions) and Open Targets (target associations).",
		schema:      restToolSchema,
		sources: []namedSource{
			{label: "KEGG", tool: NewKEGGSearch()},
			{label: "Open Targets", tool: NewOpenTargetsSearch()},
		},
	}
}

// NewDiseaseSearch fronts Open Targets' disease search under the
// canonical "disease" knowledge base name.
func NewDiseaseSearch() *aggregateTool {
	return &aggregateTool{
		name:        "disease",
		description: "Unified disease search over Open Targets' disease and target-disease association data.",
		schema:      restToolSchema,
		sources: []namedSource{
			{label: "Open Targets", tool: NewOpenTargetsSearch()},
		},
	}
}

// NewDrugSearch aggregates PubChem, ChEMBL, and openFDA under the
// canonical "drug" knowledge base name.
func NewDrugSearch() *aggregateTool {
	return &aggregateTool{
		name:        "drug",
		description: "Unified drug search across PubChem (structure/properties), ChEMBL (bioactivity), and openFDA (labeling).",
		schema:      restToolSchema,
		sources: []namedSource{
			{label: "PubChem", tool: NewPubChemSearch()},
			{label: "ChEMBL", tool: NewChEMBLSearch()},
			{label: "openFDA", tool: NewOpenFDASearch()},
		},
	}
}

// NewVariantSearch fronts UMLS Metathesaurus concept search under the
// canonical "variant" knowledge base name. UMLS access requires
// UMLS_API_KEY; if it is unset this returns an error rather than a
// partially-working tool, since there is no fallback source for variant
// terminology in this package.
func NewVariantSearch() (*aggregateTool, error) {
	umls, err := NewUMLSSearch()
	if err != nil {
		return nil, fmt.Errorf("variant: %w", err)
	}
	return &aggregateTool{
		name:        "variant",
		description: "Unified variant/concept search over the UMLS Metathesaurus.",
		schema:      restToolSchema,
		sources: []namedSource{
			{label: "UMLS", tool: umls},
		},
	}, nil
}
