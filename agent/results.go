// Package agent defines the public surface every agent personality in
// this module shares (register_workspace/generate/go/clear_workspace)
// and the ExecutionResults record Go's blocking call returns.
package agent

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
)

// ExecutionResults is the common record every agent's Go call produces.
// Subtypes of agent (the BFS/DFS researcher, the staged SLR/DocGen
// workflow) populate the extra fields relevant to their own topology and
// leave the rest at their zero value.
type ExecutionResults struct {
	MessageHistory       []modelgw.Message    `json:"message_history"`
	CodeExecutionResults []sandbox.ExecResult `json:"code_execution_results,omitempty"`
	FinalResponse        string               `json:"final_response"`

	TotalInputTokens  int `json:"total_input_tokens,omitempty"`
	TotalOutputTokens int `json:"total_output_tokens,omitempty"`

	EvidenceGraphData string   `json:"evidence_graph_data,omitempty"`
	CompletedSections []string `json:"completed_sections,omitempty"`
	FinalDocument     string   `json:"final_document,omitempty"`
	IdentifiedPubmed  []string `json:"identified_pubmed,omitempty"`
	IdentifiedCTGov   []string `json:"identified_ctgov,omitempty"`
	IncludedStudies   []string `json:"included_studies,omitempty"`
	FinalReport       string   `json:"final_report,omitempty"`

	// Sandbox is the live container handle this run executed against, if
	// any. It is intentionally excluded from JSON: a container isn't a
	// serializable fact about the run, it's a resource the caller may
	// still want to keep using (e.g. to call ClearWorkspace) or must
	// remember to Stop.
	Sandbox *sandbox.Sandbox `json:"-"`
}

// ToJSON renders r as indented JSON. If path is non-empty, it also writes
// the result to that file. PDF/HTML rendering of a final document is out
// of scope for this module.
func (r *ExecutionResults) ToJSON(path string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("agent: marshal execution results: %w", err)
	}
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("agent: write execution results to %s: %w", path, err)
		}
	}
	return string(data), nil
}
