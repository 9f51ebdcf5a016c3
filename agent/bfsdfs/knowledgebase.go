package bfsdfs

import (
	"fmt"

	"github.com/bioagentic/orchestrator/tool"

	golog "github.com/bioagentic/orchestrator/log"
)

// toolsForKnowledgeBase resolves one selected knowledge-base key to the
// tool(s) a sub-agent call should receive, per the knowledge-base → tool
// set map: pubmed_papers gets the PubMed client, clinicaltrials is kept
// as a deliberately empty extension point (the source system never wired
// a tool set to it even though a ClinicalTrials.gov client exists
// elsewhere in this package's sibling tools), gene_set gets the KEGG
// client, and gene/disease/drug/variant each get their unified
// aggregation tool. An unrecognized key logs a warning and contributes no
// tools rather than failing the whole call.
func toolsForKnowledgeBase(key string) []tool.Tool {
	switch key {
	case "pubmed_papers":
		return []tool.Tool{tool.NewPubMedSearch()}
	case "clinicaltrials":
		return nil
	case "gene_set":
		return []tool.Tool{tool.NewKEGGSearch()}
	case "gene":
		return []tool.Tool{tool.NewGeneSearch()}
	case "disease":
		return []tool.Tool{tool.NewDiseaseSearch()}
	case "drug":
		return []tool.Tool{tool.NewDrugSearch()}
	case "variant":
		variant, err := tool.NewVariantSearch()
		if err != nil {
			golog.Warn("bfsdfs: variant knowledge base unavailable: %v", err)
			return nil
		}
		return []tool.Tool{variant}
	default:
		golog.Warn("bfsdfs: unrecognized knowledge base %q", key)
		return nil
	}
}

// registryForKnowledgeBases builds the Registry a single BFS/DFS call's
// sub-agent dispatches against, from its selected knowledge bases.
func registryForKnowledgeBases(keys []string) *tool.Registry {
	var tools []tool.Tool
	for _, k := range keys {
		tools = append(tools, toolsForKnowledgeBase(k)...)
	}
	return tool.NewRegistry(tools...)
}

// systemPromptFragment renders the portion of the sub-agent's system
// prompt contributed by one selected knowledge base, so a sub-agent with
// several knowledge bases gets a prompt assembled from fragments rather
// than one generic paragraph.
func systemPromptFragment(key string) string {
	switch key {
	case "pubmed_papers":
		return "You can search PubMed for literature relevant to the target."
	case "clinicaltrials":
		return "Clinical trial lookup is not presently wired for this knowledge base."
	case "gene_set":
		return "You can look up genes and pathways via KEGG."
	case "gene":
		return "You can run a unified gene search across KEGG and Open Targets."
	case "disease":
		return "You can run a unified disease search via Open Targets."
	case "drug":
		return "You can run a unified drug search across PubChem, ChEMBL, and openFDA."
	case "variant":
		return "You can run a unified variant/concept search via UMLS."
	default:
		return fmt.Sprintf("Knowledge base %q is not recognized.", key)
	}
}
