package staged

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/graph"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
	"github.com/bioagentic/orchestrator/tool"
)

var (
	pmidPattern = regexp.MustCompile(`PMID:\s*(\d+)`)
	nctPattern  = regexp.MustCompile(`NCT\d+`)
)

// NewSLR builds the systematic-literature-review pipeline:
// search → screening → extraction → synthesis → finalize, each a
// mini-graph sharing the stage.go machinery.
func NewSLR(cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy, budgets config.Budgets, sb *sandbox.Sandbox) (*agent.Agent[SLRState], error) {
	searchRegistry := tool.NewRegistry(tool.NewPubMedSearch(), tool.NewClinicalTrialsSearch())
	noTools := tool.NewRegistry()

	g := graph.NewStateGraph[SLRState]()

	searchEntry, searchFinalize := addStage(g, cfg, policy, slrStage{
		name: "search",
		system: func(s SLRState) string {
			return fmt.Sprintf("You are running the literature search stage of a systematic review. "+
				"Search PubMed and ClinicalTrials.gov for studies relevant to: %q. "+
				"Results are capped at %d studies after deduplication.", s.Query, s.MaxSearchResults)
		},
		registry: func(SLRState) *tool.Registry { return searchRegistry },
		finalize: func(s SLRState, last modelgw.Message) SLRState {
			s.IdentifiedPubmed = capStrings(dedupStrings(append(append([]string{}, s.IdentifiedPubmed...), extractPMIDs(allToolContent(s.Messages))...)), s.MaxSearchResults)
			s.IdentifiedCTGov = capStrings(dedupStrings(append(append([]string{}, s.IdentifiedCTGov...), extractNCTIDs(allToolContent(s.Messages))...)), s.MaxSearchResults)
			return s
		},
	})

	screeningEntry, screeningFinalize := addStage(g, cfg, policy, slrStage{
		name: "screening",
		system: func(s SLRState) string {
			return fmt.Sprintf("You are running the screening stage. Generate eligibility criteria for the review question %q, "+
				"then score each of these identified studies against them: %s. "+
				"For every study you decide is eligible, emit one line \"INCLUDE: <identifier>\" "+
				"(at most %d total).", s.Query, strings.Join(append(s.IdentifiedPubmed, s.IdentifiedCTGov...), ", "), s.MaxStudiesToInclude)
		},
		registry: func(SLRState) *tool.Registry { return noTools },
		finalize: func(s SLRState, last modelgw.Message) SLRState {
			candidates := append(append([]string{}, s.IdentifiedPubmed...), s.IdentifiedCTGov...)
			s.IncludedStudies = capStrings(extractIncluded(last.Content, candidates), s.MaxStudiesToInclude)
			return s
		},
	})

	extractionEntry, extractionFinalize := addStage(g, cfg, policy, slrStage{
		name: "extraction",
		system: func(s SLRState) string {
			return fmt.Sprintf("You are running the data extraction stage. For each included study (%s), "+
				"extract the study design, population, intervention, comparator, and outcome fields you can "+
				"infer from the conversation so far, one paragraph per study.", strings.Join(s.IncludedStudies, ", "))
		},
		registry: func(SLRState) *tool.Registry { return noTools },
		finalize: func(s SLRState, last modelgw.Message) SLRState {
			s.Extractions = splitParagraphs(last.Content)
			return s
		},
	})

	synthesisEntry, synthesisFinalize := addStage(g, cfg, policy, slrStage{
		name: "synthesis",
		system: func(s SLRState) string {
			prompt := "You are running the evidence synthesis stage. Write a narrative synthesis of the " +
				"following per-study extractions:\n\n" + strings.Join(s.Extractions, "\n\n")
			if s.MetaAnalysis {
				prompt += "\n\nAlso pool effect sizes across studies where the reported outcome is comparable " +
					"and state the pooled estimate explicitly."
			}
			return prompt
		},
		registry: func(SLRState) *tool.Registry { return noTools },
		finalize: func(s SLRState, last modelgw.Message) SLRState {
			s.Synthesis = last.Content
			return s
		},
	})

	finalizeEntry, finalizeFinalize := addStage(g, cfg, policy, slrStage{
		name: "finalize",
		system: func(s SLRState) string {
			return "You are writing the final systematic review report. Combine the evidence synthesis below " +
				"into a complete report with clear sections.\n\n" + s.Synthesis
		},
		registry: func(SLRState) *tool.Registry { return noTools },
		finalize: func(s SLRState, last modelgw.Message) SLRState {
			s.FinalReport = last.Content
			s.Done = true
			return s
		},
	})

	g.AddEdge(searchFinalize, screeningEntry)
	g.AddEdge(screeningFinalize, extractionEntry)
	g.AddEdge(extractionFinalize, synthesisEntry)
	g.AddEdge(synthesisFinalize, finalizeEntry)
	g.AddEdge(finalizeFinalize, graph.END)
	g.SetEntryPoint(searchEntry)
	g.SetSchema(slrMerger{})

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("staged: compile SLR graph: %w", err)
	}

	newState := func(query string) SLRState {
		return SLRState{
			BaseState:           agent.BaseState{Query: query},
			MaxSearchResults:    budgets.MaxSearchResults,
			MaxStudiesToScreen:  budgets.MaxStudiesToScreen,
			MaxStudiesToInclude: budgets.MaxStudiesToInclude,
		}
	}

	toResults := func(final SLRState) agent.ExecutionResults {
		return agent.ExecutionResults{
			MessageHistory:    final.Messages,
			TotalInputTokens:  final.TotalInputTokens,
			TotalOutputTokens: final.TotalOutputTokens,
			IdentifiedPubmed:  final.IdentifiedPubmed,
			IdentifiedCTGov:   final.IdentifiedCTGov,
			IncludedStudies:   final.IncludedStudies,
			FinalReport:       final.FinalReport,
			FinalResponse:     final.FinalReport,
		}
	}

	return agent.New(runnable, sb, budgets.SLRRecursionLimit, newState, toResults), nil
}

func allToolContent(messages []modelgw.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Role == modelgw.RoleTool {
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func extractPMIDs(text string) []string {
	matches := pmidPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, "PMID:"+m[1])
	}
	return out
}

func extractNCTIDs(text string) []string {
	return dedupStrings(nctPattern.FindAllString(text, -1))
}

func extractIncluded(text string, candidates []string) []string {
	included := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "INCLUDE:") {
			continue
		}
		id := strings.TrimSpace(strings.TrimPrefix(line, "INCLUDE:"))
		for _, c := range candidates {
			if c == id {
				included = append(included, id)
				break
			}
		}
	}
	return dedupStrings(included)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func capStrings(in []string, max int) []string {
	if max > 0 && len(in) > max {
		return in[:max]
	}
	return in
}
