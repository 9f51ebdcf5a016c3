// Command bioagent runs one of this module's agent topologies against a
// single query and prints (and optionally saves) its ExecutionResults.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/bioagentic/orchestrator/agent"
	"github.com/bioagentic/orchestrator/agent/bfsdfs"
	"github.com/bioagentic/orchestrator/agent/dswizard"
	"github.com/bioagentic/orchestrator/agent/react"
	"github.com/bioagentic/orchestrator/agent/staged"
	"github.com/bioagentic/orchestrator/config"
	"github.com/bioagentic/orchestrator/evigraph"
	golog "github.com/bioagentic/orchestrator/log"
	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/sandbox"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	fieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	topology := flag.String("agent", "react", "topology to run: bfsdfs | react | dswizard | slr | docgen")
	query := flag.String("query", "", "the question or task to run the agent against")
	provider := flag.String("provider", "anthropic", "model provider: anthropic | openai | azure | google")
	model := flag.String("model", "", "model name (provider-specific)")
	apiKey := flag.String("api-key", "", "provider API key (required; not read from the environment)")
	endpoint := flag.String("endpoint", "", "API endpoint (required for azure)")
	envFile := flag.String("env", "", "path to a .env file (defaults to ./.env if present)")
	sandboxImage := flag.String("sandbox-image", "", "Docker image or container ID to run code in; omit to run without a sandbox")
	scope := flag.String("scope", "default", "evidence-graph scope (bfsdfs only)")
	cacheDir := flag.String("cache-dir", ".bioagent-cache", "evidence-graph cache directory (bfsdfs only)")
	templateFile := flag.String("template", "", "path to a JSON []staged.Section template file (docgen only)")
	metaAnalysis := flag.Bool("meta-analysis", false, "pool effect sizes across included studies in the synthesis stage (slr only)")
	output := flag.String("output", "", "path to write the run's ExecutionResults as JSON")
	htmlOutput := flag.String("html-output", "", "path to render the run's final document/report as sanitized HTML (docgen/slr only)")
	logLevel := flag.String("log-level", "info", "debug | info | warn | error | none")
	flag.Parse()

	setLogLevel(*logLevel)

	if *query == "" {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: -query is required"))
		os.Exit(2)
	}

	budgets := config.Load(*envFile)
	cfg := modelgw.ProviderConfig{Provider: *provider, APIKey: *apiKey, Model: *model, Endpoint: *endpoint}
	policy := modelgw.RetryPolicy{
		MaxAttempts:    budgets.MaxRetries,
		MinWait:        budgets.MinWait,
		MaxWait:        budgets.MaxWait,
		AttemptTimeout: budgets.LLMTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		golog.Warn("bioagent: received shutdown signal, cancelling run")
		cancel()
	}()
	defer cancel()

	var sb *sandbox.Sandbox
	if *sandboxImage != "" {
		var err error
		sb, err = sandbox.New(ctx, *sandboxImage)
		if err != nil {
			golog.Warn("bioagent: sandbox unavailable, continuing in degraded mode: %v", err)
			sb = nil
		}
	}

	results, err := runTopology(ctx, *topology, cfg, policy, budgets, sb, *query, *scope, *cacheDir, *templateFile, *metaAnalysis)
	if results != nil && results.Sandbox != nil {
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			if stopErr := results.Sandbox.Stop(stopCtx); stopErr != nil {
				golog.Warn("bioagent: sandbox teardown: %v", stopErr)
			}
		}()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("bioagent: %v", err)))
		os.Exit(1)
	}

	printSummary(*topology, results)

	if *output != "" {
		if _, err := results.ToJSON(*output); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("bioagent: write output: %v", err)))
			os.Exit(1)
		}
		fmt.Println(fieldStyle.Render("results written to " + *output))
	}

	if *htmlOutput != "" {
		if err := writeSanitizedHTML(finalDocumentOf(results), *htmlOutput); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("bioagent: render html: %v", err)))
			os.Exit(1)
		}
		fmt.Println(fieldStyle.Render("html rendered to " + *htmlOutput))
	}
}

func runTopology(ctx context.Context, topology string, cfg modelgw.ProviderConfig, policy modelgw.RetryPolicy,
	budgets config.Budgets, sb *sandbox.Sandbox, query, scope, cacheDir, templateFile string, metaAnalysis bool,
) (*agent.ExecutionResults, error) {
	switch topology {
	case "bfsdfs":
		manager, err := evigraph.GetManager(scope, cacheDir)
		if err != nil {
			return nil, fmt.Errorf("evidence graph manager: %w", err)
		}
		a, err := bfsdfs.New(cfg, policy, budgets, sb, manager)
		if err != nil {
			return nil, err
		}
		return a.Go(ctx, query)

	case "react":
		a, err := react.New(cfg, policy, budgets, sb)
		if err != nil {
			return nil, err
		}
		return a.Go(ctx, query)

	case "dswizard":
		a, err := dswizard.New(cfg, policy, budgets, sb)
		if err != nil {
			return nil, err
		}
		return a.Go(ctx, query)

	case "slr":
		a, err := staged.NewSLR(cfg, policy, budgets, sb)
		if err != nil {
			return nil, err
		}
		return runSLR(ctx, a, query, metaAnalysis)

	case "docgen":
		sections, err := loadTemplate(templateFile)
		if err != nil {
			return nil, err
		}
		a, err := staged.NewDocGen(cfg, policy, budgets, sb, sections)
		if err != nil {
			return nil, err
		}
		return a.Go(ctx, query)

	default:
		return nil, fmt.Errorf("unknown -agent %q (want bfsdfs, react, dswizard, slr, or docgen)", topology)
	}
}

// runSLR seeds MetaAnalysis before the run, since staged.NewSLR's
// newState closure has no flag argument of its own to carry it — the
// CLI is the only caller that needs to set it per invocation rather than
// per budgets.
func runSLR(ctx context.Context, a *agent.Agent[staged.SLRState], query string, metaAnalysis bool) (*agent.ExecutionResults, error) {
	baseNewState := a.NewState
	a.NewState = func(q string) staged.SLRState {
		s := baseNewState(q)
		s.MetaAnalysis = metaAnalysis
		return s
	}
	return a.Go(ctx, query)
}

func loadTemplate(path string) ([]staged.Section, error) {
	if path == "" {
		return nil, fmt.Errorf("-template is required for -agent=docgen")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	var sections []staged.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("template %s defines no sections", path)
	}
	return sections, nil
}

func finalDocumentOf(r *agent.ExecutionResults) string {
	if r.FinalDocument != "" {
		return r.FinalDocument
	}
	return r.FinalReport
}

func writeSanitizedHTML(markdownText, path string) error {
	if strings.TrimSpace(markdownText) == "" {
		return fmt.Errorf("nothing to render: run produced no final document or report")
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(markdownText))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	rendered := markdown.Render(doc, renderer)

	sanitized := bluemonday.UGCPolicy().SanitizeBytes(rendered)
	return os.WriteFile(path, sanitized, 0o644)
}

func printSummary(topology string, r *agent.ExecutionResults) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("=== %s run complete ===", topology)))
	fmt.Printf("%s %d\n", fieldStyle.Render("messages:"), len(r.MessageHistory))
	fmt.Printf("%s %d in / %d out\n", fieldStyle.Render("tokens:"), r.TotalInputTokens, r.TotalOutputTokens)
	if len(r.CodeExecutionResults) > 0 {
		fmt.Printf("%s %d\n", fieldStyle.Render("code executions:"), len(r.CodeExecutionResults))
	}
	if len(r.IdentifiedPubmed) > 0 || len(r.IdentifiedCTGov) > 0 {
		fmt.Printf("%s %d pubmed, %d ctgov\n", fieldStyle.Render("identified studies:"), len(r.IdentifiedPubmed), len(r.IdentifiedCTGov))
	}
	if len(r.IncludedStudies) > 0 {
		fmt.Printf("%s %d\n", fieldStyle.Render("included studies:"), len(r.IncludedStudies))
	}
	if len(r.CompletedSections) > 0 {
		fmt.Printf("%s %d\n", fieldStyle.Render("completed sections:"), len(r.CompletedSections))
	}
	fmt.Println()
	fmt.Println(r.FinalResponse)
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		golog.SetLogLevel(golog.LogLevelDebug)
	case "info":
		golog.SetLogLevel(golog.LogLevelInfo)
	case "warn":
		golog.SetLogLevel(golog.LogLevelWarn)
	case "error":
		golog.SetLogLevel(golog.LogLevelError)
	case "none":
		golog.SetLogLevel(golog.LogLevelNone)
	default:
		golog.Warn("bioagent: unknown -log-level %q, using info", level)
	}
}
