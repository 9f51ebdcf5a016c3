// Package config holds the runtime-tunable numbers every agent topology
// reads from: retry budgets, round/action budgets, compaction thresholds,
// and recursion limits. Values load from a local .env file (if present)
// and the process environment, with the documented defaults as a
// fallback — there is no dedicated flags/config library in the example
// corpus that rises above `flag` + `godotenv` + hand-rolled env parsing
// for a flat set of numeric knobs like this one, so this layer stays
// intentionally small.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	golog "github.com/bioagentic/orchestrator/log"
)

// Budgets holds every numeral a topology consults to bound retries,
// rounds, tokens, and recursion.
type Budgets struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
	LLMTimeout time.Duration // zero means no deadline

	MainSearchRoundsBudget   int
	MainActionRoundsBudget   int
	SubagentActionRoundsBudget int

	TokenThreshold  int
	SummarizerModel string

	MaxSearchResults        int
	MaxStudiesToScreen      int
	MaxStudiesToInclude     int
	MaxIterationsPerSection int

	ReactRecursionLimit       int
	OrchestratorRecursionLimit int
	SLRRecursionLimit         int
}

// subagentActionRoundsBudgetFloor is the minimum a caller-supplied
// SubagentActionRoundsBudget is clamped to, per spec's Open Questions
// decision that a sub-agent needs at least this many rounds to make any
// forward progress at all.
const subagentActionRoundsBudgetFloor = 3

// Defaults returns the documented default Budgets.
func Defaults() Budgets {
	return Budgets{
		MaxRetries: 5,
		MinWait:    1 * time.Second,
		MaxWait:    30 * time.Second,
		LLMTimeout: 0,

		MainSearchRoundsBudget:     5,
		MainActionRoundsBudget:     20,
		SubagentActionRoundsBudget: 5,

		TokenThreshold:  80_000,
		SummarizerModel: "",

		MaxSearchResults:        50,
		MaxStudiesToScreen:      200,
		MaxStudiesToInclude:     50,
		MaxIterationsPerSection: 3,

		ReactRecursionLimit:        20,
		OrchestratorRecursionLimit: 100,
		SLRRecursionLimit:          50,
	}
}

// Load builds a Budgets from Defaults(), an optional .env file, and the
// process environment (which takes precedence over .env, which takes
// precedence over defaults). A missing .env file is not an error —
// environment variables may simply be set externally.
func Load(envPath string) Budgets {
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil {
		golog.Debug("config: no .env file at %s, using process environment", envPath)
	}

	b := Defaults()
	b.MaxRetries = envInt("BIOAGENT_MAX_RETRIES", b.MaxRetries)
	b.MinWait = envDuration("BIOAGENT_MIN_WAIT", b.MinWait)
	b.MaxWait = envDuration("BIOAGENT_MAX_WAIT", b.MaxWait)
	b.LLMTimeout = envDuration("BIOAGENT_LLM_TIMEOUT", b.LLMTimeout)

	b.MainSearchRoundsBudget = envInt("BIOAGENT_MAIN_SEARCH_ROUNDS_BUDGET", b.MainSearchRoundsBudget)
	b.MainActionRoundsBudget = envInt("BIOAGENT_MAIN_ACTION_ROUNDS_BUDGET", b.MainActionRoundsBudget)
	b.SubagentActionRoundsBudget = envInt("BIOAGENT_SUBAGENT_ACTION_ROUNDS_BUDGET", b.SubagentActionRoundsBudget)
	if b.SubagentActionRoundsBudget < subagentActionRoundsBudgetFloor {
		b.SubagentActionRoundsBudget = subagentActionRoundsBudgetFloor
	}

	b.TokenThreshold = envInt("BIOAGENT_TOKEN_THRESHOLD", b.TokenThreshold)
	b.SummarizerModel = envString("BIOAGENT_SUMMARIZER_MODEL", b.SummarizerModel)

	b.MaxSearchResults = envInt("BIOAGENT_MAX_SEARCH_RESULTS", b.MaxSearchResults)
	b.MaxStudiesToScreen = envInt("BIOAGENT_MAX_STUDIES_TO_SCREEN", b.MaxStudiesToScreen)
	b.MaxStudiesToInclude = envInt("BIOAGENT_MAX_STUDIES_TO_INCLUDE", b.MaxStudiesToInclude)
	b.MaxIterationsPerSection = envInt("BIOAGENT_MAX_ITERATIONS_PER_SECTION", b.MaxIterationsPerSection)

	b.ReactRecursionLimit = envInt("BIOAGENT_REACT_RECURSION_LIMIT", b.ReactRecursionLimit)
	b.OrchestratorRecursionLimit = envInt("BIOAGENT_ORCHESTRATOR_RECURSION_LIMIT", b.OrchestratorRecursionLimit)
	b.SLRRecursionLimit = envInt("BIOAGENT_SLR_RECURSION_LIMIT", b.SLRRecursionLimit)

	return b
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		golog.Warn("config: %s=%q is not an integer, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		golog.Warn("config: %s=%q is not a duration, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
