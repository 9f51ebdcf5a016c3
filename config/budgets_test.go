package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/config"
)

func TestDefaultsMatchDocumentedValues(t *testing.T) {
	b := config.Defaults()
	require.Equal(t, 5, b.MaxRetries)
	require.Equal(t, 80_000, b.TokenThreshold)
	require.Equal(t, 100, b.OrchestratorRecursionLimit)
}

func TestLoadClampsSubagentActionRoundsBudgetToFloor(t *testing.T) {
	t.Setenv("BIOAGENT_SUBAGENT_ACTION_ROUNDS_BUDGET", "1")
	b := config.Load(os.DevNull)
	require.Equal(t, 3, b.SubagentActionRoundsBudget)
}

func TestLoadReadsIntegerOverrideFromEnvironment(t *testing.T) {
	t.Setenv("BIOAGENT_MAX_RETRIES", "9")
	b := config.Load(os.DevNull)
	require.Equal(t, 9, b.MaxRetries)
}

func TestLoadIgnoresMalformedIntegerAndKeepsDefault(t *testing.T) {
	t.Setenv("BIOAGENT_MAX_RETRIES", "not-a-number")
	b := config.Load(os.DevNull)
	require.Equal(t, config.Defaults().MaxRetries, b.MaxRetries)
}
