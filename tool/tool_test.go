package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/modelgw"
	"github.com/bioagentic/orchestrator/tool"
)

func TestDispatchReturnsOneToolMessagePerCall(t *testing.T) {
	fake := tool.NewFixtureTool("fake_tool", "a fake tool", map[string]string{"hit": "found it"}, "nothing found")
	reg := tool.NewRegistry(fake)

	assistant := modelgw.Message{
		ToolCalls: []modelgw.ToolCall{
			{ID: "1", Name: "fake_tool", Args: json.RawMessage(`{"query":"hit"}`)},
			{ID: "2", Name: "fake_tool", Args: json.RawMessage(`{"query":"miss"}`)},
		},
	}

	results := reg.Dispatch(context.Background(), assistant)
	require.Len(t, results, 2)
	require.Equal(t, "found it", results[0].Content)
	require.Equal(t, "nothing found", results[1].Content)
	require.Equal(t, "1", results[0].ToolCallID)
	require.Equal(t, modelgw.RoleTool, results[0].Role)
}

func TestDispatchReportsUnknownToolAsMessageNotError(t *testing.T) {
	reg := tool.NewRegistry()
	assistant := modelgw.Message{
		ToolCalls: []modelgw.ToolCall{{ID: "1", Name: "does_not_exist", Args: json.RawMessage(`{}`)}},
	}
	results := reg.Dispatch(context.Background(), assistant)
	require.Len(t, results, 1)
	require.Contains(t, results[0].Content, "Error executing tool")
	require.Contains(t, results[0].Content, "not registered")
}

type panickyTool struct{}

func (panickyTool) Name() string                   { return "panicky" }
func (panickyTool) Description() string            { return "always panics" }
func (panickyTool) Schema() json.RawMessage        { return json.RawMessage(`{}`) }
func (panickyTool) Run(context.Context, json.RawMessage) (string, error) {
	panic("boom")
}

func TestDispatchRecoversPanickingTool(t *testing.T) {
	reg := tool.NewRegistry(panickyTool{})
	assistant := modelgw.Message{
		ToolCalls: []modelgw.ToolCall{{ID: "1", Name: "panicky", Args: json.RawMessage(`{}`)}},
	}
	results := reg.Dispatch(context.Background(), assistant)
	require.Len(t, results, 1)
	require.Contains(t, results[0].Content, "Error executing tool")
	require.Contains(t, results[0].Content, "boom")
}

func TestFixtureToolFallsBackToDefaultText(t *testing.T) {
	fake := tool.NewFixtureTool("f", "d", map[string]string{}, "default")
	out, err := fake.Run(context.Background(), json.RawMessage(`{"query":"anything"}`))
	require.NoError(t, err)
	require.Equal(t, "default", out)
}

func TestCodeExecutionReportsErrorWhenSandboxUnavailable(t *testing.T) {
	c := tool.NewCodeExecution(nil)
	_, err := c.Run(context.Background(), json.RawMessage(`{"language":"python","code":"print(1)"}`))
	require.Error(t, err)
}
