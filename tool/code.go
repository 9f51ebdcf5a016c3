package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bioagentic/orchestrator/sandbox"
)

// CodeExecution wraps a sandbox.Sandbox as the execute_code tool. Sandbox
// may be nil — a degraded-mode agent that failed to start a container
// still registers this tool so a model's attempt to use it produces a
// clear ToolMessage error instead of a missing-tool failure.
type CodeExecution struct {
	Sandbox *sandbox.Sandbox
}

func NewCodeExecution(sb *sandbox.Sandbox) *CodeExecution {
	return &CodeExecution{Sandbox: sb}
}

func (c *CodeExecution) Name() string { return "execute_code" }

func (c *CodeExecution) Description() string {
	return "Execute Python or R code in an isolated sandbox and return its output. " +
		"Use this for data analysis, plotting, or any computation that needs a real interpreter."
}

var codeExecutionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"language": {"type": "string", "enum": ["python", "r"]},
		"code": {"type": "string", "description": "the source code to run"}
	},
	"required": ["language", "code"]
}`)

func (c *CodeExecution) Schema() json.RawMessage { return codeExecutionSchema }

type codeExecutionArgs struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

func (c *CodeExecution) Run(ctx context.Context, args json.RawMessage) (string, error) {
	if c.Sandbox == nil {
		return "", fmt.Errorf("execute_code: sandbox is unavailable in this run")
	}

	var a codeExecutionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("execute_code: invalid args: %w", err)
	}

	var lang sandbox.Language
	switch a.Language {
	case "python", "":
		lang = sandbox.Python
	case "r":
		lang = sandbox.R
	default:
		return "", fmt.Errorf("execute_code: unsupported language %q", a.Language)
	}

	res, err := c.Sandbox.Execute(ctx, lang, a.Code)
	if err != nil {
		return "", fmt.Errorf("execute_code: %w", err)
	}

	stdout := sandbox.MiddleTruncate(res.Stdout, sandbox.ToolVisibleTokenLimit)
	if res.ExitCode != 0 {
		return fmt.Sprintf("exit code: %d\n%s", res.ExitCode, stdout), nil
	}
	if len(res.Artifacts) > 0 {
		return fmt.Sprintf("%s\n\nartifacts: %v", stdout, res.Artifacts), nil
	}
	return stdout, nil
}
