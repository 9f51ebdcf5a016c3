package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// restArgs is the args shape every biomedical database tool in this
// package accepts: a single free-text query, matching how the literature
// researcher prompts describe these knowledge-base lookups.
type restArgs struct {
	Query string `json:"query"`
}

var restToolSchema = json.RawMessage(`{
	"type": "object",
	"properties": {"query": {"type": "string", "description": "search term, identifier, or accession"}},
	"required": ["query"]
}`)

// RESTTool is a thin, synchronous net/http + encoding/json client shared
// by every biomedical database tool: each is out of scope for deep
// domain logic and differs only in base URL, how a query
// becomes a request, and how the JSON response renders to text.
type RESTTool struct {
	name        string
	description string
	client      *http.Client
	buildReq    func(ctx context.Context, query string) (*http.Request, error)
	renderResp  func(body []byte) (string, error)
}

func (t *RESTTool) Name() string               { return t.name }
func (t *RESTTool) Description() string        { return t.description }
func (t *RESTTool) Schema() json.RawMessage     { return restToolSchema }

func (t *RESTTool) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var a restArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("%s: invalid args: %w", t.name, err)
	}

	req, err := t.buildReq(ctx, a.Query)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", t.name, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request: %w", t.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", t.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: api returned status %d: %s", t.name, resp.StatusCode, string(body))
	}

	return t.renderResp(body)
}

// FixtureTool stands in for a RESTTool in tests and offline demos: it
// answers from a fixed map of query -> response text instead of making a
// network call, satisfying the same Tool interface so the rest of the
// system is exercisable without network access.
type FixtureTool struct {
	name        string
	description string
	fixtures    map[string]string
	defaultText string
}

// NewFixtureTool builds a fake database tool. Any query present in
// fixtures returns its fixed text; anything else returns defaultText.
func NewFixtureTool(name, description string, fixtures map[string]string, defaultText string) *FixtureTool {
	return &FixtureTool{name: name, description: description, fixtures: fixtures, defaultText: defaultText}
}

func (t *FixtureTool) Name() string           { return t.name }
func (t *FixtureTool) Description() string    { return t.description }
func (t *FixtureTool) Schema() json.RawMessage { return restToolSchema }

func (t *FixtureTool) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var a restArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("%s: invalid args: %w", t.name, err)
	}
	if text, ok := t.fixtures[a.Query]; ok {
		return text, nil
	}
	return t.defaultText, nil
}
