package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// TavilySearch is a web-search tool backed by the Tavily Search API, built
// in the same shape as BraveSearch. No agent or knowledge base in this
// module registers either web-search tool.
type TavilySearch struct {
	APIKey  string
	BaseURL string
	MaxResults int
	client  *http.Client
}

// NewTavilySearch creates a TavilySearch tool. If apiKey is empty, it
// reads from the TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}
	return &TavilySearch{
		APIKey:     apiKey,
		BaseURL:    "https://api.tavily.com/search",
		MaxResults: 10,
		client:     &http.Client{},
	}, nil
}

func (t *TavilySearch) Name() string { return "tavily_search" }

func (t *TavilySearch) Description() string {
	return "General web search via Tavily, tuned for up-to-date results an LLM can cite directly. " +
		"Input should be a search query."
}

var tavilySchema = json.RawMessage(`{
	"type": "object",
	"properties": {"query": {"type": "string", "description": "the web search query"}},
	"required": ["query"]
}`)

func (t *TavilySearch) Schema() json.RawMessage { return tavilySchema }

type tavilyArgs struct {
	Query string `json:"query"`
}

type tavilyRequestBody struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponseBody struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

func (t *TavilySearch) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var a tavilyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("tavily_search: invalid args: %w", err)
	}

	body, err := json.Marshal(tavilyRequestBody{APIKey: t.APIKey, Query: a.Query, MaxResults: t.MaxResults})
	if err != nil {
		return "", fmt.Errorf("tavily_search: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("tavily_search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tavily_search: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily_search: api returned status %d", resp.StatusCode)
	}

	var out tavilyResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("tavily_search: decode response: %w", err)
	}

	var sb strings.Builder
	if out.Answer != "" {
		fmt.Fprintf(&sb, "Answer: %s\n\n", out.Answer)
	}
	for i, r := range out.Results {
		fmt.Fprintf(&sb, "%d. Title: %s\nURL: %s\nContent: %s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	if sb.Len() == 0 {
		return "No results found", nil
	}
	return sb.String(), nil
}
