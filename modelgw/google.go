package modelgw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// googleBaseURL is the Gemini REST endpoint. No Go SDK for it appears
// anywhere in the retrieved example corpus, so this provider is hand-rolled
// over net/http instead — following the same raw-HTTP shape the corpus
// itself uses for this exact gap (see DESIGN.md).
const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type googleClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
}

func newGoogleClient(cfg ProviderConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("modelgw: google requires an API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("modelgw: google requires a model")
	}
	return &googleClient{httpClient: &http.Client{}, apiKey: cfg.APIKey, model: cfg.Model}, nil
}

type geminiPart struct {
	Text         string          `json:"text,omitempty"`
	FunctionCall *geminiFuncCall `json:"functionCall,omitempty"`
}

type geminiFuncCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequestBody struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (c *googleClient) Complete(ctx context.Context, req Request) (*Response, error) {
	body := geminiRequestBody{}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		content := geminiContent{Role: role}
		if m.Content != "" {
			content.Parts = append(content.Parts, geminiPart{Text: m.Content})
		}
		for _, tc := range m.ToolCalls {
			content.Parts = append(content.Parts, geminiPart{FunctionCall: &geminiFuncCall{Name: tc.Name, Args: tc.Args}})
		}
		if len(content.Parts) == 0 {
			continue
		}
		body.Contents = append(body.Contents, content)
	}
	if len(body.Contents) == 0 {
		return nil, errors.New("modelgw: google request has no turns")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("modelgw: google marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", googleBaseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("modelgw: google build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("modelgw: google request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("modelgw: google read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: google returned 429", ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("modelgw: google returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("modelgw: google parse response: %w", err)
	}

	out := Message{}
	out.Role = RoleAssistant
	var text string
	var toolCalls []ToolCall
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
			if part.FunctionCall != nil {
				toolCalls = append(toolCalls, ToolCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args})
			}
		}
	}
	out.Content = text
	out.ToolCalls = toolCalls

	usage := Usage{}
	if parsed.UsageMetadata != nil {
		usage.InputTokens = parsed.UsageMetadata.PromptTokenCount
		usage.OutputTokens = parsed.UsageMetadata.CandidatesTokenCount
	}
	return &Response{Message: out, Usage: usage}, nil
}
