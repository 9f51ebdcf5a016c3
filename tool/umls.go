package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// NewUMLSSearch builds the variant/concept knowledge-base tool against
// the UMLS REST API. It reads its API key from the
// UMLS_API_KEY environment variable rather than a constructor argument,
// since UMLS access is typically provisioned once per deployment rather
// than per agent.
func NewUMLSSearch() (*RESTTool, error) {
	apiKey := os.Getenv("UMLS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("UMLS_API_KEY not set")
	}
	return &RESTTool{
		name:        "variant",
		description: "Search the UMLS Metathesaurus for a clinical concept, variant, or term.",
		client:      &http.Client{},
		buildReq:    buildUMLSRequest(apiKey),
		renderResp:  renderUMLSResponse,
	}, nil
}

func buildUMLSRequest(apiKey string) func(ctx context.Context, query string) (*http.Request, error) {
	return func(ctx context.Context, query string) (*http.Request, error) {
		base := "https://uts-ws.nlm.nih.gov/rest/search/current"
		params := url.Values{}
		params.Set("string", query)
		params.Set("apiKey", apiKey)
		return http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	}
}

type umlsSearchResponse struct {
	Result struct {
		Results []struct {
			UI   string `json:"ui"`
			Name string `json:"name"`
		} `json:"results"`
	} `json:"result"`
}

func renderUMLSResponse(body []byte) (string, error) {
	var res umlsSearchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(res.Result.Results) == 0 {
		return "No UMLS results found", nil
	}
	var sb strings.Builder
	for _, r := range res.Result.Results {
		if r.UI == "NONE" {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", r.UI, r.Name)
	}
	if sb.Len() == 0 {
		return "No UMLS results found", nil
	}
	return sb.String(), nil
}
