package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// NewOpenTargetsSearch builds the gene/disease knowledge-base tool
// against the Open Targets Platform GraphQL API, resolving a free-text
// query to the associated targets and diseases it knows about.
func NewOpenTargetsSearch() *RESTTool {
	return &RESTTool{
		name:        "opentargets_search",
		description: "Search Open Targets for genes and diseases associated with a query term.",
		client:      &http.Client{},
		buildReq:    buildOpenTargetsRequest,
		renderResp:  renderOpenTargetsResponse,
	}
}

const openTargetsGraphQL = `
query Search($q: String!) {
  search(queryString: $q, entityNames: ["target", "disease"]) {
    hits { id name entity }
  }
}`

type openTargetsRequestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func buildOpenTargetsRequest(ctx context.Context, query string) (*http.Request, error) {
	body, err := json.Marshal(openTargetsRequestBody{
		Query:     openTargetsGraphQL,
		Variables: map[string]any{"q": query},
	})
	if err != nil {
		return nil, fmt.Errorf("encode graphql body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.platform.opentargets.org/api/v4/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

type openTargetsResponseBody struct {
	Data struct {
		Search struct {
			Hits []struct {
				ID     string `json:"id"`
				Name   string `json:"name"`
				Entity string `json:"entity"`
			} `json:"hits"`
		} `json:"search"`
	} `json:"data"`
}

func renderOpenTargetsResponse(body []byte) (string, error) {
	var res openTargetsResponseBody
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode graphql response: %w", err)
	}
	if len(res.Data.Search.Hits) == 0 {
		return "No Open Targets results found", nil
	}
	var sb strings.Builder
	for _, h := range res.Data.Search.Hits {
		fmt.Fprintf(&sb, "%s: %s (%s)\n", h.ID, h.Name, h.Entity)
	}
	return sb.String(), nil
}
