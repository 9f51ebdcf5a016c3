package tool

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// NewKEGGSearch builds the gene_set knowledge-base tool against the KEGG
// REST API, used to resolve gene/pathway sets.
func NewKEGGSearch() *RESTTool {
	return &RESTTool{
		name:        "gene_set",
		description: "Look up KEGG genes and pathways by name or identifier.",
		client:      &http.Client{},
		buildReq:    buildKEGGRequest,
		renderResp:  renderKEGGResponse,
	}
}

func buildKEGGRequest(ctx context.Context, query string) (*http.Request, error) {
	base := "https://rest.kegg.jp/find/genes/" + url.PathEscape(query)
	return http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
}

// renderKEGGResponse passes through KEGG's own flat-text format, which is
// already line-oriented "id\tdescription" pairs an LLM can read directly.
func renderKEGGResponse(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "No KEGG results found", nil
	}
	return text, nil
}
