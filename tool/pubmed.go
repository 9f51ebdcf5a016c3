package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewPubMedSearch builds the pubmed_papers knowledge-base tool: it
// searches PubMed via NCBI's eutils esearch and renders the total hit
// count followed by one "PMID:<id>" line per hit; titles and journals are
// not fetched.
func NewPubMedSearch() *RESTTool {
	return &RESTTool{
		name:        "pubmed_papers",
		description: "Search PubMed for biomedical literature by keyword, gene, disease, or author.",
		client:      &http.Client{},
		buildReq:    buildPubMedRequest,
		renderResp:  renderPubMedResponse,
	}
}

func buildPubMedRequest(ctx context.Context, query string) (*http.Request, error) {
	base := "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "json")
	params.Set("retmax", "20")
	params.Set("term", query)
	return http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
}

type pubmedESearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
		Count  string   `json:"count"`
	} `json:"esearchresult"`
}

func renderPubMedResponse(body []byte) (string, error) {
	var res pubmedESearchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode esearch response: %w", err)
	}
	if len(res.ESearchResult.IDList) == 0 {
		return "No PubMed results found", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s total hits, showing PMIDs:\n", res.ESearchResult.Count)
	for _, pmid := range res.ESearchResult.IDList {
		fmt.Fprintf(&sb, "PMID:%s\n", pmid)
	}
	return sb.String(), nil
}
