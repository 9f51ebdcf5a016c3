package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewOpenFDASearch builds a drug knowledge-base tool against the openFDA
// drug label API, used for regulatory and
// safety context a literature-only search would miss.
func NewOpenFDASearch() *RESTTool {
	return &RESTTool{
		name:        "openfda_drug",
		description: "Search openFDA drug labels for a brand or generic drug name and return indications and warnings.",
		client:      &http.Client{},
		buildReq:    buildOpenFDARequest,
		renderResp:  renderOpenFDAResponse,
	}
}

func buildOpenFDARequest(ctx context.Context, query string) (*http.Request, error) {
	base := "https://api.fda.gov/drug/label.json"
	params := url.Values{}
	params.Set("search", fmt.Sprintf(`openfda.brand_name:"%s"`, query))
	params.Set("limit", "5")
	return http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
}

type openFDALabelResponse struct {
	Results []struct {
		OpenFDA struct {
			BrandName []string `json:"brand_name"`
		} `json:"openfda"`
		IndicationsAndUsage []string `json:"indications_and_usage"`
		Warnings            []string `json:"warnings"`
	} `json:"results"`
}

func renderOpenFDAResponse(body []byte) (string, error) {
	var res openFDALabelResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode label response: %w", err)
	}
	if len(res.Results) == 0 {
		return "No openFDA results found", nil
	}
	var sb strings.Builder
	for _, r := range res.Results {
		name := strings.Join(r.OpenFDA.BrandName, "/")
		fmt.Fprintf(&sb, "%s\n", name)
		if len(r.IndicationsAndUsage) > 0 {
			fmt.Fprintf(&sb, "  Indications: %s\n", r.IndicationsAndUsage[0])
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(&sb, "  Warnings: %s\n", r.Warnings[0])
		}
	}
	return sb.String(), nil
}
