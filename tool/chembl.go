package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewChEMBLSearch builds a second drug-oriented knowledge-base tool
// against the ChEMBL REST API, used when a query needs ChEMBL's
// bioactivity-centric view rather than PubChem's structural one.
func NewChEMBLSearch() *RESTTool {
	return &RESTTool{
		name:        "chembl_drug",
		description: "Search ChEMBL for a drug or molecule by name and return its ChEMBL ID and max clinical phase.",
		client:      &http.Client{},
		buildReq:    buildChEMBLRequest,
		renderResp:  renderChEMBLResponse,
	}
}

func buildChEMBLRequest(ctx context.Context, query string) (*http.Request, error) {
	base := "https://www.ebi.ac.uk/chembl/api/data/molecule/search"
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	return http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
}

type chemblSearchResponse struct {
	Molecules []struct {
		ChEMBLID         string `json:"molecule_chembl_id"`
		PrefName         string `json:"pref_name"`
		MaxPhase         int    `json:"max_phase"`
	} `json:"molecules"`
}

func renderChEMBLResponse(body []byte) (string, error) {
	var res chemblSearchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode molecule search response: %w", err)
	}
	if len(res.Molecules) == 0 {
		return "No ChEMBL results found", nil
	}
	var sb strings.Builder
	for _, m := range res.Molecules {
		fmt.Fprintf(&sb, "%s (%s): max phase %d\n", m.ChEMBLID, m.PrefName, m.MaxPhase)
	}
	return sb.String(), nil
}
