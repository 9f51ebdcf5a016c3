package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewClinicalTrialsSearch builds the clinicaltrials knowledge-base tool
// against the ClinicalTrials.gov v2 API. The BFS/DFS researcher's
// knowledge-base map leaves this entry unbound (see agent/bfsdfs); the
// staged SLR pipeline's search stage is this client's real caller.
func NewClinicalTrialsSearch() *RESTTool {
	return &RESTTool{
		name:        "clinicaltrials",
		description: "Search ClinicalTrials.gov for studies matching a condition, intervention, or sponsor.",
		client:      &http.Client{},
		buildReq:    buildClinicalTrialsRequest,
		renderResp:  renderClinicalTrialsResponse,
	}
}

func buildClinicalTrialsRequest(ctx context.Context, query string) (*http.Request, error) {
	base := "https://clinicaltrials.gov/api/v2/studies"
	params := url.Values{}
	params.Set("query.term", query)
	params.Set("pageSize", "20")
	return http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
}

type ctgovStudiesResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTId      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

func renderClinicalTrialsResponse(body []byte) (string, error) {
	var res ctgovStudiesResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode studies response: %w", err)
	}
	if len(res.Studies) == 0 {
		return "No ClinicalTrials.gov results found", nil
	}
	var sb strings.Builder
	for _, s := range res.Studies {
		id := s.ProtocolSection.IdentificationModule
		fmt.Fprintf(&sb, "%s: %s\n", id.NCTId, id.BriefTitle)
	}
	return sb.String(), nil
}
