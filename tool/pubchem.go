package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewPubChemSearch builds the drug knowledge-base tool against the
// PubChem PUG REST API, resolving a compound name to its CID and a few
// key properties.
func NewPubChemSearch() *RESTTool {
	return &RESTTool{
		name:        "pubchem_drug",
		description: "Look up a compound or drug name in PubChem and return its CID, molecular formula, and weight.",
		client:      &http.Client{},
		buildReq:    buildPubChemRequest,
		renderResp:  renderPubChemResponse,
	}
}

func buildPubChemRequest(ctx context.Context, query string) (*http.Request, error) {
	base := fmt.Sprintf(
		"https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/name/%s/property/MolecularFormula,MolecularWeight/JSON",
		url.PathEscape(query),
	)
	return http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
}

type pubchemPropertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              int     `json:"CID"`
			MolecularFormula string  `json:"MolecularFormula"`
			MolecularWeight  float64 `json:"MolecularWeight,string"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

func renderPubChemResponse(body []byte) (string, error) {
	var res pubchemPropertyResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("decode property response: %w", err)
	}
	if len(res.PropertyTable.Properties) == 0 {
		return "No PubChem results found", nil
	}
	var sb strings.Builder
	for _, p := range res.PropertyTable.Properties {
		fmt.Fprintf(&sb, "CID %d: formula %s, MW %.2f\n", p.CID, p.MolecularFormula, p.MolecularWeight)
	}
	return sb.String(), nil
}
