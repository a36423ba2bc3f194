// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// openFDABase is the drug label search endpoint. Declared as a var so
// tests can substitute an httptest server.
var openFDABase = "https://api.fda.gov/drug/label.json"

// Label free-text budgets. Long sections are truncated so the synthesis
// prompt stays bounded; the safety auditor works on the truncated text.
const (
	labelSectionBudget = 500
	labelSummaryBudget = 300
)

// OpenFDA queries the FDA drug label database. This is the regulatory
// source: its items carry the boxed warnings, dosage text, and
// contraindications the safety auditor inspects.
type OpenFDA struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the adapter identifier.
func (o *OpenFDA) Name() string { return types.SourceOpenFDA }

// Search queries drug labels matching query. A 404 means the drug is not
// in the FDA database and is an empty result, not a failure.
func (o *OpenFDA) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if query == "" {
		return []types.EvidenceItem{}, nil
	}

	params := url.Values{
		"search": {query},
		"limit":  {fmt.Sprintf("%d", limit)},
	}
	if o.APIKey != "" {
		params.Set("api_key", o.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openFDABase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", o.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, o.Client, req, 1)
	if err != nil {
		return nil, fmt.Errorf("OpenFDA request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []types.EvidenceItem{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenFDA returned HTTP %d", resp.StatusCode)
	}

	var fr openFDAResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("parsing OpenFDA response: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(fr.Results))
	for _, d := range fr.Results {
		label := &types.DrugLabel{
			BrandName:         first(d.OpenFDA.BrandName),
			GenericName:       first(d.OpenFDA.GenericName),
			Manufacturer:      first(d.OpenFDA.ManufacturerName),
			Indications:       truncate(first(d.IndicationsAndUsage), labelSummaryBudget),
			Dosage:            truncate(first(d.DosageAndAdministration), labelSectionBudget),
			BoxedWarning:      truncate(first(d.BoxedWarning), labelSectionBudget),
			Warnings:          truncate(first(d.Warnings), labelSectionBudget),
			Contraindications: truncate(first(d.Contraindications), labelSummaryBudget),
			AdverseReactions:  truncate(first(d.AdverseReactions), labelSectionBudget),
		}
		items = append(items, types.EvidenceItem{
			Source: types.SourceOpenFDA,
			Title:  label.DisplayName(),
			URL: "https://www.accessdata.fda.gov/scripts/cder/daf/index.cfm?event=BasicSearch.process&searchterm=" +
				url.QueryEscape(label.GenericName),
			Drug: label,
		})
	}
	return items, nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

// OpenFDA API JSON structures.
type openFDAResponse struct {
	Results []openFDALabel `json:"results"`
}

type openFDALabel struct {
	OpenFDA struct {
		BrandName        []string `json:"brand_name"`
		GenericName      []string `json:"generic_name"`
		ManufacturerName []string `json:"manufacturer_name"`
	} `json:"openfda"`
	IndicationsAndUsage     []string `json:"indications_and_usage"`
	DosageAndAdministration []string `json:"dosage_and_administration"`
	BoxedWarning            []string `json:"boxed_warning"`
	Warnings                []string `json:"warnings"`
	Contraindications       []string `json:"contraindications"`
	AdverseReactions        []string `json:"adverse_reactions"`
}
