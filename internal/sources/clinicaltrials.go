// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// clinicalTrialsBase is the ClinicalTrials.gov v2 studies endpoint.
// Declared as a var so tests can substitute an httptest server.
var clinicalTrialsBase = "https://clinicaltrials.gov/api/v2/studies"

// defaultStatusFilter keeps results to trials that are actionable for a
// clinician: recruiting or already completed.
var defaultStatusFilter = []string{"RECRUITING", "COMPLETED"}

// ClinicalTrials queries the ClinicalTrials.gov registry.
type ClinicalTrials struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the adapter identifier.
func (c *ClinicalTrials) Name() string { return types.SourceClinicalTrials }

// Search queries trials matching query and maps them to evidence items.
func (c *ClinicalTrials) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if query == "" {
		return []types.EvidenceItem{}, nil
	}

	params := url.Values{
		"query.term":           {query},
		"filter.overallStatus": {strings.Join(defaultStatusFilter, ",")},
		"pageSize":             {fmt.Sprintf("%d", limit)},
		"format":               {"json"},
		"fields":               {"NCTId,BriefTitle,Condition,InterventionName,OverallStatus,Phase,StudyFirstPostDate"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clinicalTrialsBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 1)
	if err != nil {
		return nil, fmt.Errorf("ClinicalTrials request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ClinicalTrials returned HTTP %d", resp.StatusCode)
	}

	var cr clinicalTrialsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing ClinicalTrials response: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(cr.Studies))
	for _, s := range cr.Studies {
		ps := s.ProtocolSection
		nctID := ps.IdentificationModule.NCTID

		title := ps.IdentificationModule.BriefTitle
		if title == "" {
			title = ps.IdentificationModule.OfficialTitle
		}

		var interventions []string
		for _, iv := range ps.ArmsInterventionsModule.Interventions {
			switch {
			case iv.Type != "" && iv.Name != "":
				interventions = append(interventions, iv.Type+": "+iv.Name)
			case iv.Name != "":
				interventions = append(interventions, iv.Name)
			}
		}

		item := types.EvidenceItem{
			Source: types.SourceClinicalTrials,
			Title:  title,
			Year:   yearFromDate(ps.StatusModule.StartDateStruct.Date),
			Trial: &types.TrialRecord{
				ID:            nctID,
				Status:        ps.StatusModule.OverallStatus,
				Phase:         strings.Join(ps.DesignModule.Phases, ", "),
				Conditions:    ps.ConditionsModule.Conditions,
				Interventions: strings.Join(interventions, ", "),
			},
		}
		if nctID != "" {
			item.URL = "https://clinicaltrials.gov/study/" + nctID
		}
		items = append(items, item)
	}
	return items, nil
}

// yearFromDate extracts the year from registry dates like "2023-05" or
// "2023-05-01".
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// ClinicalTrials.gov v2 API JSON structures.
type clinicalTrialsResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID         string `json:"nctId"`
				BriefTitle    string `json:"briefTitle"`
				OfficialTitle string `json:"officialTitle"`
			} `json:"identificationModule"`
			StatusModule struct {
				OverallStatus   string `json:"overallStatus"`
				StartDateStruct struct {
					Date string `json:"date"`
				} `json:"startDateStruct"`
			} `json:"statusModule"`
			ConditionsModule struct {
				Conditions []string `json:"conditions"`
			} `json:"conditionsModule"`
			ArmsInterventionsModule struct {
				Interventions []struct {
					Type string `json:"type"`
					Name string `json:"name"`
				} `json:"interventions"`
			} `json:"armsInterventionsModule"`
			DesignModule struct {
				Phases []string `json:"phases"`
			} `json:"designModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}
