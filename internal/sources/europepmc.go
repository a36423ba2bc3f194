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

// europePMCBase is the REST search endpoint. Declared as a var so tests
// can substitute an httptest server.
var europePMCBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMC queries the Europe PMC aggregation (PubMed, SciELO, DOAJ).
type EuropePMC struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the adapter identifier.
func (e *EuropePMC) Name() string { return types.SourceEuropePMC }

// Search queries articles matching query and maps them to evidence items.
func (e *EuropePMC) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if query == "" {
		return []types.EvidenceItem{}, nil
	}

	params := url.Values{
		"query":      {query},
		"format":     {"json"}, // default is XML
		"pageSize":   {fmt.Sprintf("%d", limit)},
		"resultType": {"core"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", e.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, 1)
	if err != nil {
		return nil, fmt.Errorf("Europe PMC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Europe PMC returned HTTP %d", resp.StatusCode)
	}

	var er europePMCResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing Europe PMC response: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(er.ResultList.Result))
	for _, r := range er.ResultList.Result {
		year, _ := strconv.Atoi(r.PubYear)
		items = append(items, types.EvidenceItem{
			Source:   types.SourceEuropePMC,
			Title:    r.Title,
			Authors:  splitAuthorString(r.AuthorString),
			Abstract: r.AbstractText,
			Year:     year,
			Journal:  r.JournalTitle,
			URL:      europePMCURL(r),
		})
	}
	return items, nil
}

// europePMCURL picks the best available link: full text, then DOI, then
// PubMed, then PMC.
func europePMCURL(r europePMCResult) string {
	if len(r.FullTextURLList.FullTextURL) > 0 {
		return r.FullTextURLList.FullTextURL[0].URL
	}
	if r.DOI != "" {
		return "https://doi.org/" + r.DOI
	}
	if r.PMID != "" {
		return "https://pubmed.ncbi.nlm.nih.gov/" + r.PMID + "/"
	}
	if r.PMCID != "" {
		return "https://europepmc.org/article/PMC/" + r.PMCID
	}
	return ""
}

func splitAuthorString(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.TrimSuffix(p, ".")); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}

// Europe PMC API JSON structures.
type europePMCResponse struct {
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	Title           string `json:"title"`
	AuthorString    string `json:"authorString"`
	AbstractText    string `json:"abstractText"`
	PubYear         string `json:"pubYear"`
	JournalTitle    string `json:"journalTitle"`
	DOI             string `json:"doi"`
	PMID            string `json:"pmid"`
	PMCID           string `json:"pmcid"`
	FullTextURLList struct {
		FullTextURL []struct {
			URL string `json:"url"`
		} `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}
