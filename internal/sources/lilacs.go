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

// lilacsBase is the BVS/iAHx search endpoint for the LILACS database.
// Declared as a var so tests can substitute an httptest server.
var lilacsBase = "https://pesquisa.bvsalud.org/portal/api/v1/search"

// LILACS queries the Latin American and Caribbean health literature
// database. Unlike the international adapters it receives the query in
// the original language, and its items are flagged regional.
type LILACS struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the adapter identifier.
func (l *LILACS) Name() string { return types.SourceLILACS }

// Search queries regional articles matching query.
func (l *LILACS) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if query == "" {
		return []types.EvidenceItem{}, nil
	}

	params := url.Values{
		"q":      {query},
		"filter": {`db:("LILACS")`},
		"lang":   {"pt"},
		"count":  {fmt.Sprintf("%d", limit)},
		"output": {"json"},
		"format": {"summary"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lilacsBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", l.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, l.Client, req, 1)
	if err != nil {
		return nil, fmt.Errorf("LILACS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LILACS returned HTTP %d", resp.StatusCode)
	}

	var lr lilacsResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("parsing LILACS response: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(lr.Response.Docs))
	for _, doc := range lr.Response.Docs {
		title := doc.Title
		if title == "" {
			title = doc.TitleT
		}

		authors := doc.Authors
		if len(authors) > 3 {
			authors = append(authors[:3:3], "et al.")
		}

		year, _ := strconv.Atoi(doc.YearCluster)

		item := types.EvidenceItem{
			Source:     types.SourceLILACS,
			Title:      title,
			Authors:    authors,
			Journal:    doc.Journal,
			Year:       year,
			Abstract:   firstNonEmpty(doc.Abstract, doc.AbstractT),
			Country:    doc.AffiliationCountry,
			IsRegional: true,
		}
		if len(doc.URLs) > 0 {
			item.URL = doc.URLs[0]
		} else if doc.ID != "" {
			item.URL = doc.ID
		}
		items = append(items, item)
	}
	return items, nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// BVS/iAHx API JSON structures.
type lilacsResponse struct {
	Response struct {
		Docs []lilacsDoc `json:"docs"`
	} `json:"response"`
}

type lilacsDoc struct {
	ID                 string   `json:"id"`
	Title              string   `json:"ti"`
	TitleT             string   `json:"title_t"`
	Authors            []string `json:"au"`
	Journal            string   `json:"ta"`
	YearCluster        string   `json:"year_cluster"`
	Abstract           string   `json:"ab"`
	AbstractT          string   `json:"abstract_t"`
	AffiliationCountry string   `json:"affiliation_country"`
	URLs               []string `json:"ur"`
}
