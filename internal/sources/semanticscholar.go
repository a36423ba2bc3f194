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

// semanticScholarBase is the paper search endpoint. Declared as a var so
// tests can substitute an httptest server.
var semanticScholarBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// SemanticScholar queries the Semantic Scholar Graph API. The public pool
// allows roughly one request per second; the aggregator wraps this
// adapter in a Throttle gate sized accordingly.
type SemanticScholar struct {
	Client *http.Client
	// APIKey raises rate limits when set.
	APIKey    string
	UserAgent string
}

// Name returns the adapter identifier.
func (s *SemanticScholar) Name() string { return types.SourceSemanticScholar }

// Search queries papers matching query and maps them to evidence items.
func (s *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if query == "" {
		return []types.EvidenceItem{}, nil
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {"title,url,abstract,year,authors,citationCount"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticScholarBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 1)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar returned HTTP %d", resp.StatusCode)
	}

	var sr semanticScholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	items := make([]types.EvidenceItem, 0, len(sr.Data))
	for _, p := range sr.Data {
		item := types.EvidenceItem{
			Source:   types.SourceSemanticScholar,
			Title:    p.Title,
			URL:      p.URL,
			Abstract: p.Abstract,
			Year:     p.Year,
		}
		for _, a := range p.Authors {
			if a.Name != "" {
				item.Authors = append(item.Authors, a.Name)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Semantic Scholar API JSON structures.
type semanticScholarResponse struct {
	Total int                    `json:"total"`
	Data  []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Abstract      string `json:"abstract"`
	Year          int    `json:"year"`
	CitationCount int    `json:"citationCount"`
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
}
