// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// --- Semantic Scholar ---

func TestSemanticScholarRequestParams(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":0,"data":[]}`)
	}))
	defer ts.Close()

	old := semanticScholarBase
	semanticScholarBase = ts.URL
	defer func() { semanticScholarBase = old }()

	a := &SemanticScholar{Client: ts.Client(), APIKey: "key-123", UserAgent: "test-agent"}
	_, err := a.Search(context.Background(), "metamizole safety", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := capturedReq.URL.Query()
	if got := q.Get("query"); got != "metamizole safety" {
		t.Errorf("query param = %q, want %q", got, "metamizole safety")
	}
	if got := q.Get("limit"); got != "3" {
		t.Errorf("limit param = %q, want %q", got, "3")
	}
	for _, f := range []string{"title", "abstract", "authors", "year"} {
		if !strings.Contains(q.Get("fields"), f) {
			t.Errorf("fields param %q missing %q", q.Get("fields"), f)
		}
	}
	if got := capturedReq.Header.Get("x-api-key"); got != "key-123" {
		t.Errorf("x-api-key header = %q, want %q", got, "key-123")
	}
	if got := capturedReq.Header.Get("User-Agent"); got != "test-agent" {
		t.Errorf("User-Agent header = %q, want %q", got, "test-agent")
	}
}

func TestSemanticScholarMapsItems(t *testing.T) {
	resp := `{"total":1,"data":[{
		"title":"Metamizole and agranulocytosis",
		"url":"https://example.org/p1",
		"abstract":"A cohort study.",
		"year":2021,
		"authors":[{"name":"Alice Smith"},{"name":"Bob Jones"}]}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := semanticScholarBase
	semanticScholarBase = ts.URL
	defer func() { semanticScholarBase = old }()

	a := &SemanticScholar{Client: ts.Client()}
	items, err := a.Search(context.Background(), "metamizole", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got := items[0]
	if got.Source != types.SourceSemanticScholar {
		t.Errorf("Source = %q, want %q", got.Source, types.SourceSemanticScholar)
	}
	if got.Title != "Metamizole and agranulocytosis" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Year != 2021 {
		t.Errorf("Year = %d, want 2021", got.Year)
	}
	if len(got.Authors) != 2 || got.Authors[0] != "Alice Smith" {
		t.Errorf("Authors = %v", got.Authors)
	}
}

func TestSemanticScholarHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := semanticScholarBase
	semanticScholarBase = ts.URL
	defer func() { semanticScholarBase = old }()

	a := &SemanticScholar{Client: ts.Client()}
	_, err := a.Search(context.Background(), "test", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error = %q, want substring 'HTTP 500'", err.Error())
	}
}

func TestSemanticScholarEmptyQuery(t *testing.T) {
	a := &SemanticScholar{Client: http.DefaultClient}
	items, err := a.Search(context.Background(), "", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}

// --- Europe PMC ---

func TestEuropePMCMapsItemsAndURLFallback(t *testing.T) {
	tests := []struct {
		name    string
		result  string
		wantURL string
	}{
		{
			"full text preferred",
			`{"title":"T","authorString":"Smith A, Jones B.","pubYear":"2020","doi":"10.1/x","pmid":"111",
			  "fullTextUrlList":{"fullTextUrl":[{"url":"https://full.example.org"}]}}`,
			"https://full.example.org",
		},
		{
			"doi when no full text",
			`{"title":"T","authorString":"Smith A.","pubYear":"2020","doi":"10.1/x","pmid":"111"}`,
			"https://doi.org/10.1/x",
		},
		{
			"pubmed when no doi",
			`{"title":"T","authorString":"Smith A.","pubYear":"2020","pmid":"111"}`,
			"https://pubmed.ncbi.nlm.nih.gov/111/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fmt.Sprintf(`{"resultList":{"result":[%s]}}`, tt.result)
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, resp)
			}))
			defer ts.Close()

			old := europePMCBase
			europePMCBase = ts.URL
			defer func() { europePMCBase = old }()

			a := &EuropePMC{Client: ts.Client()}
			items, err := a.Search(context.Background(), "dengue", 3)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("len(items) = %d, want 1", len(items))
			}
			if items[0].URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", items[0].URL, tt.wantURL)
			}
			if items[0].Year != 2020 {
				t.Errorf("Year = %d, want 2020", items[0].Year)
			}
		})
	}
}

func TestSplitAuthorString(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Smith A, Jones B.", []string{"Smith A", "Jones B"}},
		{"", nil},
		{"Solo S.", []string{"Solo S"}},
	}
	for _, tt := range tests {
		got := splitAuthorString(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitAuthorString(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitAuthorString(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

// --- ClinicalTrials.gov ---

func TestClinicalTrialsMapsTrialRecord(t *testing.T) {
	resp := `{"studies":[{"protocolSection":{
		"identificationModule":{"nctId":"NCT01234567","briefTitle":"Dengue vaccine trial"},
		"statusModule":{"overallStatus":"RECRUITING","startDateStruct":{"date":"2023-05"}},
		"conditionsModule":{"conditions":["Dengue"]},
		"armsInterventionsModule":{"interventions":[{"type":"BIOLOGICAL","name":"TV003"}]},
		"designModule":{"phases":["PHASE3"]}}}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filter.overallStatus"); got != "RECRUITING,COMPLETED" {
			t.Errorf("status filter = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := clinicalTrialsBase
	clinicalTrialsBase = ts.URL
	defer func() { clinicalTrialsBase = old }()

	a := &ClinicalTrials{Client: ts.Client()}
	items, err := a.Search(context.Background(), "dengue", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got := items[0]
	if got.Trial == nil {
		t.Fatal("Trial record missing")
	}
	if got.Trial.ID != "NCT01234567" {
		t.Errorf("Trial.ID = %q", got.Trial.ID)
	}
	if got.Trial.Phase != "PHASE3" {
		t.Errorf("Trial.Phase = %q", got.Trial.Phase)
	}
	if got.Trial.Interventions != "BIOLOGICAL: TV003" {
		t.Errorf("Trial.Interventions = %q", got.Trial.Interventions)
	}
	if got.URL != "https://clinicaltrials.gov/study/NCT01234567" {
		t.Errorf("URL = %q", got.URL)
	}
	if got.Year != 2023 {
		t.Errorf("Year = %d, want 2023", got.Year)
	}
}

func TestYearFromDate(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2023-05-01", 2023},
		{"2023-05", 2023},
		{"", 0},
		{"bad", 0},
	}
	for _, tt := range tests {
		if got := yearFromDate(tt.in); got != tt.want {
			t.Errorf("yearFromDate(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// --- OpenFDA ---

func TestOpenFDAMapsDrugLabel(t *testing.T) {
	resp := `{"results":[{
		"openfda":{"brand_name":["Novalgina"],"generic_name":["metamizole sodium"],"manufacturer_name":["Sanofi"]},
		"indications_and_usage":["Pain and fever."],
		"dosage_and_administration":["500 mg up to four times daily."],
		"boxed_warning":["Risk of agranulocytosis."],
		"warnings":["Use with caution."],
		"contraindications":["Pregnancy third trimester."],
		"adverse_reactions":["Rash."]}]}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "fda-key" {
			t.Errorf("api_key param = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := openFDABase
	openFDABase = ts.URL
	defer func() { openFDABase = old }()

	a := &OpenFDA{Client: ts.Client(), APIKey: "fda-key"}
	items, err := a.Search(context.Background(), "metamizole", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	d := items[0].Drug
	if d == nil {
		t.Fatal("Drug label missing")
	}
	if d.BrandName != "Novalgina" || d.GenericName != "metamizole sodium" {
		t.Errorf("names = %q / %q", d.BrandName, d.GenericName)
	}
	if d.BoxedWarning != "Risk of agranulocytosis." {
		t.Errorf("BoxedWarning = %q", d.BoxedWarning)
	}
	if items[0].Title != d.DisplayName() {
		t.Errorf("Title = %q, want %q", items[0].Title, d.DisplayName())
	}
}

func TestOpenFDANotFoundIsEmptyResult(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	old := openFDABase
	openFDABase = ts.URL
	defer func() { openFDABase = old }()

	a := &OpenFDA{Client: ts.Client()}
	items, err := a.Search(context.Background(), "unknowndrug", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("len(items) = %d, want 0", len(items))
	}
}

func TestOpenFDATruncatesLongSections(t *testing.T) {
	long := strings.Repeat("x", 2000)
	resp := fmt.Sprintf(`{"results":[{
		"openfda":{"generic_name":["drugx"]},
		"dosage_and_administration":[%q]}]}`, long)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := openFDABase
	openFDABase = ts.URL
	defer func() { openFDABase = old }()

	a := &OpenFDA{Client: ts.Client()}
	items, err := a.Search(context.Background(), "drugx", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := len(items[0].Drug.Dosage); got > labelSectionBudget+len("...") {
		t.Errorf("Dosage length = %d, want <= %d", got, labelSectionBudget+3)
	}
}

// --- LILACS ---

func TestLILACSMapsRegionalItems(t *testing.T) {
	resp := `{"response":{"docs":[{
		"id":"lil-1","ti":"Protocolo de manejo da dengue","au":["Silva J","Souza M","Lima A","Costa R"],
		"ta":"Rev Saude Publica","year_cluster":"2022","ab":"Diretriz nacional.",
		"affiliation_country":"Brasil","ur":["https://example.org/lil-1"]}]}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lang"); got != "pt" {
			t.Errorf("lang param = %q, want pt", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, resp)
	}))
	defer ts.Close()

	old := lilacsBase
	lilacsBase = ts.URL
	defer func() { lilacsBase = old }()

	a := &LILACS{Client: ts.Client()}
	items, err := a.Search(context.Background(), "dengue manejo", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	got := items[0]
	if !got.IsRegional {
		t.Error("IsRegional = false, want true")
	}
	if got.Country != "Brasil" {
		t.Errorf("Country = %q", got.Country)
	}
	// Author lists longer than three collapse to three plus et al.
	if len(got.Authors) != 4 || got.Authors[3] != "et al." {
		t.Errorf("Authors = %v", got.Authors)
	}
	if got.Year != 2022 {
		t.Errorf("Year = %d, want 2022", got.Year)
	}
}

// --- Throttle ---

func TestThrottleSpacesCalls(t *testing.T) {
	fake := &fakeAdapter{name: "fake"}
	gated := Throttle(fake, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := gated.Search(context.Background(), "q", 1); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	elapsed := time.Since(start)

	// First call is immediate, the next two wait ~50ms each.
	if elapsed < 90*time.Millisecond {
		t.Errorf("three calls took %v, want >= ~100ms", elapsed)
	}
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3", fake.calls)
	}
}

func TestThrottleZeroIntervalIsPassthrough(t *testing.T) {
	fake := &fakeAdapter{name: "fake"}
	if got := Throttle(fake, 0); got != Adapter(fake) {
		t.Error("Throttle(0) should return the adapter unchanged")
	}
}

func TestThrottleContextCancelled(t *testing.T) {
	fake := &fakeAdapter{name: "fake"}
	gated := Throttle(fake, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// First call consumes the burst, second must wait and hit the deadline.
	if _, err := gated.Search(ctx, "q", 1); err != nil {
		t.Fatalf("first Search: %v", err)
	}
	if _, err := gated.Search(ctx, "q", 1); err == nil {
		t.Fatal("expected context error on throttled call")
	}
}

type fakeAdapter struct {
	name  string
	calls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	f.calls++
	return []types.EvidenceItem{}, nil
}

// --- Label text handling ---

func TestTruncateStripsTags(t *testing.T) {
	in := "<p>Take <b>500 mg</b> daily.</p>"
	if got := truncate(in, 100); got != "Take 500 mg daily." {
		t.Errorf("truncate = %q", got)
	}
}
