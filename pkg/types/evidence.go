// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence-engine
// workflow: evidence items and bundles, safety findings, conversation
// messages, and stage configuration.
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

// Source names key the EvidenceBundle. Every configured source is present
// in a bundle even when it failed or was not queried.
const (
	SourceSemanticScholar = "semantic_scholar"
	SourceEuropePMC       = "europe_pmc"
	SourceClinicalTrials  = "clinical_trials"
	SourceOpenFDA         = "openfda"
	SourceLILACS          = "lilacs"
)

// AllSources lists every configured source name in render order.
var AllSources = []string{
	SourceSemanticScholar,
	SourceEuropePMC,
	SourceClinicalTrials,
	SourceOpenFDA,
	SourceLILACS,
}

// EvidenceItem is one document returned by a source adapter. Items are
// immutable once produced; slice order is the relevance order returned by
// the adapter.
type EvidenceItem struct {
	// Source identifies the adapter that produced this item.
	Source string `json:"source" yaml:"source"`

	// Title is the document title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists document authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, or 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// URL links to the document, when the source provides one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Abstract is the document abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Journal is the publication venue.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Country is the country of origin reported by regional sources.
	Country string `json:"country,omitempty" yaml:"country,omitempty"`

	// IsRegional marks items from region-specific literature bases.
	IsRegional bool `json:"is_regional,omitempty" yaml:"is_regional,omitempty"`

	// Trial holds registry fields for clinical-trial items.
	Trial *TrialRecord `json:"trial,omitempty" yaml:"trial,omitempty"`

	// Drug holds label fields for regulatory (drug label) items.
	Drug *DrugLabel `json:"drug,omitempty" yaml:"drug,omitempty"`
}

// TrialRecord carries the registry fields of a clinical trial item.
type TrialRecord struct {
	ID            string   `json:"id" yaml:"id"`
	Status        string   `json:"status" yaml:"status"`
	Phase         string   `json:"phase" yaml:"phase"`
	Conditions    []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Interventions string   `json:"interventions,omitempty" yaml:"interventions,omitempty"`
}

// DrugLabel carries the regulatory label fields the safety auditor
// inspects. Free-text sections are truncated by the adapter.
type DrugLabel struct {
	BrandName         string `json:"brand_name" yaml:"brand_name"`
	GenericName       string `json:"generic_name" yaml:"generic_name"`
	Manufacturer      string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Indications       string `json:"indications,omitempty" yaml:"indications,omitempty"`
	Dosage            string `json:"dosage,omitempty" yaml:"dosage,omitempty"`
	BoxedWarning      string `json:"boxed_warning,omitempty" yaml:"boxed_warning,omitempty"`
	Warnings          string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Contraindications string `json:"contraindications,omitempty" yaml:"contraindications,omitempty"`
	AdverseReactions  string `json:"adverse_reactions,omitempty" yaml:"adverse_reactions,omitempty"`
}

// DisplayName returns the brand name when present, else the generic name.
func (d *DrugLabel) DisplayName() string {
	if d.BrandName != "" {
		return d.BrandName
	}
	return d.GenericName
}

// EvidenceBundle maps each configured source name to its ordered items.
// A bundle always carries every key in AllSources; a source that failed or
// was not queried maps to an empty slice. Each source key is assigned at
// most once per workflow run.
type EvidenceBundle map[string][]EvidenceItem

// NewEvidenceBundle returns a bundle with every configured source key
// present and empty.
func NewEvidenceBundle() EvidenceBundle {
	b := make(EvidenceBundle, len(AllSources))
	for _, s := range AllSources {
		b[s] = []EvidenceItem{}
	}
	return b
}

// Count returns the total number of items across all sources.
func (b EvidenceBundle) Count() int {
	n := 0
	for _, items := range b {
		n += len(items)
	}
	return n
}

// RegionalDiseaseInfo describes whether the query mentions a disease whose
// standard of care differs by geography, and how strongly regional
// literature should be prioritized for it.
type RegionalDiseaseInfo struct {
	Detected bool   `json:"detected" yaml:"detected"`
	Disease  string `json:"disease,omitempty" yaml:"disease,omitempty"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Flags is the intent classification for a query: whether it is medical,
// whether a drug-label source should be queried, and whether regional
// literature should be queried.
type Flags struct {
	IsMedical           bool `json:"is_medical" yaml:"is_medical"`
	NeedsDrugSearch     bool `json:"needs_drug_search" yaml:"needs_drug_search"`
	NeedsRegionalSearch bool `json:"needs_regional_search" yaml:"needs_regional_search"`
}
