// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"testing"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// --- Reducer merge rules ---

func TestApplyZeroUpdateLeavesStateUntouched(t *testing.T) {
	s := &State{
		Query:         "pergunta",
		Draft:         "rascunho",
		IsSafe:        true,
		Warnings:      []string{"aviso"},
		RevisionCount: 1,
	}
	s.apply(Update{})

	if s.Draft != "rascunho" || !s.IsSafe || s.RevisionCount != 1 {
		t.Errorf("state mutated by zero update: %+v", s)
	}
	if len(s.Warnings) != 1 {
		t.Errorf("warnings = %v", s.Warnings)
	}
}

func TestApplyWarningsAppend(t *testing.T) {
	s := &State{}
	s.apply(Update{Warnings: []string{"primeiro"}})
	s.apply(Update{Warnings: []string{"segundo", "terceiro"}})

	if len(s.Warnings) != 3 || s.Warnings[0] != "primeiro" || s.Warnings[2] != "terceiro" {
		t.Errorf("warnings = %v", s.Warnings)
	}
}

func TestApplyDraftReplaces(t *testing.T) {
	s := &State{Draft: "original"}
	revised := "revisado"
	s.apply(Update{Draft: &revised})

	if s.Draft != "revisado" {
		t.Errorf("Draft = %q", s.Draft)
	}
}

func TestApplySafetyReplacesVerdictAndIssuesTogether(t *testing.T) {
	s := &State{}
	s.apply(Update{Safety: &SafetyVerdict{
		IsSafe: false,
		Issues: []types.SafetyIssue{{Type: types.IssueBoxedWarningOmitted}},
	}})
	if s.IsSafe || len(s.SafetyIssues) != 1 {
		t.Fatalf("after first verdict: safe=%t issues=%v", s.IsSafe, s.SafetyIssues)
	}

	// A clean re-audit must drop the stale findings.
	s.apply(Update{Safety: &SafetyVerdict{IsSafe: true}})
	if !s.IsSafe || len(s.SafetyIssues) != 0 {
		t.Errorf("after re-audit: safe=%t issues=%v", s.IsSafe, s.SafetyIssues)
	}
}

func TestApplyRevisionDeltaAccumulates(t *testing.T) {
	s := &State{}
	s.apply(Update{RevisionDelta: 1})
	s.apply(Update{RevisionDelta: 1})

	if s.RevisionCount != 2 {
		t.Errorf("RevisionCount = %d, want 2", s.RevisionCount)
	}
}

func TestApplyEvidenceMergesPerSource(t *testing.T) {
	s := &State{Evidence: types.NewEvidenceBundle()}
	s.apply(Update{Evidence: types.EvidenceBundle{
		types.SourceSemanticScholar: {{Source: types.SourceSemanticScholar, Title: "a"}},
		types.SourceOpenFDA:         {{Source: types.SourceOpenFDA, Title: "d"}},
	}})
	s.apply(Update{Evidence: types.EvidenceBundle{
		types.SourceOpenFDA: {{Source: types.SourceOpenFDA, Title: "d2"}},
	}})

	if len(s.Evidence[types.SourceSemanticScholar]) != 1 {
		t.Error("absent source was dropped by a later update")
	}
	got := s.Evidence[types.SourceOpenFDA]
	if len(got) != 1 || got[0].Title != "d2" {
		t.Errorf("openfda items = %+v, want replaced slice", got)
	}
}

func TestApplyFlagsAndRegionalReplace(t *testing.T) {
	s := &State{Flags: types.Flags{IsMedical: true, NeedsDrugSearch: true}}
	s.apply(Update{
		Flags:    &types.Flags{IsMedical: true},
		Regional: &types.RegionalDiseaseInfo{Detected: true, Disease: "dengue"},
	})

	if s.Flags.NeedsDrugSearch {
		t.Error("Flags must replace wholesale, not merge")
	}
	if !s.Regional.Detected || s.Regional.Disease != "dengue" {
		t.Errorf("Regional = %+v", s.Regional)
	}
}
