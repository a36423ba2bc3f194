// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Step names a stage of the run, used for logging and metrics labels.
type Step string

const (
	StepRouting      Step = "routing"
	StepSearching    Step = "searching"
	StepSynthesizing Step = "synthesizing"
	StepAuditing     Step = "auditing"
	StepRevising     Step = "revising"
)

// RunState is the terminal state of a run.
type RunState string

const (
	StateDone   RunState = "done"
	StateFailed RunState = "failed"
)

// State is the accumulated run state. It is owned by a single run and
// mutated only through apply, so every field follows one declared merge
// rule instead of ad hoc assignment scattered across steps.
type State struct {
	Query         string
	SystemMessage string
	History       []types.Message

	Flags    types.Flags
	Regional types.RegionalDiseaseInfo

	Evidence    types.EvidenceBundle
	SourcesUsed []string
	Warnings    []string

	Draft         string
	IsSafe        bool
	SafetyIssues  []types.SafetyIssue
	RevisionCount int
}

// SafetyVerdict couples an audit's findings with its verdict so the two
// can never be applied separately.
type SafetyVerdict struct {
	IsSafe bool
	Issues []types.SafetyIssue
}

// Update is the output of one step. Nil or zero fields leave the state
// untouched.
type Update struct {
	// Flags and Regional replace wholesale when set.
	Flags    *types.Flags
	Regional *types.RegionalDiseaseInfo

	// Evidence replaces per source: a source present in the update
	// overwrites that source's slice, absent sources keep theirs.
	Evidence types.EvidenceBundle

	// SourcesUsed replaces wholesale when non-nil.
	SourcesUsed []string

	// Warnings append; earlier warnings are never dropped.
	Warnings []string

	// Draft replaces when set. A revision overwrites the prior draft.
	Draft *string

	// Safety replaces the previous verdict and findings together. Each
	// audit pass reports its own complete findings; stale issues from an
	// earlier pass must not survive a re-audit.
	Safety *SafetyVerdict

	// RevisionDelta adds to the revision counter.
	RevisionDelta int
}

// apply folds one step's update into the state per the field rules above.
func (s *State) apply(u Update) {
	if u.Flags != nil {
		s.Flags = *u.Flags
	}
	if u.Regional != nil {
		s.Regional = *u.Regional
	}
	if u.Evidence != nil {
		if s.Evidence == nil {
			s.Evidence = types.NewEvidenceBundle()
		}
		for source, items := range u.Evidence {
			s.Evidence[source] = items
		}
	}
	if u.SourcesUsed != nil {
		s.SourcesUsed = u.SourcesUsed
	}
	s.Warnings = append(s.Warnings, u.Warnings...)
	if u.Draft != nil {
		s.Draft = *u.Draft
	}
	if u.Safety != nil {
		s.IsSafe = u.Safety.IsSafe
		s.SafetyIssues = u.Safety.Issues
	}
	s.RevisionCount += u.RevisionDelta
}
