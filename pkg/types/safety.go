// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IssueType classifies a safety finding against a drafted answer.
type IssueType string

const (
	IssueBoxedWarningOmitted  IssueType = "BOXED_WARNING_OMITTED"
	IssueDosageIncorrect      IssueType = "DOSAGE_INCORRECT"
	IssueRegionalNotCited     IssueType = "REGIONAL_PROTOCOL_NOT_CITED"
	IssueProtocolConflict     IssueType = "PROTOCOL_CONFLICT"
	IssueContraindicationOmit IssueType = "CONTRAINDICATION_NOT_MENTIONED"
)

// Severity ranks a safety finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
)

// SafetyIssue is a structured finding that the drafted answer omits or
// contradicts required safety information. Issues are produced fresh on
// each audit pass and never mutated.
type SafetyIssue struct {
	Type     IssueType `json:"type" yaml:"type"`
	Severity Severity  `json:"severity" yaml:"severity"`

	// Description states what is wrong, in reviewer-readable form. For
	// findings backed by a model judgment, this carries the justification
	// the model returned.
	Description string `json:"description" yaml:"description"`

	// Recommendation states what the revision should add or fix.
	Recommendation string `json:"recommendation" yaml:"recommendation"`

	// Drug names the medication the finding concerns, when applicable.
	Drug string `json:"drug,omitempty" yaml:"drug,omitempty"`

	// Condition names the patient condition involved in a contraindication
	// finding.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Message is a single conversation turn passed to the completion provider.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
