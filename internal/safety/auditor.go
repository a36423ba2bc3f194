// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package safety audits a drafted answer against the evidence it was
// grounded on. Four checks run on every audit pass: boxed warning
// omission, dosage accuracy, regional protocol alignment, and
// contraindication omission. Two checks are purely deterministic; the
// dosage and protocol conflict checks ask the model for a structured
// judgment. Model failures during an audit are surfaced to the caller,
// never silently dropped, because a half-run audit must not pass for a
// clean one.
//
// See docs/ARCHITECTURE.md § Safety Audit.
package safety

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// warningKeywords are phrases whose presence in the draft counts as
// mentioning a critical drug alert.
var warningKeywords = []string{
	"boxed warning", "black box", "tarja preta",
	"alerta crítico", "alerta fda", "aviso importante",
	"contraindicado", "risco grave", "não usar",
}

// mitigationPhrases are the ways a draft acknowledges a contraindication.
var mitigationPhrases = []string{"contraindicad", "não usar", "evitar"}

// regionalCitationKeywords count as citing Brazilian or regional
// protocols in the draft.
var regionalCitationKeywords = []string{
	"protocolo brasileiro", "ministério da saúde", "sus", "sbmt", "lilacs",
}

// conditionKeywords are patient conditions that, when present in the
// question, trigger the contraindication check against the drug labels.
var conditionKeywords = []string{
	"gravidez", "gestante", "grávida",
	"lactação", "amamentação",
	"criança", "pediátrico", "infantil",
	"idoso", "geriátrico",
	"insuficiência renal", "doença renal",
	"insuficiência hepática", "cirrose",
	"diabetes", "hipertensão",
}

// dosagePattern extracts numeric dose mentions like "500mg" or "10 ml".
var dosagePattern = regexp.MustCompile(`(?i)(\d+)\s*(mg|g|ml|mcg|ui)`)

// regionalDiseases are conditions whose answers must cite regional
// protocols when regional literature was retrieved.
var regionalDiseases = []string{
	"dengue", "zika", "chikungunya", "febre amarela",
	"chagas", "leishmaniose", "malária", "esquistossomose",
	"tuberculose", "hanseníase",
}

// Auditor runs the safety checks against a draft.
type Auditor struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewAuditor returns an Auditor using the given provider for the
// model-backed checks.
func NewAuditor(provider llm.Provider, model string, logger *zap.Logger) *Auditor {
	return &Auditor{provider: provider, model: model, logger: logger}
}

// Audit runs all four checks against the draft and returns every finding.
// The checks always all run; findings accumulate across them. A model
// error aborts the audit with the findings gathered so far discarded.
func (a *Auditor) Audit(ctx context.Context, query, draft string, bundle types.EvidenceBundle) ([]types.SafetyIssue, error) {
	started := time.Now()
	labels := bundle[types.SourceOpenFDA]
	regional := bundle[types.SourceLILACS]

	var issues []types.SafetyIssue
	issues = append(issues, a.checkBoxedWarnings(draft, labels)...)

	dosage, err := a.checkDosage(ctx, draft, labels)
	if err != nil {
		return nil, fmt.Errorf("dosage check: %w", err)
	}
	issues = append(issues, dosage...)

	protocol, err := a.checkRegionalProtocol(ctx, query, draft, regional)
	if err != nil {
		return nil, fmt.Errorf("regional protocol check: %w", err)
	}
	issues = append(issues, protocol...)

	issues = append(issues, a.checkContraindications(query, draft, labels)...)

	for _, issue := range issues {
		metrics.SafetyIssues.WithLabelValues(string(issue.Type), string(issue.Severity)).Inc()
	}

	a.logger.Info("safety audit complete",
		zap.Int("issues", len(issues)),
		zap.Duration("elapsed", time.Since(started)))
	return issues, nil
}

// checkBoxedWarnings flags drugs whose FDA boxed warning exists, whose
// name appears in the draft, and whose warning is nowhere acknowledged.
// Matching is on the first token of the generic name so salt suffixes
// ("sodium", "hydrochloride") do not hide a mention.
func (a *Auditor) checkBoxedWarnings(draft string, labels []types.EvidenceItem) []types.SafetyIssue {
	var issues []types.SafetyIssue
	draftLower := strings.ToLower(draft)

	for _, item := range labels {
		d := item.Drug
		if d == nil || d.BoxedWarning == "" {
			continue
		}
		token := firstToken(strings.ToLower(d.GenericName))
		if token == "" || !strings.Contains(draftLower, token) {
			continue
		}
		if containsAny(draftLower, warningKeywords) {
			continue
		}
		issues = append(issues, types.SafetyIssue{
			Type:           types.IssueBoxedWarningOmitted,
			Severity:       types.SeverityCritical,
			Drug:           d.DisplayName(),
			Description:    fmt.Sprintf("Boxed Warning da FDA não foi mencionado: %q", clipText(d.BoxedWarning, 150)),
			Recommendation: fmt.Sprintf("Adicionar: \"ALERTA FDA: %s\"", d.BoxedWarning),
		})
	}
	return issues
}

// checkDosage compares dose mentions in the draft against the label's
// dosage section. Regex extraction narrows the candidates; the model
// judges whether any divergence is clinically significant.
func (a *Auditor) checkDosage(ctx context.Context, draft string, labels []types.EvidenceItem) ([]types.SafetyIssue, error) {
	var issues []types.SafetyIssue
	draftDoses := dosagePattern.FindAllString(draft, -1)
	if len(draftDoses) == 0 {
		return nil, nil
	}

	for _, item := range labels {
		d := item.Drug
		if d == nil || d.Dosage == "" {
			continue
		}
		labelDoses := dosagePattern.FindAllString(d.Dosage, -1)

		prompt := fmt.Sprintf(`Compare as dosagens mencionadas:

DOSAGEM NA SÍNTESE: %s
DOSAGEM APROVADA FDA: %s

Medicamento: %s
Informação completa FDA: %s

Há divergência SIGNIFICATIVA entre a dosagem da síntese e a aprovada pela FDA?`,
			joinOrNone(draftDoses), joinOrNone(labelDoses), d.GenericName, clipText(d.Dosage, 300))

		judgment, err := llm.AskJudgment(ctx, a.provider, a.model, prompt)
		if err != nil {
			return nil, err
		}
		if judgment.Answer {
			issues = append(issues, types.SafetyIssue{
				Type:           types.IssueDosageIncorrect,
				Severity:       types.SeverityHigh,
				Drug:           d.DisplayName(),
				Description:    judgment.Justification,
				Recommendation: fmt.Sprintf("Corrigir dosagem conforme FDA: %s", joinOrNone(labelDoses)),
			})
		}
	}
	return issues, nil
}

// checkRegionalProtocol enforces two rules when regional literature was
// retrieved: a question about a regional disease must cite regional
// protocols, and the draft must not contradict the retrieved regional
// evidence.
func (a *Auditor) checkRegionalProtocol(ctx context.Context, query, draft string, articles []types.EvidenceItem) ([]types.SafetyIssue, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	var issues []types.SafetyIssue
	queryLower := strings.ToLower(query)
	draftLower := strings.ToLower(draft)

	if containsAny(queryLower, regionalDiseases) && !containsAny(draftLower, regionalCitationKeywords) {
		issues = append(issues, types.SafetyIssue{
			Type:           types.IssueRegionalNotCited,
			Severity:       types.SeverityHigh,
			Description:    "Doença tropical/regional detectada mas protocolos LILACS não foram citados",
			Recommendation: "Adicionar referência explícita aos protocolos brasileiros/regionais da LILACS",
		})
	}

	var titles strings.Builder
	for i, article := range articles {
		fmt.Fprintf(&titles, "%d. %s (%s)\n", i+1, article.Title, article.Country)
	}

	prompt := fmt.Sprintf(`Você é um auditor de protocolos médicos.

PROTOCOLOS REGIONAIS (LILACS):
%s
SÍNTESE CLÍNICA GERADA:
%s

Há alguma CONTRADIÇÃO entre os protocolos LILACS e a síntese?
Por exemplo:
- LILACS recomenda X mas síntese sugere Y
- Medicamento proibido no Brasil foi sugerido
- Conduta específica do Brasil foi ignorada`,
		titles.String(), clipText(draft, 500))

	judgment, err := llm.AskJudgment(ctx, a.provider, a.model, prompt)
	if err != nil {
		return nil, err
	}
	if judgment.Answer {
		issues = append(issues, types.SafetyIssue{
			Type:           types.IssueProtocolConflict,
			Severity:       types.SeverityCritical,
			Description:    judgment.Justification,
			Recommendation: "Revisar síntese para alinhar com protocolos regionais",
		})
	}
	return issues, nil
}

// checkContraindications flags label contraindications that match a
// patient condition stated in the question and are not acknowledged in
// the draft.
func (a *Auditor) checkContraindications(query, draft string, labels []types.EvidenceItem) []types.SafetyIssue {
	queryLower := strings.ToLower(query)
	var detected []string
	for _, cond := range conditionKeywords {
		if strings.Contains(queryLower, cond) {
			detected = append(detected, cond)
		}
	}
	if len(detected) == 0 {
		return nil
	}

	draftLower := strings.ToLower(draft)
	acknowledged := containsAny(draftLower, mitigationPhrases)

	var issues []types.SafetyIssue
	for _, item := range labels {
		d := item.Drug
		if d == nil || (d.Contraindications == "" && d.Warnings == "") {
			continue
		}
		labelText := strings.ToLower(d.Contraindications + " " + d.Warnings)

		for _, cond := range detected {
			if !strings.Contains(labelText, cond) || acknowledged {
				continue
			}
			issues = append(issues, types.SafetyIssue{
				Type:           types.IssueContraindicationOmit,
				Severity:       types.SeverityCritical,
				Drug:           d.DisplayName(),
				Condition:      cond,
				Description:    fmt.Sprintf("%s tem contraindicação para %s mas isso não foi mencionado", d.GenericName, cond),
				Recommendation: fmt.Sprintf("Adicionar: \"CONTRAINDICADO em %s\"", cond),
			})
		}
	}
	return issues
}

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func joinOrNone(ss []string) string {
	if len(ss) == 0 {
		return "Nenhuma"
	}
	return strings.Join(ss, ", ")
}

// clipText bounds s to n bytes at a rune boundary.
func clipText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n] + "..."
}
