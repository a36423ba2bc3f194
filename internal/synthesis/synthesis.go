// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns an evidence bundle into a drafted clinical
// answer. The bundle is rendered as a plain-text digest, embedded in the
// system prompt together with grounding instructions, and sent to the
// configured LLM provider along with the conversation history.
package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/internal/normalize"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Digest rendering budgets. Keeping the prompt bounded matters more than
// completeness; the auditor sees the same truncated text the model saw.
const (
	itemsPerSource         = 2
	itemsRegionalPriority  = 3
	abstractBudget         = 300
	regionalAbstractBudget = 250
)

// groundingInstructions is appended after the digest. It binds the model
// to the evidence and forces source attribution.
const groundingInstructions = `INSTRUÇÕES IMPORTANTES:
1. Base sua resposta nas evidências científicas fornecidas acima
2. SEMPRE cite as fontes ao fazer afirmações (ex: "Segundo estudo da LILACS...")
3. Diferencie claramente:
   - "Protocolos Internacionais" (Semantic Scholar, Europe PMC)
   - "Protocolos Nacionais/Regionais" (LILACS - contexto brasileiro)
4. Se houver informações da OpenFDA, MENCIONE os avisos de segurança
5. Use linguagem técnica mas acessível
6. Seja objetivo e estruturado

IMPORTANTE: Se encontrou avisos de segurança (Boxed Warnings) da FDA, SEMPRE os mencione claramente na resposta.`

// Synthesizer drafts answers from gathered evidence.
type Synthesizer struct {
	provider llm.Provider
	cfg      types.LLMConfig
	logger   *zap.Logger
}

// NewSynthesizer returns a Synthesizer backed by the given provider.
func NewSynthesizer(provider llm.Provider, cfg types.LLMConfig, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{provider: provider, cfg: cfg, logger: logger}
}

// Synthesize drafts a clinical answer for query. The system message,
// evidence digest, and regional priority instructions are combined into
// one system prompt; the conversation history precedes the user turn.
func (s *Synthesizer) Synthesize(ctx context.Context, query, systemMessage string,
	history []types.Message, bundle types.EvidenceBundle, regional types.RegionalDiseaseInfo) (string, error) {

	started := time.Now()

	var sb strings.Builder
	sb.WriteString(systemMessage)
	sb.WriteString("\n\nEVIDÊNCIAS CIENTÍFICAS ENCONTRADAS:\n")
	sb.WriteString(RenderDigest(bundle, regional))
	if regional.Detected {
		sb.WriteString("\n")
		sb.WriteString(normalize.RegionalPriorityInstruction(regional))
	}
	sb.WriteString("\n\n")
	sb.WriteString(groundingInstructions)

	messages := make([]types.Message, 0, len(history)+2)
	messages = append(messages, types.Message{Role: types.RoleSystem, Content: sb.String()})
	messages = append(messages, history...)
	messages = append(messages, types.Message{Role: types.RoleUser, Content: query})

	draft, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.Model,
		Temperature: 0.7,
		MaxTokens:   3000,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("synthesis: %w", err)
	}

	s.logger.Info("draft synthesized",
		zap.Int("chars", len(draft)),
		zap.Int("evidence_items", bundle.Count()),
		zap.Duration("elapsed", time.Since(started)))
	return draft, nil
}

// RenderDigest formats the bundle as the plain-text evidence block that
// goes into the system prompt. Each source renders its own section; an
// empty source renders nothing. At most itemsPerSource entries per
// source, except the regional source when a priority disease was
// detected (itemsRegionalPriority) and the regulatory source (all
// labels, the auditor needs every warning the model saw).
func RenderDigest(bundle types.EvidenceBundle, regional types.RegionalDiseaseInfo) string {
	var sb strings.Builder

	renderPapers(&sb, "SEMANTIC SCHOLAR (Artigos Acadêmicos):",
		bundle[types.SourceSemanticScholar], itemsPerSource)
	renderPapers(&sb, "EUROPE PMC (PubMed, SciELO, DOAJ):",
		bundle[types.SourceEuropePMC], itemsPerSource)
	renderRegional(&sb, bundle[types.SourceLILACS], regional)
	renderLabels(&sb, bundle[types.SourceOpenFDA])
	renderTrials(&sb, bundle[types.SourceClinicalTrials], itemsPerSource)

	if sb.Len() == 0 {
		return "(nenhuma evidência encontrada)\n"
	}
	return sb.String()
}

func renderPapers(sb *strings.Builder, header string, items []types.EvidenceItem, max int) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s\n", header)
	for i, item := range capItems(items, max) {
		fmt.Fprintf(sb, "%d. %q\n", i+1, item.Title)
		if len(item.Authors) > 0 {
			fmt.Fprintf(sb, "   Autores: %s\n", strings.Join(item.Authors, ", "))
		}
		if item.Journal != "" {
			fmt.Fprintf(sb, "   Publicação: %s (%d)\n", item.Journal, item.Year)
		} else if item.Year > 0 {
			fmt.Fprintf(sb, "   Ano: %d\n", item.Year)
		}
		if item.Abstract != "" {
			fmt.Fprintf(sb, "   Resumo: %s\n", clip(item.Abstract, abstractBudget))
		}
		sb.WriteString("\n")
	}
}

func renderRegional(sb *strings.Builder, items []types.EvidenceItem, regional types.RegionalDiseaseInfo) {
	if len(items) == 0 {
		return
	}
	max := itemsPerSource
	if regional.Detected {
		max = itemsRegionalPriority
		sb.WriteString("\nPROTOCOLOS REGIONAIS - LILACS (PRIORIDADE MÁXIMA):\n")
		fmt.Fprintf(sb, "DOENÇA REGIONAL DETECTADA: %s (%s)\n", strings.ToUpper(regional.Disease), regional.Region)
		sb.WriteString("PRIORIZE ESTAS EVIDÊNCIAS SOBRE PROTOCOLOS INTERNACIONAIS\n")
	} else {
		sb.WriteString("\nPROTOCOLOS REGIONAIS - LILACS (América Latina/Brasil):\n")
	}
	sb.WriteString("Use para contextualizar recomendações para a realidade brasileira\n\n")

	for i, item := range capItems(items, max) {
		fmt.Fprintf(sb, "%d. %q\n", i+1, item.Title)
		if len(item.Authors) > 0 {
			fmt.Fprintf(sb, "   Autores: %s\n", strings.Join(item.Authors, ", "))
		}
		if item.Country != "" {
			fmt.Fprintf(sb, "   País: %s\n", item.Country)
		}
		if item.Journal != "" {
			fmt.Fprintf(sb, "   Publicação: %s (%d)\n", item.Journal, item.Year)
		}
		if item.Abstract != "" {
			fmt.Fprintf(sb, "   Resumo: %s\n", clip(item.Abstract, regionalAbstractBudget))
		}
		sb.WriteString("\n")
	}
}

func renderLabels(sb *strings.Builder, items []types.EvidenceItem) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\nOPENFDA (Informações Oficiais de Medicamentos):\n")
	for i, item := range items {
		d := item.Drug
		if d == nil {
			continue
		}
		fmt.Fprintf(sb, "%d. %s\n", i+1, d.DisplayName())
		if d.Manufacturer != "" {
			fmt.Fprintf(sb, "   Fabricante: %s\n", d.Manufacturer)
		}
		if d.Indications != "" {
			fmt.Fprintf(sb, "   Indicações: %s\n", d.Indications)
		}
		if d.Dosage != "" {
			fmt.Fprintf(sb, "   Dosagem: %s\n", d.Dosage)
		}
		if d.BoxedWarning != "" {
			fmt.Fprintf(sb, "   ALERTA FDA (Boxed Warning): %s\n", d.BoxedWarning)
		}
		if d.Contraindications != "" {
			fmt.Fprintf(sb, "   Contraindicações: %s\n", d.Contraindications)
		}
		sb.WriteString("\n")
	}
}

func renderTrials(sb *strings.Builder, items []types.EvidenceItem, max int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("\nENSAIOS CLÍNICOS (ClinicalTrials.gov):\n")
	for i, item := range capItems(items, max) {
		fmt.Fprintf(sb, "%d. %q\n", i+1, item.Title)
		if t := item.Trial; t != nil {
			fmt.Fprintf(sb, "   Status: %s | Fase: %s\n", t.Status, t.Phase)
			conditions := "Não especificadas"
			if len(t.Conditions) > 0 {
				conditions = strings.Join(t.Conditions, ", ")
			}
			fmt.Fprintf(sb, "   Condições: %s\n", conditions)
		}
		sb.WriteString("\n")
	}
}

func capItems(items []types.EvidenceItem, max int) []types.EvidenceItem {
	if len(items) > max {
		return items[:max]
	}
	return items
}

// clip bounds s to n bytes at a rune boundary, appending an ellipsis
// when text was dropped.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n] + "..."
}
