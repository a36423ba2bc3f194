// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package revision rewrites a draft to incorporate the safety findings
// of an audit pass. A revision is a single model call; deciding how many
// revisions a run may attempt belongs to the workflow, not here.
package revision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Reviser rewrites unsafe drafts.
type Reviser struct {
	provider llm.Provider
	cfg      types.LLMConfig
	logger   *zap.Logger
}

// NewReviser returns a Reviser backed by the given provider.
func NewReviser(provider llm.Provider, cfg types.LLMConfig, logger *zap.Logger) *Reviser {
	return &Reviser{provider: provider, cfg: cfg, logger: logger}
}

// Revise rewrites draft so that every listed finding is addressed. The
// original technical content is preserved; the missing warnings are
// added prominently.
func (r *Reviser) Revise(ctx context.Context, systemMessage, draft string, issues []types.SafetyIssue) (string, error) {
	if len(issues) == 0 {
		return draft, nil
	}
	started := time.Now()

	var findings strings.Builder
	findings.WriteString("AVISOS DE SEGURANÇA CRÍTICOS:\n\n")
	for i, issue := range issues {
		subject := issue.Drug
		if subject == "" {
			subject = string(issue.Type)
		}
		fmt.Fprintf(&findings, "%d. %s:\n", i+1, subject)
		fmt.Fprintf(&findings, "   %s\n", issue.Description)
		if issue.Recommendation != "" {
			fmt.Fprintf(&findings, "   Recomendação: %s\n", issue.Recommendation)
		}
		findings.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Você precisa REVISAR a resposta anterior para incluir avisos de segurança críticos.

RESPOSTA ORIGINAL:
%s

AVISOS DE SEGURANÇA QUE DEVEM SER ADICIONADOS:
%s
INSTRUÇÕES:
1. Mantenha o conteúdo técnico da resposta original
2. ADICIONE os avisos de segurança em local apropriado
3. Use formatação destacada para os avisos
4. Seja claro que são avisos oficiais da FDA
5. Mantenha o tom profissional mas enfático nos avisos

Reescreva a resposta incluindo estes avisos de forma clara e destacada.`, draft, findings.String())

	revised, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Model:       r.cfg.Model,
		Temperature: 0.7,
		MaxTokens:   3000,
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: systemMessage},
			{Role: types.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("revision: %w", err)
	}

	r.logger.Info("draft revised",
		zap.Int("issues_addressed", len(issues)),
		zap.Int("chars", len(revised)),
		zap.Duration("elapsed", time.Since(started)))
	return revised, nil
}
