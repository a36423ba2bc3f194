// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package revision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

type scriptedProvider struct {
	reply string
	err   error
	calls int
	last  llm.CompletionRequest
}

func (s *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

func newTestReviser(p llm.Provider) *Reviser {
	return NewReviser(p, types.LLMConfig{Model: "gpt-4o"}, zap.NewNop())
}

// --- No findings ---

func TestReviseNoIssuesReturnsDraftUnchanged(t *testing.T) {
	provider := &scriptedProvider{reply: "should not be used"}
	draft := "resposta original"

	got, err := newTestReviser(provider).Revise(context.Background(), "sys", draft, nil)
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if got != draft {
		t.Errorf("Revise = %q, want draft back", got)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}

// --- Prompt contents ---

func TestRevisePromptCarriesFindings(t *testing.T) {
	provider := &scriptedProvider{reply: "resposta revisada"}
	issues := []types.SafetyIssue{
		{
			Type:           types.IssueBoxedWarningOmitted,
			Severity:       types.SeverityCritical,
			Drug:           "Novalgina",
			Description:    "Boxed Warning da FDA não foi mencionado",
			Recommendation: "Adicionar: \"ALERTA FDA: agranulocitose\"",
		},
		{
			Type:        types.IssueRegionalNotCited,
			Severity:    types.SeverityHigh,
			Description: "protocolos LILACS não foram citados",
		},
	}

	got, err := newTestReviser(provider).Revise(context.Background(),
		"Você é uma assistente.", "resposta original", issues)
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if got != "resposta revisada" {
		t.Errorf("Revise = %q", got)
	}

	req := provider.last
	if req.Model != "gpt-4o" || req.Temperature != 0.7 || req.MaxTokens != 3000 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != types.RoleSystem {
		t.Fatalf("messages = %+v", req.Messages)
	}
	prompt := req.Messages[1].Content
	for _, want := range []string{
		"resposta original",
		"AVISOS DE SEGURANÇA CRÍTICOS",
		"1. Novalgina:",
		"Recomendação: Adicionar",
		// A finding without a drug falls back to its type.
		"2. REGIONAL_PROTOCOL_NOT_CITED:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

// --- Provider failure ---

func TestReviseProviderErrorPropagates(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("quota")}
	issues := []types.SafetyIssue{{Type: types.IssueDosageIncorrect, Description: "dose errada"}}

	_, err := newTestReviser(provider).Revise(context.Background(), "sys", "rascunho", issues)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "revision") {
		t.Errorf("error = %q", err.Error())
	}
}
