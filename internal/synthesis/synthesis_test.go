// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

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
	last  llm.CompletionRequest
}

func (s *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.last = req
	return s.reply, s.err
}

func testBundle() types.EvidenceBundle {
	bundle := types.NewEvidenceBundle()
	bundle[types.SourceSemanticScholar] = []types.EvidenceItem{
		{Source: types.SourceSemanticScholar, Title: "Paper One", Authors: []string{"Smith A"},
			Year: 2021, Journal: "Lancet", Abstract: "First abstract."},
		{Source: types.SourceSemanticScholar, Title: "Paper Two", Year: 2020},
		{Source: types.SourceSemanticScholar, Title: "Paper Three", Year: 2019},
	}
	bundle[types.SourceOpenFDA] = []types.EvidenceItem{
		{Source: types.SourceOpenFDA, Drug: &types.DrugLabel{
			BrandName:    "Novalgina",
			GenericName:  "metamizole",
			BoxedWarning: "Risk of agranulocytosis.",
		}},
	}
	bundle[types.SourceLILACS] = []types.EvidenceItem{
		{Source: types.SourceLILACS, Title: "Protocolo dengue", Country: "Brasil", IsRegional: true},
		{Source: types.SourceLILACS, Title: "Diretriz SUS", Country: "Brasil", IsRegional: true},
		{Source: types.SourceLILACS, Title: "Consenso SBMT", Country: "Brasil", IsRegional: true},
	}
	return bundle
}

// --- Digest rendering ---

func TestRenderDigestSectionsAndCaps(t *testing.T) {
	digest := RenderDigest(testBundle(), types.RegionalDiseaseInfo{})

	if !strings.Contains(digest, "SEMANTIC SCHOLAR") {
		t.Error("digest missing academic section")
	}
	if !strings.Contains(digest, "Paper One") || !strings.Contains(digest, "Paper Two") {
		t.Error("digest missing first two papers")
	}
	// Two items per source unless prioritized.
	if strings.Contains(digest, "Paper Three") {
		t.Error("digest exceeded per-source cap")
	}
	if strings.Contains(digest, "Protocolo dengue") && strings.Contains(digest, "Consenso SBMT") {
		t.Error("regional section exceeded cap without priority")
	}
	if !strings.Contains(digest, "ALERTA FDA (Boxed Warning): Risk of agranulocytosis.") {
		t.Error("digest missing the boxed warning")
	}
}

func TestRenderDigestRegionalPriority(t *testing.T) {
	info := types.RegionalDiseaseInfo{Detected: true, Disease: "dengue", Region: "Tropical/Brasil"}
	digest := RenderDigest(testBundle(), info)

	if !strings.Contains(digest, "PRIORIDADE MÁXIMA") {
		t.Error("digest missing priority header")
	}
	if !strings.Contains(digest, "DENGUE") {
		t.Error("digest missing detected disease")
	}
	// Priority raises the regional cap to three.
	if !strings.Contains(digest, "Consenso SBMT") {
		t.Error("digest missing third regional item under priority")
	}
}

func TestRenderDigestEmptyBundle(t *testing.T) {
	digest := RenderDigest(types.NewEvidenceBundle(), types.RegionalDiseaseInfo{})
	if !strings.Contains(digest, "nenhuma evidência") {
		t.Errorf("digest = %q, want empty-evidence marker", digest)
	}
}

func TestRenderDigestClipsAbstracts(t *testing.T) {
	bundle := types.NewEvidenceBundle()
	bundle[types.SourceEuropePMC] = []types.EvidenceItem{
		{Source: types.SourceEuropePMC, Title: "Long", Abstract: strings.Repeat("a", 1000)},
	}
	digest := RenderDigest(bundle, types.RegionalDiseaseInfo{})
	if strings.Contains(digest, strings.Repeat("a", abstractBudget+10)) {
		t.Error("abstract not clipped")
	}
	if !strings.Contains(digest, "...") {
		t.Error("clipped abstract missing ellipsis")
	}
}

// --- Synthesis call ---

func TestSynthesizePromptAssembly(t *testing.T) {
	provider := &scriptedProvider{reply: "resposta"}
	s := NewSynthesizer(provider, types.LLMConfig{Model: "gpt-4o"}, zap.NewNop())

	history := []types.Message{
		{Role: types.RoleUser, Content: "pergunta anterior"},
		{Role: types.RoleAssistant, Content: "resposta anterior"},
	}
	info := types.RegionalDiseaseInfo{Detected: true, Disease: "dengue", Region: "Tropical/Brasil", Priority: "MÁXIMA"}

	draft, err := s.Synthesize(context.Background(), "qual o manejo da dengue?",
		"Você é uma assistente.", history, testBundle(), info)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if draft != "resposta" {
		t.Errorf("draft = %q", draft)
	}

	req := provider.last
	if req.Model != "gpt-4o" || req.Temperature != 0.7 || req.MaxTokens != 3000 {
		t.Errorf("request = %+v", req)
	}
	// system + 2 history turns + user question.
	if len(req.Messages) != 4 {
		t.Fatalf("len(Messages) = %d, want 4", len(req.Messages))
	}
	system := req.Messages[0]
	if system.Role != types.RoleSystem {
		t.Errorf("first message role = %q", system.Role)
	}
	for _, want := range []string{"Você é uma assistente.", "EVIDÊNCIAS CIENTÍFICAS", "SEMPRE cite as fontes", "DOENÇA REGIONAL DETECTADA"} {
		if !strings.Contains(system.Content, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if req.Messages[1].Content != "pergunta anterior" {
		t.Error("history not replayed in order")
	}
	if last := req.Messages[3]; last.Role != types.RoleUser || last.Content != "qual o manejo da dengue?" {
		t.Errorf("last message = %+v", last)
	}
}

func TestSynthesizeProviderErrorPropagates(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("quota")}
	s := NewSynthesizer(provider, types.LLMConfig{Model: "gpt-4o"}, zap.NewNop())

	_, err := s.Synthesize(context.Background(), "pergunta?", "sys", nil,
		types.NewEvidenceBundle(), types.RegionalDiseaseInfo{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "synthesis") {
		t.Errorf("error = %q", err.Error())
	}
}
