// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize adapts a raw clinical query to what each downstream
// source expects: international sources are queried in English, regional
// literature in the original language. Translation tries a bounded
// dictionary substitution first and falls back to the completion provider
// only when the dictionary found nothing. Normalization never fails: on
// any provider error the dictionary-pass result is returned as-is.
//
// See docs/ARCHITECTURE.md § Query Normalization.
package normalize

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// translationPrompt instructs the model to return nothing but the
// translation itself.
const translationPrompt = `Traduza esta pergunta médica do português para o inglês.
Mantenha termos técnicos precisos.
NÃO adicione explicações, apenas retorne a tradução.

Pergunta: %s

Tradução:`

// Translator rewrites queries into English for the international sources.
type Translator struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger

	// entries are the dictionary substitutions, longest key first so
	// multi-word terms win over their substrings.
	entries []dictEntry
}

type dictEntry struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewTranslator builds a Translator over the given dictionary. provider
// may be nil, in which case only the dictionary pass runs.
func NewTranslator(dictionary map[string]string, provider llm.Provider, model string, logger *zap.Logger) *Translator {
	keys := make([]string, 0, len(dictionary))
	for k := range dictionary {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	entries := make([]dictEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, dictEntry{
			pattern:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`),
			replacement: dictionary[k],
		})
	}

	return &Translator{
		provider: provider,
		model:    model,
		logger:   logger,
		entries:  entries,
	}
}

// Translate returns the English form of query. The dictionary pass is
// deterministic; when it changes nothing the provider is asked for a full
// translation. A provider failure falls back to the dictionary result.
// Translate never returns an error.
func (t *Translator) Translate(ctx context.Context, query string) string {
	translated := query
	for _, e := range t.entries {
		translated = e.pattern.ReplaceAllString(translated, e.replacement)
	}

	if !strings.EqualFold(translated, query) {
		return translated
	}
	if t.provider == nil {
		return translated
	}

	text, err := t.provider.Complete(ctx, llm.CompletionRequest{
		Model:       t.model,
		Temperature: 0.3,
		MaxTokens:   200,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: fmt.Sprintf(translationPrompt, query)},
		},
	})
	if err != nil {
		t.logger.Warn("translation fallback failed, keeping dictionary result",
			zap.Error(err))
		return translated
	}
	return strings.TrimSpace(text)
}
