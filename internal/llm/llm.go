// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the completion-provider boundary the workflow
// depends on. Providers are never retried by the core: a failed call is
// fatal to the current run, and retry policy belongs to the provider
// implementation if anywhere.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Provider completes a chat-style exchange and returns the model's text.
// Implementations own their timeouts; the workflow passes no deadline of
// its own beyond the request context.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is one call to the completion provider.
type CompletionRequest struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Messages    []types.Message
}

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	ErrTimeout ErrorKind = "timeout"
	ErrQuota   ErrorKind = "quota"
	ErrNetwork ErrorKind = "network"
	ErrOther   ErrorKind = "other"
)

// Error is a typed provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Judgment is a structured yes/no verdict with the model's reasoning.
// Safety checks request this shape instead of parsing free text.
type Judgment struct {
	Answer        bool   `json:"answer"`
	Justification string `json:"justification"`
}

// judgmentInstruction is appended to every judgment prompt.
const judgmentInstruction = `Responda APENAS com JSON neste formato exato, sem texto adicional:
{"answer": true|false, "justification": "<explicação breve>"}`

// AskJudgment sends a judgment prompt and parses the strict-JSON verdict.
// A provider failure or an unparseable response is returned as an error;
// the caller treats either as fatal.
func AskJudgment(ctx context.Context, p Provider, model, prompt string) (Judgment, error) {
	text, err := p.Complete(ctx, CompletionRequest{
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   1500,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: prompt + "\n\n" + judgmentInstruction},
		},
	})
	if err != nil {
		return Judgment{}, err
	}

	var j Judgment
	if err := json.Unmarshal([]byte(stripFences(text)), &j); err != nil {
		return Judgment{}, fmt.Errorf("parsing judgment %q: %w", truncateForError(text), err)
	}
	return j, nil
}

// stripFences removes a Markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncateForError(s string) string {
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}
