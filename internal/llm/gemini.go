// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// GeminiProvider is a thin wrapper around the official genai client.
type GeminiProvider struct {
	cli *genai.Client
}

// NewGeminiProvider builds a provider against the Gemini API.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{cli: cli}, nil
}

// Complete maps the request onto one GenerateContent call. System messages
// become the system instruction; assistant turns map to the "model" role.
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var system *genai.Content
	var contents []*genai.Content

	for _, m := range req.Messages {
		switch m.Role {
		case types.RoleSystem:
			system = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case types.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens:   int32(req.MaxTokens),
		SystemInstruction: system,
	}

	resp, err := p.cli.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", &Error{Kind: classifyGeminiErr(err), Provider: "gemini", Err: err}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Kind: ErrOther, Provider: "gemini", Err: errors.New("empty candidates")}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func classifyGeminiErr(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case strings.Contains(err.Error(), "429"), strings.Contains(err.Error(), "quota"):
		return ErrQuota
	default:
		return ErrNetwork
	}
}
