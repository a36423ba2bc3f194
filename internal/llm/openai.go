// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// openAIBaseURL is the chat completions endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAIBaseURL = "https://api.openai.com/v1/chat/completions"

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	Client *http.Client
	APIKey string
}

// openai API JSON structures.
type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Messages    []types.Message `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion request. Failures are returned as
// typed *Error values so the workflow can report the failure class.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := json.Marshal(openAIRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    req.Messages,
	})
	if err != nil {
		return "", &Error{Kind: ErrOther, Provider: "openai", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIBaseURL, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: ErrOther, Provider: "openai", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		kind := ErrNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ErrTimeout
		}
		return "", &Error{Kind: kind, Provider: "openai", Err: err}
	}
	defer resp.Body.Close()

	var or openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return "", &Error{Kind: ErrOther, Provider: "openai", Err: fmt.Errorf("parsing response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &Error{Kind: ErrQuota, Provider: "openai", Err: apiError(resp.StatusCode, or)}
	case resp.StatusCode != http.StatusOK:
		return "", &Error{Kind: ErrOther, Provider: "openai", Err: apiError(resp.StatusCode, or)}
	}

	if len(or.Choices) == 0 {
		return "", &Error{Kind: ErrOther, Provider: "openai", Err: errors.New("empty choices")}
	}
	return or.Choices[0].Message.Content, nil
}

func apiError(status int, or openAIResponse) error {
	if or.Error != nil {
		return fmt.Errorf("HTTP %d: %s", status, or.Error.Message)
	}
	return fmt.Errorf("HTTP %d", status)
}
