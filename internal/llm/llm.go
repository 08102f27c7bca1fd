// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides a minimal chat-completions client. The pipeline
// treats the model as an opaque collaborator: one system instruction,
// one user message, one text completion back.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Client is the completion interface stages depend on. Tests supply a
// mock; production wiring supplies *OpenAIClient.
type Client interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Request knobs that are fixed per call site rather than per deployment.
type Options struct {
	// MaxTokens caps the completion length; 0 means provider default.
	MaxTokens int
}

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls the OpenAI chat-completions endpoint.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	opts       Options
}

// NewOpenAIClient builds a client from config. Callers must not
// construct one without an API key; missing credentials are handled
// upstream by leaving the stage's client nil.
func NewOpenAIClient(cfg types.LLMConfig, opts Options) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		opts:       opts,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the first choice's
// content. An empty completion is an error so call sites can fall back
// uniformly.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	var parsed chatResponse
	err := httputil.PostJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", headers, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   c.opts.MaxTokens,
	}, &parsed)
	if err != nil {
		return "", fmt.Errorf("chat-completions request: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}
