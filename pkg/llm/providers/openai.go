// Copyright 2025 The Draftflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package providers contains concrete llm.Provider implementations.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/draftflow/draftflow/pkg/llm"
)

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Required.
	APIKey string

	// BaseURL overrides the API endpoint (for proxies and compatible servers).
	BaseURL string

	// Model is the model ID to use. Default: gpt-4o-mini.
	Model string
}

// OpenAIProvider implements llm.Provider on top of the OpenAI chat
// completions API.
type OpenAIProvider struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		logger: slog.Default(),
	}, nil
}

// WithLogger sets a custom logger for the provider.
func (p *OpenAIProvider) WithLogger(logger *slog.Logger) *OpenAIProvider {
	p.logger = logger
	return p
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the configured model ID.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Complete sends a chat completion request and returns the response with
// provider-reported usage. Failures are returned as *llm.ProviderError.
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)

	if err != nil {
		return nil, p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &llm.ProviderError{
			Provider: p.Name(),
			Kind:     llm.ErrorKindUnknown,
			Message:  "no choices in response",
		}
	}

	choice := resp.Choices[0]

	p.logger.Debug("chat completion finished",
		"model", p.model,
		"duration_ms", latency.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", choice.FinishReason)

	return &llm.CompletionResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		Usage: llm.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
		Latency: latency,
	}, nil
}

// wrapError converts an openai-go error into a classified *llm.ProviderError.
func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.ProviderError{
			Provider:   p.Name(),
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			Cause:      err,
		}
	}

	// No API response: transport-level failure
	return &llm.ProviderError{
		Provider: p.Name(),
		Kind:     llm.ErrorKindNetwork,
		Message:  err.Error(),
		Cause:    err,
	}
}

// convertMessages maps llm messages onto openai-go param unions.
func convertMessages(msgs []llm.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case llm.MessageRoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case llm.MessageRoleAssistant:
			result = append(result, openai.AssistantMessage(msg.Content))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}

	return result
}
