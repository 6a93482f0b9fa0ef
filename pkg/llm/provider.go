// Package llm provides abstractions for Large Language Model providers.
// This package is designed to be embeddable in other Go applications and
// provides a provider-agnostic interface for completions, resilient call
// execution, and token accounting.
package llm

import (
	"context"
	"time"
)

// Provider defines the interface that all LLM providers must implement.
type Provider interface {
	// Name returns the unique identifier for this provider (e.g., "openai", "stub").
	Name() string

	// Model returns the model ID this provider is configured for.
	Model() string

	// Complete sends a synchronous completion request and returns the full response.
	// This method blocks until the LLM response is complete. Provider failures
	// must be returned as *ProviderError so callers can classify them.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest contains all parameters for an LLM completion request.
type CompletionRequest struct {
	// Messages is the conversation history including the current prompt.
	Messages []Message

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	// nil uses the provider default.
	Temperature *float64

	// MaxTokens limits the response length. If nil, uses provider default.
	MaxTokens *int

	// Metadata contains request tracking information (correlation IDs, stage
	// names, etc). Providers may attach it to outbound requests.
	Metadata map[string]string
}

// Message represents a single message in a conversation.
type Message struct {
	// Role indicates who sent this message (system, user, assistant).
	Role MessageRole

	// Content is the text content of the message.
	Content string
}

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	// MessageRoleSystem indicates a system message (context, instructions).
	MessageRoleSystem MessageRole = "system"

	// MessageRoleUser indicates a message from the user.
	MessageRoleUser MessageRole = "user"

	// MessageRoleAssistant indicates a message from the LLM.
	MessageRoleAssistant MessageRole = "assistant"
)

// CompletionResponse contains the LLM's response to a completion request.
type CompletionResponse struct {
	// Content is the generated text.
	Content string

	// Model is the model that produced the response (as reported by the provider).
	Model string

	// FinishReason indicates why generation stopped (e.g., "stop", "length").
	FinishReason string

	// Usage contains token consumption reported by the provider.
	// Zero-valued when the provider does not report usage; callers should
	// fall back to estimation in that case.
	Usage TokenUsage

	// Latency is how long the provider took to respond.
	Latency time.Duration
}

// TokenUsage tracks token consumption for a single request.
type TokenUsage struct {
	// InputTokens is the number of tokens in the input (prompt).
	InputTokens int

	// OutputTokens is the number of tokens in the output (completion).
	OutputTokens int

	// TotalTokens is the sum of input and output tokens.
	TotalTokens int
}

// Reported returns true when the provider supplied real token counts.
func (u TokenUsage) Reported() bool {
	return u.InputTokens > 0 || u.OutputTokens > 0
}

// SystemUser is a convenience constructor for the common two-message request shape.
func SystemUser(system, user string) []Message {
	return []Message{
		{Role: MessageRoleSystem, Content: system},
		{Role: MessageRoleUser, Content: user},
	}
}
