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

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a provider failure by whether retrying can plausibly succeed.
type ErrorKind string

const (
	// ErrorKindRateLimit indicates the provider rejected the request for
	// rate or quota reasons. Retryable after a delay.
	ErrorKindRateLimit ErrorKind = "rate_limit"

	// ErrorKindNetwork indicates a transient network or server failure. Retryable.
	ErrorKindNetwork ErrorKind = "network"

	// ErrorKindTimeout indicates the attempt was cut short by a deadline.
	// Not retryable: the caller's budget is already spent.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindAuth indicates invalid or missing credentials. Never retryable.
	ErrorKindAuth ErrorKind = "auth"

	// ErrorKindBadRequest indicates a malformed request. Never retryable.
	ErrorKindBadRequest ErrorKind = "bad_request"

	// ErrorKindUnknown is the default for unclassified failures. Not retryable.
	ErrorKindUnknown ErrorKind = "unknown"
)

// Recoverable reports whether a failure of this kind is worth retrying.
func (k ErrorKind) Recoverable() bool {
	return k == ErrorKindRateLimit || k == ErrorKindNetwork
}

// ProviderError represents an LLM provider failure.
// Use this for errors originating from external LLM providers.
type ProviderError struct {
	// Provider is the name of the LLM provider (e.g., "openai")
	Provider string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Kind is the failure classification. Zero value means "classify from
	// status code and message" via Classify.
	Kind ErrorKind

	// Message is the human-readable error message
	Message string

	// RequestID correlates this error with provider logs
	RequestID string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s error", e.Provider)

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	msg = fmt.Sprintf("%s: %s", msg, e.Message)

	if e.RequestID != "" {
		msg = fmt.Sprintf("%s (request-id: %s)", msg, e.RequestID)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// rate/quota signal fragments seen in provider error payloads.
var rateLimitSignals = []string{
	"rate limit",
	"rate_limit",
	"quota",
	"resource exhausted",
	"resource_exhausted",
	"too many requests",
	"overloaded",
	"429",
}

var authSignals = []string{
	"api key",
	"api_key",
	"unauthorized",
	"authentication",
	"invalid key",
	"permission denied",
	"forbidden",
}

// Classify determines the ErrorKind for a provider failure.
//
// Classification order: explicit *ProviderError Kind, context errors, HTTP
// status code, then message text heuristics. Unknown failures are treated as
// fatal: retrying an error we cannot identify wastes quota.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		if provErr.Kind != "" {
			return provErr.Kind
		}
		if kind, ok := classifyStatus(provErr.StatusCode); ok {
			return kind
		}
	}

	return classifyText(err.Error())
}

// classifyStatus maps an HTTP status code to an ErrorKind.
func classifyStatus(status int) (ErrorKind, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorKindRateLimit, true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorKindAuth, true
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusRequestEntityTooLarge:
		return ErrorKindBadRequest, true
	case status == http.StatusRequestTimeout:
		return ErrorKindNetwork, true
	case status >= 500:
		return ErrorKindNetwork, true
	}
	return ErrorKindUnknown, false
}

// classifyText applies message heuristics when no structured signal exists.
func classifyText(msg string) ErrorKind {
	lower := strings.ToLower(msg)

	for _, signal := range rateLimitSignals {
		if strings.Contains(lower, signal) {
			return ErrorKindRateLimit
		}
	}

	for _, signal := range authSignals {
		if strings.Contains(lower, signal) {
			return ErrorKindAuth
		}
	}

	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return ErrorKindTimeout
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network") ||
		strings.Contains(lower, "unavailable") || strings.Contains(lower, "temporar"):
		return ErrorKindNetwork
	case strings.Contains(lower, "invalid request") || strings.Contains(lower, "malformed"):
		return ErrorKindBadRequest
	}

	return ErrorKindUnknown
}

// ExhaustedRetriesError is returned when all retry attempts fail.
// It carries the full attempt history for diagnostics.
type ExhaustedRetriesError struct {
	// Attempts is the number of attempts made.
	Attempts int

	// History records the outcome of every attempt in order.
	History []AttemptRecord

	// LastErr is the error from the final attempt.
	LastErr error
}

// AttemptRecord describes one attempt through the resilient caller.
type AttemptRecord struct {
	// Index is the 0-based attempt number.
	Index int

	// Kind is the failure classification for this attempt.
	Kind ErrorKind

	// Err is the error message from this attempt.
	Err string

	// Waited is how long the caller slept before this attempt.
	Waited string
}

// Error implements the error interface.
func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("llm call failed after %d attempts: %v", e.Attempts, e.LastErr)
}

// Unwrap returns the last attempt's error for errors.Is/As support.
func (e *ExhaustedRetriesError) Unwrap() error {
	return e.LastErr
}
