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
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: ErrorKindUnknown,
		},
		{
			name: "context canceled",
			err:  context.Canceled,
			want: ErrorKindTimeout,
		},
		{
			name: "context deadline exceeded",
			err:  context.DeadlineExceeded,
			want: ErrorKindTimeout,
		},
		{
			name: "wrapped context error",
			err:  fmt.Errorf("calling provider: %w", context.DeadlineExceeded),
			want: ErrorKindTimeout,
		},
		{
			name: "explicit kind wins",
			err:  &ProviderError{Provider: "openai", StatusCode: 500, Kind: ErrorKindAuth, Message: "x"},
			want: ErrorKindAuth,
		},
		{
			name: "status 429",
			err:  &ProviderError{Provider: "openai", StatusCode: 429, Message: "slow down"},
			want: ErrorKindRateLimit,
		},
		{
			name: "status 401",
			err:  &ProviderError{Provider: "openai", StatusCode: 401, Message: "nope"},
			want: ErrorKindAuth,
		},
		{
			name: "status 400",
			err:  &ProviderError{Provider: "openai", StatusCode: 400, Message: "nope"},
			want: ErrorKindBadRequest,
		},
		{
			name: "status 503",
			err:  &ProviderError{Provider: "openai", StatusCode: 503, Message: "down"},
			want: ErrorKindNetwork,
		},
		{
			name: "rate limit text",
			err:  errors.New("Resource exhausted: quota exceeded for this project"),
			want: ErrorKindRateLimit,
		},
		{
			name: "auth text",
			err:  errors.New("invalid API key provided"),
			want: ErrorKindAuth,
		},
		{
			name: "timeout text",
			err:  errors.New("request timed out after 30s"),
			want: ErrorKindTimeout,
		},
		{
			name: "network text",
			err:  errors.New("connection reset by peer"),
			want: ErrorKindNetwork,
		},
		{
			name: "bad request text",
			err:  errors.New("invalid request: missing messages"),
			want: ErrorKindBadRequest,
		},
		{
			name: "unclassifiable",
			err:  errors.New("something odd happened"),
			want: ErrorKindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorKindRecoverable(t *testing.T) {
	recoverable := map[ErrorKind]bool{
		ErrorKindRateLimit:  true,
		ErrorKindNetwork:    true,
		ErrorKindTimeout:    false,
		ErrorKindAuth:       false,
		ErrorKindBadRequest: false,
		ErrorKindUnknown:    false,
	}
	for kind, want := range recoverable {
		if got := kind.Recoverable(); got != want {
			t.Errorf("%s.Recoverable() = %v, want %v", kind, got, want)
		}
	}
}

func TestProviderErrorFormatting(t *testing.T) {
	err := &ProviderError{
		Provider:   "openai",
		StatusCode: 429,
		Message:    "too many requests",
		RequestID:  "req_abc123",
	}
	want := "provider openai error [HTTP 429]: too many requests (request-id: req_abc123)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &ProviderError{Provider: "stub", Message: "boom"}
	if got := bare.Error(); got != "provider stub error: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("tcp dial failed")
	err := &ProviderError{Provider: "openai", Message: "network", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestExhaustedRetriesError(t *testing.T) {
	last := &ProviderError{Provider: "openai", StatusCode: 429, Message: "too many requests"}
	err := &ExhaustedRetriesError{
		Attempts: 3,
		History: []AttemptRecord{
			{Index: 0, Kind: ErrorKindRateLimit, Err: "x", Waited: "0s"},
			{Index: 1, Kind: ErrorKindRateLimit, Err: "x", Waited: "1s"},
			{Index: 2, Kind: ErrorKindRateLimit, Err: "x", Waited: "2s"},
		},
		LastErr: last,
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatal("expected errors.As to reach the last provider error")
	}
	if provErr.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", provErr.StatusCode)
	}

	msg := err.Error()
	if msg == "" || !errors.Is(err, last) {
		t.Errorf("unexpected error string %q or unwrap failure", msg)
	}
}
