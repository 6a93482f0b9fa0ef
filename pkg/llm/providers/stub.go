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

package providers

import (
	"context"

	"github.com/draftflow/draftflow/pkg/llm"
)

// StubProvider implements llm.Provider without any network access.
// Every call fails with a classified "offline" error, which drives each
// pipeline stage down its deterministic fallback path. This is the no-API-key
// mode: the system still produces a usable draft end to end.
type StubProvider struct{}

// NewStub creates a stub provider.
func NewStub() *StubProvider {
	return &StubProvider{}
}

// Name returns the provider identifier.
func (s *StubProvider) Name() string {
	return "stub"
}

// Model returns the stub model ID.
func (s *StubProvider) Model() string {
	return "stub"
}

// Complete always fails. The error is classified as bad_request so the
// resilient caller aborts on the first attempt instead of burning retries.
func (s *StubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, &llm.ProviderError{
		Provider: s.Name(),
		Kind:     llm.ErrorKindBadRequest,
		Message:  "stub provider has no model backend",
	}
}
