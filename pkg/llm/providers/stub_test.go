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
	"errors"
	"testing"

	"github.com/draftflow/draftflow/pkg/llm"
)

func TestStubProviderFailsFatally(t *testing.T) {
	stub := NewStub()

	if stub.Name() != "stub" || stub.Model() != "stub" {
		t.Errorf("identity = %s/%s, want stub/stub", stub.Name(), stub.Model())
	}

	_, err := stub.Complete(context.Background(), llm.CompletionRequest{
		Messages: llm.SystemUser("system", "user"),
	})
	if err == nil {
		t.Fatal("expected the stub to fail")
	}

	var provErr *llm.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *llm.ProviderError, got %T", err)
	}
	if kind := llm.Classify(err); kind != llm.ErrorKindBadRequest {
		t.Errorf("Classify = %q, want %q so the caller never retries", kind, llm.ErrorKindBadRequest)
	}
}
