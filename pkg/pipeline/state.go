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

// Package pipeline executes an ordered sequence of generation stages over a
// shared accumulated state, with optional per-stage trace capture, and routes
// regeneration requests between lightweight and full re-runs.
package pipeline

// State is the key/value record threaded through all stages of one
// generation request. It is request-scoped: created fresh per request,
// never shared across requests, and discarded once the caller extracts
// its results.
type State map[string]any

// Conventional state keys. Stages write their outputs under these keys;
// later stages read them but never clear keys they did not produce.
const (
	// KeyInputText is the user's raw composition request.
	KeyInputText = "input_text"

	// KeyTone is the requested tone (formal, casual, assertive, empathetic).
	KeyTone = "tone"

	// KeyUserID identifies the requesting user for personalization.
	KeyUserID = "user_id"

	// KeyLengthPreference is an optional target word count.
	KeyLengthPreference = "length_preference"

	// KeyParsedData is the structured extraction from the input text.
	KeyParsedData = "parsed_data"

	// KeyRecipient is the recipient name extracted by the parser.
	KeyRecipient = "recipient"

	// KeyIntent is the classified email intent.
	KeyIntent = "intent"

	// KeyDraft is the initial generated draft.
	KeyDraft = "draft"

	// KeyStyledDraft is the tone-adjusted draft.
	KeyStyledDraft = "styled_draft"

	// KeyPersonalizedDraft is the profile-personalized draft.
	KeyPersonalizedDraft = "personalized_draft"

	// KeyFinalDraft is the reviewed, refined output.
	KeyFinalDraft = "final_draft"

	// KeyMetadata holds review/approval metadata accumulated by stages.
	KeyMetadata = "metadata"

	// KeyError records the last stage-level error message, if any.
	KeyError = "error"

	// KeyRetryCount tracks how many stage retries have happened.
	KeyRetryCount = "retry_count"
)

// Clone returns a shallow copy of the state. Runners clone the initial
// state so re-running the same stages over the same input stays a pure
// function of that input.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge applies a partial update: every returned key overwrites its entry,
// keys not present in the update are left untouched.
func (s State) Merge(update State) {
	for k, v := range update {
		s[k] = v
	}
}

// String returns the string value for key, or "" when absent or not a string.
func (s State) String(key string) string {
	v, ok := s[key].(string)
	if !ok {
		return ""
	}
	return v
}

// Int returns the int value for key, or 0 when absent or not an int.
func (s State) Int(key string) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Map returns the map value for key, or nil when absent or not a map.
func (s State) Map(key string) map[string]any {
	v, ok := s[key].(map[string]any)
	if !ok {
		return nil
	}
	return v
}
