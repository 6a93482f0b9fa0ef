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

package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftflow/draftflow/pkg/pipeline"
)

func (s *Service) reviewStage() pipeline.Stage {
	return pipeline.Stage{
		Name:     StageReview,
		Produces: []string{pipeline.KeyFinalDraft, pipeline.KeyMetadata},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			text := state.String(pipeline.KeyPersonalizedDraft)
			if text == "" {
				text = state.String(pipeline.KeyDraft)
			}
			tone := NormalizeTone(state.String(pipeline.KeyTone))
			intent := Intent(state.String(pipeline.KeyIntent))

			issues := ValidateDraft(text)
			if len(issues) == 0 {
				return pipeline.State{
					pipeline.KeyFinalDraft: text,
					pipeline.KeyMetadata: map[string]any{
						"approved": true,
						"issues":   []string{},
						"improved": false,
					},
				}, nil
			}

			improved, err := s.complete(ctx, StageReview, reviewSystemPrompt, reviewUserPrompt(text, tone, intent))
			if err != nil || improved == "" {
				if err != nil && !fallbackAllowed(err) {
					return nil, err
				}
				s.logger.Warn("review pass failed, keeping draft as-is", "error", err)
				return pipeline.State{
					pipeline.KeyFinalDraft: text,
					pipeline.KeyMetadata: map[string]any{
						"approved": true,
						"issues":   issues,
						"improved": false,
					},
				}, nil
			}

			return pipeline.State{
				pipeline.KeyFinalDraft: improved,
				pipeline.KeyMetadata: map[string]any{
					"approved": true,
					"issues":   issues,
					"improved": true,
				},
			}, nil
		},
	}
}

// ValidateDraft runs quick heuristic checks on a draft and returns the
// issues found: minimum length, a greeting near the top, a closing near
// the bottom, and restrained punctuation.
func ValidateDraft(text string) []string {
	var issues []string

	words := len(strings.Fields(text))
	if words < 30 {
		issues = append(issues, fmt.Sprintf("Email too short (%d words, minimum 30 recommended)", words))
	}

	lower := strings.ToLower(text)
	head := lower
	if len(head) > 100 {
		head = head[:100]
	}
	hasGreeting := false
	for _, g := range []string{"dear", "hi", "hello", "hey"} {
		if strings.Contains(head, g) {
			hasGreeting = true
			break
		}
	}
	if !hasGreeting {
		issues = append(issues, "Missing greeting (Dear, Hi, Hello, Hey)")
	}

	tail := lower
	if len(tail) > 150 {
		tail = tail[len(tail)-150:]
	}
	hasClosing := false
	for _, c := range []string{"regards", "sincerely", "best", "thanks", "cheers", "respectfully"} {
		if strings.Contains(tail, c) {
			hasClosing = true
			break
		}
	}
	if !hasClosing {
		issues = append(issues, "Missing closing (Regards, Sincerely, Best, etc.)")
	}

	if n := strings.Count(text, "!"); n > 3 {
		issues = append(issues, fmt.Sprintf("Too many exclamation marks (%d, max 3 recommended)", n))
	}
	if n := strings.Count(text, "?"); n > 5 {
		issues = append(issues, fmt.Sprintf("Too many question marks (%d, max 5 recommended)", n))
	}

	return issues
}
