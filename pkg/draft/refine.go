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
	"strings"

	"github.com/draftflow/draftflow/pkg/pipeline"
)

func (s *Service) refineStage() pipeline.Stage {
	return pipeline.Stage{
		Name:     StageRefine,
		Produces: []string{pipeline.KeyFinalDraft},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			text := state.String(pipeline.KeyFinalDraft)
			if text == "" {
				text = state.String(pipeline.KeyPersonalizedDraft)
			}
			if text == "" {
				text = state.String(pipeline.KeyDraft)
			}
			if text == "" {
				s.logger.Warn("nothing to refine, skipping")
				return pipeline.State{}, nil
			}

			refined, err := s.complete(ctx, StageRefine, refineSystemPrompt, refineUserPrompt(text))
			if err != nil {
				if !fallbackAllowed(err) {
					return nil, err
				}
				s.logger.Warn("refinement failed, applying local cleanup", "error", err)
				refined = CleanupDraft(text)
			} else if refined == "" || len(refined) < len(text)*3/10 {
				// A response far shorter than the input usually means the
				// model over-condensed rather than cleaned up.
				s.logger.Warn("refinement produced suspiciously short output, keeping original",
					"original_len", len(text),
					"refined_len", len(refined))
				refined = text
			}

			meta := map[string]any{"refined": true}
			if existing := state.Map(pipeline.KeyMetadata); existing != nil {
				for k, v := range existing {
					meta[k] = v
				}
				meta["refined"] = true
			}

			return pipeline.State{
				pipeline.KeyFinalDraft: refined,
				pipeline.KeyMetadata:   meta,
			}, nil
		},
	}
}

// CleanupDraft performs deterministic refinement without a model:
// duplicate signature blocks collapse to one and immediately repeated
// lines are dropped.
func CleanupDraft(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	signatureSeen := false
	skipNextName := false
	prevNorm := ""

	for i, line := range lines {
		norm := strings.ToLower(strings.TrimSpace(line))

		if skipNextName {
			skipNextName = false
			if norm != "" && !strings.Contains(norm, ",") && !strings.HasPrefix(norm, "dear") {
				continue
			}
		}

		if strings.HasPrefix(norm, "best regards") || strings.HasPrefix(norm, "kind regards") {
			if signatureSeen {
				skipNextName = true
				continue
			}
			signatureSeen = true
			cleaned = append(cleaned, line)
			// Carry at most one name line directly after the signature.
			if i+1 < len(lines) {
				name := strings.TrimSpace(lines[i+1])
				nameNorm := strings.ToLower(name)
				if name != "" && !strings.HasPrefix(nameNorm, "dear") && !strings.Contains(name, ",") {
					cleaned = append(cleaned, name)
				}
			}
			prevNorm = norm
			continue
		}

		if signatureSeen && norm != "" && !strings.Contains(norm, ",") && !strings.HasPrefix(norm, "dear") {
			if isRecentLine(cleaned, norm) {
				continue
			}
		}

		if norm != "" && norm == prevNorm {
			continue
		}
		cleaned = append(cleaned, line)
		prevNorm = norm
	}

	return strings.Join(cleaned, "\n")
}

func isRecentLine(lines []string, norm string) bool {
	start := len(lines) - 2
	if start < 0 {
		start = 0
	}
	for _, l := range lines[start:] {
		if strings.ToLower(strings.TrimSpace(l)) == norm {
			return true
		}
	}
	return false
}
