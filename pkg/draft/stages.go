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
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/draftflow/draftflow/pkg/llm"
	"github.com/draftflow/draftflow/pkg/pipeline"
)

// Stage names, in default generation order.
const (
	StageParse       = "parse"
	StageIntent      = "intent"
	StageWrite       = "write"
	StageStyle       = "style"
	StagePersonalize = "personalize"
	StageReview      = "review"
	StageRefine      = "refine"
)

// GenerationStages is the full generation sequence.
var GenerationStages = []string{
	StageParse, StageIntent, StageWrite, StageStyle,
	StagePersonalize, StageReview, StageRefine,
}

// FullRegenerationStages re-runs everything downstream of drafting,
// treating the edited text as the draft.
var FullRegenerationStages = []string{
	StageStyle, StagePersonalize, StageReview, StageRefine,
}

// LightweightRegenerationStages only polishes the edited text.
var LightweightRegenerationStages = []string{StageRefine}

// ParsedInput is the structured extraction from a composition request.
type ParsedInput struct {
	RecipientName  string         `json:"recipient_name"`
	RecipientEmail string         `json:"recipient_email,omitempty"`
	EmailPurpose   string         `json:"email_purpose"`
	KeyPoints      []string       `json:"key_points,omitempty"`
	TonePreference string         `json:"tone_preference,omitempty"`
	Constraints    map[string]any `json:"constraints,omitempty"`
	Context        string         `json:"context,omitempty"`
}

// complete sends a system/user prompt pair through the provider, tagging
// the request with the stage name for metrics attribution.
func (s *Service) complete(ctx context.Context, stage, system, user string) (string, error) {
	req := llm.CompletionRequest{
		Messages:    llm.SystemUser(system, user),
		Temperature: &s.temperature,
		Metadata:    map[string]string{"stage": stage},
	}
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// fallbackAllowed distinguishes model failures (which stages absorb with
// deterministic fallbacks) from the failures that must surface to the
// caller: governor refusals, because producing content would violate the
// rate/budget contract, and explicit cancellation, because a user who
// cancelled should not receive fabricated content. A deadline expiry is
// a model failure like any other: the stage falls back and the request
// still ends with a usable draft.
func fallbackAllowed(err error) bool {
	var refusal *llm.RefusalError
	if errors.As(err, &refusal) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func (s *Service) parseStage() pipeline.Stage {
	return pipeline.Stage{
		Name:         StageParse,
		RequiredKeys: []string{pipeline.KeyInputText},
		Produces:     []string{pipeline.KeyParsedData, pipeline.KeyRecipient},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			input := state.String(pipeline.KeyInputText)

			content, err := s.complete(ctx, StageParse, parseSystemPrompt, "User Request: "+input)
			var parsed ParsedInput
			if err == nil {
				err = json.Unmarshal([]byte(extractJSON(content)), &parsed)
			}
			if err != nil {
				if !fallbackAllowed(err) {
					return nil, err
				}
				s.logger.Warn("input parsing failed, using fallback extraction", "error", err)
				parsed = fallbackParse(input)
			}
			if parsed.RecipientName == "" {
				parsed.RecipientName = "Recipient"
			}
			if parsed.EmailPurpose == "" {
				parsed.EmailPurpose = truncate(input, 200)
			}

			return pipeline.State{
				pipeline.KeyParsedData: parsedToMap(parsed),
				pipeline.KeyRecipient:  parsed.RecipientName,
			}, nil
		},
	}
}

func (s *Service) intentStage() pipeline.Stage {
	return pipeline.Stage{
		Name:         StageIntent,
		RequiredKeys: []string{pipeline.KeyParsedData},
		Produces:     []string{pipeline.KeyIntent},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			parsed := parsedFromMap(state.Map(pipeline.KeyParsedData))

			system := fmt.Sprintf(intentSystemPrompt, intentList())
			content, err := s.complete(ctx, StageIntent, system, intentUserPrompt(parsed))
			if err != nil {
				if !fallbackAllowed(err) {
					return nil, err
				}
				s.logger.Warn("intent classification failed, using keyword heuristic", "error", err)
				return pipeline.State{pipeline.KeyIntent: string(DetectIntentHeuristic(parsed.EmailPurpose))}, nil
			}
			return pipeline.State{pipeline.KeyIntent: string(NormalizeIntent(content))}, nil
		},
	}
}

func (s *Service) writeStage() pipeline.Stage {
	return pipeline.Stage{
		Name:         StageWrite,
		RequiredKeys: []string{pipeline.KeyParsedData, pipeline.KeyIntent},
		Produces:     []string{pipeline.KeyDraft},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			parsed := parsedFromMap(state.Map(pipeline.KeyParsedData))
			intent := Intent(state.String(pipeline.KeyIntent))
			tone := NormalizeTone(state.String(pipeline.KeyTone))

			content, err := s.complete(ctx, StageWrite, writerSystemPrompt(intent), writerUserPrompt(parsed, tone))
			if err != nil || content == "" {
				if err != nil && !fallbackAllowed(err) {
					return nil, err
				}
				s.logger.Warn("draft writing failed, using template fallback", "error", err)
				content = FallbackDraft(parsed)
			}
			return pipeline.State{pipeline.KeyDraft: content}, nil
		},
	}
}

func (s *Service) styleStage() pipeline.Stage {
	return pipeline.Stage{
		Name:         StageStyle,
		RequiredKeys: []string{pipeline.KeyDraft},
		Produces:     []string{pipeline.KeyStyledDraft},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			text := state.String(pipeline.KeyDraft)
			tone := NormalizeTone(state.String(pipeline.KeyTone))

			content, err := s.complete(ctx, StageStyle, styleSystemPrompt, styleUserPrompt(text, tone))
			if err != nil || content == "" {
				if err != nil && !fallbackAllowed(err) {
					return nil, err
				}
				// Tone adjustment is best effort.
				s.logger.Warn("tone styling failed, keeping draft unchanged", "error", err)
				content = text
			}
			return pipeline.State{pipeline.KeyStyledDraft: content}, nil
		},
	}
}

func (s *Service) personalizeStage() pipeline.Stage {
	return pipeline.Stage{
		Name:     StagePersonalize,
		Produces: []string{pipeline.KeyPersonalizedDraft},
		Run: func(ctx context.Context, state pipeline.State) (pipeline.State, error) {
			text := state.String(pipeline.KeyStyledDraft)
			if text == "" {
				text = state.String(pipeline.KeyDraft)
			}
			userID := state.String(pipeline.KeyUserID)
			profile := s.loadProfile(ctx, userID)
			signature := profile.EffectiveSignature()
			target := effectiveLength(state.Int(pipeline.KeyLengthPreference))

			content, err := s.complete(ctx, StagePersonalize, personalizeSystemPrompt,
				personalizeUserPrompt(text, profile, signature, target))
			if err != nil || content == "" {
				if err != nil && !fallbackAllowed(err) {
					return nil, err
				}
				s.logger.Warn("personalization failed, appending signature only", "error", err)
				content = text + signature
			} else {
				content = preserveGreeting(text, content, profile.UserName)
			}
			return pipeline.State{pipeline.KeyPersonalizedDraft: content}, nil
		},
	}
}

func (s *Service) loadProfile(ctx context.Context, userID string) Profile {
	if s.profiles == nil || userID == "" {
		return DefaultProfile()
	}
	p, err := s.profiles.LoadProfile(ctx, userID)
	if err != nil {
		s.logger.Warn("profile lookup failed, using default profile",
			"user_id", userID,
			"error", err)
		return DefaultProfile()
	}
	if p == nil {
		return DefaultProfile()
	}
	return *p
}

// effectiveLength resolves the target word count. Zero means no stated
// preference; tiny values are treated as a floor of 25 words.
func effectiveLength(pref int) int {
	switch {
	case pref <= 0:
		return 170
	case pref < 10:
		return 25
	}
	return pref
}

func intentList() string {
	names := make([]string, len(AllIntents))
	for i, v := range AllIntents {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// FallbackDraft builds a usable draft from parsed input alone, used when
// every model-backed path has failed.
func FallbackDraft(p ParsedInput) string {
	recipient := p.RecipientName
	if recipient == "" {
		recipient = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", recipient)
	b.WriteString("I hope this email finds you well.\n\n")
	if p.EmailPurpose != "" {
		b.WriteString(p.EmailPurpose + "\n\n")
	}
	if len(p.KeyPoints) > 0 {
		for _, point := range p.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", point)
		}
		b.WriteString("\n")
	}
	b.WriteString("I look forward to hearing from you.\n\nBest regards")
	return b.String()
}

func fallbackParse(input string) ParsedInput {
	points := []string{truncate(input, 100)}
	return ParsedInput{
		RecipientName:  "Recipient",
		EmailPurpose:   truncate(input, 200),
		KeyPoints:      points,
		TonePreference: string(ToneFormal),
		Context:        input,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// extractJSON strips markdown code fences from a model response so the
// remainder can be unmarshalled.
func extractJSON(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(content)
}

func parsedToMap(p ParsedInput) map[string]any {
	return map[string]any{
		"recipient_name":  p.RecipientName,
		"recipient_email": p.RecipientEmail,
		"email_purpose":   p.EmailPurpose,
		"key_points":      p.KeyPoints,
		"tone_preference": p.TonePreference,
		"constraints":     p.Constraints,
		"context":         p.Context,
	}
}

func parsedFromMap(m map[string]any) ParsedInput {
	if m == nil {
		return ParsedInput{}
	}
	p := ParsedInput{
		RecipientName:  stringAt(m, "recipient_name"),
		RecipientEmail: stringAt(m, "recipient_email"),
		EmailPurpose:   stringAt(m, "email_purpose"),
		TonePreference: stringAt(m, "tone_preference"),
		Context:        stringAt(m, "context"),
	}
	switch points := m["key_points"].(type) {
	case []string:
		p.KeyPoints = points
	case []any:
		for _, v := range points {
			if str, ok := v.(string); ok {
				p.KeyPoints = append(p.KeyPoints, str)
			}
		}
	}
	if c, ok := m["constraints"].(map[string]any); ok {
		p.Constraints = c
	}
	return p
}

func stringAt(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

var greetingRe = regexp.MustCompile(`(?i)^\s*(dear|hi|hello)\s+([^,\n]+)`)

// preserveGreeting keeps the original greeting line when the model has
// drifted into addressing the email to the sender instead of the
// recipient.
func preserveGreeting(original, personalized, userName string) string {
	origLine := greetingLine(original)
	newLine := greetingLine(personalized)
	if origLine == "" || newLine == "" {
		return personalized
	}
	origName := greetingName(origLine)
	newName := greetingName(newLine)
	user := strings.ToLower(strings.TrimSpace(userName))
	if user == "" || origName == "" || newName == "" {
		return personalized
	}
	if strings.ToLower(newName) == user && strings.ToLower(origName) != user {
		return strings.Replace(personalized, newLine, origLine, 1)
	}
	return personalized
}

func greetingLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if greetingRe.MatchString(strings.TrimSpace(line)) {
			return line
		}
	}
	return ""
}

func greetingName(line string) string {
	m := greetingRe.FindStringSubmatch(strings.TrimSpace(line))
	if len(m) < 3 {
		return ""
	}
	return strings.TrimSpace(m[2])
}
