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
	"log/slog"

	"github.com/draftflow/draftflow/pkg/llm"
	"github.com/draftflow/draftflow/pkg/pipeline"
)

// Service is the email generation facade. It owns the stage runner and
// exposes the two entry points: Generate for fresh requests and
// Regenerate for edited drafts.
type Service struct {
	provider      llm.Provider
	runner        *pipeline.Runner
	profiles      ProfileStore
	logger        *slog.Logger
	temperature   float64
	diffThreshold float64
}

// NewService creates a Service backed by the given provider. The
// provider is typically an llm.Caller so every stage call gets retry,
// governance, and metrics for free.
func NewService(provider llm.Provider) *Service {
	s := &Service{
		provider:      provider,
		logger:        slog.Default(),
		temperature:   0.7,
		diffThreshold: pipeline.DefaultDiffThreshold,
	}
	s.runner = pipeline.NewRunner()
	s.registerStages()
	return s
}

// WithProfiles sets the profile store used by the personalization stage.
func (s *Service) WithProfiles(store ProfileStore) *Service {
	s.profiles = store
	return s
}

// WithLogger sets the service logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
		s.runner.WithLogger(logger)
	}
	return s
}

// WithTemperature sets the sampling temperature passed to the provider.
func (s *Service) WithTemperature(t float64) *Service {
	s.temperature = t
	return s
}

// WithDiffThreshold overrides the regeneration routing threshold.
func (s *Service) WithDiffThreshold(t float64) *Service {
	if t > 0 {
		s.diffThreshold = t
	}
	return s
}

func (s *Service) registerStages() {
	s.runner.Register(s.parseStage())
	s.runner.Register(s.intentStage())
	s.runner.Register(s.writeStage())
	s.runner.Register(s.styleStage())
	s.runner.Register(s.personalizeStage())
	s.runner.Register(s.reviewStage())
	s.runner.Register(s.refineStage())
}

// GenerateRequest is a fresh email composition request.
type GenerateRequest struct {
	InputText        string `json:"input_text"`
	Tone             string `json:"tone,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	LengthPreference int    `json:"length_preference,omitempty"`

	// DeveloperMode captures a per-stage trace in the result.
	DeveloperMode bool `json:"developer_mode,omitempty"`
}

// GenerateResult is the outcome of a generation run.
type GenerateResult struct {
	FinalDraft string          `json:"final_draft"`
	Intent     Intent          `json:"intent"`
	Recipient  string          `json:"recipient,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
	Trace      *pipeline.Trace `json:"trace,omitempty"`
}

// Generate runs the full staged sequence and always produces a usable
// draft: every stage degrades to a deterministic fallback on model
// failure, including timeouts, so only governor refusals and explicit
// cancellation surface as errors.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	initial := pipeline.State{
		pipeline.KeyInputText: req.InputText,
		pipeline.KeyTone:      string(NormalizeTone(req.Tone)),
		pipeline.KeyUserID:    req.UserID,
	}
	if req.LengthPreference > 0 {
		initial[pipeline.KeyLengthPreference] = req.LengthPreference
	}

	final, trace, err := s.runner.Run(ctx, GenerationStages, initial, req.DeveloperMode)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{
		FinalDraft: final.String(pipeline.KeyFinalDraft),
		Intent:     Intent(final.String(pipeline.KeyIntent)),
		Recipient:  final.String(pipeline.KeyRecipient),
		Metadata:   final.Map(pipeline.KeyMetadata),
		Trace:      trace,
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	if result.Intent != "" {
		result.Metadata["intent"] = string(result.Intent)
	}
	if result.FinalDraft == "" {
		// Belt and braces: stages already fall back individually, but the
		// caller must never receive an empty draft.
		parsed := parsedFromMap(final.Map(pipeline.KeyParsedData))
		result.FinalDraft = FallbackDraft(parsed)
		result.Metadata["fallback_used"] = true
	}
	return result, nil
}

// RegenerateRequest asks for a new draft based on the user's edits to a
// previous one.
type RegenerateRequest struct {
	Original         string `json:"original"`
	Edited           string `json:"edited"`
	Tone             string `json:"tone,omitempty"`
	Intent           string `json:"intent,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	LengthPreference int    `json:"length_preference,omitempty"`

	// ForceFullWorkflow skips routing and re-runs the full sequence.
	ForceFullWorkflow bool `json:"force_full_workflow,omitempty"`
}

// RegenerateResult is the outcome of a regeneration run.
type RegenerateResult struct {
	FinalDraft string                 `json:"final_draft"`
	Route      pipeline.RouteDecision `json:"route"`
	Metadata   map[string]any         `json:"metadata,omitempty"`
}

// Regenerate compares the edited draft against the original and routes
// to either a lightweight polish or a full downstream re-run.
func (s *Service) Regenerate(ctx context.Context, req RegenerateRequest) (*RegenerateResult, error) {
	decision := pipeline.Route(req.Original, req.Edited, s.diffThreshold, req.ForceFullWorkflow)
	s.logger.Info("regeneration routed",
		"path", decision.Path,
		"diff_ratio", decision.DiffRatio,
		"forced", decision.Forced)

	initial := pipeline.State{
		pipeline.KeyTone:   string(NormalizeTone(req.Tone)),
		pipeline.KeyUserID: req.UserID,
		pipeline.KeyIntent: string(NormalizeIntent(req.Intent)),
	}
	if req.LengthPreference > 0 {
		initial[pipeline.KeyLengthPreference] = req.LengthPreference
	}

	var stages []string
	if decision.Path == pipeline.PathFull {
		stages = FullRegenerationStages
		initial[pipeline.KeyDraft] = req.Edited
	} else {
		stages = LightweightRegenerationStages
		initial[pipeline.KeyFinalDraft] = req.Edited
	}

	final, _, err := s.runner.Run(ctx, stages, initial, false)
	if err != nil {
		return nil, err
	}

	result := &RegenerateResult{
		FinalDraft: final.String(pipeline.KeyFinalDraft),
		Route:      decision,
		Metadata:   final.Map(pipeline.KeyMetadata),
	}
	if result.FinalDraft == "" {
		result.FinalDraft = req.Edited
	}
	return result, nil
}
