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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftflow/draftflow/pkg/llm"
	"github.com/draftflow/draftflow/pkg/pipeline"
)

// scriptedProvider returns canned responses keyed by the stage metadata
// on each request.
type scriptedProvider struct {
	responses map[string]string
	calls     []string
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	stage := req.Metadata["stage"]
	p.calls = append(p.calls, stage)
	content, ok := p.responses[stage]
	if !ok {
		return nil, &llm.ProviderError{
			Provider: "scripted",
			Kind:     llm.ErrorKindBadRequest,
			Message:  "no scripted response for stage " + stage,
		}
	}
	return &llm.CompletionResponse{
		Content:      content,
		Model:        "scripted",
		FinishReason: "stop",
		Usage:        llm.TokenUsage{InputTokens: 20, OutputTokens: 40, TotalTokens: 60},
	}, nil
}

// failingProvider rejects every call with a fatal classification, the
// offline mode used when no model backend is configured.
type failingProvider struct{}

func (failingProvider) Name() string  { return "offline" }
func (failingProvider) Model() string { return "offline" }

func (failingProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, &llm.ProviderError{
		Provider: "offline",
		Kind:     llm.ErrorKindBadRequest,
		Message:  "no model backend",
	}
}

// erringProvider fails every call with a fixed error, used for the
// timeout and cancellation paths.
type erringProvider struct{ err error }

func (erringProvider) Name() string  { return "erring" }
func (erringProvider) Model() string { return "erring" }

func (p erringProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, p.err
}

// refusingProvider simulates a governed caller that refuses pre-flight.
type refusingProvider struct{}

func (refusingProvider) Name() string  { return "refusing" }
func (refusingProvider) Model() string { return "refusing" }

func (refusingProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, &llm.RefusalError{Reason: "daily cost limit reached"}
}

const thankYouDraft = `Dear Sam,

Thank you so much for taking the time to mentor me over the past quarter. Your guidance on the migration project made a real difference, and I have learned a great deal from the way you approach difficult problems.

I would be glad to return the favor whenever I can.

Warm regards`

func thankYouResponses() map[string]string {
	return map[string]string{
		StageParse: `{"recipient_name": "Sam", "email_purpose": "thank Sam for mentoring me this quarter", "key_points": ["migration project guidance"], "tone_preference": "formal"}`,
		StageIntent:      "thank_you",
		StageWrite:       thankYouDraft,
		StageStyle:       thankYouDraft,
		StagePersonalize: thankYouDraft + "\n\nBest regards,\nJordan",
		StageReview:      thankYouDraft + "\n\nBest regards,\nJordan",
		StageRefine:      thankYouDraft + "\n\nBest regards,\nJordan",
	}
}

func TestGenerateThankYouEndToEnd(t *testing.T) {
	provider := &scriptedProvider{responses: thankYouResponses()}
	svc := NewService(provider)

	result, err := svc.Generate(context.Background(), GenerateRequest{
		InputText: "Write a thank you note to Sam for mentoring me this quarter",
		Tone:      "formal",
		UserID:    "jordan",
	})
	require.NoError(t, err)

	assert.Equal(t, IntentThankYou, result.Intent)
	assert.Equal(t, "thank_you", result.Metadata["intent"], "intent is mirrored into metadata")
	assert.Equal(t, "Sam", result.Recipient)
	assert.Contains(t, result.FinalDraft, "Thank you")
	assert.Contains(t, result.FinalDraft, "Dear Sam")
	assert.Nil(t, result.Trace, "trace should only be captured in developer mode")

	// The review stage skips the model when quick validation passes.
	assert.Equal(t,
		[]string{StageParse, StageIntent, StageWrite, StageStyle, StagePersonalize, StageRefine},
		provider.calls)
}

func TestGenerateDeveloperModeTrace(t *testing.T) {
	provider := &scriptedProvider{responses: thankYouResponses()}
	svc := NewService(provider)

	result, err := svc.Generate(context.Background(), GenerateRequest{
		InputText:     "Write a thank you note to Sam",
		DeveloperMode: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Trace)
	require.Len(t, result.Trace.Entries, len(GenerationStages))
	for i, name := range GenerationStages {
		assert.Equal(t, name, result.Trace.Entries[i].Stage)
	}
	assert.Contains(t, result.Trace.Entries[0].Update, pipeline.KeyParsedData)
}

func TestGenerateOfflineFallsBackEveryStage(t *testing.T) {
	svc := NewService(failingProvider{})

	result, err := svc.Generate(context.Background(), GenerateRequest{
		InputText: "thank the team for shipping the release",
		Tone:      "casual",
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.FinalDraft, "offline mode must still produce a draft")
	assert.Contains(t, result.FinalDraft, "Dear")
	assert.Contains(t, result.FinalDraft, "Best regards")
	assert.Equal(t, IntentThankYou, result.Intent, "keyword heuristic should classify the intent")
}

func TestGenerateRefusalSurfaces(t *testing.T) {
	svc := NewService(refusingProvider{})

	_, err := svc.Generate(context.Background(), GenerateRequest{InputText: "anything"})
	require.Error(t, err)

	var refusal *llm.RefusalError
	assert.ErrorAs(t, err, &refusal, "governor refusals must not be swallowed by fallbacks")
}

func TestGenerateTimeoutFallsBackToDraft(t *testing.T) {
	svc := NewService(erringProvider{
		err: fmt.Errorf("calling model: %w", context.DeadlineExceeded),
	})

	result, err := svc.Generate(context.Background(), GenerateRequest{
		InputText: "thank Priya for covering the on-call rotation",
	})
	require.NoError(t, err, "a timed-out model call degrades to the fallback draft")
	require.NotEmpty(t, result.FinalDraft)
	assert.Contains(t, result.FinalDraft, "Dear")
	assert.Contains(t, result.FinalDraft, "Best regards")
}

func TestGenerateCancellationSurfaces(t *testing.T) {
	svc := NewService(erringProvider{
		err: fmt.Errorf("calling model: %w", context.Canceled),
	})

	_, err := svc.Generate(context.Background(), GenerateRequest{InputText: "anything"})
	require.Error(t, err, "a cancelled request must not receive fabricated content")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegenerateLightweightPath(t *testing.T) {
	original := "Dear Sam, thanks for the quick review of the draft proposal last week."
	edited := "Dear Sam, thanks for the quick review of the draft proposal last Friday."

	provider := &scriptedProvider{responses: map[string]string{
		StageRefine: edited,
	}}
	svc := NewService(provider)

	result, err := svc.Regenerate(context.Background(), RegenerateRequest{
		Original: original,
		Edited:   edited,
		Tone:     "formal",
		Intent:   "thank_you",
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.PathLightweight, result.Route.Path)
	assert.Equal(t, []string{StageRefine}, provider.calls, "lightweight path should only polish")
	assert.Equal(t, edited, result.FinalDraft)
}

func TestRegenerateFullPathOnLargeEdit(t *testing.T) {
	original := "Dear Sam, thanks for the review."
	edited := "Hello team, here is a completely different status update about the quarterly launch plan."

	styled := "Hello team,\n\nHere is the full status update for the quarterly launch plan.\n\nBest"
	provider := &scriptedProvider{responses: map[string]string{
		StageStyle:       styled,
		StagePersonalize: styled + "\n\nBest regards,\nJordan",
		StageReview:      styled + "\n\nBest regards,\nJordan",
		StageRefine:      styled + "\n\nBest regards,\nJordan",
	}}
	svc := NewService(provider)

	result, err := svc.Regenerate(context.Background(), RegenerateRequest{
		Original: original,
		Edited:   edited,
		Tone:     "casual",
		Intent:   "status_update",
	})
	require.NoError(t, err)

	assert.Equal(t, pipeline.PathFull, result.Route.Path)
	assert.Equal(t, FullRegenerationStages, provider.calls)
	assert.Contains(t, result.FinalDraft, "status update")
}

func TestRegenerateForceFullOverridesIdenticalDrafts(t *testing.T) {
	text := "Dear Sam, thanks again for everything you have done this quarter."
	provider := &scriptedProvider{responses: map[string]string{
		StageStyle:       text,
		StagePersonalize: text,
		StageReview:      text,
		StageRefine:      text,
	}}
	svc := NewService(provider)

	result, err := svc.Regenerate(context.Background(), RegenerateRequest{
		Original:          text,
		Edited:            text,
		ForceFullWorkflow: true,
	})
	require.NoError(t, err)
	assert.Equal(t, pipeline.PathFull, result.Route.Path)
	assert.True(t, result.Route.Forced)
}

type mapProfileStore struct {
	profiles map[string]*Profile
}

func (m *mapProfileStore) LoadProfile(ctx context.Context, userID string) (*Profile, error) {
	return m.profiles[userID], nil
}

func (m *mapProfileStore) SaveProfile(ctx context.Context, userID string, p *Profile) error {
	m.profiles[userID] = p
	return nil
}

func TestGenerateOfflineUsesProfileSignature(t *testing.T) {
	store := &mapProfileStore{profiles: map[string]*Profile{
		"jordan": {UserName: "Jordan Lee", Signature: "Cheers"},
	}}
	svc := NewService(failingProvider{}).WithProfiles(store)

	result, err := svc.Generate(context.Background(), GenerateRequest{
		InputText: "send a status update to the platform team about the rollout",
		UserID:    "jordan",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(result.FinalDraft, "Jordan Lee"),
		"offline personalization should append the profile signature, got:\n%s", result.FinalDraft)
}
