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

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerMergesUpdatesInOrder(t *testing.T) {
	r := NewRunner()
	r.Register(Stage{
		Name:     "first",
		Produces: []string{"a"},
		Run: func(ctx context.Context, state State) (State, error) {
			return State{"a": 1, "shared": "first"}, nil
		},
	})
	r.Register(Stage{
		Name:         "second",
		RequiredKeys: []string{"a"},
		Produces:     []string{"b"},
		Run: func(ctx context.Context, state State) (State, error) {
			return State{"b": state.Int("a") + 1, "shared": "second"}, nil
		},
	})

	final, trace, err := r.Run(context.Background(), []string{"first", "second"}, State{}, false)
	require.NoError(t, err)
	assert.Nil(t, trace)
	assert.Equal(t, 1, final.Int("a"))
	assert.Equal(t, 2, final.Int("b"))
	assert.Equal(t, "second", final.String("shared"), "later stage should overwrite shared key")
}

func TestRunnerDoesNotMutateInitial(t *testing.T) {
	r := NewRunner()
	r.Register(Stage{
		Name: "writer",
		Run: func(ctx context.Context, state State) (State, error) {
			return State{KeyDraft: "generated"}, nil
		},
	})

	initial := State{KeyInputText: "hi"}
	_, _, err := r.Run(context.Background(), []string{"writer"}, initial, false)
	require.NoError(t, err)

	_, present := initial[KeyDraft]
	assert.False(t, present, "initial state must stay untouched")
}

func TestRunnerTraceCapturesPartialUpdates(t *testing.T) {
	r := NewRunner()
	r.Register(Stage{
		Name: "parse",
		Run: func(ctx context.Context, state State) (State, error) {
			return State{KeyParsedData: map[string]any{"recipient": "Sam"}}, nil
		},
	})
	r.Register(Stage{
		Name: "write",
		Run: func(ctx context.Context, state State) (State, error) {
			return State{KeyDraft: "Dear Sam,"}, nil
		},
	})

	_, trace, err := r.Run(context.Background(), []string{"parse", "write"}, State{}, true)
	require.NoError(t, err)
	require.NotNil(t, trace)
	require.Len(t, trace.Entries, 2)

	assert.Equal(t, "parse", trace.Entries[0].Stage)
	assert.Contains(t, trace.Entries[0].Update, KeyParsedData)
	assert.NotContains(t, trace.Entries[0].Update, KeyDraft, "trace entry holds only that stage's update")

	assert.Equal(t, "write", trace.Entries[1].Stage)
	assert.Contains(t, trace.Entries[1].Update, KeyDraft)
}

func TestRunnerStageErrorAbortsWithPartialState(t *testing.T) {
	sentinel := errors.New("backend down")
	r := NewRunner()
	r.Register(Stage{
		Name: "ok",
		Run: func(ctx context.Context, state State) (State, error) {
			return State{"done": true}, nil
		},
	})
	r.Register(Stage{
		Name: "boom",
		Run: func(ctx context.Context, state State) (State, error) {
			return nil, sentinel
		},
	})

	partial, _, err := r.Run(context.Background(), []string{"ok", "boom"}, State{}, false)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "boom", stageErr.Stage)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, true, partial["done"], "partial progress should survive the failure")
}

func TestRunnerMissingRequiredKey(t *testing.T) {
	r := NewRunner()
	r.Register(Stage{
		Name:         "needs-input",
		RequiredKeys: []string{KeyInputText},
		Run: func(ctx context.Context, state State) (State, error) {
			return State{}, nil
		},
	})

	_, _, err := r.Run(context.Background(), []string{"needs-input"}, State{}, false)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, KeyInputText, missing.Key)
}

func TestRunnerUnknownStage(t *testing.T) {
	r := NewRunner()
	_, _, err := r.Run(context.Background(), []string{"nope"}, State{}, false)
	var unknown *UnknownStageError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestRunnerContextCancellation(t *testing.T) {
	r := NewRunner()
	r.Register(Stage{
		Name: "never",
		Run: func(ctx context.Context, state State) (State, error) {
			t.Fatal("stage should not run after cancellation")
			return nil, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := r.Run(ctx, []string{"never"}, State{}, false)
	assert.ErrorIs(t, err, context.Canceled)
}
