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
	"fmt"
)

// StageFunc runs one stage against the accumulated state and returns a
// partial update. The runner merges the update; stages must not mutate
// the state they receive.
type StageFunc func(ctx context.Context, state State) (State, error)

// Stage is a named unit of work in a generation sequence.
type Stage struct {
	// Name identifies the stage in traces and logs.
	Name string

	// RequiredKeys lists state keys that must be present before the
	// stage runs. A missing key is a configuration error, not a soft
	// failure, and aborts the run.
	RequiredKeys []string

	// Produces lists state keys the stage is expected to set. A stage
	// that completes without setting one of these is logged as a soft
	// failure but does not abort the run.
	Produces []string

	// Run executes the stage.
	Run StageFunc
}

// StageError wraps a stage failure with the stage name.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// MissingKeyError reports a required state key absent at stage entry.
type MissingKeyError struct {
	Stage string
	Key   string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("stage %q requires state key %q", e.Stage, e.Key)
}

// UnknownStageError reports a stage name with no registered stage.
type UnknownStageError struct {
	Name string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Name)
}
