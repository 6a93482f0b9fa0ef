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
	"log/slog"
	"time"

	"github.com/draftflow/draftflow/internal/log"
)

// TraceEntry records one stage's contribution to a traced run. Update
// holds only the keys the stage returned, so a trace reads as the
// incremental build-up of the final state.
type TraceEntry struct {
	Stage    string        `json:"stage"`
	Update   State         `json:"update"`
	Duration time.Duration `json:"duration"`
}

// Trace is the ordered stage-by-stage record of a run.
type Trace struct {
	Entries []TraceEntry `json:"entries"`
}

// Runner executes registered stages in a caller-chosen order over a
// shared state. A Runner is safe for concurrent use once built; each
// Run works on its own cloned state.
type Runner struct {
	stages map[string]Stage
	logger *slog.Logger
}

// NewRunner returns an empty Runner.
func NewRunner() *Runner {
	return &Runner{
		stages: make(map[string]Stage),
		logger: slog.Default(),
	}
}

// WithLogger sets the runner's logger and returns the runner.
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Register adds a stage. Registering a name twice replaces the earlier
// stage.
func (r *Runner) Register(s Stage) {
	r.stages[s.Name] = s
}

// Run executes the named stages in order over a clone of initial and
// returns the merged final state. When captureTrace is true the second
// return holds each stage's partial update; otherwise it is nil.
//
// A stage error aborts the run and is returned wrapped in a StageError;
// the state and trace accumulated so far are returned alongside it so
// callers can fall back on partial progress.
func (r *Runner) Run(ctx context.Context, names []string, initial State, captureTrace bool) (State, *Trace, error) {
	state := initial.Clone()
	if state == nil {
		state = State{}
	}

	var trace *Trace
	if captureTrace {
		trace = &Trace{}
	}

	for _, name := range names {
		stage, ok := r.stages[name]
		if !ok {
			return state, trace, &UnknownStageError{Name: name}
		}
		if err := ctx.Err(); err != nil {
			return state, trace, err
		}
		for _, key := range stage.RequiredKeys {
			if _, present := state[key]; !present {
				return state, trace, &MissingKeyError{Stage: name, Key: key}
			}
		}

		start := time.Now()
		update, err := stage.Run(ctx, state)
		elapsed := time.Since(start)
		if err != nil {
			return state, trace, &StageError{Stage: name, Err: err}
		}

		for _, key := range stage.Produces {
			if _, present := update[key]; !present {
				if _, already := state[key]; !already {
					r.logger.Warn("stage completed without producing expected key",
						log.StageKey, name,
						"key", key)
				}
			}
		}

		state.Merge(update)
		if trace != nil {
			trace.Entries = append(trace.Entries, TraceEntry{
				Stage:    name,
				Update:   update.Clone(),
				Duration: elapsed,
			})
		}

		r.logger.Debug("stage completed",
			log.StageKey, name,
			log.DurationKey, elapsed.Milliseconds())
	}

	return state, trace, nil
}
