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

// Package metrics accumulates per-call and per-session counters for LLM
// activity. The sink keeps running aggregates only (no unbounded history);
// persistence is explicit via Flush, never automatic.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/draftflow/draftflow/pkg/llm"
)

// Sink aggregates call outcomes for the current process/session.
// Construct one per deployment and inject it wherever outcomes are produced;
// a shared instance is safe for concurrent use.
type Sink struct {
	mu sync.Mutex

	sessionID string
	startedAt time.Time

	calls        int
	successes    int
	errors       int
	inputTokens  int
	outputTokens int
	totalCost    float64

	// avgLatency is maintained incrementally: avg += (x - avg) / n.
	avgLatency float64

	byErrorKind map[string]int
}

// NewSink creates an empty metrics sink.
func NewSink() *Sink {
	now := time.Now()
	return &Sink{
		sessionID:   fmt.Sprintf("session_%d", now.Unix()),
		startedAt:   now,
		byErrorKind: make(map[string]int),
	}
}

// RecordOutcome accumulates one call outcome. Implements llm.OutcomeRecorder.
func (s *Sink) RecordOutcome(outcome llm.CallOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if outcome.Success {
		s.successes++
	} else {
		s.errors++
		kind := string(outcome.Kind)
		if kind == "" {
			kind = string(llm.ErrorKindUnknown)
		}
		s.byErrorKind[kind]++
	}

	s.inputTokens += outcome.InputTokens
	s.outputTokens += outcome.OutputTokens
	s.totalCost += outcome.CostUSD

	latencyMS := float64(outcome.Latency.Milliseconds())
	s.avgLatency += (latencyMS - s.avgLatency) / float64(s.calls)

	observeOutcome(outcome)
}

// Summary is a point-in-time snapshot of session counters, suitable for
// embedding in an HTTP response or flushing to disk.
type Summary struct {
	SessionID    string         `json:"session_id"`
	Calls        int            `json:"calls"`
	Successes    int            `json:"successes"`
	Errors       int            `json:"errors"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	TotalTokens  int            `json:"total_tokens"`
	TotalCostUSD float64        `json:"total_cost_usd"`
	AvgLatencyMS float64        `json:"avg_latency_ms"`
	ByErrorKind  map[string]int `json:"by_error_kind"`
}

// Summary returns the current session aggregates.
func (s *Sink) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind := make(map[string]int, len(s.byErrorKind))
	for k, v := range s.byErrorKind {
		byKind[k] = v
	}

	return Summary{
		SessionID:    s.sessionID,
		Calls:        s.calls,
		Successes:    s.successes,
		Errors:       s.errors,
		InputTokens:  s.inputTokens,
		OutputTokens: s.outputTokens,
		TotalTokens:  s.inputTokens + s.outputTokens,
		TotalCostUSD: s.totalCost,
		AvgLatencyMS: s.avgLatency,
		ByErrorKind:  byKind,
	}
}

// Flush writes the current summary as JSON under dir, named by session ID.
// This is the only place the sink touches storage, and it only happens when
// asked. Returns the written file path.
func (s *Sink) Flush(dir string) (string, error) {
	summary := s.Summary()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create metrics dir: %w", err)
	}

	path := filepath.Join(dir, summary.SessionID+".json")
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode metrics summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write metrics summary: %w", err)
	}

	return path, nil
}
