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

package metrics

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftflow/draftflow/pkg/llm"
)

func TestSinkAggregates(t *testing.T) {
	sink := NewSink()

	sink.RecordOutcome(llm.CallOutcome{
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Stage:        "write",
		Success:      true,
		Latency:      100 * time.Millisecond,
		InputTokens:  200,
		OutputTokens: 80,
		CostUSD:      0.0002,
	})
	sink.RecordOutcome(llm.CallOutcome{
		Provider:     "openai",
		Model:        "gpt-4o-mini",
		Stage:        "style",
		Success:      true,
		Latency:      300 * time.Millisecond,
		InputTokens:  100,
		OutputTokens: 40,
		CostUSD:      0.0001,
	})

	summary := sink.Summary()
	assert.Equal(t, 2, summary.Calls)
	assert.Equal(t, 2, summary.Successes)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 300, summary.InputTokens)
	assert.Equal(t, 120, summary.OutputTokens)
	assert.Equal(t, 420, summary.TotalTokens)
	assert.InDelta(t, 0.0003, summary.TotalCostUSD, 1e-12)
	// Incremental average of 100ms and 300ms.
	assert.InDelta(t, 200.0, summary.AvgLatencyMS, 1e-9)
	assert.Empty(t, summary.ByErrorKind)
}

func TestSinkCountsErrorsByKind(t *testing.T) {
	sink := NewSink()

	sink.RecordOutcome(llm.CallOutcome{Success: false, Kind: llm.ErrorKindRateLimit})
	sink.RecordOutcome(llm.CallOutcome{Success: false, Kind: llm.ErrorKindRateLimit})
	sink.RecordOutcome(llm.CallOutcome{Success: false, Kind: llm.ErrorKindNetwork})
	sink.RecordOutcome(llm.CallOutcome{Success: false})
	sink.RecordOutcome(llm.CallOutcome{Success: true})

	summary := sink.Summary()
	assert.Equal(t, 5, summary.Calls)
	assert.Equal(t, 1, summary.Successes)
	assert.Equal(t, 4, summary.Errors)
	assert.Equal(t, map[string]int{
		"rate_limit": 2,
		"network":    1,
		"unknown":    1,
	}, summary.ByErrorKind)
}

func TestSinkIncrementalAverage(t *testing.T) {
	sink := NewSink()

	latencies := []time.Duration{
		50 * time.Millisecond,
		150 * time.Millisecond,
		250 * time.Millisecond,
		350 * time.Millisecond,
	}
	for _, l := range latencies {
		sink.RecordOutcome(llm.CallOutcome{Success: true, Latency: l})
	}

	assert.InDelta(t, 200.0, sink.Summary().AvgLatencyMS, 1e-9)
}

func TestSinkSummaryIsACopy(t *testing.T) {
	sink := NewSink()
	sink.RecordOutcome(llm.CallOutcome{Success: false, Kind: llm.ErrorKindNetwork})

	summary := sink.Summary()
	summary.ByErrorKind["network"] = 99

	assert.Equal(t, 1, sink.Summary().ByErrorKind["network"], "mutating a summary must not touch the sink")
}

func TestSinkFlush(t *testing.T) {
	sink := NewSink()
	sink.RecordOutcome(llm.CallOutcome{
		Success:      true,
		Latency:      120 * time.Millisecond,
		InputTokens:  10,
		OutputTokens: 5,
		CostUSD:      0.0001,
	})

	dir := t.TempDir()
	path, err := sink.Flush(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var written Summary
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, sink.Summary().SessionID, written.SessionID)
	assert.Equal(t, 1, written.Calls)
	assert.Equal(t, 15, written.TotalTokens)
}
