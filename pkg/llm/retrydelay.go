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

package llm

import (
	"regexp"
	"strconv"
	"time"
)

// MaxServerDelay caps any server-suggested retry delay. Providers have been
// observed to suggest multi-minute waits during outages; honoring those
// stalls a request far past anything a user would sit through.
const MaxServerDelay = 120 * time.Second

// Accepted retry-hint shapes, in priority order. This is a compatibility
// shim over unstructured provider error text; revisit if providers ever
// expose structured retry metadata on their error types.
var retryDelayPatterns = []*regexp.Regexp{
	// "retry in 51.6s" / "Please retry in 51.6s"
	regexp.MustCompile(`(?i)retry in\s*(\d+(?:\.\d+)?)\s*s`),
	// "retry_after: 30" / "retry-after=30"
	regexp.MustCompile(`(?i)retry[-_]after["\s:=]+(\d+(?:\.\d+)?)`),
	// protobuf-style "retry_delay { seconds: 51 }" fragments
	regexp.MustCompile(`(?i)retry_delay[^}]*seconds:\s*(\d+(?:\.\d+)?)`),
}

// ParseRetryDelay extracts a server-suggested retry delay from a provider
// error message. Returns false when no hint is present or the hint does not
// parse; callers fall back to computed exponential backoff in that case.
// Parsed delays are clamped to (0, MaxServerDelay].
func ParseRetryDelay(msg string) (time.Duration, bool) {
	if msg == "" {
		return 0, false
	}

	for _, pattern := range retryDelayPatterns {
		m := pattern.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		seconds, err := strconv.ParseFloat(m[1], 64)
		if err != nil || seconds <= 0 {
			continue
		}
		delay := time.Duration(seconds * float64(time.Second))
		if delay > MaxServerDelay {
			delay = MaxServerDelay
		}
		return delay, true
	}

	return 0, false
}
