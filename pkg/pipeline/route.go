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

import "strings"

// Path selects how much of the generation sequence a regeneration re-runs.
type Path string

const (
	// PathLightweight re-runs only the final polish stages.
	PathLightweight Path = "lightweight"

	// PathFull re-runs the complete generation sequence.
	PathFull Path = "full"
)

// DefaultDiffThreshold is the diff ratio at or above which a
// regeneration takes the full path.
const DefaultDiffThreshold = 0.20

// RouteDecision explains which path a regeneration takes.
type RouteDecision struct {
	Path         Path    `json:"path"`
	DiffRatio    float64 `json:"diff_ratio"`
	ChangedWords int     `json:"changed_words"`
	TotalWords   int     `json:"total_words"`
	Forced       bool    `json:"forced,omitempty"`
}

// Route decides between the lightweight and full regeneration paths by
// comparing the original and edited drafts as word sets. The diff ratio
// is the size of the symmetric difference over the size of the union,
// so it is symmetric in its arguments and always in [0, 1]. Ratios at
// or above threshold route to the full path; forceFull forces the full
// path but the ratio is still computed and reported.
//
// A non-positive threshold falls back to DefaultDiffThreshold.
func Route(original, edited string, threshold float64, forceFull bool) RouteDecision {
	if threshold <= 0 {
		threshold = DefaultDiffThreshold
	}

	origWords := wordSet(original)
	editWords := wordSet(edited)

	if len(origWords) == 0 && len(editWords) == 0 {
		if forceFull {
			return RouteDecision{Path: PathFull, Forced: true}
		}
		return RouteDecision{Path: PathLightweight, DiffRatio: 0}
	}

	union := make(map[string]struct{}, len(origWords)+len(editWords))
	for w := range origWords {
		union[w] = struct{}{}
	}
	for w := range editWords {
		union[w] = struct{}{}
	}

	changed := 0
	for w := range union {
		_, inOrig := origWords[w]
		_, inEdit := editWords[w]
		if inOrig != inEdit {
			changed++
		}
	}

	ratio := float64(changed) / float64(len(union))
	decision := RouteDecision{
		DiffRatio:    ratio,
		ChangedWords: changed,
		TotalWords:   len(union),
	}
	switch {
	case forceFull:
		decision.Path = PathFull
		decision.Forced = true
	case ratio >= threshold:
		decision.Path = PathFull
	default:
		decision.Path = PathLightweight
	}
	return decision
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
