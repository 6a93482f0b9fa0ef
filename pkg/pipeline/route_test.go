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
	"math"
	"testing"
)

func TestRouteIdenticalDrafts(t *testing.T) {
	d := Route("thanks for the update", "thanks for the update", 0.20, false)
	if d.Path != PathLightweight {
		t.Errorf("expected lightweight path for identical drafts, got %s", d.Path)
	}
	if d.DiffRatio != 0 {
		t.Errorf("expected ratio 0, got %f", d.DiffRatio)
	}
}

func TestRouteBothEmpty(t *testing.T) {
	d := Route("", "", 0.20, false)
	if d.Path != PathLightweight || d.DiffRatio != 0 {
		t.Errorf("expected lightweight with ratio 0, got %s ratio %f", d.Path, d.DiffRatio)
	}
}

func TestRouteOneEmpty(t *testing.T) {
	d := Route("hello there friend", "", 0.20, false)
	if d.Path != PathFull {
		t.Errorf("expected full path, got %s", d.Path)
	}
	if d.DiffRatio != 1.0 {
		t.Errorf("expected ratio 1.0, got %f", d.DiffRatio)
	}
}

func TestRouteSymmetry(t *testing.T) {
	a := "dear sam thanks for the quick turnaround on the report"
	b := "dear sam thank you for the fast turnaround on that report"

	ab := Route(a, b, 0.20, false)
	ba := Route(b, a, 0.20, false)
	if ab.DiffRatio != ba.DiffRatio {
		t.Errorf("ratio not symmetric: %f vs %f", ab.DiffRatio, ba.DiffRatio)
	}
}

func TestRouteRatioBounds(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"a", ""},
		{"a b c", "a b c"},
		{"one two three", "four five six"},
		{"some overlap here", "some overlap there"},
	}
	for _, c := range cases {
		d := Route(c[0], c[1], 0.20, false)
		if d.DiffRatio < 0 || d.DiffRatio > 1 {
			t.Errorf("ratio out of bounds for %q vs %q: %f", c[0], c[1], d.DiffRatio)
		}
	}
}

func TestRouteThresholdBoundary(t *testing.T) {
	// Five distinct words with one substitution gives six union words and
	// two changed words, ratio 1/3. Drive the boundary with the threshold
	// instead of the text so the ratio is exact.
	original := "alpha beta gamma delta epsilon"
	edited := "alpha beta gamma delta zeta"

	ratio := Route(original, edited, 0.20, false).DiffRatio
	if math.Abs(ratio-1.0/3.0) > 1e-9 {
		t.Fatalf("expected ratio 1/3, got %f", ratio)
	}

	// Ratio just below threshold stays lightweight.
	if d := Route(original, edited, ratio+1e-5, false); d.Path != PathLightweight {
		t.Errorf("ratio below threshold should be lightweight, got %s", d.Path)
	}
	// Ratio at threshold goes full.
	if d := Route(original, edited, ratio, false); d.Path != PathFull {
		t.Errorf("ratio at threshold should be full, got %s", d.Path)
	}
	// Ratio just above threshold goes full.
	if d := Route(original, edited, ratio-1e-5, false); d.Path != PathFull {
		t.Errorf("ratio above threshold should be full, got %s", d.Path)
	}
}

func TestRouteForceFull(t *testing.T) {
	d := Route("same text", "same text", 0.20, true)
	if d.Path != PathFull {
		t.Errorf("force full should override identical drafts, got %s", d.Path)
	}
	if !d.Forced {
		t.Error("expected Forced to be set")
	}
	if d.DiffRatio != 0 {
		t.Errorf("identical drafts have ratio 0 even when forced, got %f", d.DiffRatio)
	}
}

func TestRouteForceFullStillReportsRatio(t *testing.T) {
	// Forcing the path must not suppress the diff computation: callers
	// surface the ratio alongside the chosen path.
	d := Route("one two three", "four five six", 0.20, true)
	if d.Path != PathFull || !d.Forced {
		t.Fatalf("expected forced full path, got %s forced=%v", d.Path, d.Forced)
	}
	if d.DiffRatio != 1.0 {
		t.Errorf("disjoint drafts should report ratio 1.0, got %f", d.DiffRatio)
	}
	if d.ChangedWords != 6 || d.TotalWords != 6 {
		t.Errorf("expected 6 changed of 6 union words, got %d/%d", d.ChangedWords, d.TotalWords)
	}
}

func TestRouteCaseInsensitive(t *testing.T) {
	d := Route("Hello World", "hello world", 0.20, false)
	if d.DiffRatio != 0 {
		t.Errorf("case difference should not count as change, got ratio %f", d.DiffRatio)
	}
}

func TestRouteZeroThresholdUsesDefault(t *testing.T) {
	// One word changed out of a large draft is well under the default.
	original := "a b c d e f g h i j k l m n o p q r s t"
	edited := "a b c d e f g h i j k l m n o p q r s z"
	d := Route(original, edited, 0, false)
	if d.Path != PathLightweight {
		t.Errorf("small edit with default threshold should be lightweight, got %s (ratio %f)", d.Path, d.DiffRatio)
	}
}
