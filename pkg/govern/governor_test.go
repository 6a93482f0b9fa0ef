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

package govern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable clock for driving the governor in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGovernor(cfg Config) (*Governor, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)}
	return New(cfg).WithClock(clock.now), clock
}

func TestGovernorAllowsUnderLimit(t *testing.T) {
	g, _ := newTestGovernor(Config{MaxRequestsPerMinute: 3, DailyBudgetUSD: 1.00})

	for i := 0; i < 3; i++ {
		ok, reason := g.CanProceed()
		require.True(t, ok, "call %d should be allowed, got %q", i, reason)
		g.Record(0.01)
	}
}

func TestGovernorRateWindowRefusal(t *testing.T) {
	g, clock := newTestGovernor(Config{MaxRequestsPerMinute: 2})

	g.Record(0)
	clock.advance(10 * time.Second)
	g.Record(0)

	ok, reason := g.CanProceed()
	require.False(t, ok)
	// Oldest call frees its slot 50 seconds from now.
	assert.Equal(t, "rate limit: wait 50s", reason)
}

func TestGovernorWindowSlides(t *testing.T) {
	g, clock := newTestGovernor(Config{MaxRequestsPerMinute: 2})

	g.Record(0)
	g.Record(0)

	ok, _ := g.CanProceed()
	require.False(t, ok)

	// After the window passes, both slots free up.
	clock.advance(61 * time.Second)
	ok, reason := g.CanProceed()
	assert.True(t, ok, "expected window to slide, got %q", reason)
	assert.Equal(t, 0, g.Stats().RequestsInWindow)
}

func TestGovernorWaitSecondsRoundsUp(t *testing.T) {
	g, clock := newTestGovernor(Config{MaxRequestsPerMinute: 1})

	g.Record(0)
	clock.advance(59*time.Second + 500*time.Millisecond)

	ok, reason := g.CanProceed()
	require.False(t, ok)
	assert.Equal(t, "rate limit: wait 1s", reason, "fractional waits round up, never to zero")
}

func TestGovernorDailyBudgetRefusal(t *testing.T) {
	g, _ := newTestGovernor(Config{DailyBudgetUSD: 0.10})

	g.Record(0.06)
	ok, _ := g.CanProceed()
	require.True(t, ok, "under budget")

	g.Record(0.05)
	ok, reason := g.CanProceed()
	require.False(t, ok)
	assert.Equal(t, "daily cost limit reached", reason)
}

func TestGovernorBudgetResetsAtMidnight(t *testing.T) {
	g, clock := newTestGovernor(Config{DailyBudgetUSD: 0.10})

	g.Record(0.20)
	ok, _ := g.CanProceed()
	require.False(t, ok)

	// The ledger resets on the calendar date change, not 24h later.
	clock.advance(15 * time.Hour)
	ok, reason := g.CanProceed()
	assert.True(t, ok, "expected fresh ledger on the next day, got %q", reason)
	assert.Equal(t, 0.0, g.Stats().DayCostUSD)
}

func TestGovernorZeroLimitsDisabled(t *testing.T) {
	g, _ := newTestGovernor(Config{})

	for i := 0; i < 100; i++ {
		g.Record(5.00)
	}
	ok, reason := g.CanProceed()
	assert.True(t, ok, "zero-valued limits must not refuse, got %q", reason)
}

func TestGovernorStats(t *testing.T) {
	g, _ := newTestGovernor(Config{MaxRequestsPerMinute: 30, DailyBudgetUSD: 1.00})

	g.Record(0.02)
	g.Record(0.03)

	stats := g.Stats()
	assert.Equal(t, 2, stats.RequestsInWindow)
	assert.Equal(t, 30, stats.MaxRequestsPerMinute)
	assert.InDelta(t, 0.05, stats.DayCostUSD, 1e-12)
	assert.Equal(t, 1.00, stats.DailyBudgetUSD)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30, cfg.MaxRequestsPerMinute)
	assert.Equal(t, 1.00, cfg.DailyBudgetUSD)
}
