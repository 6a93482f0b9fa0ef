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

// Package govern gates model calls behind a requests-per-minute ceiling and
// a daily cost budget. The governor is a pure decision function: it never
// sleeps or blocks, and waiting on a refusal is the caller's responsibility.
package govern

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// window is the sliding interval for the request ceiling.
const window = time.Minute

// Config configures a Governor.
type Config struct {
	// MaxRequestsPerMinute is the sliding-window request ceiling.
	// Zero disables the request limit.
	MaxRequestsPerMinute int

	// DailyBudgetUSD is the cumulative cost ceiling per calendar day.
	// Zero disables the budget limit.
	DailyBudgetUSD float64
}

// DefaultConfig returns the default governor limits.
func DefaultConfig() Config {
	return Config{
		MaxRequestsPerMinute: 30,
		DailyBudgetUSD:       1.00,
	}
}

// Governor is a sliding-window request counter combined with a calendar-day
// cost ledger. Construct one per deployment and inject it; a shared instance
// is safe for concurrent use.
//
// CanProceed and Record each take the instance lock but are not atomic as a
// pair, so two concurrent requests can both observe the last free slot. The
// limiter is advisory in that narrow window; strict reservation would need a
// combined try-acquire, which nothing here requires.
type Governor struct {
	mu sync.Mutex

	config Config

	// timestamps holds accepted-call times within the sliding window.
	timestamps []time.Time

	// dayCost is the cost accumulated during ledgerDay.
	dayCost   float64
	ledgerDay civilDate

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// civilDate identifies a calendar day for the budget ledger.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

// New creates a governor with the given limits.
func New(config Config) *Governor {
	g := &Governor{
		config: config,
		now:    time.Now,
	}
	g.ledgerDay = dateOf(g.now())
	return g
}

// WithClock replaces the governor's clock. Intended for tests.
func (g *Governor) WithClock(now func() time.Time) *Governor {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
	g.ledgerDay = dateOf(now())
	return g
}

// CanProceed reports whether a new call may be made. When refused, the
// reason distinguishes the rate window ("rate limit: wait Ns") from the
// budget ("daily cost limit reached") so callers can surface the right
// message to the user.
func (g *Governor) CanProceed() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)
	g.rolloverLocked(now)

	if g.config.MaxRequestsPerMinute > 0 && len(g.timestamps) >= g.config.MaxRequestsPerMinute {
		wait := g.timestamps[0].Add(window).Sub(now)
		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		return false, fmt.Sprintf("rate limit: wait %ds", seconds)
	}

	if g.config.DailyBudgetUSD > 0 && g.dayCost >= g.config.DailyBudgetUSD {
		return false, "daily cost limit reached"
	}

	return true, ""
}

// Record accounts one accepted call and its cost. Call it for every attempt
// that passed CanProceed, successful or not: the provider consumed quota
// either way.
func (g *Governor) Record(costUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)
	g.rolloverLocked(now)

	g.timestamps = append(g.timestamps, now)
	if costUSD > 0 {
		g.dayCost += costUSD
	}
}

// Stats summarizes the governor's current state.
type Stats struct {
	// RequestsInWindow is the number of accepted calls inside the sliding window.
	RequestsInWindow int `json:"requests_in_window"`

	// MaxRequestsPerMinute is the configured ceiling (0 = unlimited).
	MaxRequestsPerMinute int `json:"max_requests_per_minute"`

	// DayCostUSD is the cost accumulated today.
	DayCostUSD float64 `json:"day_cost_usd"`

	// DailyBudgetUSD is the configured budget (0 = unlimited).
	DailyBudgetUSD float64 `json:"daily_budget_usd"`
}

// Stats returns a snapshot of the governor's counters.
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.pruneLocked(now)
	g.rolloverLocked(now)

	return Stats{
		RequestsInWindow:     len(g.timestamps),
		MaxRequestsPerMinute: g.config.MaxRequestsPerMinute,
		DayCostUSD:           g.dayCost,
		DailyBudgetUSD:       g.config.DailyBudgetUSD,
	}
}

// pruneLocked drops timestamps older than the sliding window.
// Accepted calls are never evicted early: the window shrinks only by time.
func (g *Governor) pruneLocked(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(g.timestamps) && !g.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		g.timestamps = append(g.timestamps[:0], g.timestamps[i:]...)
	}
}

// rolloverLocked resets the cost ledger when the calendar date advances.
// This is a calendar-day reset, not a rolling 24h window.
func (g *Governor) rolloverLocked(now time.Time) {
	today := dateOf(now)
	if today != g.ledgerDay {
		g.ledgerDay = today
		g.dayCost = 0
	}
}
