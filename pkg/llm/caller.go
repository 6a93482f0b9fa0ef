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
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/draftflow/draftflow/pkg/llm/pricing"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (1 = no retries).
	MaxAttempts int

	// BaseDelay is the backoff delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff delay. Server-suggested delays are
	// capped separately at MaxServerDelay.
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (typically 2.0 for exponential).
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd (0.0-1.0).
	Jitter float64
}

// DefaultRetryConfig returns sensible default retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}
}

// Gate decides whether a new provider call may proceed and accounts for
// accepted calls. Implemented by govern.Governor.
type Gate interface {
	// CanProceed reports whether a call may be made now. When refused, the
	// reason distinguishes rate-window refusals from budget refusals.
	CanProceed() (bool, string)

	// Record accounts an accepted call and its cost. Called for every
	// attempt that passed the gate, regardless of outcome: the provider
	// consumed quota either way.
	Record(costUSD float64)
}

// OutcomeRecorder receives per-attempt call outcomes. Implemented by
// metrics.Sink.
type OutcomeRecorder interface {
	RecordOutcome(CallOutcome)
}

// CallOutcome is the result of one attempt through the resilient caller.
type CallOutcome struct {
	// Provider and Model identify what handled the attempt.
	Provider string
	Model    string

	// Stage is the pipeline stage that issued the call, from request metadata.
	Stage string

	// AttemptIndex is the 0-based attempt number within one Invoke.
	AttemptIndex int

	// Success reports whether the attempt returned a response.
	Success bool

	// Latency is how long the attempt took.
	Latency time.Duration

	// InputTokens and OutputTokens are provider-reported when available,
	// otherwise estimated from text length.
	InputTokens  int
	OutputTokens int

	// Estimated is true when token counts came from estimation.
	Estimated bool

	// CostUSD is the computed cost of the attempt.
	CostUSD float64

	// Kind is the failure classification; empty on success.
	Kind ErrorKind
}

// RefusalError is returned when the gate refuses a call before any attempt
// is made. It is a pre-flight refusal, not a provider failure: callers must
// surface it rather than fall back, since producing content would violate
// the rate/budget contract.
type RefusalError struct {
	Reason string
}

// Error implements the error interface.
func (e *RefusalError) Error() string {
	return fmt.Sprintf("call refused: %s", e.Reason)
}

// Caller executes provider calls with bounded retries, exponential backoff,
// and server-suggested delay hints. Every attempt is gated through a Gate
// and reported to an OutcomeRecorder.
//
// A Caller is itself a Provider, so stages hold one handle for both direct
// and resilient invocation.
type Caller struct {
	provider Provider
	config   RetryConfig

	gate     Gate
	recorder OutcomeRecorder
	price    *pricing.ModelPricing

	logger *slog.Logger

	// sleep waits for the backoff duration, honoring context cancellation.
	// Replaced in tests to observe waits without real sleeping.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCaller wraps a provider with resilient call execution.
func NewCaller(provider Provider, config RetryConfig) *Caller {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}

	return &Caller{
		provider: provider,
		config:   config,
		logger:   slog.Default(),
		sleep:    sleepCtx,
	}
}

// WithGate sets the rate/cost gate consulted before each attempt.
func (c *Caller) WithGate(gate Gate) *Caller {
	c.gate = gate
	return c
}

// WithRecorder sets the outcome recorder.
func (c *Caller) WithRecorder(recorder OutcomeRecorder) *Caller {
	c.recorder = recorder
	return c
}

// WithPricing sets the price table entry used for cost accounting.
func (c *Caller) WithPricing(price *pricing.ModelPricing) *Caller {
	c.price = price
	return c
}

// WithLogger sets a custom logger for the caller.
func (c *Caller) WithLogger(logger *slog.Logger) *Caller {
	c.logger = logger
	return c
}

// WithSleeper replaces the backoff sleep function. Intended for tests.
func (c *Caller) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) *Caller {
	c.sleep = sleep
	return c
}

// Name returns the wrapped provider's name.
func (c *Caller) Name() string {
	return c.provider.Name()
}

// Model returns the wrapped provider's model ID.
func (c *Caller) Model() string {
	return c.provider.Model()
}

// Complete executes a completion request with retry logic.
//
// Before each attempt, after any backoff wait, the gate is consulted; a
// refusal surfaces immediately as *RefusalError. Recoverable failures
// trigger backoff; fatal failures abort at once. When every attempt fails,
// the returned error is *ExhaustedRetriesError carrying the attempt history.
func (c *Caller) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	history := make([]AttemptRecord, 0, c.config.MaxAttempts)

	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		waited := time.Duration(0)
		if attempt > 0 {
			waited = c.nextDelay(attempt, lastErr)
			if err := c.sleep(ctx, waited); err != nil {
				return nil, err
			}
		}

		// Consult the gate after any backoff wait so the decision
		// reflects the window the request actually lands in.
		if c.gate != nil {
			ok, reason := c.gate.CanProceed()
			if !ok {
				return nil, &RefusalError{Reason: reason}
			}
		}

		start := time.Now()
		resp, err := c.provider.Complete(ctx, req)
		latency := time.Since(start)

		c.account(req, resp, err, attempt, latency)

		if err == nil {
			return resp, nil
		}
		lastErr = err

		kind := Classify(err)
		history = append(history, AttemptRecord{
			Index:  attempt,
			Kind:   kind,
			Err:    err.Error(),
			Waited: waited.String(),
		})

		if !kind.Recoverable() {
			c.logger.Warn("llm call failed with non-recoverable error",
				"provider", c.provider.Name(),
				"kind", string(kind),
				"attempt", attempt+1,
				"error", err)
			return nil, err
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.Info("llm call failed, will retry",
			"provider", c.provider.Name(),
			"kind", string(kind),
			"attempt", attempt+1,
			"max_attempts", c.config.MaxAttempts)
	}

	return nil, &ExhaustedRetriesError{
		Attempts: c.config.MaxAttempts,
		History:  history,
		LastErr:  lastErr,
	}
}

// nextDelay computes how long to wait before the given attempt.
// A parseable server-suggested delay takes precedence over the computed
// exponential backoff.
func (c *Caller) nextDelay(attempt int, lastErr error) time.Duration {
	if lastErr != nil {
		if suggested, ok := ParseRetryDelay(lastErr.Error()); ok {
			c.logger.Info("honoring server-suggested retry delay",
				"provider", c.provider.Name(),
				"delay", suggested.String())
			return suggested
		}
	}

	// attempt i (1-indexed here) retries after base * multiplier^(i-1)
	backoff := float64(c.config.BaseDelay) * math.Pow(c.config.Multiplier, float64(attempt-1))
	if max := float64(c.config.MaxDelay); c.config.MaxDelay > 0 && backoff > max {
		backoff = max
	}

	if c.config.Jitter > 0 {
		jitterAmount := backoff * c.config.Jitter
		backoff += (rand.Float64() * 2 * jitterAmount) - jitterAmount
	}

	return time.Duration(backoff)
}

// account registers the attempt with the gate and reports its outcome.
func (c *Caller) account(req CompletionRequest, resp *CompletionResponse, err error, attempt int, latency time.Duration) {
	usage, estimated := c.usageFor(req, resp)
	cost := c.costFor(usage)

	if c.gate != nil {
		c.gate.Record(cost)
	}

	if c.recorder == nil {
		return
	}

	outcome := CallOutcome{
		Provider:     c.provider.Name(),
		Model:        c.provider.Model(),
		Stage:        req.Metadata["stage"],
		AttemptIndex: attempt,
		Success:      err == nil,
		Latency:      latency,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		Estimated:    estimated,
		CostUSD:      cost,
	}
	if err != nil {
		outcome.Kind = Classify(err)
	}

	c.recorder.RecordOutcome(outcome)
}

// usageFor returns provider-reported usage when available, otherwise an
// estimate from text length.
func (c *Caller) usageFor(req CompletionRequest, resp *CompletionResponse) (TokenUsage, bool) {
	if resp != nil && resp.Usage.Reported() {
		return resp.Usage, false
	}

	var inputTokens int
	for _, msg := range req.Messages {
		inputTokens += pricing.EstimateTokensFromText(msg.Content)
	}

	var outputTokens int
	if resp != nil {
		outputTokens = pricing.EstimateTokensFromText(resp.Content)
	}

	return TokenUsage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
	}, true
}

// costFor computes the attempt cost from the configured price table entry.
func (c *Caller) costFor(usage TokenUsage) float64 {
	info := pricing.CalculateCost(c.price, pricing.TokenUsage{
		PromptTokens:     usage.InputTokens,
		CompletionTokens: usage.OutputTokens,
		TotalTokens:      usage.TotalTokens,
	})
	return info.Amount
}

// sleepCtx waits for d, returning early if the context is cancelled.
// It must never be called while holding a shared lock.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
