package search

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"research-assistant/internal/config"
)

// ErrRateLimited is returned by providers when the search backend throttles us
var ErrRateLimited = errors.New("search provider rate limit")

// IsRateLimit reports whether err signals provider throttling. Providers that
// only surface a message are matched on "rate limit".
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Jitter is a uniform random delay in [Min, Max]
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

// Draw picks a delay using randf, which must return values in [0, 1)
func (j Jitter) Draw(randf func() float64) time.Duration {
	if j.Max <= j.Min {
		return j.Min
	}
	return j.Min + time.Duration(randf()*float64(j.Max-j.Min))
}

// RetryPolicy controls pacing and retries around a single search.
// MaxAttempts counts the first call; only rate-limit errors are retried.
type RetryPolicy struct {
	MaxAttempts      int
	RateLimitBackoff time.Duration
	InitialJitter    Jitter
	ResultJitter     Jitter
	Sleep            Sleeper
	Rand             func() float64
}

func DefaultRetryPolicy() RetryPolicy {
	return PolicyFromConfig(config.Default().Search.Retry)
}

func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      cfg.MaxAttempts,
		RateLimitBackoff: cfg.RateLimitBackoff,
		InitialJitter:    Jitter{Min: cfg.JitterMin, Max: cfg.JitterMax},
		ResultJitter:     Jitter{Min: cfg.ResultJitterMin, Max: cfg.ResultJitterMax},
		Sleep:            SleepContext,
		Rand:             rand.Float64,
	}
}

// ShouldRetry reports whether another attempt follows a failed attempt number (1-based)
func (p RetryPolicy) ShouldRetry(attempt int, err error) bool {
	return attempt < p.MaxAttempts && IsRateLimit(err)
}

// BeforeCall sleeps the jitter that precedes every provider call
func (p RetryPolicy) BeforeCall(ctx context.Context) error {
	return p.wait(ctx, p.InitialJitter.Draw(p.randf()))
}

// BeforeResult sleeps the pacing delay emitted ahead of each result
func (p RetryPolicy) BeforeResult(ctx context.Context) error {
	return p.wait(ctx, p.ResultJitter.Draw(p.randf()))
}

// Backoff sleeps the fixed delay after a rate-limit error
func (p RetryPolicy) Backoff(ctx context.Context) error {
	return p.wait(ctx, p.RateLimitBackoff)
}

func (p RetryPolicy) wait(ctx context.Context, d time.Duration) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	return sleep(ctx, d)
}

func (p RetryPolicy) randf() func() float64 {
	if p.Rand == nil {
		return rand.Float64
	}
	return p.Rand
}

// SleepContext is the real-clock Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
