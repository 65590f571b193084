package retry

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff doubles (by default) the delay after every attempt, up
// to a cap, with optional +/- jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	maxAttempts  int // -1 = unlimited, 0 = no retries
	jitter       float64
	jitterFunc   func() float64
}

// BackoffOption configures an ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

// WithMultiplier sets the growth factor between retries.
func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the jitter fraction; 0.1 means +/- 10%.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source used for jitter (values in [0, 1)).
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff creates a strategy starting at 100ms, capped at 10s,
// doubling per attempt with 10% jitter.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     10 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay returns the delay before retry number attempt (zero-based).
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	delay = math.Min(delay, float64(b.maxDelay))
	if b.jitter > 0 && b.jitterFunc != nil {
		delay *= 1 + b.jitter*(b.jitterFunc()*2-1)
	}
	return time.Duration(delay)
}

// MaxAttempts returns the maximum number of retries.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}
