package retry

import (
	"context"
	"time"

	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// Executor runs an operation until it succeeds, fails fatally, or the
// backoff strategy runs out of attempts.
type Executor struct {
	classifier ftmgmt.ErrorClassifier
	strategy   ftmgmt.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier ftmgmt.ErrorClassifier, strategy ftmgmt.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of the Executor that calls callback before
// every retry.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithLogger returns a copy of the Executor that reports retries to logger.
func (e *Executor) WithLogger(logger ftmgmt.Logger, what string) *Executor {
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("%s failed (attempt %d), retrying in %v: %v", what, attempt+1, delay, err)
	})
}

// Execute runs operation with retries and returns the last attempt's error.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	// A negative maximum retries until the context ends.
	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// Do is Execute for operations that produce a value.
func Do[T any](ctx context.Context, e *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
