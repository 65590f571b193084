package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(attempts int) *ExponentialBackoff {
	return NewExponentialBackoff(attempts, WithInitialDelay(time.Millisecond), WithJitter(0))
}

func TestStoreErrorClassifier(t *testing.T) {
	c := NewStoreErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"wrapped pg error", fmt.Errorf("query: %w", &pgconn.PgError{Code: "08000"}), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"syntax", errors.New("syntax error at or near"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(5, WithInitialDelay(100*time.Millisecond), WithMaxDelay(time.Second), WithJitter(0))

	assert.Equal(t, 100*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 800*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, time.Second, b.NextDelay(10), "capped at max delay")
	assert.Equal(t, 5, b.MaxAttempts())

	jittered := NewExponentialBackoff(1, WithInitialDelay(100*time.Millisecond),
		WithJitter(0.5), WithJitterFunc(func() float64 { return 1 }))
	assert.Equal(t, 150*time.Millisecond, jittered.NextDelay(0))
}

func TestExecutor_RetriesTransient(t *testing.T) {
	var calls, retries int
	e := NewExecutor(NewStoreErrorClassifier(), fastBackoff(3)).
		WithOnRetry(func(int, error, time.Duration) { retries++ })

	err := e.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "08006"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestExecutor_FatalStopsImmediately(t *testing.T) {
	calls := 0
	fatal := &pgconn.PgError{Code: "42P01"}
	err := NewExecutor(NewStoreErrorClassifier(), fastBackoff(5)).Execute(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := NewExecutor(NewStoreErrorClassifier(), fastBackoff(2)).Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("connection refused")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}

func TestExecutor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewExecutor(NewStoreErrorClassifier(), NewExponentialBackoff(-1, WithInitialDelay(time.Hour), WithJitter(0))).
		WithOnRetry(func(int, error, time.Duration) { cancel() })

	err := e.Execute(ctx, func(context.Context) error { return errors.New("i/o timeout") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), NewExecutor(NewStoreErrorClassifier(), fastBackoff(2)),
		func(context.Context) (map[string]bool, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("database is locked")
			}
			return map[string]bool{"a": true}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, got)
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewStoreErrorClassifier(), nil) })
}
