package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

// newTestExecutor returns an executor whose sleeps are recorded instead of
// slept and whose jitter draw is fixed.
func newTestExecutor(t *testing.T, p Policy, jitterDraw float64) (*Executor, *[]time.Duration) {
	t.Helper()

	e, err := New(p)
	assert.NoError(t, err)

	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	e.jitter = func() float64 { return jitterDraw }
	return e, &slept
}

// failNTimes returns an operation failing its first n calls, then succeeding.
func failNTimes(n int, err error) Operation {
	calls := 0
	return func(ctx context.Context) error {
		calls++
		if calls <= n {
			return err
		}
		return nil
	}
}

func TestExecuteSucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffFactor: 2.0}
	e, slept := newTestExecutor(t, p, 0)

	report, err := e.ExecuteWithReport(context.Background(), failNTimes(2, errBoom))
	assert.NoError(t, err)
	assert.True(t, report.Success)

	// Two failures then a success: three attempts, delays 1s and 2s.
	assert.Len(t, report.Attempts, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)

	assert.False(t, report.Attempts[0].Success)
	assert.ErrorIs(t, report.Attempts[0].Err, errBoom)
	assert.Equal(t, time.Second, report.Attempts[0].Delay)
	assert.Equal(t, 2*time.Second, report.Attempts[1].Delay)
	assert.True(t, report.Attempts[2].Success)
	assert.Zero(t, report.Attempts[2].Delay)
}

func TestExecuteFirstTrySuccess(t *testing.T) {
	t.Parallel()

	e, slept := newTestExecutor(t, Policy{MaxAttempts: 5, InitialDelay: time.Second, BackoffFactor: 2.0}, 0)

	report, err := e.ExecuteWithReport(context.Background(), failNTimes(0, errBoom))
	assert.NoError(t, err)
	assert.Len(t, report.Attempts, 1)
	assert.Empty(t, *slept)
}

func TestExecuteExhausted(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffFactor: 2.0}
	e, slept := newTestExecutor(t, p, 0)

	err := e.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	assert.Error(t, err)

	var exhausted *ExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Len(t, exhausted.Attempts, 3)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, exhausted.Err, errBoom)

	// No sleep after the final attempt.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestExecuteNonRetryablePropagatesImmediately(t *testing.T) {
	t.Parallel()

	errFatal := errors.New("bad credentials")
	p := Policy{
		MaxAttempts:   5,
		InitialDelay:  time.Second,
		BackoffFactor: 2.0,
		Retryable:     func(err error) bool { return !errors.Is(err, errFatal) },
	}
	e, slept := newTestExecutor(t, p, 0)

	calls := 0
	report, err := e.ExecuteWithReport(context.Background(), func(ctx context.Context) error {
		calls++
		return errFatal
	})

	// The failure comes back unchanged, after exactly one call and no sleeping.
	assert.ErrorIs(t, err, errFatal)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, calls)
	assert.Len(t, report.Attempts, 1)
	assert.Empty(t, *slept)
}

func TestExecuteDelayCappedAtMax(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 3 * time.Second, BackoffFactor: 2.0}
	e, slept := newTestExecutor(t, p, 0)

	err := e.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
	assert.Error(t, err)

	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		3 * time.Second, // 4s capped
		3 * time.Second, // 8s capped
	}, *slept)
}

func TestExecuteJitterBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		draw float64
		want time.Duration
	}{
		{"max_positive", 1, 1250 * time.Millisecond},
		{"max_negative", -1, 750 * time.Millisecond},
		{"zero_draw", 0, time.Second},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := Policy{MaxAttempts: 2, InitialDelay: time.Second, BackoffFactor: 2.0, Jitter: true}
			e, slept := newTestExecutor(t, p, tt.draw)

			_ = e.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
			assert.Len(t, *slept, 1)
			assert.Equal(t, tt.want, (*slept)[0])
		})
	}
}

func TestExecuteJitterStaysWithinQuarter(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 2, InitialDelay: time.Second, BackoffFactor: 2.0, Jitter: true}

	for i := 0; i < 50; i++ {
		e, err := New(p)
		assert.NoError(t, err)

		var slept []time.Duration
		e.sleep = func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}

		_ = e.Execute(context.Background(), func(ctx context.Context) error { return errBoom })
		assert.Len(t, slept, 1)
		assert.GreaterOrEqual(t, slept[0], 750*time.Millisecond)
		assert.LessOrEqual(t, slept[0], 1250*time.Millisecond)
	}
}

func TestExecuteContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffFactor: 2.0}
	e, err := New(p)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	e.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	execErr := e.Execute(ctx, func(ctx context.Context) error { return errBoom })
	assert.ErrorIs(t, execErr, context.Canceled)
}

func TestWrapSharesExecuteSemantics(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 3, InitialDelay: time.Second, BackoffFactor: 2.0}
	e, slept := newTestExecutor(t, p, 0)

	wrapped := e.Wrap(failNTimes(2, errBoom))
	assert.NoError(t, wrapped(context.Background()))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestDo(t *testing.T) {
	t.Parallel()

	err := Do(context.Background(), Policy{MaxAttempts: 1, BackoffFactor: 1}, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	// Invalid policies are rejected before anything runs.
	ran := false
	err = Do(context.Background(), Policy{MaxAttempts: 0, BackoffFactor: 1}, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, ran)
}
