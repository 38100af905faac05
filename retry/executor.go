package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// jitterFraction bounds the random offset added to each delay: ±25%.
const jitterFraction = 0.25

// Operation is any fallible call the executor can run. Results travel through
// the closure; the executor only sees success or failure.
type Operation func(ctx context.Context) error

// Executor runs operations under one immutable Policy.
type Executor struct {
	policy Policy

	// Test seams. Production executors sleep for real and draw jitter from
	// math/rand; tests swap these to pin timing down.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64 // uniform in [-1, 1)
	now    func() time.Time
}

// New validates the policy and returns an executor for it.
func New(policy Policy) (*Executor, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Executor{
		policy: policy,
		sleep:  sleepCtx,
		jitter: func() float64 { return rand.Float64()*2 - 1 },
		now:    time.Now,
	}, nil
}

// Policy returns the executor's policy value.
func (e *Executor) Policy() Policy { return e.policy }

// Execute runs op until it succeeds, fails non-retryably, or the attempt
// budget is exhausted. Attempt history is attached to the returned
// *ExhaustedError; use ExecuteWithReport when it is needed on success too.
func (e *Executor) Execute(ctx context.Context, op Operation) error {
	_, err := e.ExecuteWithReport(ctx, op)
	return err
}

// ExecuteWithReport is Execute plus the per-attempt diagnostics.
//
// Semantics:
//   - success: returns immediately with the recorded attempts;
//   - non-retryable failure: propagates the failure unchanged, at once;
//   - retryable failure: sleeps min(MaxDelay, InitialDelay*BackoffFactor^(n-1)),
//     jittered ±25% when the policy asks for it, then retries;
//   - canceled context during a pause: stops with the context error;
//   - budget exhausted: returns an *ExhaustedError wrapping the last failure.
func (e *Executor) ExecuteWithReport(ctx context.Context, op Operation) (Report, error) {
	var report Report

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		rec := Attempt{Attempt: attempt, Time: e.now()}
		err := op(ctx)
		if err == nil {
			rec.Success = true
			report.Attempts = append(report.Attempts, rec)
			report.Success = true
			return report, nil
		}
		rec.Err = err

		if !e.policy.retryable(err) {
			report.Attempts = append(report.Attempts, rec)
			return report, err
		}
		if attempt == e.policy.MaxAttempts {
			report.Attempts = append(report.Attempts, rec)
			break
		}

		delay := e.policy.Delay(attempt)
		if e.policy.Jitter && delay > 0 {
			delay += time.Duration(float64(delay) * jitterFraction * e.jitter())
		}
		rec.Delay = delay
		report.Attempts = append(report.Attempts, rec)

		if err := e.sleep(ctx, delay); err != nil {
			return report, fmt.Errorf("retry: canceled after %d attempts: %w", len(report.Attempts), err)
		}
	}

	return report, &ExhaustedError{
		Attempts: report.Attempts,
		Err:      report.Last().Err,
	}
}

// Wrap bakes the executor into op: the returned Operation retries with
// exactly the same semantics as Execute.
func (e *Executor) Wrap(op Operation) Operation {
	return func(ctx context.Context) error {
		return e.Execute(ctx, op)
	}
}

// Do is the one-shot form: validate the policy, run op under it.
func Do(ctx context.Context, policy Policy, op Operation) error {
	e, err := New(policy)
	if err != nil {
		return err
	}
	return e.Execute(ctx, op)
}

// sleepCtx pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
