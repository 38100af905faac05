// Package retry runs fallible operations under a bounded backoff policy.
//
// Several independent bot processes share the same brokerage endpoints and
// the same rate-limited decision service, so transient failures tend to
// arrive at all of them at once. The executor backs off exponentially and,
// when jitter is enabled, spreads the retry instants of independent processes
// so they do not hammer a degraded upstream in lockstep.
package retry

import (
	"fmt"
	"time"
)

// Policy configures one executor. It is a plain value: construct it, validate
// it once, and never mutate it afterwards.
type Policy struct {
	// MaxAttempts bounds how many times the operation runs, first try
	// included. Must be at least 1.
	MaxAttempts int

	// InitialDelay is the pause after the first failed attempt.
	InitialDelay time.Duration

	// MaxDelay caps the grown delay. Zero means "no cap".
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay after every failed attempt.
	// Must be at least 1.
	BackoffFactor float64

	// Jitter randomizes each delay by ±25% to desynchronize concurrent
	// retries from independent processes.
	Jitter bool

	// Retryable classifies failures. A failure for which it returns false
	// propagates immediately without consuming the remaining attempt
	// budget. A nil predicate treats every failure as retryable.
	Retryable func(error) bool
}

// Validate checks the policy, naming the offending field.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("retry: initial delay must be >= 0, got %s", p.InitialDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("retry: max delay must be >= 0, got %s", p.MaxDelay)
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("retry: max delay %s below initial delay %s", p.MaxDelay, p.InitialDelay)
	}
	if p.BackoffFactor < 1 {
		return fmt.Errorf("retry: backoff factor must be >= 1, got %g", p.BackoffFactor)
	}
	return nil
}

// Delay returns the deterministic pause scheduled after the given failed
// attempt (1-based): min(MaxDelay, InitialDelay * BackoffFactor^(attempt-1)).
// Jitter is applied on top of this value by the executor, never inside it, so
// tests can assert the deterministic component exactly.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.BackoffFactor
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// retryable applies the predicate, defaulting to retry-everything.
func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// DefaultPolicy mirrors the delays the bots use against the bridge and the
// decision service when the config file does not override them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}
