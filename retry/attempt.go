package retry

import (
	"fmt"
	"time"
)

// Attempt is the outcome of one execution of the operation. Records are
// accumulated during a single Execute call and either discarded (plain
// Execute) or handed back for diagnostics (ExecuteWithReport, ExhaustedError).
type Attempt struct {
	// Attempt is the 1-based attempt index.
	Attempt int

	// Time is when the attempt started.
	Time time.Time

	// Success reports whether the operation returned nil.
	Success bool

	// Err is the failure, nil on success.
	Err error

	// Delay is the pause scheduled after this failed attempt, including
	// jitter. Zero for the final attempt and for successes.
	Delay time.Duration
}

// Report is the diagnostic summary of one Execute call.
type Report struct {
	Attempts []Attempt
	Success  bool
}

// Last returns the final attempt, or a zero Attempt when nothing ran.
func (r Report) Last() Attempt {
	if len(r.Attempts) == 0 {
		return Attempt{}
	}
	return r.Attempts[len(r.Attempts)-1]
}

// ExhaustedError reports that every allowed attempt failed. It carries the
// full attempt history and wraps the last underlying failure so callers can
// still match it with errors.Is / errors.As.
type ExhaustedError struct {
	Attempts []Attempt
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: exhausted %d attempts: %v", len(e.Attempts), e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
