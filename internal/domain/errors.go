package domain

import (
	"fmt"
	"strings"
	"time"
)

// The error taxonomy surfaced to callers. Internal components return these
// directly; the orchestrator maps component errors 1:1 onto this set and is
// the only place allowed to do the conversion. Transport layers translate the
// taxonomy into their own representation (HTTP status, CLI exit code).

// ValidationError reports a malformed or logically inconsistent request.
// It accumulates all violations so the caller sees every problem at once.
type ValidationError struct {
	Violations []string
}

// Add records a violation against a named field.
func (e *ValidationError) Add(field, msg string) {
	e.Violations = append(e.Violations, field+": "+msg)
}

// Empty reports whether any violation was recorded.
func (e *ValidationError) Empty() bool { return len(e.Violations) == 0 }

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Violations, "; ")
}

// NotFoundError reports a lookup miss for a named entity (asset class, model
// portfolio, market regime).
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// DataQualityError reports internally inconsistent market-assumption data,
// such as a correlation matrix that is not positive semi-definite. The fix is
// operational (refresh the assumption set), not a caller input fix, so it is
// kept distinct from ValidationError.
type DataQualityError struct {
	Reason string
	Err    error
}

func (e *DataQualityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market assumption data invalid: %s: %v", e.Reason, e.Err)
	}
	return "market assumption data invalid: " + e.Reason
}

func (e *DataQualityError) Unwrap() error { return e.Err }

// TimeoutError reports that the engine exceeded its wall-clock budget. The
// recommended caller action is to retry with fewer paths or quick mode.
type TimeoutError struct {
	Budget  time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("simulation timed out after %s (budget %s)", e.Elapsed.Round(time.Millisecond), e.Budget)
}

// ComputationError reports an unexpected numerical failure (NaN propagation,
// factorization breakdown mid-run). Always fatal for the request; never
// downgraded to a partial result.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed during %s: %v", e.Stage, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
