package pollstate

import (
	"fmt"
	"time"
)

// OutcomeKind tags how a poll ended.
type OutcomeKind string

const (
	// KindSuccess means a status in the success set was observed.
	KindSuccess OutcomeKind = "success"

	// KindFailure means a status in the failure set was observed.
	KindFailure OutcomeKind = "failure"

	// KindTimeout means the wall-clock budget ran out first.
	KindTimeout OutcomeKind = "timeout"

	// KindTransientError means consecutive fetch errors exhausted the
	// retry budget.
	KindTransientError OutcomeKind = "transient_error"

	// KindRateLimited means a fetch reported rate limiting.
	KindRateLimited OutcomeKind = "rate_limited"

	// KindFatalError means a fetch returned a non-retryable error or panicked.
	KindFatalError OutcomeKind = "fatal_error"

	// KindCanceled means the caller cancelled the context.
	KindCanceled OutcomeKind = "canceled"
)

// String returns the string representation of the kind.
func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome is the single result of a [Poll] call.
//
// Poll never returns an error or panics; every ending is described by an
// Outcome and callers branch on Kind.
type Outcome struct {
	// Kind tags how the poll ended.
	Kind OutcomeKind

	// Status is the terminal status for KindSuccess and KindFailure, and
	// the last status observed (possibly empty) for the other kinds.
	Status Status

	// Err is the fetch error behind KindTransientError, KindRateLimited and
	// KindFatalError, or the context error for KindCanceled.
	Err error

	// Attempts is the number of fetches that settled.
	Attempts int

	// Elapsed is the time from the start of the poll to the outcome.
	Elapsed time.Duration
}

// OK reports whether the poll ended in success.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// AsError converts the outcome into an error for callers that prefer
// error flow. It returns nil for [KindSuccess]. The returned error wraps
// one of [ErrTerminalFailure], [ErrTimeout], [ErrRetriesExhausted],
// [ErrRateLimited] or [ErrFatal], and the underlying fetch error when
// there is one.
func (o Outcome) AsError() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindFailure:
		return fmt.Errorf("%w: %s", ErrTerminalFailure, o.Status)
	case KindTimeout:
		return fmt.Errorf("%w after %s (last status %q)", ErrTimeout, o.Elapsed.Round(time.Millisecond), o.Status)
	case KindTransientError:
		return fmt.Errorf("%w: %w", ErrRetriesExhausted, o.Err)
	case KindRateLimited:
		if o.Err == nil {
			return ErrRateLimited
		}
		return fmt.Errorf("%w: %w", ErrRateLimited, o.Err)
	case KindFatalError:
		return fmt.Errorf("%w: %w", ErrFatal, o.Err)
	case KindCanceled:
		return fmt.Errorf("poll canceled: %w", o.Err)
	default:
		return fmt.Errorf("unknown outcome kind %q", o.Kind)
	}
}
