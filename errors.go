package pollstate

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by [Outcome.AsError] and recognised by the
// default [ErrorClassifier].
var (
	// ErrRateLimited marks a fetch error caused by provider rate limiting.
	// Rate-limit errors end the poll immediately.
	ErrRateLimited = errors.New("rate limited")

	// ErrTerminalFailure is wrapped by outcomes of kind [KindFailure].
	ErrTerminalFailure = errors.New("terminal failure status")

	// ErrTimeout is wrapped by outcomes of kind [KindTimeout].
	ErrTimeout = errors.New("timed out waiting for terminal status")

	// ErrRetriesExhausted is wrapped by outcomes of kind [KindTransientError].
	ErrRetriesExhausted = errors.New("consecutive fetch errors exhausted retry budget")

	// ErrFatal is wrapped by outcomes of kind [KindFatalError].
	ErrFatal = errors.New("non-retryable fetch error")
)

// ErrorClass tells the poller how to react to a fetch error.
type ErrorClass int

const (
	// ClassTransient errors are retried until the retry budget runs out.
	ClassTransient ErrorClass = iota

	// ClassRateLimited errors stop polling immediately.
	ClassRateLimited

	// ClassFatal errors stop polling immediately.
	ClassFatal
)

// String returns a short name for the class.
func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassRateLimited:
		return "rate_limited"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ErrorClassifier maps a fetch error to an [ErrorClass].
type ErrorClassifier func(err error) ErrorClass

// HTTPStatusCoder is implemented by errors that carry an HTTP status code.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// DefaultClassifier is the [ErrorClassifier] used when none is configured.
//
//   - errors wrapping [ErrRateLimited], or carrying HTTP 429 through
//     [HTTPStatusCoder], are [ClassRateLimited]
//   - errors wrapped with [Permanent] are [ClassFatal]
//   - everything else is [ClassTransient]
func DefaultClassifier(err error) ErrorClass {
	if errors.Is(err, ErrRateLimited) {
		return ClassRateLimited
	}

	var coder HTTPStatusCoder
	if errors.As(err, &coder) && coder.HTTPStatusCode() == http.StatusTooManyRequests {
		return ClassRateLimited
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return ClassFatal
	}

	return ClassTransient
}

// Permanent wraps err so that [DefaultClassifier] treats it as fatal.
// Permanent(nil) returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }
