package pollstate

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultInterval             = time.Second
	defaultMaxConsecutiveErrors = 10
)

// Request describes one poll: what to fetch, how often, and which statuses
// end it.
//
// Request is immutable after creation via [NewRequest] or one of the
// presets ([SignerApproval], [DeploymentReadiness], [LoginReadiness]).
// Getters return copies of mutable data.
type Request struct {
	resourceID           string
	fetch                FetchFunc
	interval             time.Duration
	timeout              time.Duration
	success              statusSet
	failure              statusSet
	maxConsecutiveErrors int
	classifier           ErrorClassifier
	immediate            bool
	logger               *slog.Logger
	attemptCallbacks     []func(Attempt)
}

// requestConfig holds mutable state during Request construction.
type requestConfig struct {
	interval             time.Duration
	timeout              time.Duration
	success              []Status
	failure              []Status
	maxConsecutiveErrors int
	classifier           ErrorClassifier
	immediate            bool
	logger               *slog.Logger
	attemptCallbacks     []func(Attempt)
}

// RequestOption configures a [Request] during construction.
//
// Options return an error if validation fails. Options are applied in
// order, so later options override earlier ones.
type RequestOption func(*requestConfig) error

// NewRequest creates a [Request] polling resourceID with fetch.
//
// At least one success status must be configured via [WithSuccess].
// Other settings default to:
//   - Interval: 1 second
//   - Timeout: none (bounded only by the retry budget and the context)
//   - Retry budget: 10 consecutive fetch errors
//   - Error classification: [DefaultClassifier]
//
// Returns an error if resourceID is empty, fetch is nil, no success status
// is configured, a status is both a success and a failure, or any option
// fails validation.
//
// Example:
//
//	req, err := pollstate.NewRequest("job-42", fetchJob,
//	    pollstate.WithSuccess("done"),
//	    pollstate.WithFailure("failed"),
//	    pollstate.WithInterval(2*time.Second),
//	    pollstate.WithTimeout(time.Minute),
//	)
func NewRequest(resourceID string, fetch FetchFunc, opts ...RequestOption) (Request, error) {
	if resourceID == "" {
		return Request{}, errors.New("resource id is required")
	}
	if fetch == nil {
		return Request{}, errors.New("fetch function is required")
	}

	cfg := &requestConfig{
		interval:             defaultInterval,
		maxConsecutiveErrors: defaultMaxConsecutiveErrors,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Request{}, err
		}
	}

	if len(cfg.success) == 0 {
		return Request{}, errors.New("at least one success status is required")
	}

	success := newStatusSet(cfg.success)
	failure := newStatusSet(cfg.failure)
	for status := range success {
		if failure.contains(status) {
			return Request{}, fmt.Errorf("status %q cannot be both success and failure", status)
		}
	}
	if success.contains(StatusNone) || failure.contains(StatusNone) {
		return Request{}, errors.New("empty status cannot be terminal")
	}

	classifier := cfg.classifier
	if classifier == nil {
		classifier = DefaultClassifier
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return Request{
		resourceID:           resourceID,
		fetch:                fetch,
		interval:             cfg.interval,
		timeout:              cfg.timeout,
		success:              success,
		failure:              failure,
		maxConsecutiveErrors: cfg.maxConsecutiveErrors,
		classifier:           classifier,
		immediate:            cfg.immediate,
		logger:               logger,
		attemptCallbacks:     cfg.attemptCallbacks,
	}, nil
}

// ResourceID returns the identifier passed to the fetch function.
func (r Request) ResourceID() string {
	return r.resourceID
}

// Interval returns the delay between the end of one check and the start
// of the next.
func (r Request) Interval() time.Duration {
	return r.interval
}

// Timeout returns the wall-clock budget. Zero means no budget.
func (r Request) Timeout() time.Duration {
	return r.timeout
}

// SuccessStatuses returns the terminal success statuses in sorted order.
func (r Request) SuccessStatuses() []Status {
	return r.success.slice()
}

// FailureStatuses returns the terminal failure statuses in sorted order.
// Returns nil if none are configured.
func (r Request) FailureStatuses() []Status {
	return r.failure.slice()
}

// MaxConsecutiveErrors returns the retry budget. Zero means unbounded.
func (r Request) MaxConsecutiveErrors() int {
	return r.maxConsecutiveErrors
}

// Immediate reports whether the first check runs without waiting an interval.
func (r Request) Immediate() bool {
	return r.immediate
}

// WithInterval sets the delay between checks.
//
// The next check is scheduled only after the previous fetch settles, so
// the effective period is interval + fetch latency.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) RequestOption {
	return func(cfg *requestConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithTimeout sets the wall-clock budget for the whole poll.
//
// When the budget runs out before a terminal status is seen, the poll ends
// with [KindTimeout]. Zero disables the budget.
//
// Returns an error if the duration is negative.
func WithTimeout(d time.Duration) RequestOption {
	return func(cfg *requestConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// WithSuccess adds terminal success statuses.
func WithSuccess(statuses ...Status) RequestOption {
	return func(cfg *requestConfig) error {
		cfg.success = append(cfg.success, statuses...)
		return nil
	}
}

// WithFailure adds terminal failure statuses.
func WithFailure(statuses ...Status) RequestOption {
	return func(cfg *requestConfig) error {
		cfg.failure = append(cfg.failure, statuses...)
		return nil
	}
}

// WithMaxConsecutiveErrors sets the retry budget: the number of
// back-to-back transient fetch errors after which the poll ends with
// [KindTransientError]. Zero means transient errors are retried until the
// timeout or cancellation.
//
// Returns an error if n is negative.
func WithMaxConsecutiveErrors(n int) RequestOption {
	return func(cfg *requestConfig) error {
		if n < 0 {
			return errors.New("max consecutive errors cannot be negative")
		}
		cfg.maxConsecutiveErrors = n
		return nil
	}
}

// WithErrorClassifier replaces [DefaultClassifier].
//
// Returns an error if the classifier is nil.
func WithErrorClassifier(c ErrorClassifier) RequestOption {
	return func(cfg *requestConfig) error {
		if c == nil {
			return errors.New("error classifier cannot be nil")
		}
		cfg.classifier = c
		return nil
	}
}

// WithImmediateCheck runs the first check as soon as the poll starts
// instead of after one interval.
func WithImmediateCheck() RequestOption {
	return func(cfg *requestConfig) error {
		cfg.immediate = true
		return nil
	}
}

// WithLogger sets the [slog.Logger] used for poll events.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) RequestOption {
	return func(cfg *requestConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithAttemptCallback registers a function called after every check.
//
// Callbacks run synchronously on the polling goroutine, in registration
// order, before the next check is scheduled. They must not block.
// Panics are recovered and logged. Nil callbacks are ignored.
func WithAttemptCallback(cb func(Attempt)) RequestOption {
	return func(cfg *requestConfig) error {
		if cb == nil {
			return nil
		}
		cfg.attemptCallbacks = append(cfg.attemptCallbacks, cb)
		return nil
	}
}
