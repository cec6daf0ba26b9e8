package pollstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// fetchResult is what a single fetch goroutine hands back to the loop.
type fetchResult struct {
	status   Status
	err      error
	panicked bool
	latency  time.Duration
}

// Poll checks the status of req's resource until the poll reaches an
// [Outcome].
//
// Poll blocks the calling goroutine only; concurrent Poll calls are
// independent and share no state. The loop:
//
//  1. waits one interval (or none, with [WithImmediateCheck])
//  2. runs the fetch and waits for it to settle
//  3. stops on a terminal status, a rate-limit or fatal error, or an
//     exhausted retry budget
//  4. otherwise schedules the next check one interval later
//
// The wall-clock timeout and ctx are watched throughout, including while a
// fetch is in flight. When the poll ends early the fetch's context is
// cancelled and its late result is discarded. Every exit path releases the
// poll's timers.
//
// Poll never panics and never returns an error; a panicking fetch ends the
// poll with [KindFatalError].
func Poll(ctx context.Context, req Request) Outcome {
	start := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}
	if req.fetch == nil {
		return Outcome{Kind: KindFatalError, Err: errors.New("request has no fetch function; use NewRequest")}
	}

	logger := req.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("resource_id", req.resourceID)

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var deadline <-chan time.Time
	if req.timeout > 0 {
		deadlineTimer := time.NewTimer(req.timeout)
		defer deadlineTimer.Stop()
		deadline = deadlineTimer.C
	}

	firstDelay := req.interval
	if req.immediate {
		firstDelay = 0
	}
	tick := time.NewTimer(firstDelay)
	defer tick.Stop()

	var (
		attempts    int
		consecutive int
		lastStatus  Status
	)

	finish := func(kind OutcomeKind, err error) Outcome {
		outcome := Outcome{
			Kind:     kind,
			Status:   lastStatus,
			Err:      err,
			Attempts: attempts,
			Elapsed:  time.Since(start),
		}
		logOutcome(logger, outcome)
		return outcome
	}

	for {
		select {
		case <-pollCtx.Done():
			return finish(KindCanceled, ctx.Err())
		case <-deadline:
			return finish(KindTimeout, nil)
		case <-tick.C:
		}

		// a tick racing the deadline or cancellation must not start a fetch
		if ctx.Err() != nil {
			return finish(KindCanceled, ctx.Err())
		}
		if req.timeout > 0 && time.Since(start) >= req.timeout {
			return finish(KindTimeout, nil)
		}

		results := make(chan fetchResult, 1)
		go func() {
			results <- safeFetch(pollCtx, req, logger)
		}()

		var res fetchResult
		select {
		case <-pollCtx.Done():
			return finish(KindCanceled, ctx.Err())
		case <-deadline:
			return finish(KindTimeout, nil)
		case res = <-results:
		}

		attempts++
		attempt := Attempt{
			ResourceID: req.resourceID,
			Number:     attempts,
			Status:     res.status,
			Err:        res.err,
			Latency:    res.latency,
			CheckedAt:  time.Now(),
		}

		if res.err != nil {
			consecutive++
			attempt.ConsecutiveErrors = consecutive
			notifyAttempt(req.attemptCallbacks, attempt, logger)

			class := ClassFatal
			if !res.panicked {
				class = req.classifier(res.err)
			}

			logger.Warn("status check failed",
				"attempt", attempts,
				"consecutive_errors", consecutive,
				"class", class.String(),
				"error", res.err.Error(),
			)

			switch class {
			case ClassRateLimited:
				return finish(KindRateLimited, res.err)
			case ClassFatal:
				return finish(KindFatalError, res.err)
			}

			if req.maxConsecutiveErrors > 0 && consecutive >= req.maxConsecutiveErrors {
				return finish(KindTransientError, res.err)
			}
		} else {
			consecutive = 0
			lastStatus = res.status
			notifyAttempt(req.attemptCallbacks, attempt, logger)

			logger.Debug("status checked",
				"attempt", attempts,
				"status", res.status.String(),
				"latency_ms", res.latency.Milliseconds(),
			)

			if req.success.contains(res.status) {
				return finish(KindSuccess, nil)
			}
			if req.failure.contains(res.status) {
				return finish(KindFailure, nil)
			}
		}

		tick.Reset(req.interval)
	}
}

// safeFetch runs the request's fetch with panic recovery.
// A panic is logged with its stack under a correlation ID and reported as
// an error carrying that ID.
func safeFetch(ctx context.Context, req Request, logger *slog.Logger) (res fetchResult) {
	start := time.Now()
	defer func() {
		res.latency = time.Since(start)
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			logger.Error("fetch panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			res.status = StatusNone
			res.err = fmt.Errorf("fetch panic (correlation_id: %s)", correlationID)
			res.panicked = true
		}
	}()

	status, err := req.fetch(ctx, req.resourceID)
	if err != nil {
		return fetchResult{err: err}
	}
	return fetchResult{status: status}
}

// notifyAttempt invokes attempt callbacks in order, recovering panics.
func notifyAttempt(callbacks []func(Attempt), attempt Attempt, logger *slog.Logger) {
	for _, cb := range callbacks {
		invokeCallbackSafe(cb, attempt, logger)
	}
}

// invokeCallbackSafe calls an attempt callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Attempt), attempt Attempt, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("attempt callback panicked",
				"panic", r,
				"attempt", attempt.Number,
			)
		}
	}()
	cb(attempt)
}

func logOutcome(logger *slog.Logger, o Outcome) {
	attrs := []any{
		"outcome", o.Kind.String(),
		"status", o.Status.String(),
		"attempts", o.Attempts,
		"elapsed", o.Elapsed.Round(time.Millisecond).String(),
	}
	switch o.Kind {
	case KindSuccess:
		logger.Info("poll finished", attrs...)
	case KindCanceled:
		logger.Info("poll canceled", attrs...)
	default:
		if o.Err != nil {
			attrs = append(attrs, "error", o.Err.Error())
		}
		logger.Error("poll finished", attrs...)
	}
}
