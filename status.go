package pollstate

import (
	"context"
	"slices"
	"time"
)

// Status is an opaque state value reported by an external system.
//
// Status carries no lifecycle of its own: "approved", "READY" or "ERROR"
// only mean something to the collaborator that returned them. A [Request]
// gives statuses their meaning by declaring which values are terminal.
//
// The empty status means the collaborator had nothing to report yet (for
// example, no deployment exists so far). It is never terminal.
type Status string

const (
	// StatusNone is reported when the resource exists but has no status yet.
	StatusNone Status = ""

	// StatusApproved is the terminal success status of a signer.
	StatusApproved Status = "approved"

	// StatusPendingApproval is the status of a signer awaiting user approval.
	StatusPendingApproval Status = "pending_approval"

	// StatusReady is the terminal success state of a deployment.
	StatusReady Status = "READY"

	// StatusError is the terminal failure state of a deployment.
	StatusError Status = "ERROR"

	// StatusCanceled is the terminal failure state of a cancelled deployment.
	StatusCanceled Status = "CANCELED"

	// StatusAuthenticated is reported once a login has completed.
	StatusAuthenticated Status = "authenticated"

	// StatusPending is a generic non-terminal status.
	StatusPending Status = "pending"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// FetchFunc retrieves the current [Status] of a resource.
//
// FetchFunc is the only boundary of the poller. It receives a context that
// is cancelled when the poll ends, so implementations doing network I/O
// should honour it. Errors are classified by the request's
// [ErrorClassifier]; see [ErrRateLimited] and [Permanent].
type FetchFunc func(ctx context.Context, resourceID string) (Status, error)

// Attempt describes a single status check made during a poll.
//
// Attempts are delivered to callbacks registered with [WithAttemptCallback]
// after every fetch that settles before the poll ends.
type Attempt struct {
	// ResourceID identifies the polled resource.
	ResourceID string

	// Number is the 1-based index of this check within the poll.
	Number int

	// Status is the status returned by the fetch. Empty when Err is set.
	Status Status

	// Err is the error returned by the fetch, if any.
	Err error

	// ConsecutiveErrors is the number of back-to-back failed fetches
	// including this one. Zero after a successful fetch.
	ConsecutiveErrors int

	// Latency is the time the fetch took.
	Latency time.Duration

	// CheckedAt is when the fetch settled.
	CheckedAt time.Time
}

// statusSet is an immutable set of statuses.
type statusSet map[Status]struct{}

func newStatusSet(statuses []Status) statusSet {
	set := make(statusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (s statusSet) contains(status Status) bool {
	_, ok := s[status]
	return ok
}

func (s statusSet) slice() []Status {
	if len(s) == 0 {
		return nil
	}
	out := make([]Status, 0, len(s))
	for status := range s {
		out = append(out, status)
	}
	slices.Sort(out)
	return out
}
