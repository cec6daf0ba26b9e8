package pollstate

import "time"

// Preset defaults for the built-in call sites.
const (
	SignerInterval             = time.Second
	SignerMaxConsecutiveErrors = 10

	DeploymentInterval = 5 * time.Second
	DeploymentTimeout  = 5 * time.Minute

	LoginInterval = 2 * time.Second
	LoginTimeout  = 5 * time.Minute
)

// SignerApproval builds a [Request] that waits for a signer to be approved.
//
// Defaults: 1s interval, success on [StatusApproved], no failure statuses,
// no wall-clock timeout, and a retry budget of 10 consecutive fetch errors.
// A signer can therefore stay pending indefinitely; bound it with
// [WithTimeout] or the context. opts are applied after the defaults.
func SignerApproval(signerUUID string, fetch FetchFunc, opts ...RequestOption) (Request, error) {
	base := []RequestOption{
		WithInterval(SignerInterval),
		WithSuccess(StatusApproved),
		WithMaxConsecutiveErrors(SignerMaxConsecutiveErrors),
	}
	return NewRequest(signerUUID, fetch, append(base, opts...)...)
}

// DeploymentReadiness builds a [Request] that waits for the latest
// deployment of a project to become servable.
//
// Defaults: 5s interval, 5m timeout, success on [StatusReady], failure on
// [StatusError] and [StatusCanceled]. Transient errors are retried until
// the timeout; rate limiting ends the poll. opts are applied after the
// defaults.
func DeploymentReadiness(projectID string, fetch FetchFunc, opts ...RequestOption) (Request, error) {
	base := []RequestOption{
		WithInterval(DeploymentInterval),
		WithTimeout(DeploymentTimeout),
		WithSuccess(StatusReady),
		WithFailure(StatusError, StatusCanceled),
		WithMaxConsecutiveErrors(0),
	}
	return NewRequest(projectID, fetch, append(base, opts...)...)
}

// LoginReadiness builds a [Request] that waits for an account login to
// complete.
//
// Defaults: immediate first check, 2s interval, 5m timeout, success on
// [StatusAuthenticated]. Transient errors are retried until the timeout.
// opts are applied after the defaults.
func LoginReadiness(account string, fetch FetchFunc, opts ...RequestOption) (Request, error) {
	base := []RequestOption{
		WithImmediateCheck(),
		WithInterval(LoginInterval),
		WithTimeout(LoginTimeout),
		WithSuccess(StatusAuthenticated),
		WithMaxConsecutiveErrors(0),
	}
	return NewRequest(account, fetch, append(base, opts...)...)
}
