// Package pollstate waits for an external resource to reach a terminal
// status by polling it at a fixed interval.
//
// A poll is described by an immutable [Request]: the resource ID, a
// [FetchFunc] returning its current [Status], the interval between checks,
// an optional wall-clock timeout, the terminal success and failure statuses,
// and a retry budget for consecutive fetch errors. [Poll] runs the request
// and always returns an [Outcome]; it never panics or returns an error.
//
// # Quick Start
//
//	req, err := pollstate.DeploymentReadiness(projectID, vercelClient.DeploymentState)
//	if err != nil {
//	    return err
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	outcome := pollstate.Poll(ctx, req)
//	switch outcome.Kind {
//	case pollstate.KindSuccess:
//	    // deployment is READY
//	case pollstate.KindFailure:
//	    // deployment reported ERROR or CANCELED
//	default:
//	    return outcome.AsError()
//	}
//
// # Configuration
//
// Requests use the functional options pattern:
//
//	req, err := pollstate.NewRequest("job-42", fetch,
//	    pollstate.WithSuccess("done"),
//	    pollstate.WithFailure("failed", "aborted"),
//	    pollstate.WithInterval(2*time.Second),
//	    pollstate.WithTimeout(time.Minute),
//	    pollstate.WithMaxConsecutiveErrors(5),
//	    pollstate.WithAttemptCallback(func(a pollstate.Attempt) { ... }),
//	)
//
// # Errors
//
// Fetch errors are classified by an [ErrorClassifier]. With
// [DefaultClassifier], rate limiting ([ErrRateLimited] or HTTP 429) and
// errors wrapped by [Permanent] end the poll at once; all other errors are
// transient and retried until the retry budget or the timeout runs out.
//
// # Architecture
//
// Status sources and tooling live under internal/ and cmd/:
//
//   - internal/transport: pooled HTTP client with per-request timeouts
//   - internal/neynar: signer status source (Neynar API)
//   - internal/vercel: deployment and login status sources (Vercel API)
//   - internal/store: in-memory poll records with pub/sub
//   - internal/server: HTTP progress API with Server-Sent Events
//   - config: YAML configuration
//   - cmd/pollstate: the command line tool
package pollstate
