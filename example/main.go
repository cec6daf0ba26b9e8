package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/internal/neynar"
	"github.com/jpalmerr/pollstate/internal/vercel"
)

const mockAddr = "localhost:9999"

func main() {
	// start mock API (see mock_server.go)
	go StartMockAPI(mockAddr)
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	baseURL := "http://" + mockAddr

	signers, err := neynar.NewClient("demo-key", neynar.WithBaseURL(baseURL))
	if err != nil {
		logger.Error("failed to create neynar client", "error", err)
		os.Exit(1)
	}
	deployments, err := vercel.NewClient("demo-token", vercel.WithBaseURL(baseURL))
	if err != nil {
		logger.Error("failed to create vercel client", "error", err)
		os.Exit(1)
	}

	progress := func(a pollstate.Attempt) {
		if a.Err != nil {
			fmt.Printf("  %-10s #%d error: %v\n", a.ResourceID, a.Number, a.Err)
			return
		}
		fmt.Printf("  %-10s #%d %s\n", a.ResourceID, a.Number, a.Status)
	}

	signerReq, err := pollstate.SignerApproval("demo-signer", signers.SignerStatus,
		pollstate.WithTimeout(30*time.Second),
		pollstate.WithLogger(logger),
		pollstate.WithAttemptCallback(progress),
	)
	if err != nil {
		logger.Error("invalid signer request", "error", err)
		os.Exit(1)
	}

	deployReq, err := pollstate.DeploymentReadiness("demo-app", deployments.DeploymentState,
		pollstate.WithInterval(time.Second),
		pollstate.WithLogger(logger),
		pollstate.WithAttemptCallback(progress),
	)
	if err != nil {
		logger.Error("invalid deployment request", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  pollstate demo: waiting for a signer and a deployment")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// independent polls run concurrently
	var wg sync.WaitGroup
	outcomes := make([]pollstate.Outcome, 2)
	for i, req := range []pollstate.Request{signerReq, deployReq} {
		wg.Add(1)
		go func(i int, req pollstate.Request) {
			defer wg.Done()
			outcomes[i] = pollstate.Poll(ctx, req)
		}(i, req)
	}
	wg.Wait()

	fmt.Println()
	for i, name := range []string{"signer", "deployment"} {
		o := outcomes[i]
		fmt.Printf("  %-10s %s after %d checks (%s)\n", name, o.Kind, o.Attempts, o.Elapsed.Round(time.Millisecond))
		if err := o.AsError(); err != nil {
			fmt.Printf("             %v\n", err)
		}
	}
}
