package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/config"
	"github.com/jpalmerr/pollstate/internal/server"
	"github.com/jpalmerr/pollstate/internal/store"
)

// session is the resolved configuration of one CLI invocation.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
}

// newSession loads the config file (if any), fills credentials from the
// environment and builds the logger.
func newSession(cmd *cobra.Command) (*session, error) {
	format, _ := cmd.Flags().GetString("log-format")
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := newLogger(cmd.ErrOrStderr(), format, debug)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(env)

	if cmd.Flags().Changed("status-port") {
		cfg.StatusPort, _ = cmd.Flags().GetInt("status-port")
	}

	return &session{cfg: cfg, logger: logger}, nil
}

// buildFunc builds a preset request from the given trailing options.
type buildFunc func(opts ...pollstate.RequestOption) (pollstate.Request, error)

// wait runs one poll under SIGINT/SIGTERM cancellation, recording progress
// in a store that the progress server reads when enabled.
func (s *session) wait(ctx context.Context, kind, resourceID string, poll config.PollConfig, build buildFunc) (pollstate.Outcome, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	logger := s.logger.With("kind", kind, "run_id", runID)

	st := store.NewMemoryStore()
	rec := store.NewRecorder(st, runID, kind, resourceID)

	if s.cfg.StatusPort > 0 {
		srv := server.NewServer(st, s.cfg.StatusPort, logger)
		if err := srv.Start(ctx); err != nil {
			return pollstate.Outcome{}, fmt.Errorf("failed to start status server: %w", err)
		}
	}

	opts := append(poll.RequestOptions(),
		pollstate.WithLogger(logger),
		pollstate.WithAttemptCallback(rec.Attempt),
	)
	req, err := build(opts...)
	if err != nil {
		return pollstate.Outcome{}, fmt.Errorf("invalid %s poll: %w", kind, err)
	}

	logger.Info("waiting",
		"resource_id", resourceID,
		"interval", req.Interval().String(),
		"timeout", req.Timeout().String(),
		"max_consecutive_errors", req.MaxConsecutiveErrors(),
	)

	outcome := pollstate.Poll(ctx, req)
	rec.Finish(outcome)
	return outcome, nil
}
