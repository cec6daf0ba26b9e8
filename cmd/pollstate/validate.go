package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/config"
)

// validateCmd validates a config file without polling anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a pollstate configuration file without polling anything.

This command parses the YAML, expands environment variables, validates all
fields and prints the effective polling policy of every call site.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pollstate validate -c pollstate.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateFetch stands in for a real status source when building requests
// only to inspect their policy.
func validateFetch(context.Context, string) (pollstate.Status, error) {
	return pollstate.StatusNone, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return errors.New(`required flag(s) "config" not set`)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sites := []struct {
		name  string
		poll  config.PollConfig
		build buildFunc
	}{
		{"signer", cfg.Signer, func(opts ...pollstate.RequestOption) (pollstate.Request, error) {
			return pollstate.SignerApproval("validate", validateFetch, opts...)
		}},
		{"deployment", cfg.Deployment, func(opts ...pollstate.RequestOption) (pollstate.Request, error) {
			return pollstate.DeploymentReadiness("validate", validateFetch, opts...)
		}},
		{"login", cfg.Login, func(opts ...pollstate.RequestOption) (pollstate.Request, error) {
			return pollstate.LoginReadiness("validate", validateFetch, opts...)
		}},
	}

	// build every request first so option errors fail the command
	reqs := make([]pollstate.Request, len(sites))
	for i, site := range sites {
		reqs[i], err = site.build(site.poll.RequestOptions()...)
		if err != nil {
			return fmt.Errorf("invalid config: %s: %w", site.name, err)
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Config is valid!\n")
	_, _ = fmt.Fprintf(out, "  Status port: %s\n", portLabel(cfg.StatusPort))
	for i, site := range sites {
		_, _ = fmt.Fprintf(out, "  %-11s interval=%s timeout=%s max_consecutive_errors=%s\n",
			site.name+":", reqs[i].Interval(), timeoutLabel(reqs[i].Timeout()), budgetLabel(reqs[i].MaxConsecutiveErrors()))
	}
	return nil
}

func portLabel(port int) string {
	if port == 0 {
		return "disabled"
	}
	return strconv.Itoa(port)
}

func timeoutLabel(d time.Duration) string {
	if d == 0 {
		return "none"
	}
	return d.String()
}

func budgetLabel(n int) string {
	if n == 0 {
		return "unbounded"
	}
	return strconv.Itoa(n)
}
