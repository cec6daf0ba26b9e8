package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollstate"
)

const loginResource = "vercel"

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Account login commands",
}

// loginWaitCmd waits until the configured Vercel token authenticates.
var loginWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the Vercel account login to complete",
	Long: `Poll the Vercel API until the configured token authenticates.

The first check runs immediately, then every 2 seconds for up to 5 minutes.
Unauthorized responses count as "still pending", not as errors.

Example:
  VERCEL_TOKEN=... pollstate login wait`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runLoginWait,
}

func init() {
	loginCmd.AddCommand(loginWaitCmd)
	rootCmd.AddCommand(loginCmd)
}

func runLoginWait(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	client, err := newVercelClient(s)
	if err != nil {
		return err
	}
	defer client.Close()

	outcome, err := s.wait(cmd.Context(), "login", loginResource, s.cfg.Login,
		func(opts ...pollstate.RequestOption) (pollstate.Request, error) {
			return pollstate.LoginReadiness(loginResource, client.LoginState, opts...)
		})
	if err != nil {
		return err
	}
	if !outcome.OK() {
		return fmt.Errorf("login: %w", outcome.AsError())
	}

	user, err := client.CurrentUser(cmd.Context())
	if err != nil {
		s.logger.Warn("logged in but the account could not be read", "error", err.Error())
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged in")
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", user.Username)
	return nil
}
