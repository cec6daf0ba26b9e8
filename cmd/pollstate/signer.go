package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/internal/neynar"
)

var signerCmd = &cobra.Command{
	Use:   "signer",
	Short: "Farcaster signer commands",
}

// signerWaitCmd waits for a Neynar managed signer to be approved.
var signerWaitCmd = &cobra.Command{
	Use:   "wait <signer-uuid>",
	Short: "Wait for a signer to be approved",
	Long: `Poll the Neynar API until the signer is approved.

While the signer is pending approval, its approval URL is printed first so
it can be opened on the approving device.

Checks run every second. There is no wall-clock limit by default; the wait
gives up after 10 consecutive API errors, on rate limiting, or on Ctrl+C.
Set signer.timeout in the config file to bound it.

Requires neynar.api_key in the config file or NEYNAR_API_KEY.

Example:
  pollstate signer wait 19d0c5fd-9b33-4a48-a0e2-bc7b0555baec`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runSignerWait,
}

func init() {
	signerCmd.AddCommand(signerWaitCmd)
	rootCmd.AddCommand(signerCmd)
}

func runSignerWait(cmd *cobra.Command, args []string) error {
	signerUUID := args[0]

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if s.cfg.Neynar.APIKey == "" {
		return errors.New("neynar api key is required (set neynar.api_key or NEYNAR_API_KEY)")
	}

	client, err := neynar.NewClient(s.cfg.Neynar.APIKey, neynar.WithBaseURL(s.cfg.Neynar.APIURL))
	if err != nil {
		return err
	}
	defer client.Close()

	announceApproval(cmd, s, client, signerUUID)

	outcome, err := s.wait(cmd.Context(), "signer", signerUUID, s.cfg.Signer,
		func(opts ...pollstate.RequestOption) (pollstate.Request, error) {
			return pollstate.SignerApproval(signerUUID, client.SignerStatus, opts...)
		})
	if err != nil {
		return err
	}
	if !outcome.OK() {
		return fmt.Errorf("signer %s: %w", signerUUID, outcome.AsError())
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signer %s approved\n", signerUUID)
	return nil
}

// announceApproval prints the approval URL of a signer that is still
// waiting for the user. Lookup errors are left to the poll.
func announceApproval(cmd *cobra.Command, s *session, client *neynar.Client, signerUUID string) {
	signer, err := client.LookupSigner(cmd.Context(), signerUUID)
	if err != nil {
		s.logger.Debug("initial signer lookup failed", "signer_uuid", signerUUID, "error", err.Error())
		return
	}
	if pollstate.Status(signer.Status) != pollstate.StatusPendingApproval || signer.ApprovalURL == "" {
		return
	}
	s.logger.Info("signer awaiting approval",
		"signer_uuid", signerUUID,
		"signer_approval_url", signer.ApprovalURL,
	)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Approve signer %s at: %s\n", signerUUID, signer.ApprovalURL)
}
