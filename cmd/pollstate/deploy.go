package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/internal/vercel"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Vercel deployment commands",
}

// deployWaitCmd waits for the latest deployment of a project to be ready.
var deployWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the latest deployment to be ready",
	Long: `Poll the Vercel API until the project's latest deployment is READY.

Checks run every 5 seconds for up to 5 minutes. ERROR and CANCELED
deployments fail immediately, as does rate limiting. On success the
URL of the deployment seen READY is printed to stdout.

Requires vercel.token (or VERCEL_TOKEN) and a project from --project,
vercel.project_id or VERCEL_PROJECT_ID.

Example:
  pollstate deploy wait --project prj_abc123`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDeployWait,
}

func init() {
	deployWaitCmd.Flags().String("project", "", "Vercel project ID (overrides config)")
	deployCmd.AddCommand(deployWaitCmd)
	rootCmd.AddCommand(deployCmd)
}

func runDeployWait(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	projectID := s.cfg.Vercel.ProjectID
	if p, _ := cmd.Flags().GetString("project"); p != "" {
		projectID = p
	}
	if projectID == "" {
		return errors.New("project is required (use --project, vercel.project_id or VERCEL_PROJECT_ID)")
	}

	client, err := newVercelClient(s)
	if err != nil {
		return err
	}
	defer client.Close()

	var last lastDeployment
	outcome, err := s.wait(cmd.Context(), "deployment", projectID, s.cfg.Deployment,
		func(opts ...pollstate.RequestOption) (pollstate.Request, error) {
			return pollstate.DeploymentReadiness(projectID, last.track(client), opts...)
		})
	if err != nil {
		return err
	}
	if !outcome.OK() {
		return fmt.Errorf("deployment of %s: %w", projectID, outcome.AsError())
	}

	deployment := last.get()
	if deployment == nil {
		return errors.New("deployment is ready but was not recorded")
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), deploymentURL(deployment.URL))
	return nil
}

// lastDeployment holds the deployment seen by the most recent check.
type lastDeployment struct {
	ptr atomic.Pointer[vercel.Deployment]
}

// track returns a fetch function that records every deployment it sees.
func (l *lastDeployment) track(client *vercel.Client) pollstate.FetchFunc {
	return func(ctx context.Context, projectID string) (pollstate.Status, error) {
		deployment, err := client.LatestDeployment(ctx, projectID)
		if err != nil {
			return pollstate.StatusNone, err
		}
		l.ptr.Store(deployment)
		if deployment == nil {
			return pollstate.StatusNone, nil
		}
		return pollstate.Status(deployment.State), nil
	}
}

func (l *lastDeployment) get() *vercel.Deployment {
	return l.ptr.Load()
}

func newVercelClient(s *session) (*vercel.Client, error) {
	if s.cfg.Vercel.Token == "" {
		return nil, errors.New("vercel token is required (set vercel.token or VERCEL_TOKEN)")
	}
	return vercel.NewClient(s.cfg.Vercel.Token,
		vercel.WithBaseURL(s.cfg.Vercel.APIURL),
		vercel.WithTeamID(s.cfg.Vercel.TeamID),
	)
}

// deploymentURL returns u with an https scheme; the API omits it.
func deploymentURL(u string) string {
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	return "https://" + u
}
