// Package vercel is the deployment and login status source backed by the
// Vercel REST API.
package vercel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/internal/transport"
)

// DefaultBaseURL is the public Vercel API host.
const DefaultBaseURL = "https://api.vercel.com"

// Deployment is the subset of a Vercel deployment the tooling needs.
type Deployment struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	State     string `json:"state"`
	CreatedAt int64  `json:"created"`
}

// User is the authenticated Vercel account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type deploymentsResponse struct {
	Deployments []Deployment `json:"deployments"`
}

type userResponse struct {
	User User `json:"user"`
}

// Client talks to the Vercel API with a bearer token.
type Client struct {
	baseURL        string
	token          string
	teamID         string
	requestTimeout time.Duration
	http           *transport.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL overrides [DefaultBaseURL].
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTeamID scopes requests to a team.
func WithTeamID(teamID string) Option {
	return func(c *Client) {
		c.teamID = teamID
	}
}

// WithRequestTimeout bounds each API request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithTransport sets the underlying HTTP client.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.http = t
		}
	}
}

// NewClient creates a Vercel client authenticated with token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("vercel token is required")
	}
	c := &Client{
		baseURL:        DefaultBaseURL,
		token:          token,
		requestTimeout: transport.DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = transport.NewClient("pollstate")
	}
	return c, nil
}

// LatestDeployment returns the most recent deployment of a project, or nil
// if the project has none yet.
func (c *Client) LatestDeployment(ctx context.Context, projectID string) (*Deployment, error) {
	q := c.query()
	q.Set("projectId", projectID)
	q.Set("limit", strconv.Itoa(1))

	var resp deploymentsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/v6/deployments?"+q.Encode(), c.headers(), c.requestTimeout, &resp); err != nil {
		return nil, classify(fmt.Errorf("list deployments of %s: %w", projectID, err))
	}
	if len(resp.Deployments) == 0 {
		return nil, nil
	}
	return &resp.Deployments[0], nil
}

// DeploymentState implements [pollstate.FetchFunc] for deployment
// readiness. A project without deployments reports [pollstate.StatusNone].
func (c *Client) DeploymentState(ctx context.Context, projectID string) (pollstate.Status, error) {
	deployment, err := c.LatestDeployment(ctx, projectID)
	if err != nil {
		return pollstate.StatusNone, err
	}
	if deployment == nil {
		return pollstate.StatusNone, nil
	}
	return pollstate.Status(deployment.State), nil
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	endpoint := c.baseURL + "/v2/user"
	if q := c.query(); len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var resp userResponse
	if err := c.http.GetJSON(ctx, endpoint, c.headers(), c.requestTimeout, &resp); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	return resp.User, nil
}

// LoginState implements [pollstate.FetchFunc] for login readiness. The
// account argument is informational. 401 and 403 mean the account setup
// has not finished yet and report [pollstate.StatusPending].
func (c *Client) LoginState(ctx context.Context, _ string) (pollstate.Status, error) {
	_, err := c.CurrentUser(ctx)
	if err == nil {
		return pollstate.StatusAuthenticated, nil
	}

	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return pollstate.StatusPending, nil
		}
	}
	return pollstate.StatusNone, err
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.token,
	}
}

func (c *Client) query() url.Values {
	q := url.Values{}
	if c.teamID != "" {
		q.Set("teamId", c.teamID)
	}
	return q
}

// classify marks authentication and missing-project failures as permanent.
func classify(err error) error {
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return pollstate.Permanent(err)
		}
	}
	return err
}
