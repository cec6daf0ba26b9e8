// Package neynar is the signer status source backed by the Neynar REST API.
package neynar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/pollstate"
	"github.com/jpalmerr/pollstate/internal/transport"
)

// DefaultBaseURL is the public Neynar API host.
const DefaultBaseURL = "https://api.neynar.com"

// ErrSignerNotFound is returned when the API does not know the signer.
var ErrSignerNotFound = errors.New("signer not found")

// Signer is a Farcaster signer as reported by Neynar.
type Signer struct {
	SignerUUID  string `json:"signer_uuid"`
	PublicKey   string `json:"public_key"`
	Status      string `json:"status"`
	FID         int64  `json:"fid,omitempty"`
	ApprovalURL string `json:"signer_approval_url,omitempty"`
}

// Client talks to the Neynar v2 API.
type Client struct {
	baseURL        string
	apiKey         string
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

// NewClient creates a Neynar client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("neynar api key is required")
	}
	c := &Client{
		baseURL:        DefaultBaseURL,
		apiKey:         apiKey,
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

// LookupSigner fetches a signer by UUID.
//
// 401 and 403 responses are wrapped with [pollstate.Permanent], as is
// [ErrSignerNotFound] for 404. Rate limiting surfaces as a
// *transport.StatusError with code 429.
func (c *Client) LookupSigner(ctx context.Context, signerUUID string) (Signer, error) {
	q := url.Values{}
	q.Set("signer_uuid", signerUUID)
	endpoint := c.baseURL + "/v2/farcaster/signer?" + q.Encode()

	var signer Signer
	err := c.http.GetJSON(ctx, endpoint, c.headers(), c.requestTimeout, &signer)
	if err != nil {
		return Signer{}, classify(err, signerUUID)
	}
	return signer, nil
}

// SignerStatus implements [pollstate.FetchFunc] for signer approval.
func (c *Client) SignerStatus(ctx context.Context, signerUUID string) (pollstate.Status, error) {
	signer, err := c.LookupSigner(ctx, signerUUID)
	if err != nil {
		return pollstate.StatusNone, err
	}
	return pollstate.Status(signer.Status), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"x-api-key": c.apiKey,
	}
}

func classify(err error, signerUUID string) error {
	var statusErr *transport.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("lookup signer %s: %w", signerUUID, err)
	}
	switch statusErr.StatusCode {
	case http.StatusNotFound:
		return pollstate.Permanent(fmt.Errorf("lookup signer %s: %w", signerUUID, ErrSignerNotFound))
	case http.StatusUnauthorized, http.StatusForbidden:
		return pollstate.Permanent(fmt.Errorf("lookup signer %s: %w", signerUUID, err))
	default:
		return fmt.Errorf("lookup signer %s: %w", signerUUID, err)
	}
}
