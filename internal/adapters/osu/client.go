// Package osu talks to the osu! OAuth provider and API v2.
package osu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/okian/osuwrapped/internal/domain/model"
	"github.com/okian/osuwrapped/pkg/logger"
	"github.com/okian/osuwrapped/pkg/metrics"
)

const (
	endpointMe     = "me"
	endpointScores = "scores_best"
	endpointToken  = "token"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Client performs the two read calls a recap needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// with the bearer token per call.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a Client rooted at baseURL, e.g. https://osu.ppy.sh/api/v2.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchProfile returns the token owner's profile and monthly history.
func (c *Client) FetchProfile(ctx context.Context, token string) (model.ProfileSummary, error) {
	body, err := c.get(ctx, token, endpointMe, c.baseURL+"/me")
	if err != nil {
		return model.ProfileSummary{}, err
	}
	defer func() { _ = body.Close() }()
	return DecodeProfile(body)
}

// FetchBestScores returns up to limit best scores, best first.
func (c *Client) FetchBestScores(ctx context.Context, token string, userID int64, limit int) ([]model.ScoreRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	u := fmt.Sprintf("%s/users/%d/scores/best?%s", c.baseURL, userID, q.Encode())

	body, err := c.get(ctx, token, endpointScores, u)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	return DecodeScores(body)
}

func (c *Client) log() logger.Logger {
	if c.logger == nil {
		return logger.Named("osu")
	}
	return c.logger
}

// get issues an authenticated GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, token, endpoint, rawURL string) (io.ReadCloser, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing access token", model.ErrAuth)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: build request: %w", model.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	hc := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.httpClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	)

	started := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		cancel()
		observe(endpoint, 0, started)
		c.log().Warn(ctx, "provider request failed", logger.String("endpoint", endpoint), logger.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", model.ErrUpstream, endpoint, err)
	}
	observe(endpoint, resp.StatusCode, started)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	cancel()

	c.log().Warn(ctx, "provider returned error status",
		logger.String("endpoint", endpoint),
		logger.Int("status", resp.StatusCode),
		logger.String("body", string(snippet)),
	)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s: status %d", model.ErrAuth, endpoint, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: %s: status %d", model.ErrUpstream, endpoint, resp.StatusCode)
	}
}

// cancelBody releases the per-call timeout once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func observe(endpoint string, status int, started time.Time) {
	metrics.RecordUpstreamRequest(endpoint, status, float64(time.Since(started).Microseconds())/1000)
}
