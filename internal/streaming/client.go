// Package streaming is a small bearer-token client for the Spotify Web API.
package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"album-grid/internal/common/errors"
	commonhttp "album-grid/internal/common/http"
	"album-grid/internal/common/logging"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.spotify.com/v1"

	// maxErrorBody bounds how much of a failed response is kept for the error message
	maxErrorBody = 4 << 10
)

// Config configures the clients built by a Factory.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the sustained number of requests per second across all
	// clients sharing the factory. Zero disables limiting.
	RateLimit float64
	Burst     int
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   10 * time.Second,
		RateLimit: 10,
		Burst:     20,
	}
}

// Factory builds per-user clients sharing one HTTP client and one rate limiter.
type Factory struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewFactory creates a client factory.
func NewFactory(cfg Config) *Factory {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Factory{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: commonhttp.NewHTTPClientWithTimeout(cfg.Timeout),
		limiter:    limiter,
		logger:     logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "streaming"}),
	}
}

// NewClient returns a client that authenticates with accessToken.
// refreshToken is carried for callers that need it and is never sent to the API.
func (f *Factory) NewClient(accessToken, refreshToken string) *Client {
	return &Client{
		factory:      f,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// Client is an authenticated handle on the API. It is immutable once built.
type Client struct {
	factory      *Factory
	accessToken  string
	refreshToken string
}

func (c *Client) AccessToken() string {
	return c.accessToken
}

func (c *Client) RefreshToken() string {
	return c.refreshToken
}

// Get performs an authenticated GET of path (relative to the base URL) and
// decodes the JSON body into out. 401 and 403 are reported as authentication
// errors so callers can drop the session that produced the token.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.factory.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if err := c.factory.limiter.Wait(ctx); err != nil {
		return errors.TimeoutError("streaming rate limit wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.factory.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.TimeoutError("streaming request", err)
		}
		return errors.ConnectionError("streaming request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.AuthError(fmt.Sprintf("streaming API rejected token with status %d", resp.StatusCode)).
			WithStatus(resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFoundError(path)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.factory.logger.Warn("Streaming API request failed",
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "status", Value: resp.StatusCode},
			logging.Field{Key: "body", Value: string(body)})
		return errors.UpstreamError(fmt.Sprintf("streaming API returned status %d", resp.StatusCode), nil).
			WithStatus(http.StatusBadGateway)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.UpstreamError("failed to decode streaming API response", err)
	}
	return nil
}
