package oauth2

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"album-grid/internal/circuitbreaker"
	"album-grid/internal/common/errors"
	commonhttp "album-grid/internal/common/http"
	"album-grid/internal/common/logging"
)

const (
	DefaultAuthURL  = "https://accounts.spotify.com/authorize"
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultTimeout bounds every call to the token endpoint
	DefaultTimeout = 10 * time.Second
)

// DefaultScopes is the fixed consent scope set.
var DefaultScopes = []string{"user-read-private", "user-library-read"}

// TokenProvider is the authorization server as seen by the token managers.
type TokenProvider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	ClientCredentials(ctx context.Context) (*TokenResponse, error)
}

// ProviderConfig holds the client registration and endpoints.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	Timeout      time.Duration
}

// Provider talks to the authorization server's token endpoint.
type Provider struct {
	config     ProviderConfig
	httpClient *http.Client
	breaker    *circuitbreaker.GoBreakerAdapter
	logger     logging.Logger
}

// NewProvider fills in Spotify defaults for any unset endpoint, scope or timeout.
func NewProvider(config ProviderConfig) *Provider {
	if config.AuthURL == "" {
		config.AuthURL = DefaultAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = DefaultTokenURL
	}
	if len(config.Scopes) == 0 {
		config.Scopes = DefaultScopes
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	logger := logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "oauth2-provider"})
	return &Provider{
		config:     config,
		httpClient: commonhttp.NewHTTPClientWithTimeout(config.Timeout),
		breaker:    circuitbreaker.NewGoBreaker("oauth2-token-endpoint", circuitbreaker.ProviderConfig, logger),
		logger:     logger,
	}
}

// AuthCodeURL builds the consent URL. It performs no I/O.
func (p *Provider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.config.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", p.config.RedirectURL)
	q.Set("scope", strings.Join(p.config.Scopes, " "))
	q.Set("state", state)

	sep := "?"
	if strings.Contains(p.config.AuthURL, "?") {
		sep = "&"
	}
	return p.config.AuthURL + sep + q.Encode()
}

// ExchangeCode redeems an authorization code.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if code == "" {
		return nil, errors.ValidationError("authorization code is required")
	}
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", p.config.RedirectURL)
	return p.requestToken(ctx, "authorization_code", data)
}

// Refresh trades a refresh token for a new access token. The response may
// omit refresh_token, in which case the old one stays valid.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, errors.ValidationError("refresh token is required")
	}
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	return p.requestToken(ctx, "refresh_token", data)
}

// ClientCredentials obtains an application token.
func (p *Provider) ClientCredentials(ctx context.Context) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	return p.requestToken(ctx, "client_credentials", data)
}

type tokenErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func (p *Provider) requestToken(ctx context.Context, grant string, data url.Values) (*TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	var token *TokenResponse
	err := p.breaker.Execute(ctx, func() error {
		var reqErr error
		token, reqErr = p.doTokenRequest(ctx, data)
		return reqErr
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) && !errors.IsType(err, errors.ErrTypeTimeout) {
			err = errors.TimeoutError("token request", err)
		}
		p.logger.Warn("Token request failed",
			logging.Field{Key: "grant_type", Value: grant},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}
	return token, nil
}

func (p *Provider) doTokenRequest(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if ctx.Err() != nil || (stderrors.As(err, &netErr) && netErr.Timeout()) {
			return nil, errors.TimeoutError("token request", err)
		}
		return nil, errors.ConnectionError("token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, errors.ConnectionError("failed to read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tokenErrorResponse
		msg := fmt.Sprintf("token request failed with status %d", resp.StatusCode)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = fmt.Sprintf("token request failed: %s - %s", errResp.Error, errResp.Description)
		}
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, errors.AuthError(msg).WithStatus(resp.StatusCode)
		}
		return nil, errors.UpstreamError(msg, nil)
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, errors.UpstreamError("failed to decode token response", err)
	}
	if token.AccessToken == "" {
		return nil, errors.UpstreamError("token response has no access_token", nil)
	}
	return &token, nil
}
