package oauth2

import (
	"context"
	"time"

	"album-grid/internal/common/logging"
	"album-grid/internal/metrics"
	"album-grid/internal/streaming"
	"golang.org/x/sync/singleflight"
)

// UserManager owns the user-delegated token lifecycle.
//
// A session moves from no record to valid on code exchange. Once a record
// passes its buffered expiry the next GetAuthorizedClient refreshes it; a
// successful refresh stores the new record and a failed one deletes it.
// Refreshes for the same session within one process are coalesced.
type UserManager struct {
	tokens    *UserTokenStore
	provider  TokenProvider
	clients   *streaming.Factory
	clock     Clock
	refreshes singleflight.Group
	logger    logging.Logger
}

// UserManagerOption configures a UserManager
type UserManagerOption func(*UserManager)

// WithUserClock replaces time.Now for expiry checks
func WithUserClock(clock Clock) UserManagerOption {
	return func(m *UserManager) {
		m.clock = clock
	}
}

func NewUserManager(tokens *UserTokenStore, provider TokenProvider, clients *streaming.Factory, opts ...UserManagerOption) *UserManager {
	m := &UserManager{
		tokens:   tokens,
		provider: provider,
		clients:  clients,
		clock:    time.Now,
		logger:   logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "user-token-manager"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetAuthorizedClient returns a client for the session, refreshing the token
// first if it has expired. It returns nil with no error when the session has
// no usable credentials and the user must re-authorize. Errors are reserved
// for store failures.
func (m *UserManager) GetAuthorizedClient(ctx context.Context, sessionID string) (*streaming.Client, error) {
	record, err := m.tokens.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	if record.Valid(m.clock()) {
		return m.clients.NewClient(record.AccessToken, record.RefreshToken), nil
	}

	// the refresh outlives any single caller's cancellation; the provider
	// timeout still bounds it
	shared := context.WithoutCancel(ctx)
	v, err, _ := m.refreshes.Do(sessionID, func() (interface{}, error) {
		return m.refresh(shared, sessionID)
	})
	if err != nil {
		return nil, err
	}

	refreshed, _ := v.(*UserTokenRecord)
	if refreshed == nil {
		return nil, nil
	}
	return m.clients.NewClient(refreshed.AccessToken, refreshed.RefreshToken), nil
}

// refresh runs load -> refresh -> store in order and returns the record as
// read back from the store.
func (m *UserManager) refresh(ctx context.Context, sessionID string) (*UserTokenRecord, error) {
	logger := m.logger.WithContext(ctx).WithFields(logging.Field{Key: "session_id", Value: sessionID})

	// an earlier flight may have refreshed or dropped the record since the caller looked
	stale, err := m.tokens.Load(ctx, sessionID)
	if err != nil || stale == nil {
		return nil, err
	}
	if stale.Valid(m.clock()) {
		return stale, nil
	}

	resp, err := m.provider.Refresh(ctx, stale.RefreshToken)
	metrics.RecordUserTokenRefresh(metrics.Outcome(err))
	if err != nil {
		logger.Warn("Token refresh failed, dropping session credentials",
			logging.Field{Key: "error", Value: err.Error()})
		if delErr := m.tokens.Delete(ctx, sessionID); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}

	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = stale.RefreshToken
	}
	updated := &UserTokenRecord{
		AccessToken:  resp.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt(m.clock(), resp.ExpiresIn),
	}
	if err := m.tokens.Save(ctx, sessionID, updated); err != nil {
		return nil, err
	}

	logger.Debug("Refreshed user token",
		logging.Field{Key: "expires_at", Value: time.UnixMilli(updated.ExpiresAt)})

	return m.tokens.Load(ctx, sessionID)
}

// BuildAuthorizationURL returns the consent URL carrying state
func (m *UserManager) BuildAuthorizationURL(state string) string {
	return m.provider.AuthCodeURL(state)
}

// ExchangeAuthorizationCode redeems code and stores the resulting record for
// the session. It reports false on any failure and leaves the store untouched.
func (m *UserManager) ExchangeAuthorizationCode(ctx context.Context, code, sessionID string) bool {
	logger := m.logger.WithContext(ctx).WithFields(logging.Field{Key: "session_id", Value: sessionID})

	resp, err := m.provider.ExchangeCode(ctx, code)
	if err == nil && resp.RefreshToken == "" {
		logger.Warn("Authorization code exchange returned no refresh token")
	}
	metrics.RecordCodeExchange(metrics.Outcome(err))
	if err != nil {
		logger.Warn("Authorization code exchange failed", logging.Field{Key: "error", Value: err.Error()})
		return false
	}

	record := &UserTokenRecord{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt(m.clock(), resp.ExpiresIn),
	}
	if err := m.tokens.Save(ctx, sessionID, record); err != nil {
		logger.Error("Failed to store user token", err)
		return false
	}

	logger.Info("User authorized")
	return true
}

// InvalidateSession deletes the session's record unconditionally
func (m *UserManager) InvalidateSession(ctx context.Context, sessionID string) error {
	return m.tokens.Delete(ctx, sessionID)
}
