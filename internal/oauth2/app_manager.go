package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"album-grid/internal/common/cache"
	"album-grid/internal/common/logging"
	"album-grid/internal/metrics"
	"album-grid/internal/streaming"
	"golang.org/x/sync/singleflight"
)

// AppManager holds the process-wide client-credentials token.
type AppManager struct {
	provider TokenProvider
	clients  *streaming.Factory
	clock    Clock

	mu    sync.RWMutex
	token *AppTokenRecord

	grants singleflight.Group

	shared    cache.Store
	sharedKey string

	logger logging.Logger
}

// AppManagerOption configures an AppManager
type AppManagerOption func(*AppManager)

// WithSharedStore keeps the token in store under key as well, so that several
// instances can reuse one grant. The store TTL matches the buffered lifetime.
func WithSharedStore(store cache.Store, key string) AppManagerOption {
	return func(m *AppManager) {
		if key == "" {
			key = DefaultAppTokenKey
		}
		m.shared = store
		m.sharedKey = key
	}
}

// WithAppClock replaces time.Now for expiry checks
func WithAppClock(clock Clock) AppManagerOption {
	return func(m *AppManager) {
		m.clock = clock
	}
}

func NewAppManager(provider TokenProvider, clients *streaming.Factory, opts ...AppManagerOption) *AppManager {
	m := &AppManager{
		provider: provider,
		clients:  clients,
		clock:    time.Now,
		logger:   logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "app-token-manager"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetAppClient returns a client authenticated with the application token,
// requesting a new one when the held token is missing or stale. A failed
// grant is returned as an error.
func (m *AppManager) GetAppClient(ctx context.Context) (*streaming.Client, error) {
	if rec := m.current(); rec.Valid(m.clock()) {
		return m.clients.NewClient(rec.AccessToken, ""), nil
	}

	shared := context.WithoutCancel(ctx)
	v, err, _ := m.grants.Do("client_credentials", func() (interface{}, error) {
		return m.obtain(shared)
	})
	if err != nil {
		return nil, err
	}

	rec := v.(*AppTokenRecord)
	return m.clients.NewClient(rec.AccessToken, ""), nil
}

// Invalidate drops the held token so the next call performs a fresh grant.
func (m *AppManager) Invalidate(ctx context.Context) {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()

	if m.shared != nil {
		if err := m.shared.Delete(ctx, m.sharedKey); err != nil {
			m.logger.Warn("Failed to delete shared app token", logging.Err(err))
		}
	}
}

func (m *AppManager) current() *AppTokenRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *AppManager) set(rec *AppTokenRecord) {
	m.mu.Lock()
	m.token = rec
	m.mu.Unlock()
}

func (m *AppManager) obtain(ctx context.Context) (*AppTokenRecord, error) {
	// a flight that finished just before this one started may already have a token
	if rec := m.current(); rec.Valid(m.clock()) {
		return rec, nil
	}

	if rec := m.loadShared(ctx); rec != nil {
		m.set(rec)
		return rec, nil
	}

	resp, err := m.provider.ClientCredentials(ctx)
	metrics.RecordAppTokenGrant(metrics.Outcome(err))
	if err != nil {
		return nil, fmt.Errorf("client credentials grant failed: %w", err)
	}

	now := m.clock()
	rec := &AppTokenRecord{
		AccessToken: resp.AccessToken,
		ExpiresAt:   expiresAt(now, resp.ExpiresIn),
	}
	m.set(rec)
	m.storeShared(ctx, rec, time.UnixMilli(rec.ExpiresAt).Sub(now))

	m.logger.Debug("Obtained application token",
		logging.Field{Key: "expires_at", Value: time.UnixMilli(rec.ExpiresAt)})
	return rec, nil
}

func (m *AppManager) loadShared(ctx context.Context) *AppTokenRecord {
	if m.shared == nil {
		return nil
	}
	raw, found, err := m.shared.Get(ctx, m.sharedKey)
	if err != nil {
		m.logger.Warn("Failed to read shared app token", logging.Err(err))
		return nil
	}
	if !found {
		return nil
	}

	var rec AppTokenRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		m.logger.Warn("Ignoring unreadable shared app token", logging.Err(err))
		return nil
	}
	if !rec.Valid(m.clock()) {
		return nil
	}
	return &rec
}

func (m *AppManager) storeShared(ctx context.Context, rec *AppTokenRecord, ttl time.Duration) {
	if m.shared == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := m.shared.Set(ctx, m.sharedKey, string(data), ttl); err != nil {
		m.logger.Warn("Failed to share app token", logging.Err(err))
	}
}
