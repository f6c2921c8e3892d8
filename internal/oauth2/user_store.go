package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"album-grid/internal/common/cache"
	"album-grid/internal/common/logging"
	"album-grid/internal/crypto"
)

// UserTokenStore persists UserTokenRecords under <prefix>:<sessionID>.
// When an encryptor is configured, records are sealed before they reach the
// store; plain JSON records are still readable so enabling encryption does not
// sign everyone out.
type UserTokenStore struct {
	store     cache.Store
	prefix    string
	ttl       time.Duration
	encryptor *crypto.TokenEncryptor
	logger    logging.Logger
}

// UserTokenStoreOption configures a UserTokenStore
type UserTokenStoreOption func(*UserTokenStore)

// WithKeyPrefix overrides DefaultUserKeyPrefix
func WithKeyPrefix(prefix string) UserTokenStoreOption {
	return func(s *UserTokenStore) {
		s.prefix = strings.TrimSuffix(prefix, ":")
	}
}

// WithRecordTTL overrides UserRecordTTL
func WithRecordTTL(ttl time.Duration) UserTokenStoreOption {
	return func(s *UserTokenStore) {
		s.ttl = ttl
	}
}

// NewUserTokenStore wraps store. encryptor may be nil.
func NewUserTokenStore(store cache.Store, encryptor *crypto.TokenEncryptor, opts ...UserTokenStoreOption) *UserTokenStore {
	s := &UserTokenStore{
		store:     store,
		prefix:    DefaultUserKeyPrefix,
		ttl:       UserRecordTTL,
		encryptor: encryptor,
		logger:    logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "user-token-store"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the store key for a session
func (s *UserTokenStore) Key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Load returns the record for sessionID, or nil when there is none.
// An unreadable record is logged and reported as absent.
func (s *UserTokenStore) Load(ctx context.Context, sessionID string) (*UserTokenRecord, error) {
	raw, found, err := s.store.Get(ctx, s.Key(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load user token: %w", err)
	}
	if !found {
		return nil, nil
	}

	var record UserTokenRecord
	if err := s.decode(raw, &record); err != nil {
		s.logger.WithContext(ctx).Warn("Ignoring unreadable user token record",
			logging.Field{Key: "session_id", Value: sessionID},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, nil
	}
	if record.AccessToken == "" {
		return nil, nil
	}
	return &record, nil
}

// Save writes the record with the store TTL, replacing any previous one
func (s *UserTokenStore) Save(ctx context.Context, sessionID string, record *UserTokenRecord) error {
	value, err := s.encode(record)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.Key(sessionID), value, s.ttl); err != nil {
		return fmt.Errorf("failed to save user token: %w", err)
	}
	return nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *UserTokenStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, s.Key(sessionID)); err != nil {
		return fmt.Errorf("failed to delete user token: %w", err)
	}
	return nil
}

func (s *UserTokenStore) encode(record *UserTokenRecord) (string, error) {
	if s.encryptor != nil {
		return s.encryptor.EncryptJSON(record)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode user token: %w", err)
	}
	return string(data), nil
}

func (s *UserTokenStore) decode(raw string, record *UserTokenRecord) error {
	if strings.HasPrefix(raw, "{") || s.encryptor == nil {
		return json.Unmarshal([]byte(raw), record)
	}
	return s.encryptor.DecryptJSON(raw, record)
}
