package oauth2

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"album-grid/internal/common/cache"
	"album-grid/internal/crypto"
	"album-grid/internal/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (brokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) Delete(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func newRedisBackedStore(t *testing.T) (cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisStore(client, ""), mr
}

func TestUserTokenStore_KeyAndTTL(t *testing.T) {
	store, mr := newRedisBackedStore(t)
	tokens := NewUserTokenStore(store, nil)

	record := &UserTokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1700000000000}
	require.NoError(t, tokens.Save(context.Background(), "abc", record))

	assert.True(t, mr.Exists("spotify:token:abc"))
	assert.Equal(t, UserRecordTTL, mr.TTL("spotify:token:abc"))

	raw, err := mr.Get("spotify:token:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"a","refresh_token":"r","expires_at":1700000000000}`, raw)

	loaded, err := tokens.Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestUserTokenStore_Options(t *testing.T) {
	store, mr := newRedisBackedStore(t)
	tokens := NewUserTokenStore(store, nil, WithKeyPrefix("session:"), WithRecordTTL(time.Hour))

	require.NoError(t, tokens.Save(context.Background(), "x", &UserTokenRecord{AccessToken: "a"}))
	assert.Equal(t, "session:x", tokens.Key("x"))
	assert.Equal(t, time.Hour, mr.TTL("session:x"))
}

func TestUserTokenStore_CorruptRecordIsAbsent(t *testing.T) {
	store, mr := newRedisBackedStore(t)
	tokens := NewUserTokenStore(store, nil)

	require.NoError(t, mr.Set("spotify:token:bad", "{truncated"))
	loaded, err := tokens.Load(context.Background(), "bad")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestUserTokenStore_Encrypted(t *testing.T) {
	store, mr := newRedisBackedStore(t)
	enc, err := crypto.NewTokenEncryptor("at-rest-key")
	require.NoError(t, err)
	tokens := NewUserTokenStore(store, enc)

	record := &UserTokenRecord{AccessToken: "secret-access", RefreshToken: "secret-refresh", ExpiresAt: 42}
	require.NoError(t, tokens.Save(context.Background(), "s1", record))

	raw, err := mr.Get("spotify:token:s1")
	require.NoError(t, err)
	assert.False(t, strings.Contains(raw, "secret"))

	loaded, err := tokens.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)

	// plain records written before encryption was enabled stay readable
	require.NoError(t, mr.Set("spotify:token:legacy", `{"access_token":"p","refresh_token":"q","expires_at":1}`))
	legacy, err := tokens.Load(context.Background(), "legacy")
	require.NoError(t, err)
	require.NotNil(t, legacy)
	assert.Equal(t, "p", legacy.AccessToken)

	// sealed with another key
	other, err := crypto.NewTokenEncryptor("different-key")
	require.NoError(t, err)
	sealed, err := other.EncryptJSON(record)
	require.NoError(t, err)
	require.NoError(t, mr.Set("spotify:token:foreign", sealed))
	foreign, err := tokens.Load(context.Background(), "foreign")
	assert.NoError(t, err)
	assert.Nil(t, foreign)
}

func TestUserTokenStore_Errors(t *testing.T) {
	tokens := NewUserTokenStore(brokenStore{}, nil)

	_, err := tokens.Load(context.Background(), "s")
	assert.Error(t, err)
	assert.Error(t, tokens.Save(context.Background(), "s", &UserTokenRecord{AccessToken: "a"}))
	assert.Error(t, tokens.Delete(context.Background(), "s"))
}

func TestUserTokenRecord_Valid(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	assert.True(t, (&UserTokenRecord{ExpiresAt: 1_000_001}).Valid(now))
	assert.False(t, (&UserTokenRecord{ExpiresAt: 1_000_000}).Valid(now))
	assert.False(t, (&UserTokenRecord{ExpiresAt: 999_999}).Valid(now))
}
