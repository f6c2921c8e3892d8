package cache

import (
	"context"
	"time"

	"album-grid/internal/redis"
	gocache "github.com/patrickmn/go-cache"
)

// Store is the minimal key-value contract used by the cache and token stores.
// Get reports a missing key as found=false with a nil error. A zero ttl on
// Set stores the value without expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LocalStore keeps values in process memory using go-cache
type LocalStore struct {
	cache *gocache.Cache
}

// NewLocalStore creates an in-memory store that sweeps expired items every cleanupInterval
func NewLocalStore(cleanupInterval time.Duration) *LocalStore {
	return &LocalStore{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (l *LocalStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, found := l.cache.Get(key)
	if !found {
		return "", false, nil
	}
	s, ok := val.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

func (l *LocalStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	l.cache.Set(key, value, ttl)
	return nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	l.cache.Delete(key)
	return nil
}

// Health always succeeds for the in-process store
func (l *LocalStore) Health() error {
	return nil
}

// RedisStore stores values in Redis under a shared key prefix
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Get(ctx, r.keyPrefix+key)
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.keyPrefix+key, value, ttl)
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Delete(ctx, r.keyPrefix+key)
}

func (r *RedisStore) Health() error {
	return r.client.Health()
}
