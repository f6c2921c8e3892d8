package cache

import (
	"fmt"
	"time"

	"album-grid/internal/redis"
)

// Type represents the store backend type
type Type string

const (
	TypeLocal Type = "local"
	TypeRedis Type = "redis"
)

// Config holds store configuration
type Config struct {
	Type            Type          `json:"type"`
	CleanupInterval time.Duration `json:"cleanup_interval,omitempty"`
	KeyPrefix       string        `json:"key_prefix,omitempty"`
	RedisClient     *redis.Client `json:"-"`
}

// HealthStore is a Store that can report connectivity
type HealthStore interface {
	Store
	Health() error
}

// DefaultConfig returns an in-process store configuration
func DefaultConfig() Config {
	return Config{
		Type:            TypeLocal,
		CleanupInterval: 10 * time.Minute,
		KeyPrefix:       "albumgrid:",
	}
}

// New creates a store based on configuration
func New(config Config) (HealthStore, error) {
	switch config.Type {
	case TypeLocal, "":
		interval := config.CleanupInterval
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		return NewLocalStore(interval), nil

	case TypeRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis client required for redis store")
		}
		return NewRedisStore(config.RedisClient, config.KeyPrefix), nil

	default:
		return nil, fmt.Errorf("unknown store type: %s", config.Type)
	}
}
