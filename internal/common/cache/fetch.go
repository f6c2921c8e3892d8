package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"album-grid/internal/common/errors"
	"album-grid/internal/common/logging"
	"album-grid/internal/metrics"
)

// DefaultNotFoundSentinel is stored in place of a payload for not-found results.
// It is deliberately not valid JSON so it can never collide with a positive entry.
const DefaultNotFoundSentinel = "NOT_FOUND_PLACEHOLDER"

// Options configures a single read-through lookup
type Options[T any] struct {
	// Key must embed every parameter that changes the result
	Key string
	// Fetch produces a fresh value on a miss. Its errors are returned unchanged.
	Fetch func(ctx context.Context) (T, error)
	// PositiveTTL is the lifetime of a found result. Zero stores without expiry.
	PositiveTTL time.Duration
	// IsNotFound classifies a fresh value as a negative result.
	// Defaults to deep equality with NotFoundValue.
	IsNotFound func(value T) bool
	// NotFoundValue is returned on a negative cache hit
	NotFoundValue T
	// NegativeTTL is the lifetime of a negative result. Zero disables negative caching.
	NegativeTTL time.Duration
	// NotFoundSentinel overrides DefaultNotFoundSentinel
	NotFoundSentinel string
}

// Fetch returns the cached value for opts.Key or resolves it through opts.Fetch.
func Fetch[T any](ctx context.Context, store Store, opts Options[T]) (T, error) {
	var zero T

	if opts.Key == "" {
		return zero, errors.ValidationError("cache key is required")
	}
	if opts.Fetch == nil {
		return zero, errors.ValidationError("fetch function is required")
	}
	if opts.PositiveTTL < 0 || opts.NegativeTTL < 0 {
		return zero, errors.ValidationError("cache ttl cannot be negative")
	}

	sentinel := opts.NotFoundSentinel
	if sentinel == "" {
		sentinel = DefaultNotFoundSentinel
	}
	if json.Valid([]byte(sentinel)) {
		return zero, errors.ValidationError("not-found sentinel must not be valid JSON")
	}

	isNotFound := opts.IsNotFound
	if isNotFound == nil {
		isNotFound = func(value T) bool {
			return reflect.DeepEqual(value, opts.NotFoundValue)
		}
	}

	namespace := keyNamespace(opts.Key)

	raw, found, err := store.Get(ctx, opts.Key)
	if err != nil {
		return zero, fmt.Errorf("cache lookup for %s failed: %w", opts.Key, err)
	}

	if found {
		if raw == sentinel {
			metrics.RecordCacheLookup(namespace, metrics.CacheNegativeHit)
			return opts.NotFoundValue, nil
		}

		var cached T
		decodeErr := json.Unmarshal([]byte(raw), &cached)
		if decodeErr == nil {
			metrics.RecordCacheLookup(namespace, metrics.CacheHit)
			return cached, nil
		}

		metrics.RecordCacheLookup(namespace, metrics.CacheCorrupt)
		logging.Warn("Discarding undecodable cache entry",
			logging.Field{Key: "key", Value: opts.Key},
			logging.Field{Key: "error", Value: decodeErr.Error()})
	} else {
		metrics.RecordCacheLookup(namespace, metrics.CacheMiss)
	}

	fresh, err := opts.Fetch(ctx)
	if err != nil {
		return zero, err
	}

	if isNotFound(fresh) {
		if opts.NegativeTTL > 0 {
			if err := store.Set(ctx, opts.Key, sentinel, opts.NegativeTTL); err != nil {
				return zero, fmt.Errorf("cache write for %s failed: %w", opts.Key, err)
			}
		}
		return fresh, nil
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		return zero, errors.InternalError("failed to serialize cache entry", err)
	}
	if err := store.Set(ctx, opts.Key, string(data), opts.PositiveTTL); err != nil {
		return zero, fmt.Errorf("cache write for %s failed: %w", opts.Key, err)
	}

	return fresh, nil
}

// Key joins parts into a colon-separated cache key
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// keyNamespace keeps the first two key segments so metric labels stay bounded
func keyNamespace(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 {
		return parts[0] + ":" + parts[1]
	}
	return parts[0]
}
