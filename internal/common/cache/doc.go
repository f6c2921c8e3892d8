// Package cache provides the key-value store abstraction and the generic
// read-through cache built on top of it.
//
// Two store backends are available:
//   - LocalStore wraps github.com/patrickmn/go-cache for single-process use
//     and tests
//   - RedisStore wraps the shared Redis connection for multi-instance
//     deployments
//
// Fetch wraps any producer with store-backed caching. Found results are
// stored as JSON under PositiveTTL. Not-found results are stored as a
// sentinel string under NegativeTTL, or not stored at all when NegativeTTL
// is zero:
//
//	albums, err := cache.Fetch(ctx, store, cache.Options[*TopAlbums]{
//		Key:         "lastfm:topalbums:rj:7day:9",
//		PositiveTTL: time.Hour,
//		NegativeTTL: 5 * time.Minute,
//		Fetch: func(ctx context.Context) (*TopAlbums, error) {
//			return history.TopAlbums(ctx, "rj", "7day", 9)
//		},
//	})
//
// Store failures are returned to the caller. A stored entry that no longer
// decodes is treated as a miss and overwritten by the next fetch.
package cache
