// Package config loads album-grid settings from environment variables with
// sensible defaults and validates them before the application starts.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional log file path (logs go to stdout otherwise)
//   - COOKIE_SECURE: Mark the session cookie Secure (default: false)
//   - TLS_CERT_FILE, TLS_KEY_FILE: serve HTTPS when both are set
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address. Empty selects the in-process store.
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Spotify:
//   - SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET: client registration (required)
//   - SPOTIFY_REDIRECT_URL: OAuth callback (default: http://localhost:8080/auth/callback)
//   - SPOTIFY_AUTH_URL, SPOTIFY_TOKEN_URL, SPOTIFY_API_URL: endpoint overrides
//   - SPOTIFY_APP_TOKEN_SHARED: keep the app token in Redis for all instances (default: false)
//   - STREAMING_RATE_LIMIT: outbound requests per second (default: 10)
//
// Last.fm:
//   - LASTFM_API_KEY: API key (required)
//   - LASTFM_API_URL: endpoint override
//
// Tokens and caching:
//   - TOKEN_ENCRYPTION_KEY: encrypt user token records at rest when set
//   - PROVIDER_TIMEOUT: bound on OAuth provider calls (default: 10s)
//   - TOP_ALBUMS_TTL / TOP_ALBUMS_NEGATIVE_TTL (default: 1h / 5m)
//   - ALBUM_LINK_TTL / ALBUM_LINK_NEGATIVE_TTL (default: 168h / 24h)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"album-grid/internal/common/errors"
)

// Config holds all configuration values. Numeric and duration settings are
// kept as the raw strings and parsed by the accessor methods once Validate
// has accepted them.
type Config struct {
	// Application settings
	Port         string
	LogLevel     string
	LogFile      string
	CookieSecure bool
	TLSCertFile  string
	TLSKeyFile   string

	// Redis settings
	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string

	// Spotify settings
	SpotifyClientID       string
	SpotifyClientSecret   string
	SpotifyRedirectURL    string
	SpotifyAuthURL        string
	SpotifyTokenURL       string
	SpotifyAPIURL         string
	SpotifyAppTokenShared bool
	StreamingRateLimit    string

	// Last.fm settings
	LastFMAPIKey string
	LastFMAPIURL string

	// Token and cache settings
	TokenEncryptionKey   string
	ProviderTimeout      string
	TopAlbumsTTL         string
	TopAlbumsNegativeTTL string
	AlbumLinkTTL         string
	AlbumLinkNegativeTTL string
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		CookieSecure: getBoolEnv("COOKIE_SECURE", false),
		TLSCertFile:  getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:   getEnv("TLS_KEY_FILE", ""),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		SpotifyClientID:       getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret:   getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyRedirectURL:    getEnv("SPOTIFY_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		SpotifyAuthURL:        getEnv("SPOTIFY_AUTH_URL", ""),
		SpotifyTokenURL:       getEnv("SPOTIFY_TOKEN_URL", ""),
		SpotifyAPIURL:         getEnv("SPOTIFY_API_URL", ""),
		SpotifyAppTokenShared: getBoolEnv("SPOTIFY_APP_TOKEN_SHARED", false),
		StreamingRateLimit:    getEnv("STREAMING_RATE_LIMIT", "10"),

		LastFMAPIKey: getEnv("LASTFM_API_KEY", ""),
		LastFMAPIURL: getEnv("LASTFM_API_URL", ""),

		TokenEncryptionKey:   getEnv("TOKEN_ENCRYPTION_KEY", ""),
		ProviderTimeout:      getEnv("PROVIDER_TIMEOUT", "10s"),
		TopAlbumsTTL:         getEnv("TOP_ALBUMS_TTL", "1h"),
		TopAlbumsNegativeTTL: getEnv("TOP_ALBUMS_NEGATIVE_TTL", "5m"),
		AlbumLinkTTL:         getEnv("ALBUM_LINK_TTL", "168h"),
		AlbumLinkNegativeTTL: getEnv("ALBUM_LINK_NEGATIVE_TTL", "24h"),
	}
}

// getEnv retrieves an environment variable or returns defaultValue when it is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv accepts the strconv.ParseBool forms; anything else yields defaultValue.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks required fields and the format of every numeric and duration setting.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return errors.ConfigError("PORT must be a valid port number between 1 and 65535")
	}

	if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
		return errors.ConfigError("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required")
	}
	if c.SpotifyRedirectURL == "" {
		return errors.ConfigError("SPOTIFY_REDIRECT_URL is required")
	}
	if c.LastFMAPIKey == "" {
		return errors.ConfigError("LASTFM_API_KEY is required")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.ConfigError("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return errors.ConfigError("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return errors.ConfigError("REDIS_POOL_SIZE must be a positive number")
		}
	}
	if c.SpotifyAppTokenShared && c.RedisAddress == "" {
		return errors.ConfigError("SPOTIFY_APP_TOKEN_SHARED requires REDIS_ADDRESS")
	}

	if rate, err := strconv.ParseFloat(c.StreamingRateLimit, 64); err != nil || rate < 0 {
		return errors.ConfigError("STREAMING_RATE_LIMIT must be a non-negative number")
	}

	durations := []struct {
		name  string
		value string
	}{
		{"PROVIDER_TIMEOUT", c.ProviderTimeout},
		{"TOP_ALBUMS_TTL", c.TopAlbumsTTL},
		{"TOP_ALBUMS_NEGATIVE_TTL", c.TopAlbumsNegativeTTL},
		{"ALBUM_LINK_TTL", c.AlbumLinkTTL},
		{"ALBUM_LINK_NEGATIVE_TTL", c.AlbumLinkNegativeTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil || parsed <= 0 {
			return errors.ConfigError(fmt.Sprintf("%s must be a positive duration (e.g. '30s', '1h')", d.name))
		}
	}

	return nil
}

// UseRedis reports whether a Redis server is configured
func (c *Config) UseRedis() bool {
	return c.RedisAddress != ""
}

func (c *Config) RedisDBNumber() int {
	db, _ := strconv.Atoi(c.RedisDB)
	return db
}

func (c *Config) RedisPoolSizeNumber() int {
	size, _ := strconv.Atoi(c.RedisPoolSize)
	return size
}

func (c *Config) StreamingRateLimitValue() float64 {
	rate, _ := strconv.ParseFloat(c.StreamingRateLimit, 64)
	return rate
}

// ProviderTimeoutDuration returns PROVIDER_TIMEOUT
func (c *Config) ProviderTimeoutDuration() time.Duration {
	return mustDuration(c.ProviderTimeout)
}

func (c *Config) TopAlbumsTTLDuration() time.Duration {
	return mustDuration(c.TopAlbumsTTL)
}

func (c *Config) TopAlbumsNegativeTTLDuration() time.Duration {
	return mustDuration(c.TopAlbumsNegativeTTL)
}

func (c *Config) AlbumLinkTTLDuration() time.Duration {
	return mustDuration(c.AlbumLinkTTL)
}

func (c *Config) AlbumLinkNegativeTTLDuration() time.Duration {
	return mustDuration(c.AlbumLinkNegativeTTL)
}

// mustDuration parses a value that Validate has already accepted
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
