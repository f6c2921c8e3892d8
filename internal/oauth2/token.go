package oauth2

import (
	"time"
)

const (
	// SafetyBuffer is subtracted from every provider lifetime
	SafetyBuffer = 5 * time.Minute

	// UserRecordTTL is the absolute store lifetime of a user token record
	UserRecordTTL = 30 * 24 * time.Hour

	DefaultUserKeyPrefix = "spotify:token"
	DefaultAppTokenKey   = "spotify:apptoken"
)

// Clock returns the current time. Tests inject fixed clocks.
type Clock func() time.Time

// TokenResponse is the token endpoint's JSON body (RFC 6749 section 5.1).
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// UserTokenRecord is what the store holds for a session.
type UserTokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is epoch milliseconds, already reduced by SafetyBuffer
	ExpiresAt int64 `json:"expires_at"`
}

// Valid reports whether the access token may still be used at now.
func (r *UserTokenRecord) Valid(now time.Time) bool {
	return now.UnixMilli() < r.ExpiresAt
}

// AppTokenRecord is the client-credentials token.
type AppTokenRecord struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

func (r *AppTokenRecord) Valid(now time.Time) bool {
	return r != nil && r.AccessToken != "" && now.UnixMilli() < r.ExpiresAt
}

// expiresAt converts a provider lifetime into a buffered epoch-ms deadline.
func expiresAt(now time.Time, expiresIn int) int64 {
	return now.Add(time.Duration(expiresIn)*time.Second - SafetyBuffer).UnixMilli()
}
