package middleware

import (
	"crypto/rand"
	"net/http"
	"time"

	"album-grid/internal/common/logging"
	"github.com/lucsky/cuid"
)

const (
	SessionCookieName = "session"
	sessionMaxAge     = 30 * 24 * time.Hour
)

// Sessions issues an opaque session cookie to every visitor that lacks one
// and makes the ID available through SessionID.
type Sessions struct {
	secure bool
}

func NewSessions(secure bool) *Sessions {
	return &Sessions{secure: secure}
}

// Middleware attaches the session ID to the request context
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			sessionID = cookie.Value
		} else {
			id, err := cuid.NewCrypto(rand.Reader)
			if err != nil {
				logging.Error("Failed to generate session ID", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			sessionID = id
			s.setCookie(w, sessionID)
		}

		next.ServeHTTP(w, r.WithContext(logging.ContextWithSessionID(r.Context(), sessionID)))
	})
}

// Clear expires the session cookie
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) setCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		// Lax so the cookie survives the redirect back from the consent page
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionID returns the session attached by Middleware, or "" outside it
func SessionID(r *http.Request) string {
	id, _ := logging.SessionIDFromContext(r.Context())
	return id
}
