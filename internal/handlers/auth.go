package handlers

import (
	"net/http"

	"album-grid/internal/common/logging"
	"album-grid/internal/middleware"
)

// HandleLogin redirects to the consent page. The session ID doubles as the
// OAuth state so the callback can be tied back to this browser.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.users.BuildAuthorizationURL(middleware.SessionID(r)), http.StatusFound)
}

// HandleCallback completes the authorization-code flow
func (h *Handlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r)
	q := r.URL.Query()
	logger := h.logger.WithContext(r.Context())

	if denied := q.Get("error"); denied != "" {
		logger.Info("Authorization declined", logging.Field{Key: "reason", Value: denied})
		h.authorizationFailed(w, r, "Authorization was declined")
		return
	}

	if sessionID == "" || q.Get("state") != sessionID {
		logger.Warn("Authorization callback state mismatch")
		h.authorizationFailed(w, r, "Invalid authorization state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.authorizationFailed(w, r, "Missing authorization code")
		return
	}

	if !h.users.ExchangeAuthorizationCode(r.Context(), code, sessionID) {
		h.authorizationFailed(w, r, "Authorization failed")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handlers) authorizationFailed(w http.ResponseWriter, r *http.Request, msg string) {
	writeJSON(w, http.StatusBadRequest, authorizationRequired{
		Error:        msg,
		AuthorizeURL: h.users.BuildAuthorizationURL(middleware.SessionID(r)),
	})
}

// HandleLogout drops the session's credentials and its cookie
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID := middleware.SessionID(r); sessionID != "" {
		if err := h.users.InvalidateSession(r.Context(), sessionID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
