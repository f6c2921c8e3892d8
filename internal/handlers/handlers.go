// Package handlers implements the HTTP endpoints for authorization, grids and catalogue lookups.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"album-grid/internal/albums"
	"album-grid/internal/common/errors"
	"album-grid/internal/common/logging"
	"album-grid/internal/history"
	"album-grid/internal/middleware"
	"album-grid/internal/streaming"
)

// UserTokens is the user-delegated token lifecycle
type UserTokens interface {
	GetAuthorizedClient(ctx context.Context, sessionID string) (*streaming.Client, error)
	BuildAuthorizationURL(state string) string
	ExchangeAuthorizationCode(ctx context.Context, code, sessionID string) bool
	InvalidateSession(ctx context.Context, sessionID string) error
}

// AppTokens is the application token lifecycle
type AppTokens interface {
	GetAppClient(ctx context.Context) (*streaming.Client, error)
	Invalidate(ctx context.Context)
}

// AlbumService answers grid and catalogue queries
type AlbumService interface {
	Grid(ctx context.Context, user string, period history.Period, size int) (*albums.Grid, error)
	Links(ctx context.Context, client *streaming.Client, grid *albums.Grid) ([]albums.Link, error)
	StreamingLink(ctx context.Context, client *streaming.Client, artist, title string) (*streaming.Album, error)
}

// HealthChecker reports backing store health
type HealthChecker interface {
	Health() error
}

type Handlers struct {
	users    UserTokens
	app      AppTokens
	albums   AlbumService
	sessions *middleware.Sessions
	store    HealthChecker
	logger   logging.Logger
}

func New(users UserTokens, app AppTokens, albumService AlbumService, sessions *middleware.Sessions, store HealthChecker) *Handlers {
	return &Handlers{
		users:    users,
		app:      app,
		albums:   albumService,
		sessions: sessions,
		store:    store,
		logger:   logging.GetGlobalLogger().WithFields(logging.Field{Key: "component", Value: "handlers"}),
	}
}

// authorizationRequired is the body of a 401 that the user can act on
type authorizationRequired struct {
	Error        string `json:"error"`
	AuthorizeURL string `json:"authorize_url"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps an AppError category to a status code. Unclassified
// errors are logged and reported as 500 without detail.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		h.logger.WithContext(r.Context()).Error("Request failed", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case errors.ErrTypeValidation:
		status = http.StatusBadRequest
	case errors.ErrTypeNotFound:
		status = http.StatusNotFound
	case errors.ErrTypeAuth:
		status = http.StatusUnauthorized
	case errors.ErrTypeTimeout:
		status = http.StatusGatewayTimeout
	case errors.ErrTypeUpstream, errors.ErrTypeConnection:
		status = http.StatusBadGateway
	}

	if status >= 500 {
		h.logger.WithContext(r.Context()).Error("Request failed", err)
		if status == http.StatusInternalServerError {
			writeMessage(w, status, "Internal server error")
			return
		}
	}
	writeMessage(w, status, appErr.Message)
}

// requireAuthorization answers 401 with a consent URL for the current session
func (h *Handlers) requireAuthorization(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, authorizationRequired{
		Error:        "Spotify authorization required",
		AuthorizeURL: h.users.BuildAuthorizationURL(middleware.SessionID(r)),
	})
}
