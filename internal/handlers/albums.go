package handlers

import (
	"net/http"
	"strconv"

	"album-grid/internal/albums"
	"album-grid/internal/common/errors"
	"album-grid/internal/common/logging"
	"album-grid/internal/history"
	"album-grid/internal/middleware"
	"github.com/gorilla/mux"
)

// gridFromRequest resolves {user}, period and size. It writes the response
// itself and returns nil when the grid cannot be served.
func (h *Handlers) gridFromRequest(w http.ResponseWriter, r *http.Request) *albums.Grid {
	user := mux.Vars(r)["user"]
	q := r.URL.Query()

	period, err := history.ParsePeriod(q.Get("period"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return nil
	}

	size := albums.DefaultGridSize
	if raw := q.Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "size must be a number")
			return nil
		}
	}

	grid, err := h.albums.Grid(r.Context(), user, period, size)
	if err != nil {
		h.writeError(w, r, err)
		return nil
	}
	if grid == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return nil
	}
	return grid
}

// HandleGrid returns the tiles of a user's grid
func (h *Handlers) HandleGrid(w http.ResponseWriter, r *http.Request) {
	grid := h.gridFromRequest(w, r)
	if grid == nil {
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// HandleGridLinks resolves every tile against the catalogue with the user's token
func (h *Handlers) HandleGridLinks(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r)

	client, err := h.users.GetAuthorizedClient(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if client == nil {
		h.requireAuthorization(w, r)
		return
	}

	grid := h.gridFromRequest(w, r)
	if grid == nil {
		return
	}

	links, err := h.albums.Links(r.Context(), client, grid)
	if errors.IsType(err, errors.ErrTypeAuth) {
		// revoked upstream before our expiry; start over
		h.logger.WithContext(r.Context()).Info("Streaming API rejected user token",
			logging.Field{Key: "session_id", Value: sessionID})
		if delErr := h.users.InvalidateSession(r.Context(), sessionID); delErr != nil {
			h.writeError(w, r, delErr)
			return
		}
		h.requireAuthorization(w, r)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"grid":  grid,
		"links": links,
	})
}

// HandleSearch looks up a single album with the application token
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	title := r.URL.Query().Get("album")
	if artist == "" || title == "" {
		writeMessage(w, http.StatusBadRequest, "artist and album are required")
		return
	}

	client, err := h.app.GetAppClient(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("Application token unavailable", err)
		writeMessage(w, http.StatusBadGateway, "Streaming service unavailable")
		return
	}

	album, err := h.albums.StreamingLink(r.Context(), client, artist, title)
	if errors.IsType(err, errors.ErrTypeAuth) {
		h.app.Invalidate(r.Context())
		writeMessage(w, http.StatusBadGateway, "Streaming service rejected application token")
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if album == nil {
		writeMessage(w, http.StatusNotFound, "Album not found")
		return
	}
	writeJSON(w, http.StatusOK, album)
}
