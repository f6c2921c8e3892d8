package handlers

import (
	"net/http"

	"album-grid/internal/common/logging"
)

// HandleHealth reports whether the backing store is reachable
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(); err != nil {
		h.logger.WithContext(r.Context()).Warn("Health check failed", logging.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"store":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
