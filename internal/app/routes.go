package app

import (
	"net/http"

	"album-grid/internal/handlers"
	"album-grid/internal/metrics"
	"album-grid/internal/middleware"
	"github.com/gorilla/mux"
)

// SetupRoutes configures all HTTP routes
func (app *App) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	sessions := middleware.NewSessions(app.Config.CookieSecure)
	h := handlers.New(app.Users, app.AppTokens, app.Albums, sessions, app.Store)

	router.Use(middleware.LoggingMiddleware)

	// Operational endpoints carry no session
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	auth := router.PathPrefix("/auth").Subrouter()
	auth.Use(sessions.Middleware)
	auth.HandleFunc("/login", h.HandleLogin).Methods("GET")
	auth.HandleFunc("/callback", h.HandleCallback).Methods("GET")
	auth.HandleFunc("/logout", h.HandleLogout).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(sessions.Middleware)
	api.HandleFunc("/grid/{user}", h.HandleGrid).Methods("GET")
	api.HandleFunc("/grid/{user}/links", h.HandleGridLinks).Methods("GET")
	api.HandleFunc("/albums/search", h.HandleSearch).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	return router
}
