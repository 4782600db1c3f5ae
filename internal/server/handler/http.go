// Package handler provides HTTP request handling for the sync server.
package handler

import (
	"net/http"

	"github.com/brizzai/notion-tasks-sync/internal/auth"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth *auth.Service
	api  *API
}

// NewHandler creates a new HTTP handler.
func NewHandler(auth *auth.Service, api *API) *Handler {
	return &Handler{
		auth: auth,
		api:  api,
	}
}

// CreateHTTPHandler builds the full middleware stack: request logging, then
// CORS, then the routes. Everything under /api/ requires a session.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	h.auth.RegisterRoutes(mux)
	logger.Info("Registered authentication routes")

	mux.HandleFunc("GET /healthz", handleHealth)

	api := http.NewServeMux()
	h.api.Register(api)
	mux.Handle("/api/", h.auth.Authenticate()(api))
	logger.Info("Enabled authentication for API routes")

	return RequestLogger(h.auth.WrapWithCors(mux))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
