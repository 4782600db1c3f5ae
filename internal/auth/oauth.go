package auth

import (
	"net/http"

	"github.com/brizzai/notion-tasks-sync/internal/auth/constants"
	"github.com/brizzai/notion-tasks-sync/internal/auth/handlers"
	"github.com/brizzai/notion-tasks-sync/internal/auth/middleware"
	"github.com/brizzai/notion-tasks-sync/internal/auth/providers"
	"github.com/brizzai/notion-tasks-sync/internal/auth/session"
	"github.com/brizzai/notion-tasks-sync/internal/config"
)

// Service represents the Google sign-in flow and the session check guarding the API
type Service struct {
	config       *config.Config
	authProvider providers.Provider
	issuer       *session.Issuer
	handler      *handlers.Handler
}

// NewService creates a new auth service
func NewService(cfg *config.Config, provider providers.Provider, issuer *session.Issuer) *Service {
	handler := handlers.NewHandler(handlers.Options{
		Origin:      cfg.Server.Origin,
		CookieName:  cfg.Session.CookieName,
		SuccessPath: cfg.Session.SuccessPath,
	}, provider, issuer)

	return &Service{
		config:       cfg,
		authProvider: provider,
		issuer:       issuer,
		handler:      handler,
	}
}

// RegisterRoutes registers the sign-in routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.RouteAuthorize, s.handler.HandleAuthorize)
	mux.HandleFunc(constants.RouteCallback, s.handler.HandleAuthCallback)
}

// WrapWithCors wraps the handler with the configured CORS policy
func (s *Service) WrapWithCors(handler http.Handler) http.Handler {
	return middleware.CORS(s.config.Server.AllowOrigins)(handler)
}

// Authenticate returns the session middleware
func (s *Service) Authenticate() func(http.Handler) http.Handler {
	return middleware.Authenticate(s.issuer, s.config.Session.CookieName)
}

// Issuer returns the session issuer
func (s *Service) Issuer() *session.Issuer {
	return s.issuer
}
