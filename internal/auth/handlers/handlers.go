package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/constants"
	"github.com/brizzai/notion-tasks-sync/internal/auth/providers"
	"github.com/brizzai/notion-tasks-sync/internal/auth/session"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options controls where the callback sends the browser.
type Options struct {
	// Origin is the public base URL for error redirects. Derived from the
	// request when empty.
	Origin      string
	CookieName  string
	SuccessPath string
}

// Handler handles OAuth-related HTTP requests
type Handler struct {
	opts         Options
	authProvider providers.Provider
	issuer       *session.Issuer
}

// NewHandler creates a new Handler instance
func NewHandler(opts Options, provider providers.Provider, issuer *session.Issuer) *Handler {
	if opts.CookieName == "" {
		opts.CookieName = constants.DefaultCookieName
	}
	if opts.SuccessPath == "" {
		opts.SuccessPath = "/"
	}
	opts.Origin = strings.TrimSuffix(opts.Origin, "/")
	return &Handler{
		opts:         opts,
		authProvider: provider,
		issuer:       issuer,
	}
}

// HandleAuthorize sends the browser to the Google consent screen.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}
	http.Redirect(w, r, h.authProvider.AuthCodeURL(uuid.NewString()), http.StatusFound)
}

// HandleAuthCallback handles the redirect back from Google. The checks run in
// a fixed order: provider error, missing code, then exchange and sign-in.
func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	if authErr := query.Get(constants.ParamError); authErr != "" {
		logger.Error("Google auth error", zap.String("error", authErr))
		tag := constants.ErrorTagAccessError
		if authErr == constants.ProviderAccessDenied {
			tag = constants.ErrorTagAccessDenied
		}
		http.Redirect(w, r, h.origin(r)+"/?error="+tag, http.StatusFound)
		return
	}

	code := query.Get(constants.ParamCode)
	if code == "" {
		logger.Error("Auth callback without code", zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, constants.MsgInvalidRequest, http.StatusBadRequest)
		return
	}

	tok, err := h.authProvider.ExchangeCode(r.Context(), code)
	if err != nil {
		h.signInFailed(w, err)
		return
	}

	credential, err := h.issuer.Issue(tok)
	if err != nil {
		h.signInFailed(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.opts.CookieName,
		Value:    credential,
		Path:     "/",
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
	})
	logger.Info("User signed in", zap.String("user_id", tok.User.ID))
	http.Redirect(w, r, h.opts.SuccessPath, http.StatusFound)
}

func (h *Handler) signInFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, apperr.ErrUnverifiedEmail) {
		http.Error(w, constants.MsgUnverifiedEmail, http.StatusForbidden)
		return
	}
	logger.Error("Sign-in failed",
		zap.Error(err),
		zap.Stringer("kind", apperr.KindOf(err)),
		zap.Int("upstream_status", apperr.StatusOf(err)),
	)
	http.Error(w, constants.MsgSignInFailed, http.StatusInternalServerError)
}

// origin returns the configured public origin or rebuilds it from the request.
func (h *Handler) origin(r *http.Request) string {
	if h.opts.Origin != "" {
		return h.opts.Origin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}
