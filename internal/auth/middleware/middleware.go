package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/brizzai/notion-tasks-sync/internal/auth/constants"
	"github.com/brizzai/notion-tasks-sync/internal/auth/session"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/utils"
	"go.uber.org/zap"
)

// AuthContext is the key type for the context
type authContextKey string

const (
	// AuthContextKey is used to store auth info in the request context
	AuthContextKey authContextKey = "auth"
)

// AuthInfo represents the authentication information stored in context
type AuthInfo struct {
	UserID      string
	Email       string
	AccessToken string
}

// FromContext returns the AuthInfo stored by Authenticate.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(AuthContextKey).(*AuthInfo)
	return info, ok && info != nil
}

// WithAuthInfo stores info in ctx the way Authenticate does.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, AuthContextKey, info)
}

// Authenticate validates the session credential from the cookie or the
// Authorization header and rejects the request when it is missing or invalid.
func Authenticate(issuer *session.Issuer, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractCredential(r, cookieName)
			if raw == "" {
				writeUnauthorized(w, "unauthorized", "Authentication required")
				return
			}

			tok, err := issuer.Parse(raw)
			if err != nil {
				logger.Debug("Rejected session", zap.Error(err), zap.String("path", r.URL.Path))
				writeUnauthorized(w, "invalid_token", "Session is invalid or expired")
				return
			}

			ctx := WithAuthInfo(r.Context(), &AuthInfo{
				UserID:      tok.User.ID,
				Email:       tok.User.Email,
				AccessToken: tok.AccessToken,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS allows the listed origins, or any origin when the list is empty or contains "*".
func CORS(allowOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(allowOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractCredential prefers the session cookie and falls back to a Bearer header.
func extractCredential(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get(constants.AuthHeaderName)
	if strings.HasPrefix(authHeader, constants.AuthHeaderPrefix) {
		return strings.TrimPrefix(authHeader, constants.AuthHeaderPrefix)
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="notion-tasks-sync", error="%s"`, code))
	utils.WriteError(w, code, message, http.StatusUnauthorized)
}
