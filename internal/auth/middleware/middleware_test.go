package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/auth/models"
	"github.com/brizzai/notion-tasks-sync/internal/auth/session"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T, secret string) *session.Issuer {
	t.Helper()
	i, err := session.NewIssuer(&config.SessionConfig{Secret: secret, MaxAge: time.Hour})
	require.NoError(t, err)
	return i
}

func TestAuthenticate(t *testing.T) {
	issuer := testIssuer(t, "key")
	credential, err := issuer.Issue(&models.TokenResponse{
		AccessToken: "at-1",
		User:        models.UserInfo{ID: "u1", Email: "a@example.com", EmailVerified: true},
	})
	require.NoError(t, err)

	foreign, err := testIssuer(t, "other").Issue(&models.TokenResponse{User: models.UserInfo{ID: "x"}})
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "gtoken", Value: credential}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+credential) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "signed with another key",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "gtoken", Value: foreign}) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *AuthInfo
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			Authenticate(issuer, "gtoken")(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Nil(t, got)
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, &AuthInfo{UserID: "u1", Email: "a@example.com", AccessToken: "at-1"}, got)
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("allow all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("listed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"})(next).ServeHTTP(rec, req)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		CORS([]string{"https://app.example.com"})(next).ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/sync", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
