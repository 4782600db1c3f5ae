// Package session issues and verifies the signed, stateless credential handed
// to the browser after a successful Google sign-in. No server-side session
// store exists: a credential is valid while its signature and expiry hold.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/models"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// PayloadVersion is bumped whenever the shape of the token claim changes.
const PayloadVersion = 1

type claims struct {
	Version int                  `json:"v"`
	Token   models.TokenResponse `json:"token"`
	jwt.RegisteredClaims
}

type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(cfg *config.SessionConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("session max age must be positive, got %s", cfg.MaxAge)
	}
	return &Issuer{key: []byte(cfg.Secret), ttl: cfg.MaxAge, now: time.Now}, nil
}

// TTL is the lifetime of issued credentials. The cookie carrying them uses the same value.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs tok into a credential that expires after TTL.
func (i *Issuer) Issue(tok *models.TokenResponse) (string, error) {
	if tok == nil {
		return "", errors.New("token response is nil")
	}
	now := i.now()
	c := claims{
		Version: PayloadVersion,
		Token:   *tok,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tok.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the token response it carries.
func (i *Issuer) Parse(raw string) (*models.TokenResponse, error) {
	if raw == "" {
		return nil, apperr.New(apperr.KindInvalidSession, 0, "missing session")
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (interface{}, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindInvalidSession, 0, err, "session expired")
		}
		return nil, apperr.Wrap(apperr.KindInvalidSession, 0, err, "invalid session")
	}

	if c.Version != PayloadVersion {
		return nil, apperr.New(apperr.KindInvalidSession, 0, fmt.Sprintf("unsupported session version %d", c.Version))
	}
	return &c.Token, nil
}
