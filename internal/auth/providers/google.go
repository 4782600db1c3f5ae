package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/models"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type GoogleProvider struct {
	oauth2Config *oauth2.Config
	userInfoURL  string
	base         *http.Client
}

func NewGoogleProvider(cfg *config.GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google client id and secret are required")
	}
	if cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, errors.New("google token and userinfo urls are required")
	}

	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// client credentials travel with the code, not in a Basic header
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}, nil
}

// WithHTTPClient sets the client used for the token and userinfo calls.
func (p *GoogleProvider) WithHTTPClient(hc *http.Client) *GoogleProvider {
	p.base = hc
	return p
}

// AuthCodeURL asks for offline access so Google hands out a refresh token.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*models.TokenResponse, error) {
	if p.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.base)
	}
	tok, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, exchangeError(err)
	}

	user, err := p.fetchUserInfo(ctx, tok)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		logger.Warn("Rejected sign-in with unverified email", zap.String("user_id", user.ID))
		return nil, apperr.ErrUnverifiedEmail
	}

	scope, _ := tok.Extra("scope").(string)
	logger.Debug("Exchanged authorization code",
		zap.String("user_id", user.ID),
		zap.Int64("expires_in", tok.ExpiresIn),
		zap.Bool("has_refresh_token", tok.RefreshToken != ""),
	)

	return &models.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Scope:        scope,
		TokenType:    tok.Type(),
		User:         *user,
	}, nil
}

func (p *GoogleProvider) fetchUserInfo(ctx context.Context, tok *oauth2.Token) (*models.UserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUserInfoFetchFailed, 0, err, "failed to call userinfo endpoint")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindUserInfoFetchFailed, resp.StatusCode, "userinfo request failed")
	}

	var user models.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, apperr.Wrap(apperr.KindUserInfoFetchFailed, resp.StatusCode, err, "failed to decode userinfo response")
	}
	return &user, nil
}

// exchangeError converts an oauth2 failure into a tagged error. The upstream
// body is reduced to its error code so nothing from the request is echoed.
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		msg := "token exchange failed"
		if re.ErrorCode != "" {
			msg = fmt.Sprintf("token exchange failed: %s", re.ErrorCode)
		}
		return apperr.New(apperr.KindTokenExchangeFailed, status, msg)
	}
	return apperr.Wrap(apperr.KindTokenExchangeFailed, 0, err, "token exchange failed")
}
