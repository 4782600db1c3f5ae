package auth

import (
	"github.com/brizzai/notion-tasks-sync/internal/auth/providers"
	"github.com/brizzai/notion-tasks-sync/internal/auth/session"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/requester"
	"go.uber.org/fx"
)

func newProvider(cfg *config.Config, r *requester.HTTPRequester) (*providers.GoogleProvider, error) {
	p, err := providers.NewGoogleProvider(&cfg.Google)
	if err != nil {
		return nil, err
	}
	return p.WithHTTPClient(r.Client()), nil
}

func newIssuer(cfg *config.Config) (*session.Issuer, error) {
	return session.NewIssuer(&cfg.Session)
}

// Module provides the auth dependencies
var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(
			newProvider,
			fx.As(new(providers.Provider)),
		),
		newIssuer,
		NewService,
	),
)
