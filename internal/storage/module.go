package storage

import (
	"context"

	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newUserStore(lc fx.Lifecycle, cfg *config.Config) (UserStore, error) {
	store, err := New(context.Background(), &cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened user store", zap.String("backend", string(cfg.Storage.Backend)))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// Module provides the user record store
var Module = fx.Module("storage",
	fx.Provide(newUserStore),
)
