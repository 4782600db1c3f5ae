package service

import (
	"github.com/brizzai/notion-tasks-sync/internal/batch"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/notion"
	"github.com/brizzai/notion-tasks-sync/internal/storage"
	"github.com/brizzai/notion-tasks-sync/internal/tasks"
	"go.uber.org/fx"
)

func newUserService(cfg *config.Config, users storage.UserStore, client *tasks.Client) (*UserService, error) {
	return NewUserService(users, client, cfg.Sync.MaxTasks)
}

func newSyncService(users storage.UserStore, source *notion.Source, pusher *batch.Pusher) (*SyncService, error) {
	return NewSyncService(users, source, pusher)
}

// Module provides the user and sync services
var Module = fx.Module("service",
	fx.Provide(
		newUserService,
		newSyncService,
	),
)
