package batch

import (
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/tasks"
	"go.uber.org/fx"
)

func newPusher(cfg *config.Config, client *tasks.Client) (*Pusher, error) {
	return NewPusher(client, cfg.Sync.RateLimit, cfg.Sync.Interval)
}

// Module provides the rate limited pusher
var Module = fx.Module("batch",
	fx.Provide(newPusher),
)
