package tasks

import (
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/requester"
	"go.uber.org/fx"
)

func newClient(cfg *config.Config, r *requester.HTTPRequester) *Client {
	return NewClient(&cfg.Google).WithHTTPClient(r.Client())
}

// Module provides the Google Tasks client
var Module = fx.Module("tasks",
	fx.Provide(newClient),
)
