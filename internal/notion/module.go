package notion

import (
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/requester"
	"go.uber.org/fx"
)

func newSource(cfg *config.Config, r *requester.HTTPRequester) (*Source, error) {
	return NewSourceWithClient(&cfg.Notion, r.Client())
}

// Module provides the Notion task source
var Module = fx.Module("notion",
	fx.Provide(newSource),
)
