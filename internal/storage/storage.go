// Package storage keeps the per-user sync settings: the chosen Google task
// list, the linked Notion database and the time of the last successful push.
package storage

import (
	"context"
	"fmt"

	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/models"
)

// UserStore persists user records. GetUser returns (nil, nil) for unknown users.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	SaveUser(ctx context.Context, rec *models.UserRecord) error
	Close() error
}

// New opens the backend selected in cfg.
func New(ctx context.Context, cfg *config.StorageConfig) (UserStore, error) {
	switch cfg.Backend {
	case config.StorageMemory, "":
		return NewMemoryStore(), nil
	case config.StorageRedis:
		return NewRedisStore(ctx, &cfg.Redis)
	case config.StorageS3:
		return NewS3Store(ctx, &cfg.S3)
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

func userKey(id string) string {
	return "user:" + id
}

func userObject(id string) string {
	return fmt.Sprintf("users/%s.json", id)
}
