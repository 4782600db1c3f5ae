// Package service holds the per-user operations behind the API: reading and
// updating the user record and running a sync.
package service

import (
	"context"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/batch"
	"github.com/brizzai/notion-tasks-sync/internal/models"
)

// TaskLists reads the Google side of a user's account.
type TaskLists interface {
	ListTaskLists(ctx context.Context, accessToken string) ([]models.TaskList, error)
	ListOpenTasks(ctx context.Context, accessToken, listID string, maxResults int) ([]models.DestinationTask, error)
}

// TaskSource reads the tasks to push.
type TaskSource interface {
	Tasks(ctx context.Context, databaseID string) ([]models.SourceTask, error)
}

// TaskPusher creates source tasks in a destination list.
type TaskPusher interface {
	Push(ctx context.Context, source []models.SourceTask, listID, accessToken string) (*batch.Report, error)
}

type clock func() time.Time
