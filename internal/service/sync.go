package service

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/middleware"
	"github.com/brizzai/notion-tasks-sync/internal/batch"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/brizzai/notion-tasks-sync/internal/storage"
	"go.uber.org/zap"
)

// SyncReport is what a sync run returns to the caller.
type SyncReport struct {
	Mappings     []models.IDMapping  `json:"mappings"`
	Failures     []batch.ItemFailure `json:"failures"`
	Total        int                 `json:"total"`
	LastSyncedAt *time.Time          `json:"lastSynced,omitempty"`
}

type SyncService struct {
	users  storage.UserStore
	source TaskSource
	pusher TaskPusher
	now    clock
}

func NewSyncService(users storage.UserStore, source TaskSource, pusher TaskPusher) (*SyncService, error) {
	if users == nil || source == nil || pusher == nil {
		return nil, errors.New("user store, task source and pusher are required")
	}
	return &SyncService{users: users, source: source, pusher: pusher, now: time.Now}, nil
}

// Run pushes every task of the linked Notion database into the selected
// Google task list. Item failures are part of the report; the error is set
// only when nothing could be attempted.
func (s *SyncService) Run(ctx context.Context, auth *middleware.AuthInfo) (*SyncReport, error) {
	if auth == nil || auth.UserID == "" {
		return nil, apperr.New(apperr.KindInvalidSession, 0, "missing user identity")
	}
	rec, err := s.users.GetUser(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	if !rec.Linked() {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "select a task list and link a Notion database first")
	}

	log := logger.With(zap.String("user_id", rec.ID), zap.String("list_id", rec.TasksListID))

	source, err := s.source.Tasks(ctx, rec.DatabaseID)
	if err != nil {
		return nil, err
	}
	log.Debug("Read source tasks", zap.Int("count", len(source)))

	report, err := s.pusher.Push(ctx, source, rec.TasksListID, auth.AccessToken)
	if err != nil {
		return nil, err
	}

	out := &SyncReport{
		Mappings: report.Mappings,
		Failures: report.Failures,
		Total:    report.Total,
	}
	log.Info("Sync finished",
		zap.Int("total", report.Total),
		zap.Int("created", len(report.Mappings)),
		zap.Int("failed", len(report.Failures)))

	if len(report.Mappings) == 0 {
		return out, nil
	}

	now := s.now().UTC()
	rec.LastSyncedAt = &now
	rec.UpdatedAt = now
	if err := s.users.SaveUser(ctx, rec); err != nil {
		// tasks were created already; report them even if the timestamp is lost
		log.Error("Failed to record sync time", zap.Error(err))
		return out, nil
	}
	out.LastSyncedAt = &now
	return out, nil
}
