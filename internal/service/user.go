package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/middleware"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/brizzai/notion-tasks-sync/internal/storage"
	"go.uber.org/zap"
)

type UserService struct {
	users    storage.UserStore
	lists    TaskLists
	maxTasks int
	now      clock
}

func NewUserService(users storage.UserStore, lists TaskLists, maxTasks int) (*UserService, error) {
	if users == nil || lists == nil {
		return nil, errors.New("user store and task list client are required")
	}
	return &UserService{users: users, lists: lists, maxTasks: maxTasks, now: time.Now}, nil
}

// Current returns the caller's record, creating it on first use. A user with
// exactly one task list and no selection gets that list selected.
func (s *UserService) Current(ctx context.Context, auth *middleware.AuthInfo) (*models.UserRecord, error) {
	rec, err := s.load(ctx, auth)
	if err != nil {
		return nil, err
	}
	if rec.TasksListID != "" {
		return rec, nil
	}

	lists, err := s.lists.ListTaskLists(ctx, auth.AccessToken)
	if err != nil {
		// the record is still useful without a selection
		logger.Warn("Could not list task lists for auto-selection",
			zap.String("user_id", auth.UserID), zap.Error(err))
		return rec, nil
	}
	if len(lists) != 1 {
		return rec, nil
	}

	rec.TasksListID = lists[0].ID
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	logger.Info("Selected only task list", zap.String("user_id", auth.UserID), zap.String("list_id", rec.TasksListID))
	return rec, nil
}

func (s *UserService) TaskLists(ctx context.Context, auth *middleware.AuthInfo) ([]models.TaskList, error) {
	return s.lists.ListTaskLists(ctx, auth.AccessToken)
}

// SelectTaskList stores listID as the push target after checking the user owns it.
func (s *UserService) SelectTaskList(ctx context.Context, auth *middleware.AuthInfo, listID string) (*models.UserRecord, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "task list id is required")
	}

	lists, err := s.lists.ListTaskLists(ctx, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	found := false
	for _, l := range lists {
		if l.ID == listID {
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.New(apperr.KindNotFound, 0, "task list not found")
	}

	rec, err := s.load(ctx, auth)
	if err != nil {
		return nil, err
	}
	rec.TasksListID = listID
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *UserService) LinkDatabase(ctx context.Context, auth *middleware.AuthInfo, databaseID string) (*models.UserRecord, error) {
	databaseID = strings.TrimSpace(databaseID)
	if databaseID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "database id is required")
	}

	rec, err := s.load(ctx, auth)
	if err != nil {
		return nil, err
	}
	rec.DatabaseID = databaseID
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// OpenTasks lists the open tasks of the selected list, bounded by max_tasks.
func (s *UserService) OpenTasks(ctx context.Context, auth *middleware.AuthInfo) ([]models.DestinationTask, error) {
	rec, err := s.load(ctx, auth)
	if err != nil {
		return nil, err
	}
	if rec.TasksListID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "no task list selected")
	}
	return s.lists.ListOpenTasks(ctx, auth.AccessToken, rec.TasksListID, s.maxTasks)
}

func (s *UserService) load(ctx context.Context, auth *middleware.AuthInfo) (*models.UserRecord, error) {
	if auth == nil || auth.UserID == "" {
		return nil, apperr.New(apperr.KindInvalidSession, 0, "missing user identity")
	}
	rec, err := s.users.GetUser(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &models.UserRecord{ID: auth.UserID, Email: auth.Email}
		if err := s.save(ctx, rec); err != nil {
			return nil, err
		}
		logger.Info("Created user record", zap.String("user_id", auth.UserID))
		return rec, nil
	}
	if auth.Email != "" && rec.Email != auth.Email {
		rec.Email = auth.Email
	}
	return rec, nil
}

func (s *UserService) save(ctx context.Context, rec *models.UserRecord) error {
	rec.UpdatedAt = s.now().UTC()
	return s.users.SaveUser(ctx, rec)
}
