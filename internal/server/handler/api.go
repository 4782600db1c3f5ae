package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/middleware"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/brizzai/notion-tasks-sync/internal/service"
	"github.com/brizzai/notion-tasks-sync/internal/utils"
)

const maxBodyBytes = 1 << 20

// UserOperations is the user record side of the API.
type UserOperations interface {
	Current(ctx context.Context, auth *middleware.AuthInfo) (*models.UserRecord, error)
	TaskLists(ctx context.Context, auth *middleware.AuthInfo) ([]models.TaskList, error)
	SelectTaskList(ctx context.Context, auth *middleware.AuthInfo, listID string) (*models.UserRecord, error)
	LinkDatabase(ctx context.Context, auth *middleware.AuthInfo, databaseID string) (*models.UserRecord, error)
	OpenTasks(ctx context.Context, auth *middleware.AuthInfo) ([]models.DestinationTask, error)
}

// SyncRunner runs a push for the caller.
type SyncRunner interface {
	Run(ctx context.Context, auth *middleware.AuthInfo) (*service.SyncReport, error)
}

// API serves the session protected /api routes.
type API struct {
	users  UserOperations
	syncer SyncRunner
}

func NewAPI(users UserOperations, syncer SyncRunner) *API {
	return &API{users: users, syncer: syncer}
}

// Register adds the API routes to mux. Callers wrap mux with the session check.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/user", a.withAuth(a.handleGetUser))
	mux.HandleFunc("PUT /api/user/database", a.withAuth(a.handleLinkDatabase))
	mux.HandleFunc("GET /api/tasklists", a.withAuth(a.handleListTaskLists))
	mux.HandleFunc("PUT /api/tasklists", a.withAuth(a.handleSelectTaskList))
	mux.HandleFunc("GET /api/tasks", a.withAuth(a.handleOpenTasks))
	mux.HandleFunc("POST /api/sync", a.withAuth(a.handleSync))
}

type authedHandler func(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo)

func (a *API) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, ok := middleware.FromContext(r.Context())
		if !ok {
			utils.WriteError(w, "unauthorized", "Authentication required", http.StatusUnauthorized)
			return
		}
		next(w, r, info)
	}
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo) {
	rec, err := a.users.Current(r.Context(), info)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, rec)
}

type linkDatabaseRequest struct {
	DatabaseID string `json:"databaseId"`
}

func (a *API) handleLinkDatabase(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo) {
	var req linkDatabaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	rec, err := a.users.LinkDatabase(r.Context(), info, req.DatabaseID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, rec)
}

func (a *API) handleListTaskLists(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo) {
	lists, err := a.users.TaskLists(r.Context(), info)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, map[string]any{"items": lists})
}

type selectTaskListRequest struct {
	ID string `json:"id"`
}

func (a *API) handleSelectTaskList(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo) {
	var req selectTaskListRequest
	if err := decodeBody(w, r, &req); err != nil {
		utils.WriteAppError(w, err)
		return
	}
	rec, err := a.users.SelectTaskList(r.Context(), info, req.ID)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, rec)
}

func (a *API) handleOpenTasks(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo) {
	items, err := a.users.OpenTasks(r.Context(), info)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, map[string]any{"items": items})
}

// handleSync answers 200 whenever the push ran, item failures are in the body.
func (a *API) handleSync(w http.ResponseWriter, r *http.Request, info *middleware.AuthInfo) {
	report, err := a.syncer.Run(r.Context(), info)
	if err != nil {
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, report)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, 0, err, "invalid request body")
	}
	return nil
}
