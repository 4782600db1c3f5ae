package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(&config.GoogleConfig{TasksEndpoint: srv.URL + "/"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListOpenTasks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "L1", r.PathValue("list"))
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("maxResults"))
		assert.Equal(t, "false", r.URL.Query().Get("showCompleted"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]string{
				{"id": "g1", "title": "Write report", "status": "needsAction", "due": "2024-01-01T00:00:00.000Z"},
				{"id": "g2", "title": "Call mom", "status": "needsAction"},
			},
		})
	})

	c := newTestClient(t, mux)
	got, err := c.ListOpenTasks(context.Background(), "at-1", "L1", 100)
	require.NoError(t, err)
	assert.Equal(t, []models.DestinationTask{
		{ID: "g1", Title: "Write report", Status: "needsAction", Due: "2024-01-01T00:00:00.000Z"},
		{ID: "g2", Title: "Call mom", Status: "needsAction"},
	}, got)
}

func TestClient_ListOpenTasks_ClampsPageSize(t *testing.T) {
	var gotMax string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxResults")
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": []interface{}{}})
	})

	c := newTestClient(t, mux)
	got, err := c.ListOpenTasks(context.Background(), "at", "L1", 5000)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "100", gotMax)
}

func TestClient_ListOpenTasks_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, wantStatus: http.StatusForbidden},
		{name: "missing list", status: http.StatusNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]interface{}{
					"error": map[string]interface{}{"code": tt.status, "message": "nope"},
				})
			})

			c := newTestClient(t, mux)
			got, err := c.ListOpenTasks(context.Background(), "at", "L1", 10)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, apperr.ErrFetchFailed)
			assert.Equal(t, tt.wantStatus, apperr.StatusOf(err))
		})
	}
}

func TestClient_ListOpenTasks_RequiresList(t *testing.T) {
	c := NewClient(&config.GoogleConfig{})
	_, err := c.ListOpenTasks(context.Background(), "at", "", 10)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestClient_CreateTask(t *testing.T) {
	var body map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "L1", r.PathValue("list"))
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]string{
			"id":     "g-new",
			"title":  "Ship it",
			"status": "completed",
			"due":    "2024-01-01T00:00:00.000Z",
		})
	})

	c := newTestClient(t, mux)
	got, err := c.CreateTask(context.Background(), "at-1", "L1", models.DestinationTask{
		Title:  "Ship it",
		Due:    "2024-01-01T00:00:00.000Z",
		Status: models.StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, "g-new", got.ID)
	assert.Equal(t, map[string]interface{}{
		"title":  "Ship it",
		"due":    "2024-01-01T00:00:00.000Z",
		"status": "completed",
	}, body)
}

func TestClient_CreateTask_OmitsMissingDue(t *testing.T) {
	var body map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]string{"id": "g1"})
	})

	c := newTestClient(t, mux)
	_, err := c.CreateTask(context.Background(), "at", "L1", models.DestinationTask{Title: "No date", Status: models.StatusNeedsAction})
	require.NoError(t, err)
	assert.NotContains(t, body, "due")
}

func TestClient_CreateTask_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]interface{}{"code": 400, "message": "Invalid value for due"},
		})
	})

	c := newTestClient(t, mux)
	_, err := c.CreateTask(context.Background(), "at", "L1", models.DestinationTask{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindItemCreationFailed, apperr.KindOf(err))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "Invalid value for due")
}

func TestClient_ListTaskLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"items":         []map[string]string{{"id": "L1", "title": "My Tasks"}},
				"nextPageToken": "p2",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"items": []map[string]string{{"id": "L2", "title": "Work"}},
		})
	})

	c := newTestClient(t, mux)
	got, err := c.ListTaskLists(context.Background(), "at")
	require.NoError(t, err)
	assert.Equal(t, []models.TaskList{{ID: "L1", Title: "My Tasks"}, {ID: "L2", Title: "Work"}}, got)
}
