// Package tasks talks to the Google Tasks API on behalf of a signed-in user.
package tasks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/auth/constants"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gtasks "google.golang.org/api/tasks/v1"
)

// MaxPageSize is the largest page the list endpoints accept.
const MaxPageSize = 100

// Client builds a short-lived Tasks service per call, authorised with the
// caller's access token.
type Client struct {
	endpoint string
	base     *http.Client
}

func NewClient(cfg *config.GoogleConfig) *Client {
	return &Client{endpoint: cfg.TasksEndpoint}
}

// WithHTTPClient sets the transport used underneath the bearer token.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.base = hc
	return c
}

func (c *Client) service(ctx context.Context, accessToken string) (*gtasks.Service, error) {
	if c.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   constants.TokenType,
	}))

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := gtasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return svc, nil
}

// ListTaskLists returns the user's task lists.
func (c *Client) ListTaskLists(ctx context.Context, accessToken string) ([]models.TaskList, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var lists []models.TaskList
	pageToken := ""
	for {
		call := svc.Tasklists.List().MaxResults(MaxPageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, wrapAPIError(apperr.KindFetchFailed, err, "failed to list task lists")
		}
		for _, l := range resp.Items {
			lists = append(lists, models.TaskList{ID: l.Id, Title: l.Title})
		}
		if resp.NextPageToken == "" {
			return lists, nil
		}
		pageToken = resp.NextPageToken
	}
}

// ListOpenTasks reads one page of incomplete tasks from listID. maxResults is
// clamped to MaxPageSize.
func (c *Client) ListOpenTasks(ctx context.Context, accessToken, listID string, maxResults int) ([]models.DestinationTask, error) {
	if listID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "task list id is required")
	}
	if maxResults <= 0 || maxResults > MaxPageSize {
		maxResults = MaxPageSize
	}

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Tasks.List(listID).
		MaxResults(int64(maxResults)).
		ShowCompleted(false).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(apperr.KindFetchFailed, err, "failed to list tasks")
	}

	out := make([]models.DestinationTask, 0, len(resp.Items))
	for _, t := range resp.Items {
		out = append(out, fromAPI(t))
	}
	logger.Debug("Fetched open tasks", zap.String("list_id", listID), zap.Int("count", len(out)))
	return out, nil
}

// CreateTask inserts task into listID and returns it as stored by Google.
func (c *Client) CreateTask(ctx context.Context, accessToken, listID string, task models.DestinationTask) (*models.DestinationTask, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	created, err := svc.Tasks.Insert(listID, &gtasks.Task{
		Title:  task.Title,
		Due:    task.Due,
		Status: task.Status,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(apperr.KindItemCreationFailed, err, "failed to create task")
	}

	out := fromAPI(created)
	return &out, nil
}

func fromAPI(t *gtasks.Task) models.DestinationTask {
	return models.DestinationTask{
		ID:     t.Id,
		Title:  t.Title,
		Due:    t.Due,
		Status: t.Status,
	}
}
