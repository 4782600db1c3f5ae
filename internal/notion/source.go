// Package notion reads the tasks to push from a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

const queryPageSize = 100

// PropertyNames names the database columns a task is read from.
type PropertyNames struct {
	Title  string
	Due    string
	Status string
}

type Source struct {
	client  *notionapi.Client
	limiter *RateLimiter
	props   PropertyNames
}

func NewSource(cfg *config.NotionConfig) (*Source, error) {
	return NewSourceWithClient(cfg, nil)
}

// NewSourceWithClient reads through base. The client is copied, base itself
// is left untouched.
func NewSourceWithClient(cfg *config.NotionConfig, base *http.Client) (*Source, error) {
	hc := &http.Client{Timeout: 30 * time.Second}
	if base != nil {
		copied := *base
		hc = &copied
	}
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid notion endpoint %q", cfg.Endpoint)
		}
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		hc.Transport = &endpointTransport{target: u, next: next}
	}

	return &Source{
		client:  notionapi.NewClient(notionapi.Token(cfg.Token), notionapi.WithHTTPClient(hc)),
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		props: PropertyNames{
			Title:  cfg.TitleProperty,
			Due:    cfg.DueProperty,
			Status: cfg.StatusProperty,
		},
	}, nil
}

// Tasks returns every titled page of databaseID as a source task, in the
// order Notion returns them.
func (s *Source) Tasks(ctx context.Context, databaseID string) ([]models.SourceTask, error) {
	if databaseID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "notion database id is required")
	}

	var (
		out    []models.SourceTask
		cursor notionapi.Cursor
	)
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := s.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    queryPageSize,
		})
		if err != nil {
			return nil, s.queryError(err)
		}

		for _, page := range resp.Results {
			task, ok := s.toSourceTask(page)
			if !ok {
				continue
			}
			out = append(out, task)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	logger.Debug("Read notion tasks", zap.String("database_id", databaseID), zap.Int("count", len(out)))
	return out, nil
}

func (s *Source) toSourceTask(page notionapi.Page) (models.SourceTask, bool) {
	title := strings.TrimSpace(titleOf(page.Properties[s.props.Title]))
	if title == "" {
		return models.SourceTask{}, false
	}
	return models.SourceTask{
		ID:      string(page.ID),
		Title:   title,
		DueDate: dateOf(page.Properties[s.props.Due]),
		Status:  statusOf(page.Properties[s.props.Status]),
	}, true
}

func (s *Source) queryError(err error) error {
	var nerr *notionapi.Error
	if errors.As(err, &nerr) {
		if nerr.Status == http.StatusTooManyRequests {
			s.limiter.Backoff(0)
		}
		return apperr.New(apperr.KindFetchFailed, nerr.Status, "failed to query notion database: "+nerr.Message)
	}
	return apperr.Wrap(apperr.KindFetchFailed, 0, err, "failed to query notion database")
}

func titleOf(p notionapi.Property) string {
	var parts []notionapi.RichText
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		parts = v.Title
	case *notionapi.RichTextProperty:
		parts = v.RichText
	}
	var sb strings.Builder
	for _, rt := range parts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

// dateOf returns the start of a date property. Date-only values are midnight UTC.
func dateOf(p notionapi.Property) *time.Time {
	v, ok := p.(*notionapi.DateProperty)
	if !ok || v.Date == nil || v.Date.Start == nil {
		return nil
	}
	t := time.Time(*v.Date.Start)
	return &t
}

func statusOf(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.StatusProperty:
		return v.Status.Name
	case *notionapi.SelectProperty:
		return v.Select.Name
	case *notionapi.CheckboxProperty:
		if v.Checkbox {
			return models.SourceStatusDone
		}
	}
	return ""
}

// endpointTransport sends Notion API calls to a different host, e.g. a proxy.
type endpointTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t *endpointTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return t.next.RoundTrip(r)
}
