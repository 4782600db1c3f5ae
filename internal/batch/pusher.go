// Package batch pushes source tasks into a Google Tasks list without
// exceeding the per-interval creation quota.
//
// Items are split into cohorts of quota size. Cohort g is dispatched no
// earlier than g intervals after the push started, and all items of a cohort
// run concurrently. Dispatch of a cohort does not wait for the previous
// cohort's responses. A failing item is recorded and never cancels its
// siblings.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// DueLayout is the instant format Google Tasks accepts for due dates.
const DueLayout = "2006-01-02T15:04:05.000Z"

// TaskCreator creates one task in a destination list.
type TaskCreator interface {
	CreateTask(ctx context.Context, accessToken, listID string, task models.DestinationTask) (*models.DestinationTask, error)
}

// ItemFailure reports a source task that could not be created.
type ItemFailure struct {
	Index    int
	SourceID string
	Err      error
}

func (f ItemFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Index    int    `json:"index"`
		SourceID string `json:"sourceId"`
		Kind     string `json:"kind"`
		Status   int    `json:"status,omitempty"`
		Error    string `json:"error"`
	}{
		Index:    f.Index,
		SourceID: f.SourceID,
		Kind:     apperr.KindOf(f.Err).String(),
		Status:   apperr.StatusOf(f.Err),
		Error:    msg,
	})
}

// Report is the outcome of a push. Mappings and Failures are in source order
// and together account for every input item.
type Report struct {
	Mappings []models.IDMapping `json:"mappings"`
	Failures []ItemFailure      `json:"failures"`
	Total    int                `json:"total"`
}

type Pusher struct {
	creator  TaskCreator
	quota    int
	interval time.Duration
}

func NewPusher(creator TaskCreator, quota int, interval time.Duration) (*Pusher, error) {
	if creator == nil {
		return nil, errors.New("task creator is required")
	}
	if quota < 1 {
		return nil, fmt.Errorf("quota must be at least 1, got %d", quota)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	return &Pusher{creator: creator, quota: quota, interval: interval}, nil
}

type outcome struct {
	destinationID string
	err           error
}

// Push creates every task in listID. Pushing the same tasks twice creates
// duplicates. The returned error is only set for unusable arguments; item
// failures, including items never dispatched because ctx ended, are in the
// report.
func (p *Pusher) Push(ctx context.Context, source []models.SourceTask, listID, accessToken string) (*Report, error) {
	if listID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, 0, "destination list id is required")
	}

	start := time.Now()
	results := make([]outcome, len(source))
	cohorts := (len(source) + p.quota - 1) / p.quota

	var wg conc.WaitGroup
	for g := 0; g < cohorts; g++ {
		lo := g * p.quota
		hi := min(lo+p.quota, len(source))

		if err := sleepUntil(ctx, start.Add(time.Duration(g)*p.interval)); err != nil {
			for i := lo; i < len(source); i++ {
				results[i].err = apperr.Wrap(apperr.KindItemCreationFailed, 0, err, "task not dispatched")
			}
			logger.Warn("Push interrupted",
				zap.Int("cohort", g),
				zap.Int("undispatched", len(source)-lo),
				zap.Error(err),
			)
			break
		}

		for i := lo; i < hi; i++ {
			wg.Go(func() {
				results[i] = p.createOne(ctx, source[i], listID, accessToken)
			})
		}
	}
	wg.Wait()

	report := &Report{
		Mappings: make([]models.IDMapping, 0, len(source)),
		Failures: []ItemFailure{},
		Total:    len(source),
	}
	for i, r := range results {
		if r.err != nil {
			report.Failures = append(report.Failures, ItemFailure{Index: i, SourceID: source[i].ID, Err: r.err})
			continue
		}
		report.Mappings = append(report.Mappings, models.IDMapping{DestinationID: r.destinationID, SourceID: source[i].ID})
	}

	logger.Info("Push finished",
		zap.String("list_id", listID),
		zap.Int("total", report.Total),
		zap.Int("created", len(report.Mappings)),
		zap.Int("failed", len(report.Failures)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// createOne runs a single creation. A panicking creator only fails its own item.
func (p *Pusher) createOne(ctx context.Context, src models.SourceTask, listID, accessToken string) outcome {
	var (
		res     outcome
		catcher panics.Catcher
	)
	catcher.Try(func() {
		created, err := p.creator.CreateTask(ctx, accessToken, listID, ToDestination(src))
		switch {
		case err != nil:
			res.err = asItemError(err)
		case created == nil || created.ID == "":
			res.err = apperr.New(apperr.KindItemCreationFailed, 0, "created task has no id")
		default:
			res.destinationID = created.ID
		}
	})
	if r := catcher.Recovered(); r != nil {
		res = outcome{err: apperr.Wrap(apperr.KindItemCreationFailed, 0, r.AsError(), "task creation panicked")}
	}
	if res.err != nil {
		logger.Warn("Failed to create task", zap.String("source_id", src.ID), zap.Error(res.err))
	}
	return res
}

func asItemError(err error) error {
	if apperr.KindOf(err) == apperr.KindItemCreationFailed {
		return err
	}
	return apperr.Wrap(apperr.KindItemCreationFailed, apperr.StatusOf(err), err, "failed to create task")
}

// ToDestination maps a source task to the body of a create call.
func ToDestination(src models.SourceTask) models.DestinationTask {
	dst := models.DestinationTask{
		Title:  src.Title,
		Status: models.StatusNeedsAction,
	}
	if src.Status == models.SourceStatusDone {
		dst.Status = models.StatusCompleted
	}
	if src.DueDate != nil {
		dst.Due = src.DueDate.UTC().Format(DueLayout)
	}
	return dst
}

// sleepUntil blocks until at or until ctx ends, whichever comes first.
func sleepUntil(ctx context.Context, at time.Time) error {
	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
