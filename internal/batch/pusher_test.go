package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/apperr"
	"github.com/brizzai/notion-tasks-sync/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	task models.DestinationTask
	at   time.Time
}

// fakeCreator records every dispatch and answers with "g-<title>".
type fakeCreator struct {
	mu    sync.Mutex
	calls []call
	fn    func(task models.DestinationTask) error
}

func (f *fakeCreator) CreateTask(ctx context.Context, accessToken, listID string, task models.DestinationTask) (*models.DestinationTask, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{task: task, at: time.Now()})
	f.mu.Unlock()

	if f.fn != nil {
		if err := f.fn(task); err != nil {
			return nil, err
		}
	}
	return &models.DestinationTask{ID: "g-" + task.Title, Title: task.Title, Status: task.Status, Due: task.Due}, nil
}

func (f *fakeCreator) dispatchTimes() map[string]time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Time, len(f.calls))
	for _, c := range f.calls {
		out[c.task.Title] = c.at
	}
	return out
}

func sourceTasks(n int) []models.SourceTask {
	out := make([]models.SourceTask, n)
	for i := range out {
		out[i] = models.SourceTask{ID: fmt.Sprintf("s%d", i), Title: fmt.Sprintf("t%d", i), Status: "Not started"}
	}
	return out
}

func TestPusher_CohortSchedule(t *testing.T) {
	const interval = 100 * time.Millisecond
	creator := &fakeCreator{}
	p, err := NewPusher(creator, 2, interval)
	require.NoError(t, err)

	before := time.Now()
	report, err := p.Push(context.Background(), sourceTasks(5), "L1", "at")
	require.NoError(t, err)

	require.Len(t, report.Mappings, 5)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 5, report.Total)
	for i, m := range report.Mappings {
		assert.Equal(t, fmt.Sprintf("s%d", i), m.SourceID)
		assert.Equal(t, fmt.Sprintf("g-t%d", i), m.DestinationID)
	}

	times := creator.dispatchTimes()
	require.Len(t, times, 5)
	for i := 0; i < 5; i++ {
		cohort := i / 2
		elapsed := times[fmt.Sprintf("t%d", i)].Sub(before)
		assert.GreaterOrEqual(t, elapsed, time.Duration(cohort)*interval, "item %d dispatched early", i)
		assert.Less(t, elapsed, time.Duration(cohort+1)*interval, "item %d dispatched in a later slot", i)
	}
}

func TestPusher_CohortRunsConcurrently(t *testing.T) {
	const quota = 3
	var arrived sync.WaitGroup
	arrived.Add(quota)

	creator := &fakeCreator{fn: func(models.DestinationTask) error {
		arrived.Done()
		done := make(chan struct{})
		go func() { arrived.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("cohort members were not in flight together")
		}
	}}
	p, err := NewPusher(creator, quota, time.Second)
	require.NoError(t, err)

	report, err := p.Push(context.Background(), sourceTasks(quota), "L1", "at")
	require.NoError(t, err)
	assert.Len(t, report.Mappings, quota)
	assert.Empty(t, report.Failures)
}

func TestPusher_NextCohortDoesNotWaitForResponses(t *testing.T) {
	const interval = 50 * time.Millisecond
	release := make(chan struct{})
	creator := &fakeCreator{fn: func(task models.DestinationTask) error {
		if task.Title == "t0" {
			<-release
		}
		return nil
	}}
	p, err := NewPusher(creator, 1, interval)
	require.NoError(t, err)

	done := make(chan *Report, 1)
	go func() {
		r, _ := p.Push(context.Background(), sourceTasks(3), "L1", "at")
		done <- r
	}()

	// t1 and t2 get dispatched while t0 is still blocked
	require.Eventually(t, func() bool {
		return len(creator.dispatchTimes()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	close(release)

	report := <-done
	assert.Len(t, report.Mappings, 3)
}

func TestPusher_IsolatesFailures(t *testing.T) {
	creator := &fakeCreator{fn: func(task models.DestinationTask) error {
		if task.Title == "t4" {
			return apperr.New(apperr.KindItemCreationFailed, http.StatusBadRequest, "failed to create task")
		}
		return nil
	}}
	p, err := NewPusher(creator, 3, 10*time.Millisecond)
	require.NoError(t, err)

	report, err := p.Push(context.Background(), sourceTasks(10), "L1", "at")
	require.NoError(t, err)

	assert.Len(t, report.Mappings, 9)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 4, report.Failures[0].Index)
	assert.Equal(t, "s4", report.Failures[0].SourceID)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(report.Failures[0].Err))
	for _, m := range report.Mappings {
		assert.NotEqual(t, "s4", m.SourceID)
	}
	assert.Len(t, creator.dispatchTimes(), 10)
}

func TestPusher_RecoversPanickingItem(t *testing.T) {
	creator := &fakeCreator{fn: func(task models.DestinationTask) error {
		if task.Title == "t1" {
			panic("boom")
		}
		return nil
	}}
	p, err := NewPusher(creator, 2, 10*time.Millisecond)
	require.NoError(t, err)

	report, err := p.Push(context.Background(), sourceTasks(3), "L1", "at")
	require.NoError(t, err)
	assert.Len(t, report.Mappings, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, apperr.KindItemCreationFailed, apperr.KindOf(report.Failures[0].Err))
}

func TestPusher_ContextCancelled(t *testing.T) {
	creator := &fakeCreator{}
	p, err := NewPusher(creator, 2, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := p.Push(ctx, sourceTasks(5), "L1", "at")
	require.NoError(t, err)

	assert.Len(t, report.Mappings, 2)
	require.Len(t, report.Failures, 3)
	for i, f := range report.Failures {
		assert.Equal(t, i+2, f.Index)
		assert.ErrorIs(t, f.Err, context.DeadlineExceeded)
	}
	assert.Equal(t, 5, len(report.Mappings)+len(report.Failures))
}

func TestPusher_EmptyAndInvalid(t *testing.T) {
	p, err := NewPusher(&fakeCreator{}, 3, time.Second)
	require.NoError(t, err)

	report, err := p.Push(context.Background(), nil, "L1", "at")
	require.NoError(t, err)
	assert.Empty(t, report.Mappings)
	assert.Zero(t, report.Total)

	_, err = p.Push(context.Background(), sourceTasks(1), "", "at")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = NewPusher(&fakeCreator{}, 0, time.Second)
	assert.Error(t, err)
	_, err = NewPusher(&fakeCreator{}, 1, 0)
	assert.Error(t, err)
}

func TestToDestination(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dueLocal := time.Date(2024, 3, 10, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		src  models.SourceTask
		want models.DestinationTask
	}{
		{
			name: "done with due date",
			src:  models.SourceTask{ID: "s1", Title: "File taxes", Status: "Done", DueDate: &due},
			want: models.DestinationTask{Title: "File taxes", Due: "2024-01-01T00:00:00.000Z", Status: "completed"},
		},
		{
			name: "in progress without due date",
			src:  models.SourceTask{ID: "s2", Title: "Draft", Status: "In progress"},
			want: models.DestinationTask{Title: "Draft", Status: "needsAction"},
		},
		{
			name: "status match is exact",
			src:  models.SourceTask{ID: "s3", Title: "Almost", Status: "done"},
			want: models.DestinationTask{Title: "Almost", Status: "needsAction"},
		},
		{
			name: "due converted to UTC",
			src:  models.SourceTask{ID: "s4", Title: "Call", Status: "Not started", DueDate: &dueLocal},
			want: models.DestinationTask{Title: "Call", Due: "2024-03-10T08:30:00.000Z", Status: "needsAction"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ToDestination(tt.src)); diff != "" {
				t.Errorf("ToDestination() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestItemFailure_JSON(t *testing.T) {
	f := ItemFailure{
		Index:    2,
		SourceID: "s2",
		Err:      apperr.New(apperr.KindItemCreationFailed, http.StatusTooManyRequests, "failed to create task"),
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"index": 2,
		"sourceId": "s2",
		"kind": "item_creation_failed",
		"status": 429,
		"error": "failed to create task (status 429)"
	}`, string(data))
}
