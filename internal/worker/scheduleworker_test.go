package worker

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

type fakeScheduleStore struct {
	due     []domain.Schedule
	markErr error

	marked     []int64
	markedRuns []time.Time
	markedNext []time.Time
}

func (f *fakeScheduleStore) ListDue(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	return f.due, nil
}

func (f *fakeScheduleStore) MarkRun(ctx context.Context, id int64, ranAt, nextRunAt time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	f.markedRuns = append(f.markedRuns, ranAt)
	f.markedNext = append(f.markedNext, nextRunAt)
	return nil
}

type createdJob struct {
	jobType           string
	filters           domain.Filters
	requesterID       int64
	notificationEmail *string
	scheduleID        *int64
}

type fakeJobCreator struct {
	err     error
	created []createdJob
}

func (f *fakeJobCreator) Create(ctx context.Context, jobType string, filters domain.Filters, requesterID int64, notificationEmail *string, scheduleID *int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, createdJob{
		jobType:           jobType,
		filters:           filters,
		requesterID:       requesterID,
		notificationEmail: notificationEmail,
		scheduleID:        scheduleID,
	})
	return int64(len(f.created)), nil
}

// 2025-03-12 is a Wednesday.
var tickTime = time.Date(2025, 3, 12, 6, 0, 0, 0, time.UTC)

func dueSchedule(id int64) domain.Schedule {
	return domain.Schedule{
		ID:             id,
		Name:           "weekly marketing",
		JobType:        domain.JobTypeMarketing,
		FrequencyType:  domain.FrequencyWeekly,
		FrequencyValue: 3,
		NextRunAt:      tickTime.Add(-time.Hour),
		IsActive:       true,
		CreatedBy:      11,
	}
}

func newScheduleTestWorker(schedules *fakeScheduleStore, jobs JobCreator) *ScheduleWorker {
	w := NewScheduleWorker(schedules, jobs, nil, testLogger())
	w.now = func() time.Time { return tickTime }
	return w
}

func TestScheduleWorker_Tick_FiresDueSchedule(t *testing.T) {
	schedules := &fakeScheduleStore{due: []domain.Schedule{dueSchedule(1)}}
	jobs := &fakeJobCreator{}

	w := newScheduleTestWorker(schedules, jobs)
	require.NoError(t, w.Tick(context.Background()))

	require.Len(t, jobs.created, 1)
	created := jobs.created[0]

	assert.Equal(t, domain.JobTypeMarketing, created.jobType)
	assert.Equal(t, int64(11), created.requesterID)
	require.NotNil(t, created.scheduleID)
	assert.Equal(t, int64(1), *created.scheduleID)

	// Weekly firing covers the prior seven days ending yesterday.
	assert.Equal(t, "2025-03-05", created.filters[domain.FilterStartDate])
	assert.Equal(t, "2025-03-11", created.filters[domain.FilterEndDate])

	// The schedule advances to the next Wednesday.
	require.Len(t, schedules.marked, 1)
	assert.Equal(t, tickTime, schedules.markedRuns[0])
	assert.Equal(t, time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC), schedules.markedNext[0])
}

func TestScheduleWorker_Tick_PeriodOverridesStoredFilters(t *testing.T) {
	s := dueSchedule(1)
	s.Filters = domain.Filters{
		domain.FilterStartDate: "2020-01-01",
		"category":             "books",
	}

	schedules := &fakeScheduleStore{due: []domain.Schedule{s}}
	jobs := &fakeJobCreator{}

	w := newScheduleTestWorker(schedules, jobs)
	require.NoError(t, w.Tick(context.Background()))

	require.Len(t, jobs.created, 1)
	filters := jobs.created[0].filters
	// The computed period wins over the stored dates; other keys survive.
	assert.Equal(t, "2025-03-05", filters[domain.FilterStartDate])
	assert.Equal(t, "books", filters["category"])
}

func TestScheduleWorker_Tick_CustomScheduleCarriesTemplate(t *testing.T) {
	templateID := int64(9)
	s := dueSchedule(1)
	s.JobType = domain.JobTypeCustom
	s.TemplateID = &templateID

	schedules := &fakeScheduleStore{due: []domain.Schedule{s}}
	jobs := &fakeJobCreator{}

	w := newScheduleTestWorker(schedules, jobs)
	require.NoError(t, w.Tick(context.Background()))

	require.Len(t, jobs.created, 1)
	assert.Equal(t, strconv.FormatInt(templateID, 10), jobs.created[0].filters[domain.FilterTemplateID])
}

func TestScheduleWorker_Tick_CreateFailureLeavesScheduleDue(t *testing.T) {
	schedules := &fakeScheduleStore{due: []domain.Schedule{dueSchedule(1)}}
	jobs := &fakeJobCreator{err: errors.New("insert failed")}

	w := newScheduleTestWorker(schedules, jobs)
	require.NoError(t, w.Tick(context.Background()))

	// next_run_at stays untouched, so the schedule fires again next tick.
	assert.Empty(t, schedules.marked)
}

func TestScheduleWorker_Tick_FailuresAreIsolatedPerSchedule(t *testing.T) {
	schedules := &fakeScheduleStore{due: []domain.Schedule{dueSchedule(1), dueSchedule(2)}}
	jobs := &fakeJobCreator{}

	// First Create fails, second succeeds.
	calls := 0
	failing := &flakyJobCreator{inner: jobs, failOn: 1, calls: &calls}

	w := newScheduleTestWorker(schedules, failing)
	require.NoError(t, w.Tick(context.Background()))

	require.Len(t, jobs.created, 1)
	require.Len(t, schedules.marked, 1)
	assert.Equal(t, int64(2), schedules.marked[0])
}

type flakyJobCreator struct {
	inner  *fakeJobCreator
	failOn int
	calls  *int
}

func (f *flakyJobCreator) Create(ctx context.Context, jobType string, filters domain.Filters, requesterID int64, notificationEmail *string, scheduleID *int64) (int64, error) {
	*f.calls++
	if *f.calls == f.failOn {
		return 0, errors.New("transient insert failure")
	}
	return f.inner.Create(ctx, jobType, filters, requesterID, notificationEmail, scheduleID)
}
