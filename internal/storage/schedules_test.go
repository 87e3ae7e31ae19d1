package storage

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

var scheduleTestColumns = []string{
	"id", "name", "job_type", "template_id", "frequency_type", "frequency_value",
	"start_date", "next_run_at", "last_run_at", "notification_email", "filters",
	"is_active", "created_by", "created_at", "updated_at",
}

func newMockSchedules(t *testing.T) (*Schedules, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSchedules(sqlx.NewDb(db, "sqlmock"), logger), mock
}

func TestSchedulesCreateComputesNextRun(t *testing.T) {
	repo, mock := newMockSchedules(t)
	repo.now = func() time.Time {
		return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) // Wednesday
	}

	s := &domain.Schedule{
		Name:           "Weekly marketing",
		JobType:        domain.JobTypeMarketing,
		FrequencyType:  domain.FrequencyWeekly,
		FrequencyValue: 5, // Friday
		StartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
		CreatedBy:      11,
	}

	wantNext := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertSchedule)).
		WithArgs(
			s.Name, s.JobType, nil, s.FrequencyType, s.FrequencyValue,
			s.StartDate, wantNext, nil, nil, true, int64(11),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, err := repo.Create(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, wantNext, s.NextRunAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesCreateFutureStartUsedVerbatim(t *testing.T) {
	repo, mock := newMockSchedules(t)
	repo.now = func() time.Time {
		return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	}

	s := &domain.Schedule{
		Name:           "Next month",
		JobType:        domain.JobTypeAnalytics,
		FrequencyType:  domain.FrequencyDaily,
		FrequencyValue: 1,
		StartDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
		CreatedBy:      11,
	}

	mock.ExpectQuery(regexp.QuoteMeta(queryInsertSchedule)).
		WithArgs(
			s.Name, s.JobType, nil, s.FrequencyType, s.FrequencyValue,
			s.StartDate, s.StartDate, nil, nil, true, int64(11),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	_, err := repo.Create(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, s.StartDate, s.NextRunAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesCreateRejectsInvalid(t *testing.T) {
	repo, mock := newMockSchedules(t)

	s := &domain.Schedule{
		Name:           "Bad weekday",
		JobType:        domain.JobTypeMarketing,
		FrequencyType:  domain.FrequencyWeekly,
		FrequencyValue: 8,
		StartDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:      11,
	}

	_, err := repo.Create(context.Background(), s)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesGetNotFound(t *testing.T) {
	repo, mock := newMockSchedules(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetSchedule)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesListDue(t *testing.T) {
	repo, mock := newMockSchedules(t)

	now := time.Date(2025, 3, 12, 6, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryListDueSchedules)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(scheduleTestColumns).AddRow(
			int64(1), "Weekly marketing", domain.JobTypeMarketing, nil,
			domain.FrequencyWeekly, 3, start, now.Add(-time.Hour), nil,
			nil, []byte(`{}`), true, int64(11), start, start,
		))

	due, err := repo.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Weekly marketing", due[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesMarkRun(t *testing.T) {
	repo, mock := newMockSchedules(t)

	ranAt := time.Date(2025, 3, 12, 6, 0, 0, 0, time.UTC)
	next := time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(queryMarkScheduleRun)).
		WithArgs(ranAt, next, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRun(context.Background(), 1, ranAt, next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesUpdateRecomputesOnRecurrenceChange(t *testing.T) {
	repo, mock := newMockSchedules(t)
	repo.now = func() time.Time {
		return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC) // Wednesday
	}

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	existingNext := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryGetSchedule)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(scheduleTestColumns).AddRow(
			int64(1), "Weekly marketing", domain.JobTypeMarketing, nil,
			domain.FrequencyWeekly, 5, start, existingNext, nil,
			nil, []byte(`{}`), true, int64(11), start, start,
		))

	updated := &domain.Schedule{
		Name:           "Weekly marketing",
		JobType:        domain.JobTypeMarketing,
		FrequencyType:  domain.FrequencyWeekly,
		FrequencyValue: 1, // moved to Monday
		StartDate:      start,
		IsActive:       true,
		CreatedBy:      11,
	}

	wantNext := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(queryUpdateSchedule)).
		WithArgs(
			updated.Name, updated.JobType, nil, updated.FrequencyType, updated.FrequencyValue,
			start, wantNext, nil, nil, true, int64(1),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 1, updated))
	assert.Equal(t, wantNext, updated.NextRunAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesUpdateKeepsNextRunWhenRecurrenceUnchanged(t *testing.T) {
	repo, mock := newMockSchedules(t)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	existingNext := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryGetSchedule)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(scheduleTestColumns).AddRow(
			int64(1), "Weekly marketing", domain.JobTypeMarketing, nil,
			domain.FrequencyWeekly, 5, start, existingNext, nil,
			nil, []byte(`{}`), true, int64(11), start, start,
		))

	updated := &domain.Schedule{
		Name:           "Weekly marketing (renamed)",
		JobType:        domain.JobTypeMarketing,
		FrequencyType:  domain.FrequencyWeekly,
		FrequencyValue: 5,
		StartDate:      start,
		IsActive:       true,
		CreatedBy:      11,
	}

	mock.ExpectExec(regexp.QuoteMeta(queryUpdateSchedule)).
		WithArgs(
			updated.Name, updated.JobType, nil, updated.FrequencyType, updated.FrequencyValue,
			start, existingNext, nil, nil, true, int64(1),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 1, updated))
	assert.Equal(t, existingNext, updated.NextRunAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulesToggleActive(t *testing.T) {
	repo, mock := newMockSchedules(t)

	mock.ExpectExec(regexp.QuoteMeta(queryToggleSchedule)).
		WithArgs(false, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ToggleActive(context.Background(), 1, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
