package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
	"github.com/mkowalczyk/shop-exporter/internal/schedule"
)

// Schedules handles all database operations on export schedules.
type Schedules struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSchedules creates a new schedule repository.
func NewSchedules(db *sqlx.DB, logger *slog.Logger) *Schedules {
	return &Schedules{db: db, logger: logger, now: time.Now}
}

// Create validates and inserts a schedule. The first next_run_at is computed
// here: a future start date is used verbatim, otherwise the recurrence is
// applied from now.
func (r *Schedules) Create(ctx context.Context, s *domain.Schedule) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	s.NextRunAt = schedule.FirstRun(s.StartDate, s.FrequencyType, s.FrequencyValue, r.now())

	var id int64
	err := r.db.QueryRowContext(ctx, queryInsertSchedule,
		s.Name,
		s.JobType,
		s.TemplateID,
		s.FrequencyType,
		s.FrequencyValue,
		s.StartDate,
		s.NextRunAt,
		s.NotificationEmail,
		s.Filters,
		s.IsActive,
		s.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create schedule: %w", err)
	}

	r.logger.Info("Schedule created",
		slog.Int64("schedule_id", id),
		slog.String("name", s.Name),
		slog.Time("next_run_at", s.NextRunAt),
	)
	return id, nil
}

// Get retrieves a schedule by id.
func (r *Schedules) Get(ctx context.Context, id int64) (*domain.Schedule, error) {
	var s domain.Schedule
	if err := r.db.GetContext(ctx, &s, queryGetSchedule, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &s, nil
}

// List returns all schedules, optionally only active ones, newest first.
func (r *Schedules) List(ctx context.Context, activeOnly bool) ([]domain.Schedule, error) {
	query := queryListSchedules
	if activeOnly {
		query = queryListActiveSchedules
	}
	var schedules []domain.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// ListDue returns active schedules whose next_run_at has passed, soonest
// first.
func (r *Schedules) ListDue(ctx context.Context, now time.Time) ([]domain.Schedule, error) {
	var schedules []domain.Schedule
	if err := r.db.SelectContext(ctx, &schedules, queryListDueSchedules, now); err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	return schedules, nil
}

// Update rewrites a schedule's definition. When the recurrence or anchor
// changed, next_run_at is recomputed the same way creation computes it.
func (r *Schedules) Update(ctx context.Context, id int64, s *domain.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}

	existing, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	s.NextRunAt = existing.NextRunAt
	recurrenceChanged := existing.FrequencyType != s.FrequencyType ||
		existing.FrequencyValue != s.FrequencyValue ||
		!existing.StartDate.Equal(s.StartDate)
	if recurrenceChanged {
		s.NextRunAt = schedule.FirstRun(s.StartDate, s.FrequencyType, s.FrequencyValue, r.now())
	}

	_, err = r.db.ExecContext(ctx, queryUpdateSchedule,
		s.Name,
		s.JobType,
		s.TemplateID,
		s.FrequencyType,
		s.FrequencyValue,
		s.StartDate,
		s.NextRunAt,
		s.NotificationEmail,
		s.Filters,
		s.IsActive,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	r.logger.Info("Schedule updated",
		slog.Int64("schedule_id", id),
		slog.Time("next_run_at", s.NextRunAt),
	)
	return nil
}

// MarkRun stamps a successful firing and advances next_run_at.
func (r *Schedules) MarkRun(ctx context.Context, id int64, ranAt, nextRunAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, queryMarkScheduleRun, ranAt, nextRunAt, id); err != nil {
		return fmt.Errorf("failed to mark schedule run: %w", err)
	}
	r.logger.Info("Schedule fired",
		slog.Int64("schedule_id", id),
		slog.Time("next_run_at", nextRunAt),
	)
	return nil
}

// ToggleActive pauses or resumes a schedule. Pausing does not touch the
// recurrence state.
func (r *Schedules) ToggleActive(ctx context.Context, id int64, active bool) error {
	if _, err := r.db.ExecContext(ctx, queryToggleSchedule, active, id); err != nil {
		return fmt.Errorf("failed to toggle schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule. Jobs it generated keep their schedule_id as a
// dangling reference; that is tolerated, not treated as corruption.
func (r *Schedules) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, queryDeleteSchedule, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	r.logger.Info("Schedule deleted", slog.Int64("schedule_id", id))
	return nil
}
