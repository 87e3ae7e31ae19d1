package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
	"github.com/mkowalczyk/shop-exporter/internal/metrics"
	"github.com/mkowalczyk/shop-exporter/internal/schedule"
)

// ScheduleWorker fires due schedules: each one is turned into a queued
// export job covering its reporting period, then advanced to its next run.
type ScheduleWorker struct {
	schedules ScheduleStore
	jobs      JobCreator
	sink      metrics.Sink
	logger    *slog.Logger

	now func() time.Time
}

func NewScheduleWorker(schedules ScheduleStore, jobs JobCreator, sink metrics.Sink, logger *slog.Logger) *ScheduleWorker {
	if sink == nil {
		sink = &metrics.NoopSink{}
	}
	return &ScheduleWorker{
		schedules: schedules,
		jobs:      jobs,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// Tick fires every schedule whose next_run_at has passed. Schedules fail
// independently: one bad schedule never blocks the rest of the batch.
func (w *ScheduleWorker) Tick(ctx context.Context) error {
	start := w.now()
	w.sink.TickStarted(metrics.WorkerSchedule)

	due, err := w.schedules.ListDue(ctx, start)
	if err != nil {
		w.sink.TickCompleted(metrics.WorkerSchedule, w.now().Sub(start), err)
		return fmt.Errorf("failed to list due schedules: %w", err)
	}

	for i := range due {
		if err := w.fire(ctx, &due[i], start); err != nil {
			w.logger.Error("Failed to fire schedule",
				slog.Int64("schedule_id", due[i].ID),
				slog.String("error", err.Error()),
			)
			w.sink.ScheduleFireError()
		}
	}

	w.sink.TickCompleted(metrics.WorkerSchedule, w.now().Sub(start), nil)
	return nil
}

// fire enqueues one job for the schedule's reporting period. The schedule is
// only advanced after the job is created, so a failed creation leaves
// next_run_at in place and the schedule retries on the next tick.
func (w *ScheduleWorker) fire(ctx context.Context, s *domain.Schedule, now time.Time) error {
	filters := s.Filters.Merge(schedule.PeriodFilters(s.FrequencyType, s.FrequencyValue, now))
	if s.JobType == domain.JobTypeCustom && s.TemplateID != nil {
		filters[domain.FilterTemplateID] = strconv.FormatInt(*s.TemplateID, 10)
	}

	jobID, err := w.jobs.Create(ctx, s.JobType, filters, s.CreatedBy, s.NotificationEmail, &s.ID)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	next := schedule.NextRun(s.FrequencyType, s.FrequencyValue, now)
	if err := w.schedules.MarkRun(ctx, s.ID, now, next); err != nil {
		// The job exists either way; log loudly since a stale next_run_at
		// will re-fire the schedule on the next tick.
		w.logger.Error("Failed to advance schedule after firing",
			slog.Int64("schedule_id", s.ID),
			slog.Int64("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return err
	}

	w.logger.Info("Schedule fired",
		slog.Int64("schedule_id", s.ID),
		slog.Int64("job_id", jobID),
		slog.Time("next_run_at", next),
	)
	w.sink.ScheduleFired()
	return nil
}
