package worker

import (
	"context"
	"time"

	"github.com/mkowalczyk/shop-exporter/internal/export"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// Default processing limits. A tick never runs longer than the budget and
// never picks up more than MaxJobsPerTick jobs, so a large backlog drains
// across ticks instead of starving the scheduler.
const (
	DefaultBatchSize      = 500
	DefaultMaxJobsPerTick = 5
	DefaultTickBudget     = 45 * time.Second
)

// JobStore is the slice of the job repository the export worker needs.
type JobStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.Job, error)
	Claim(ctx context.Context, id int64) (*domain.Job, error)
	UpdateProgress(ctx context.Context, id int64, processed int, total *int) error
	MarkCompleted(ctx context.Context, id int64, filePath string, processed int) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

// ScheduleStore is the slice of the schedule repository the schedule worker
// needs.
type ScheduleStore interface {
	ListDue(ctx context.Context, now time.Time) ([]domain.Schedule, error)
	MarkRun(ctx context.Context, id int64, ranAt, nextRunAt time.Time) error
}

// JobCreator enqueues new jobs on behalf of fired schedules.
type JobCreator interface {
	Create(ctx context.Context, jobType string, filters domain.Filters, requesterID int64, notificationEmail *string, scheduleID *int64) (int64, error)
}

// TemplateStore resolves custom-export templates.
type TemplateStore interface {
	Get(ctx context.Context, id int64) (*domain.Template, error)
}

// DataSource provides counted, paginated result sets per job type.
type DataSource interface {
	Count(ctx context.Context, jobType string, filters domain.Filters) (int, error)
	FetchBatch(ctx context.Context, jobType string, filters domain.Filters, offset, limit int, tmpl *domain.Template) ([]export.Row, error)
}

// UserDirectory resolves a requester's notification address when the job
// carries no override.
type UserDirectory interface {
	EmailFor(ctx context.Context, userID int64) (string, error)
}
