// Package storage implements the Postgres repositories for export jobs,
// schedules and templates.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// Jobs handles all database operations on export jobs.
type Jobs struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewJobs creates a new job repository.
func NewJobs(db *sqlx.DB, logger *slog.Logger) *Jobs {
	return &Jobs{db: db, logger: logger}
}

// Create validates and inserts a new pending job, returning its id. The
// download token is generated here so it exists for the job's whole lifetime.
func (r *Jobs) Create(ctx context.Context, jobType string, filters domain.Filters, requesterID int64, notificationEmail *string, scheduleID *int64) (int64, error) {
	if err := domain.ValidateJobRequest(jobType, filters, notificationEmail); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.QueryRowContext(ctx, queryInsertJob,
		jobType,
		filters,
		domain.JobStatusPending,
		newDownloadToken(),
		requesterID,
		notificationEmail,
		scheduleID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}

	r.logger.Info("Job created",
		slog.Int64("job_id", id),
		slog.String("job_type", jobType),
		slog.Int64("requester_id", requesterID),
	)
	return id, nil
}

// Get retrieves a job by id.
func (r *Jobs) Get(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.GetContext(ctx, &job, queryGetJob, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListByStatus returns up to limit jobs in the given status, oldest first.
// This is the worker's bounded queue-pop: FIFO fairness with a hard cap.
func (r *Jobs) ListByStatus(ctx context.Context, status string, limit int) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := r.db.SelectContext(ctx, &jobs, queryListJobsByStatus, status, limit); err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}
	return jobs, nil
}

// ListByRequester returns up to limit jobs created by a user, newest first.
func (r *Jobs) ListByRequester(ctx context.Context, requesterID int64, limit int) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := r.db.SelectContext(ctx, &jobs, queryListJobsByRequester, requesterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list jobs by requester: %w", err)
	}
	return jobs, nil
}

// Claim atomically advances a pending job to processing and returns it.
// Returns domain.ErrJobAlreadyClaimed if the row already left pending, which
// makes concurrent worker ticks safe.
func (r *Jobs) Claim(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	err := r.db.GetContext(ctx, &job, queryClaimJob, domain.JobStatusProcessing, id, domain.JobStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	r.logger.Info("Job claimed",
		slog.Int64("job_id", id),
		slog.String("job_type", job.JobType),
	)
	return &job, nil
}

// StatusUpdate carries the optional fields written alongside a status change.
type StatusUpdate struct {
	FilePath       *string
	ProcessedItems *int
	ErrorMessage   *string
	CompletedAt    *time.Time
}

// UpdateStatus sets a job's status plus any extra fields. A transition to
// completed stamps completed_at when the caller did not supply one.
func (r *Jobs) UpdateStatus(ctx context.Context, id int64, status string, extra StatusUpdate) error {
	sets := []string{"status = $1", "updated_at = NOW()"}
	args := []interface{}{status}
	idx := 2

	if extra.FilePath != nil {
		sets = append(sets, fmt.Sprintf("file_path = $%d", idx))
		args = append(args, *extra.FilePath)
		idx++
	}
	if extra.ProcessedItems != nil {
		sets = append(sets, fmt.Sprintf("processed_items = $%d", idx))
		args = append(args, *extra.ProcessedItems)
		idx++
	}
	if extra.ErrorMessage != nil {
		sets = append(sets, fmt.Sprintf("error_message = $%d", idx))
		args = append(args, *extra.ErrorMessage)
		idx++
	}
	if extra.CompletedAt != nil {
		sets = append(sets, fmt.Sprintf("completed_at = $%d", idx))
		args = append(args, *extra.CompletedAt)
		idx++
	} else if status == domain.JobStatusCompleted {
		sets = append(sets, "completed_at = NOW()")
	}

	query := fmt.Sprintf("UPDATE export_jobs SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	r.logger.Info("Job status updated",
		slog.Int64("job_id", id),
		slog.String("status", status),
	)
	return nil
}

// UpdateProgress advances the progress counters. Total is only written when
// supplied (it is computed once, at the start of processing).
func (r *Jobs) UpdateProgress(ctx context.Context, id int64, processed int, total *int) error {
	var err error
	if total != nil {
		_, err = r.db.ExecContext(ctx, queryUpdateJobProgressTotal, processed, *total, id)
	} else {
		_, err = r.db.ExecContext(ctx, queryUpdateJobProgress, processed, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// ListPending is the worker's queue-pop: up to limit pending jobs, oldest
// first.
func (r *Jobs) ListPending(ctx context.Context, limit int) ([]domain.Job, error) {
	return r.ListByStatus(ctx, domain.JobStatusPending, limit)
}

// MarkCompleted finishes a job with its file artifact and final counter.
func (r *Jobs) MarkCompleted(ctx context.Context, id int64, filePath string, processed int) error {
	return r.UpdateStatus(ctx, id, domain.JobStatusCompleted, StatusUpdate{
		FilePath:       &filePath,
		ProcessedItems: &processed,
	})
}

// MarkFailed finishes a job with the failure message captured verbatim.
func (r *Jobs) MarkFailed(ctx context.Context, id int64, message string) error {
	return r.UpdateStatus(ctx, id, domain.JobStatusFailed, StatusUpdate{
		ErrorMessage: &message,
	})
}

// Cancel transitions a pending job directly to failed with a cancellation
// message. A job that already left the queue cannot be canceled.
func (r *Jobs) Cancel(ctx context.Context, id int64, reason string) error {
	if reason == "" {
		reason = "canceled by user"
	}
	res, err := r.db.ExecContext(ctx, queryCancelJob, domain.JobStatusFailed, reason, id, domain.JobStatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrJobNotCancelable
	}

	r.logger.Info("Job canceled", slog.Int64("job_id", id))
	return nil
}

// Delete removes a job and its backing file, if one was produced. A missing
// file on disk is not an error.
func (r *Jobs) Delete(ctx context.Context, id int64) error {
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, queryDeleteJob, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	if job.FilePath != nil {
		if err := os.Remove(*job.FilePath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Failed to remove export file",
				slog.Int64("job_id", id),
				slog.String("file_path", *job.FilePath),
				slog.String("error", err.Error()),
			)
		}
	}

	r.logger.Info("Job deleted", slog.Int64("job_id", id))
	return nil
}

// DeleteOlderThan removes completed jobs whose download window lapsed more
// than the retention period ago, along with their files. Returns the number
// of jobs removed.
func (r *Jobs) DeleteOlderThan(ctx context.Context, retention time.Duration, now time.Time) (int, error) {
	cutoff := now.Add(-retention)

	var old []domain.Job
	if err := r.db.SelectContext(ctx, &old, queryListExpiredJobs, domain.JobStatusCompleted, cutoff); err != nil {
		return 0, fmt.Errorf("failed to list expired jobs: %w", err)
	}
	if len(old) == 0 {
		return 0, nil
	}

	if _, err := r.db.ExecContext(ctx, queryDeleteExpiredJobs, domain.JobStatusCompleted, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete expired jobs: %w", err)
	}

	for _, job := range old {
		if job.FilePath == nil {
			continue
		}
		if err := os.Remove(*job.FilePath); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Failed to remove expired export file",
				slog.Int64("job_id", job.ID),
				slog.String("file_path", *job.FilePath),
				slog.String("error", err.Error()),
			)
		}
	}

	r.logger.Info("Expired jobs purged", slog.Int("count", len(old)))
	return len(old), nil
}

// newDownloadToken generates the opaque per-job download capability.
func newDownloadToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
