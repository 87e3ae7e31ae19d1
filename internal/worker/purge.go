package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// JobPurger removes stale jobs and their export files.
type JobPurger interface {
	DeleteOlderThan(ctx context.Context, retention time.Duration, now time.Time) (int, error)
}

// PurgeWorker removes completed and failed jobs once their download window
// has long expired, together with the files they left on disk.
type PurgeWorker struct {
	jobs      JobPurger
	retention time.Duration
	logger    *slog.Logger

	now func() time.Time
}

func NewPurgeWorker(jobs JobPurger, retention time.Duration, logger *slog.Logger) *PurgeWorker {
	return &PurgeWorker{
		jobs:      jobs,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *PurgeWorker) Tick(ctx context.Context) error {
	deleted, err := w.jobs.DeleteOlderThan(ctx, w.retention, w.now())
	if err != nil {
		return fmt.Errorf("failed to purge old jobs: %w", err)
	}
	if deleted > 0 {
		w.logger.Info("Purged old export jobs", slog.Int("deleted", deleted))
	}
	return nil
}
