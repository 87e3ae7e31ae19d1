package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mkowalczyk/shop-exporter/internal/events"
	"github.com/mkowalczyk/shop-exporter/internal/export"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
	"github.com/mkowalczyk/shop-exporter/internal/metrics"
	"github.com/mkowalczyk/shop-exporter/internal/notifier"
)

// ExportWorkerConfig tunes the batch engine. Zero values fall back to the
// package defaults.
type ExportWorkerConfig struct {
	BatchSize       int
	MaxJobsPerTick  int
	TickBudget      time.Duration
	UploadsDir      string
	DownloadBaseURL string
	ExpiryDays      int
}

// ExportWorker drains the pending job queue one tick at a time. Each tick
// claims up to MaxJobsPerTick jobs oldest-first and streams each one to a
// CSV file in fixed-size batches, updating progress after every batch.
type ExportWorker struct {
	cfg       ExportWorkerConfig
	jobs      JobStore
	templates TemplateStore
	source    DataSource
	notifier  notifier.Notifier
	users     UserDirectory
	events    *events.Publisher
	sink      metrics.Sink
	logger    *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewExportWorker(
	cfg ExportWorkerConfig,
	jobs JobStore,
	templates TemplateStore,
	source DataSource,
	sender notifier.Notifier,
	users UserDirectory,
	publisher *events.Publisher,
	sink metrics.Sink,
	logger *slog.Logger,
) *ExportWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxJobsPerTick <= 0 {
		cfg.MaxJobsPerTick = DefaultMaxJobsPerTick
	}
	if cfg.TickBudget <= 0 {
		cfg.TickBudget = DefaultTickBudget
	}
	if sink == nil {
		sink = &metrics.NoopSink{}
	}
	return &ExportWorker{
		cfg:       cfg,
		jobs:      jobs,
		templates: templates,
		source:    source,
		notifier:  sender,
		users:     users,
		events:    publisher,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// Tick runs one scheduling pass. It is safe to run concurrently with other
// worker instances: the conditional claim makes sure each job is processed
// exactly once.
func (w *ExportWorker) Tick(ctx context.Context) error {
	start := w.now()
	w.sink.TickStarted(metrics.WorkerExport)

	pending, err := w.jobs.ListPending(ctx, w.cfg.MaxJobsPerTick)
	if err != nil {
		w.sink.TickCompleted(metrics.WorkerExport, w.now().Sub(start), err)
		return fmt.Errorf("failed to list pending jobs: %w", err)
	}

	for i := range pending {
		if elapsed := w.now().Sub(start); elapsed > w.cfg.TickBudget {
			w.logger.Warn("Tick budget exhausted, deferring remaining jobs",
				slog.Duration("elapsed", elapsed),
				slog.Int("deferred", len(pending)-i),
			)
			break
		}
		w.processJob(ctx, &pending[i])
	}

	w.sink.TickCompleted(metrics.WorkerExport, w.now().Sub(start), nil)
	return nil
}

// processJob claims and runs a single job end to end. Errors terminate the
// job as failed; they never abort the tick.
func (w *ExportWorker) processJob(ctx context.Context, queued *domain.Job) {
	jobStart := w.now()

	job, err := w.jobs.Claim(ctx, queued.ID)
	if errors.Is(err, domain.ErrJobAlreadyClaimed) {
		// Another worker got there first.
		w.sink.JobProcessed(metrics.OutcomeSkipped, w.now().Sub(jobStart))
		return
	}
	if err != nil {
		w.logger.Error("Failed to claim job",
			slog.Int64("job_id", queued.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Info("Processing export job",
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.JobType),
	)

	processed, err := w.runExport(ctx, job)
	if err != nil {
		w.failJob(ctx, job, err)
		w.sink.JobProcessed(metrics.OutcomeFailed, w.now().Sub(jobStart))
		return
	}

	w.logger.Info("Export job completed",
		slog.Int64("job_id", job.ID),
		slog.Int("processed", processed),
		slog.Duration("duration", w.now().Sub(jobStart)),
	)
	w.sink.JobProcessed(metrics.OutcomeCompleted, w.now().Sub(jobStart))

	w.publishEvent(ctx, events.RoutingJobCompleted, job)
	w.notifyCompletion(ctx, job, processed)
}

// runExport produces the CSV file and moves the job to completed. On error
// the partially written file is discarded and the job is left untouched for
// failJob to finalize.
func (w *ExportWorker) runExport(ctx context.Context, job *domain.Job) (int, error) {
	tmpl, err := w.resolveTemplate(ctx, job)
	if err != nil {
		return 0, err
	}

	total, err := w.source.Count(ctx, job.JobType, job.Filters)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if err := w.jobs.UpdateProgress(ctx, job.ID, 0, &total); err != nil {
		return 0, fmt.Errorf("failed to record total: %w", err)
	}

	headers, keys, err := export.Columns(job.JobType, tmpl)
	if err != nil {
		return 0, err
	}

	path := export.BuildFilePath(w.cfg.UploadsDir, job.JobType, w.now())
	writer, err := export.NewWriter(path, headers, keys)
	if err != nil {
		return 0, fmt.Errorf("failed to open export file: %w", err)
	}

	processed := 0
	for offset := 0; offset < total; offset += w.cfg.BatchSize {
		batch, err := w.source.FetchBatch(ctx, job.JobType, job.Filters, offset, w.cfg.BatchSize, tmpl)
		if err != nil {
			writer.Discard()
			return 0, fmt.Errorf("failed to fetch batch at offset %d: %w", offset, err)
		}
		if len(batch) == 0 {
			break
		}

		if err := writer.WriteBatch(export.SanitizeBatch(batch)); err != nil {
			writer.Discard()
			return 0, fmt.Errorf("failed to write batch: %w", err)
		}

		processed += len(batch)
		w.sink.RowsExported(len(batch))
		if err := w.jobs.UpdateProgress(ctx, job.ID, processed, nil); err != nil {
			w.logger.Warn("Failed to update job progress",
				slog.Int64("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := writer.Close(); err != nil {
		writer.Discard()
		return 0, fmt.Errorf("failed to finalize export file: %w", err)
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID, path, processed); err != nil {
		return 0, fmt.Errorf("failed to mark job completed: %w", err)
	}

	job.Status = domain.JobStatusCompleted
	job.FilePath = &path
	job.ProcessedItems = processed
	job.TotalItems = total
	return processed, nil
}

// resolveTemplate loads the column template for custom exports. Other job
// types use the built-in column sets and return nil.
func (w *ExportWorker) resolveTemplate(ctx context.Context, job *domain.Job) (*domain.Template, error) {
	if job.JobType != domain.JobTypeCustom {
		return nil, nil
	}
	raw := job.Filters[domain.FilterTemplateID]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid template_id %q: %w", raw, err)
	}
	tmpl, err := w.templates.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %d: %w", id, err)
	}
	return tmpl, nil
}

// failJob records the failure and sends a best-effort notification. Nothing
// here can escalate: a notification or event error is logged and dropped.
func (w *ExportWorker) failJob(ctx context.Context, job *domain.Job, cause error) {
	w.logger.Error("Export job failed",
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.JobType),
		slog.String("error", cause.Error()),
	)

	if err := w.jobs.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		w.logger.Error("Failed to mark job failed",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
	msg := cause.Error()
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = &msg

	w.publishEvent(ctx, events.RoutingJobFailed, job)

	recipient := w.failureRecipient(ctx, job)
	if recipient == "" {
		return
	}
	if err := w.notifier.SendFailure(ctx, recipient, cause.Error()); err != nil {
		w.logger.Warn("Failed to send failure notification",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// notifyCompletion mails the download link to every recipient. Failures are
// logged only; the job stays completed either way.
func (w *ExportWorker) notifyCompletion(ctx context.Context, job *domain.Job, processed int) {
	recipients := job.Recipients()
	if len(recipients) == 0 {
		email, err := w.users.EmailFor(ctx, job.RequesterID)
		if err != nil || email == "" {
			w.logger.Warn("No notification recipient for completed job",
				slog.Int64("job_id", job.ID),
				slog.Int64("requester_id", job.RequesterID),
			)
			return
		}
		recipients = []string{email}
	}

	summary := notifier.JobSummary{
		JobID:      job.ID,
		TypeLabel:  job.TypeLabel(),
		Records:    processed,
		CreatedAt:  job.CreatedAt,
		ExpiryDays: w.cfg.ExpiryDays,
	}
	url := fmt.Sprintf("%s?job_id=%d&token=%s", w.cfg.DownloadBaseURL, job.ID, job.FileURLHash)

	if err := w.notifier.SendCompletion(ctx, recipients, summary, url); err != nil {
		w.logger.Warn("Failed to send completion notification",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// failureRecipient picks a single address for failure mail: the first
// explicit recipient, otherwise the requester's account email.
func (w *ExportWorker) failureRecipient(ctx context.Context, job *domain.Job) string {
	if recipients := job.Recipients(); len(recipients) > 0 {
		return recipients[0]
	}
	email, err := w.users.EmailFor(ctx, job.RequesterID)
	if err != nil {
		return ""
	}
	return email
}

func (w *ExportWorker) publishEvent(ctx context.Context, routingKey string, job *domain.Job) {
	if w.events == nil {
		return
	}
	if err := w.events.PublishJob(ctx, routingKey, job); err != nil {
		w.logger.Warn("Failed to publish job event",
			slog.Int64("job_id", job.ID),
			slog.String("routing_key", routingKey),
			slog.String("error", err.Error()),
		)
	}
}
