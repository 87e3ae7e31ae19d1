package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk/shop-exporter/internal/api/dto"
	"github.com/mkowalczyk/shop-exporter/internal/events"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

const defaultListLimit = 50

// JobHandler handles export job HTTP requests
type JobHandler struct {
	deps *Dependencies
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{deps: deps}
}

// CreateJob handles POST /api/v1/jobs
// Validates the request and enqueues a pending export job.
func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, _ := CurrentUser(c)

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	filters := domain.Filters(req.Filters)
	if err := domain.ValidateJobRequest(req.JobType, filters, req.NotificationEmail); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.deps.Jobs.Create(c.Request.Context(), req.JobType, filters, userID, req.NotificationEmail, nil)
	if err != nil {
		h.deps.Logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	job, err := h.deps.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		h.deps.Logger.Error("Failed to load created job",
			slog.Int64("job_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created job"})
		return
	}

	if h.deps.Events != nil {
		if err := h.deps.Events.PublishJob(c.Request.Context(), events.RoutingJobCreated, job); err != nil {
			h.deps.Logger.Warn("Failed to publish job created event",
				slog.Int64("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	c.JSON(http.StatusCreated, dto.JobFromDomain(job))
}

// ListJobs handles GET /api/v1/jobs
// Regular users see their own jobs; admins may filter the whole queue by
// status.
func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, isAdmin := CurrentUser(c)

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}

	var (
		jobs []domain.Job
		err  error
	)
	if isAdmin && req.Status != "" {
		jobs, err = h.deps.Jobs.ListByStatus(c.Request.Context(), req.Status, req.Limit)
	} else {
		jobs, err = h.deps.Jobs.ListByRequester(c.Request.Context(), userID, req.Limit)
	}
	if err != nil {
		h.deps.Logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	out := make([]dto.JobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, dto.JobFromDomain(&jobs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.JobFromDomain(job))
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
// Only pending jobs can be canceled; a job mid-flight runs to completion.
func (h *JobHandler) CancelJob(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	err := h.deps.Jobs.Cancel(c.Request.Context(), job.ID, "canceled by user")
	if errors.Is(err, domain.ErrJobNotCancelable) {
		c.JSON(http.StatusConflict, gin.H{"error": "Only pending jobs can be canceled"})
		return
	}
	if err != nil {
		h.deps.Logger.Error("Failed to cancel job",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": job.ID, "status": domain.JobStatusFailed})
}

// DeleteJob handles DELETE /api/v1/jobs/:job_id
// Removes the job record together with its export file.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	if err := h.deps.Jobs.Delete(c.Request.Context(), job.ID); err != nil {
		h.deps.Logger.Error("Failed to delete job",
			slog.Int64("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedJob loads the path job and enforces ownership. Non-admins only see
// their own jobs; a false return means the response was already written.
func (h *JobHandler) ownedJob(c *gin.Context) (*domain.Job, bool) {
	userID, isAdmin := CurrentUser(c)

	id, err := strconv.ParseInt(c.Param("job_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be an integer"})
		return nil, false
	}

	job, err := h.deps.Jobs.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return nil, false
	}
	if err != nil {
		h.deps.Logger.Error("Failed to get job",
			slog.Int64("job_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return nil, false
	}

	if !isAdmin && job.RequesterID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return job, true
}
