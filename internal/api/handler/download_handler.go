package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk/shop-exporter/internal/download"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// DownloadHandler streams finished export files to authorized requesters.
type DownloadHandler struct {
	deps *Dependencies
}

func NewDownloadHandler(deps *Dependencies) *DownloadHandler {
	return &DownloadHandler{deps: deps}
}

// Download handles GET /api/v1/downloads?job_id=...&token=...
// The token is the per-job secret issued at creation time; possession of it
// is still not enough, the requester must also own the job or be an admin.
func (h *DownloadHandler) Download(c *gin.Context) {
	userID, isAdmin := CurrentUser(c)

	jobID, err := strconv.ParseInt(c.Query("job_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be an integer"})
		return
	}

	job, err := h.deps.Downloads.Authorize(c.Request.Context(), download.Request{
		JobID:       jobID,
		Token:       c.Query("token"),
		RequesterID: userID,
		IsAdmin:     isAdmin,
	})
	if err != nil {
		h.rejectDownload(c, jobID, err)
		return
	}

	h.deps.Logger.Info("Export download",
		slog.Int64("job_id", job.ID),
		slog.Int64("user_id", userID),
	)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.FileAttachment(*job.FilePath, filepath.Base(*job.FilePath))
}

// rejectDownload maps authorization failures onto HTTP statuses without
// leaking which check tripped beyond what the caller needs.
func (h *DownloadHandler) rejectDownload(c *gin.Context, jobID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrDownloadBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid download request"})
	case errors.Is(err, domain.ErrDownloadHash), errors.Is(err, domain.ErrDownloadForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.Is(err, domain.ErrDownloadNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "Export is not ready for download"})
	case errors.Is(err, domain.ErrDownloadExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Download link has expired"})
	case errors.Is(err, domain.ErrDownloadFileGone):
		c.JSON(http.StatusGone, gin.H{"error": "Export file is no longer available"})
	default:
		h.deps.Logger.Error("Failed to authorize download",
			slog.Int64("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to authorize download"})
	}
}
