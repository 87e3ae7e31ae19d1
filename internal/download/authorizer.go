// Package download validates export download requests against per-job
// capability tokens.
package download

import (
	"context"
	"crypto/subtle"
	"os"
	"time"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// DefaultExpiry is how long a download link stays valid after completion.
const DefaultExpiry = 7 * 24 * time.Hour

// JobStore is the job lookup the authorizer needs.
type JobStore interface {
	Get(ctx context.Context, id int64) (*domain.Job, error)
}

// Request identifies one download attempt.
type Request struct {
	JobID       int64
	Token       string
	RequesterID int64
	IsAdmin     bool
}

// Authorizer checks download requests. Every failure mode is a distinct
// sentinel from the domain package so callers can render an appropriate
// response instead of the file.
type Authorizer struct {
	jobs   JobStore
	expiry time.Duration
	now    func() time.Time
}

// NewAuthorizer creates an authorizer with the given link expiry window;
// zero selects the default.
func NewAuthorizer(jobs JobStore, expiry time.Duration) *Authorizer {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Authorizer{jobs: jobs, expiry: expiry, now: time.Now}
}

// Authorize validates a download request and returns the job whose file may
// be streamed. The expiry window is measured from completed_at.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (*domain.Job, error) {
	if req.JobID <= 0 || req.Token == "" {
		return nil, domain.ErrDownloadBadRequest
	}

	job, err := a.jobs.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(job.FileURLHash)) != 1 {
		return nil, domain.ErrDownloadHash
	}
	if !req.IsAdmin && req.RequesterID != job.RequesterID {
		return nil, domain.ErrDownloadForbidden
	}
	if job.Status != domain.JobStatusCompleted || job.FilePath == nil {
		return nil, domain.ErrDownloadNotReady
	}
	if job.CompletedAt != nil && a.now().After(job.CompletedAt.Add(a.expiry)) {
		return nil, domain.ErrDownloadExpired
	}
	if _, err := os.Stat(*job.FilePath); err != nil {
		return nil, domain.ErrDownloadFileGone
	}

	return job, nil
}
