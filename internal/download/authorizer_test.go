package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

type stubJobStore struct {
	job *domain.Job
	err error
}

func (s *stubJobStore) Get(ctx context.Context, id int64) (*domain.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.job, nil
}

func TestAuthorizer_Authorize(t *testing.T) {
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

	makeJob := func(t *testing.T) *domain.Job {
		t.Helper()
		path := filepath.Join(t.TempDir(), "export.csv")
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

		completed := now.Add(-24 * time.Hour)
		return &domain.Job{
			ID:          42,
			Status:      domain.JobStatusCompleted,
			FilePath:    &path,
			FileURLHash: "secret-token",
			RequesterID: 7,
			CompletedAt: &completed,
		}
	}

	authorize := func(job *domain.Job, req Request) (*domain.Job, error) {
		a := NewAuthorizer(&stubJobStore{job: job}, 7*24*time.Hour)
		a.now = func() time.Time { return now }
		return a.Authorize(context.Background(), req)
	}

	okRequest := Request{JobID: 42, Token: "secret-token", RequesterID: 7}

	t.Run("owner with valid token downloads", func(t *testing.T) {
		job, err := authorize(makeJob(t), okRequest)
		require.NoError(t, err)
		assert.Equal(t, int64(42), job.ID)
	})

	t.Run("admin may download someone else's export", func(t *testing.T) {
		req := okRequest
		req.RequesterID = 99
		req.IsAdmin = true

		_, err := authorize(makeJob(t), req)
		assert.NoError(t, err)
	})

	t.Run("missing parameters", func(t *testing.T) {
		_, err := authorize(makeJob(t), Request{JobID: 42})
		assert.ErrorIs(t, err, domain.ErrDownloadBadRequest)

		_, err = authorize(makeJob(t), Request{Token: "secret-token"})
		assert.ErrorIs(t, err, domain.ErrDownloadBadRequest)
	})

	t.Run("unknown job", func(t *testing.T) {
		a := NewAuthorizer(&stubJobStore{err: domain.ErrJobNotFound}, 0)
		_, err := a.Authorize(context.Background(), okRequest)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})

	t.Run("token mismatch", func(t *testing.T) {
		req := okRequest
		req.Token = "wrong-token"
		_, err := authorize(makeJob(t), req)
		assert.ErrorIs(t, err, domain.ErrDownloadHash)
	})

	t.Run("non-owner without admin", func(t *testing.T) {
		req := okRequest
		req.RequesterID = 8
		_, err := authorize(makeJob(t), req)
		assert.ErrorIs(t, err, domain.ErrDownloadForbidden)
	})

	t.Run("job not completed", func(t *testing.T) {
		job := makeJob(t)
		job.Status = domain.JobStatusProcessing
		_, err := authorize(job, okRequest)
		assert.ErrorIs(t, err, domain.ErrDownloadNotReady)
	})

	t.Run("completed job without file path", func(t *testing.T) {
		job := makeJob(t)
		job.FilePath = nil
		_, err := authorize(job, okRequest)
		assert.ErrorIs(t, err, domain.ErrDownloadNotReady)
	})

	t.Run("expired link", func(t *testing.T) {
		job := makeJob(t)
		old := now.Add(-8 * 24 * time.Hour)
		job.CompletedAt = &old
		_, err := authorize(job, okRequest)
		assert.ErrorIs(t, err, domain.ErrDownloadExpired)
	})

	t.Run("file removed from disk", func(t *testing.T) {
		job := makeJob(t)
		require.NoError(t, os.Remove(*job.FilePath))
		_, err := authorize(job, okRequest)
		assert.ErrorIs(t, err, domain.ErrDownloadFileGone)
	})
}
