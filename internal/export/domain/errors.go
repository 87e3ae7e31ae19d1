package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyClaimed is returned when a pending job was claimed by another worker
	ErrJobAlreadyClaimed = errors.New("job already claimed or not in pending status")

	// ErrJobNotCancelable is returned when cancelling a job that already left the queue
	ErrJobNotCancelable = errors.New("job is not pending and cannot be canceled")

	// ErrScheduleNotFound is returned when a schedule cannot be found in the database
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrTemplateNotFound is returned when a template cannot be found in the database
	ErrTemplateNotFound = errors.New("template not found")
)

// Download authorization failures. Each case is distinct so the HTTP layer can
// render an appropriate status instead of serving the file.
var (
	ErrDownloadBadRequest = errors.New("invalid download parameters")
	ErrDownloadHash       = errors.New("download token does not match")
	ErrDownloadForbidden  = errors.New("requester is not allowed to download this export")
	ErrDownloadNotReady   = errors.New("export job is not completed")
	ErrDownloadFileGone   = errors.New("export file is missing on disk")
	ErrDownloadExpired    = errors.New("download link has expired")
)
