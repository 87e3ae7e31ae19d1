package metrics

import "time"

// Sink records worker metrics. All methods are fire-and-forget:
// implementations must not block or propagate errors.
type Sink interface {
	TickStarted(worker string)
	TickCompleted(worker string, duration time.Duration, err error)

	JobProcessed(outcome string, duration time.Duration)
	RowsExported(n int)

	ScheduleFired()
	ScheduleFireError()
}

// Worker name constants for tick metrics.
const (
	WorkerExport   = "export"
	WorkerSchedule = "schedule"
)

// Outcome constants for JobProcessed.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)
