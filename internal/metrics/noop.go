package metrics

import "time"

// NoopSink discards all metrics. Used when metrics are disabled and in tests.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (*NoopSink) TickStarted(string)                        {}
func (*NoopSink) TickCompleted(string, time.Duration, error) {}
func (*NoopSink) JobProcessed(string, time.Duration)         {}
func (*NoopSink) RowsExported(int)                           {}
func (*NoopSink) ScheduleFired()                             {}
func (*NoopSink) ScheduleFireError()                         {}
