package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged but never propagated: a metric that fails to
// register keeps working as an unregistered collector.
type PrometheusSink struct {
	ticksTotal      *prometheus.CounterVec
	tickErrorsTotal *prometheus.CounterVec
	tickDuration    *prometheus.HistogramVec

	jobsProcessedTotal *prometheus.CounterVec
	jobDuration        prometheus.Histogram
	rowsExportedTotal  prometheus.Counter

	scheduleFiringsTotal    prometheus.Counter
	scheduleFireErrorsTotal prometheus.Counter
}

// NewPrometheusSink creates a Prometheus metrics sink registered on reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exporter_worker_ticks_total",
			Help: "Total number of worker ticks processed.",
		}, []string{"worker"}),
		tickErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exporter_worker_tick_errors_total",
			Help: "Total number of worker ticks that finished with an error.",
		}, []string{"worker"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exporter_worker_tick_duration_seconds",
			Help:    "Duration of each worker tick in seconds.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 45, 60, 120},
		}, []string{"worker"}),
		jobsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exporter_jobs_processed_total",
			Help: "Total number of export jobs processed, by outcome.",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exporter_job_duration_seconds",
			Help:    "Wall-clock duration of a single export job in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}),
		rowsExportedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exporter_rows_exported_total",
			Help: "Total number of data rows written to export files.",
		}),
		scheduleFiringsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exporter_schedule_firings_total",
			Help: "Total number of schedule firings that produced a job.",
		}),
		scheduleFireErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exporter_schedule_fire_errors_total",
			Help: "Total number of schedule firings that failed and will retry.",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"exporter_worker_ticks_total":           s.ticksTotal,
		"exporter_worker_tick_errors_total":     s.tickErrorsTotal,
		"exporter_worker_tick_duration_seconds": s.tickDuration,
		"exporter_jobs_processed_total":         s.jobsProcessedTotal,
		"exporter_job_duration_seconds":         s.jobDuration,
		"exporter_rows_exported_total":          s.rowsExportedTotal,
		"exporter_schedule_firings_total":       s.scheduleFiringsTotal,
		"exporter_schedule_fire_errors_total":   s.scheduleFireErrorsTotal,
	} {
		if err := reg.Register(c); err != nil {
			log.Printf("metrics: failed to register %s: %v", name, err)
		}
	}
	return s
}

func (s *PrometheusSink) TickStarted(worker string) {
	s.ticksTotal.WithLabelValues(worker).Inc()
}

func (s *PrometheusSink) TickCompleted(worker string, duration time.Duration, err error) {
	s.tickDuration.WithLabelValues(worker).Observe(duration.Seconds())
	if err != nil {
		s.tickErrorsTotal.WithLabelValues(worker).Inc()
	}
}

func (s *PrometheusSink) JobProcessed(outcome string, duration time.Duration) {
	s.jobsProcessedTotal.WithLabelValues(outcome).Inc()
	s.jobDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) RowsExported(n int) {
	s.rowsExportedTotal.Add(float64(n))
}

func (s *PrometheusSink) ScheduleFired() {
	s.scheduleFiringsTotal.Inc()
}

func (s *PrometheusSink) ScheduleFireError() {
	s.scheduleFireErrorsTotal.Inc()
}
