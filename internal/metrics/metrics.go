// Package metrics exposes the job-lifecycle and rate-limit counters
// scraped at /metrics, grounded in jordigilh-kubernaut's pkg/metrics
// package-level promauto collectors plus Record* helper functions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsStartedTotal counts every JobStartedEvent published, labeled by
	// nothing beyond the event itself — per-format/category breakdowns
	// live on JobsCompletedTotal/JobsFailedTotal instead.
	JobsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_jobs_started_total",
		Help: "Total number of download jobs that entered PROCESSING.",
	})

	// JobsCompletedTotal counts terminal successes.
	JobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_jobs_completed_total",
		Help: "Total number of download jobs that reached COMPLETED.",
	})

	// JobsFailedTotal counts terminal failures, labeled by the stable
	// error_category taxonomy so dashboards can break down failure modes.
	JobsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kingo_jobs_failed_total",
		Help: "Total number of download jobs that reached FAILED, by error_category.",
	}, []string{"error_category"})

	// JobsCancelledTotal counts cancellations via DELETE /jobs/{id} or the
	// real-time protocol's cancel_job message.
	JobsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_jobs_cancelled_total",
		Help: "Total number of download jobs cancelled before completion.",
	})

	// JobDurationSeconds observes wall-clock time from start to a terminal
	// state (completed or failed).
	JobDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kingo_job_duration_seconds",
		Help:    "Time from JobStartedEvent to a terminal event, in seconds.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// RateLimitAdmittedTotal counts requests admitted by a given dimension,
	// including whitelist bypasses and store-outage graceful-degradation
	// admissions (those increment with outcome="degraded").
	RateLimitAdmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kingo_rate_limit_admitted_total",
		Help: "Requests admitted by the rate limiter, by limit_type and outcome.",
	}, []string{"limit_type", "outcome"})

	// RateLimitRejectedTotal counts 429s, by the dimension that rejected.
	RateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kingo_rate_limit_rejected_total",
		Help: "Requests rejected with 429, by limit_type.",
	}, []string{"limit_type"})

	// ReaperJobsArchivedTotal and siblings track one reaper sweep's summary.
	ReaperJobsArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_reaper_jobs_archived_total",
		Help: "Total terminal jobs archived and removed by the reaper.",
	})
	ReaperFilesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_reaper_files_removed_total",
		Help: "Total expired file entries removed by the reaper.",
	})
	ReaperOrphansCleanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_reaper_orphans_cleaned_total",
		Help: "Total orphaned scratch-directory files removed by the reaper.",
	})
	ReaperErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kingo_reaper_errors_total",
		Help: "Total sub-step errors encountered across reaper sweeps.",
	})
)

// RecordJobStarted increments JobsStartedTotal.
func RecordJobStarted() { JobsStartedTotal.Inc() }

// RecordJobCompleted increments JobsCompletedTotal and observes duration
// (the time between the job's creation/start and this terminal event,
// already computed by the caller).
func RecordJobCompleted(duration time.Duration) {
	JobsCompletedTotal.Inc()
	JobDurationSeconds.Observe(duration.Seconds())
}

// RecordJobFailed increments JobsFailedTotal for category and observes
// duration the same way RecordJobCompleted does.
func RecordJobFailed(category string, duration time.Duration) {
	JobsFailedTotal.WithLabelValues(category).Inc()
	JobDurationSeconds.Observe(duration.Seconds())
}

// RecordJobCancelled increments JobsCancelledTotal.
func RecordJobCancelled() { JobsCancelledTotal.Inc() }

// RecordRateLimitAdmitted increments RateLimitAdmittedTotal for limitType
// with outcome one of "normal", "whitelisted", "degraded".
func RecordRateLimitAdmitted(limitType, outcome string) {
	RateLimitAdmittedTotal.WithLabelValues(limitType, outcome).Inc()
}

// RecordRateLimitRejected increments RateLimitRejectedTotal for limitType.
func RecordRateLimitRejected(limitType string) {
	RateLimitRejectedTotal.WithLabelValues(limitType).Inc()
}

// RecordReaperSweep folds one reaper.Summary into the four reaper
// counters above.
func RecordReaperSweep(jobsRemoved, filesRemoved, orphansCleaned, errCount int) {
	ReaperJobsArchivedTotal.Add(float64(jobsRemoved))
	ReaperFilesRemovedTotal.Add(float64(filesRemoved))
	ReaperOrphansCleanedTotal.Add(float64(orphansCleaned))
	ReaperErrorsTotal.Add(float64(errCount))
}
