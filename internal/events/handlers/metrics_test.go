package handlers_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"kingo/internal/events"
	"kingo/internal/events/handlers"
	"kingo/internal/metrics"
)

func TestRegisterMetrics_JobCompletedIncrementsCompletedCounter(t *testing.T) {
	bus := events.NewBus()
	handlers.RegisterMetrics(bus)

	before := testutil.ToFloat64(metrics.JobsCompletedTotal)

	now := time.Now()
	bus.Publish(events.JobStarted("job-metrics-1", "https://x", "auto", now))
	bus.Publish(events.JobCompleted("job-metrics-1", "https://host/file/tok", now.Add(time.Hour), now.Add(2*time.Second)))

	if after := testutil.ToFloat64(metrics.JobsCompletedTotal); after != before+1 {
		t.Errorf("JobsCompletedTotal = %v, want %v", after, before+1)
	}
}

func TestRegisterMetrics_JobFailedIncrementsCategoryCounter(t *testing.T) {
	bus := events.NewBus()
	handlers.RegisterMetrics(bus)

	category := "network_error_for_handler_test"
	before := testutil.ToFloat64(metrics.JobsFailedTotal.WithLabelValues(category))

	now := time.Now()
	bus.Publish(events.JobStarted("job-metrics-2", "https://x", "auto", now))
	bus.Publish(events.JobFailed("job-metrics-2", "boom", category, now.Add(time.Second)))

	if after := testutil.ToFloat64(metrics.JobsFailedTotal.WithLabelValues(category)); after != before+1 {
		t.Errorf("JobsFailedTotal = %v, want %v", after, before+1)
	}
}

func TestRegisterMetrics_JobCancelledIncrementsCancelledCounter(t *testing.T) {
	bus := events.NewBus()
	handlers.RegisterMetrics(bus)

	before := testutil.ToFloat64(metrics.JobsCancelledTotal)

	bus.Publish(events.JobCancelled("job-metrics-3", time.Now()))

	if after := testutil.ToFloat64(metrics.JobsCancelledTotal); after != before+1 {
		t.Errorf("JobsCancelledTotal = %v, want %v", after, before+1)
	}
}
