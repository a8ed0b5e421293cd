package events_test

import (
	"testing"
	"time"

	"kingo/internal/events"
)

func TestBus_PublishDispatchesToSubscribedHandlersOnly(t *testing.T) {
	bus := events.NewBus()
	var startedCount, completedCount int
	bus.Subscribe(events.TypeJobStarted, func(ev events.DomainEvent) { startedCount++ })
	bus.Subscribe(events.TypeJobCompleted, func(ev events.DomainEvent) { completedCount++ })

	bus.Publish(events.JobStarted("job-1", "https://x", "auto", time.Now()))

	if startedCount != 1 {
		t.Errorf("startedCount = %d, want 1", startedCount)
	}
	if completedCount != 0 {
		t.Errorf("completedCount = %d, want 0", completedCount)
	}
}

func TestBus_PublishCallsMultipleSubscribersInOrder(t *testing.T) {
	bus := events.NewBus()
	var order []int
	bus.Subscribe(events.TypeJobWarning, func(ev events.DomainEvent) { order = append(order, 1) })
	bus.Subscribe(events.TypeJobWarning, func(ev events.DomainEvent) { order = append(order, 2) })

	bus.Publish(events.JobWarning("job-1", "retrying", time.Now()))

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestBus_PublishIsolatesPanickingHandler(t *testing.T) {
	bus := events.NewBus()
	ran := false
	bus.Subscribe(events.TypeJobFailed, func(ev events.DomainEvent) { panic("boom") })
	bus.Subscribe(events.TypeJobFailed, func(ev events.DomainEvent) { ran = true })

	bus.Publish(events.JobFailed("job-1", "oops", "network_error", time.Now()))

	if !ran {
		t.Error("expected the second handler to run despite the first panicking")
	}
}

func TestBus_PublishWithNoSubscribersIsANoop(t *testing.T) {
	bus := events.NewBus()
	bus.Publish(events.JobCancelled("job-1", time.Now()))
}
