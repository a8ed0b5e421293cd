package handlers

import "kingo/internal/events"

// Pusher is the subset of internal/push's hub this package depends on,
// narrowed to the four emitters §4.6 wires to domain events. Each method
// is responsible for its own silent-disable/swallow-and-warn policy; this
// handler never inspects or reacts to failure.
type Pusher interface {
	EmitProgress(jobID string, progress map[string]any)
	EmitCompleted(jobID, downloadURL string, expireAt string, hasExpireAt bool)
	EmitFailed(jobID, errorMessage, errorCategory string, hasCategory bool)
	EmitCancelled(jobID string)
}

// RegisterClientPush subscribes pusher's emitters to the four event
// variants §4.6 defines a push translation for. JobStartedEvent and the
// supplemented JobWarningEvent have no entry in the real-time protocol's
// server→client message set and are intentionally not pushed.
func RegisterClientPush(bus *events.Bus, pusher Pusher) {
	bus.Subscribe(events.TypeJobProgressUpdated, func(ev events.DomainEvent) {
		pusher.EmitProgress(ev.AggregateID, ev.Progress.ToMap())
	})
	bus.Subscribe(events.TypeJobCompleted, func(ev events.DomainEvent) {
		hasExpire := !ev.ExpireAt.IsZero()
		expireAt := ""
		if hasExpire {
			expireAt = ev.ExpireAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		pusher.EmitCompleted(ev.AggregateID, ev.DownloadURL, expireAt, hasExpire)
	})
	bus.Subscribe(events.TypeJobFailed, func(ev events.DomainEvent) {
		pusher.EmitFailed(ev.AggregateID, ev.ErrorMessage, ev.ErrorCategory, ev.ErrorCategory != "")
	})
	bus.Subscribe(events.TypeJobCancelled, func(ev events.DomainEvent) {
		pusher.EmitCancelled(ev.AggregateID)
	})
}
