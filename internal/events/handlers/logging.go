// Package handlers holds the cross-cutting event handlers registered on
// the bus at startup: structured logging and the client-push bridge.
package handlers

import (
	"kingo/internal/events"
	"kingo/internal/logger"
)

// allTypes is the full event variant set — a cross-cutting handler
// subscribes per variant, since the bus dispatches by exact type.
var allTypes = []events.Type{
	events.TypeJobStarted,
	events.TypeJobProgressUpdated,
	events.TypeJobCompleted,
	events.TypeJobFailed,
	events.TypeJobCancelled,
	events.TypeJobWarning,
}

// RegisterLogging subscribes a handler to every event variant that logs a
// one-line structured record, matching the teacher's zerolog idiom.
func RegisterLogging(bus *events.Bus) {
	for _, t := range allTypes {
		bus.Subscribe(t, logEvent)
	}
}

func logEvent(ev events.DomainEvent) {
	entry := logger.Log.Info().Str("event", string(ev.Kind)).Str("job_id", ev.AggregateID)
	switch ev.Kind {
	case events.TypeJobFailed:
		entry = entry.Str("error_category", ev.ErrorCategory).Str("error", ev.ErrorMessage)
	case events.TypeJobWarning:
		entry = entry.Str("message", ev.ErrorMessage)
	case events.TypeJobCompleted:
		entry = entry.Str("download_url", ev.DownloadURL)
	}
	entry.Msg("domain event")
}
