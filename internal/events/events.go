// Package events defines the domain event sum type and the in-process
// event bus that fans published events out to registered handlers.
package events

import (
	"time"

	"kingo/internal/domain/vo"
)

// Type identifies which DomainEvent variant a given event carries.
type Type string

const (
	TypeJobStarted         Type = "job_started"
	TypeJobProgressUpdated Type = "job_progress_updated"
	TypeJobCompleted       Type = "job_completed"
	TypeJobFailed          Type = "job_failed"
	TypeJobCancelled       Type = "job_cancelled"
	TypeJobWarning         Type = "job_warning"
)

// DomainEvent is the sum type published on the bus. Exactly one of the
// variant-specific fields is populated, matching Kind.
type DomainEvent struct {
	Kind        Type
	AggregateID string
	OccurredAt  time.Time

	// TypeJobStarted
	URL      string
	FormatID string

	// TypeJobProgressUpdated
	Progress vo.JobProgress

	// TypeJobCompleted
	DownloadURL string
	ExpireAt    time.Time

	// TypeJobFailed / TypeJobWarning
	ErrorMessage  string
	ErrorCategory string
}

// JobStarted builds the event DownloadJob.Start returns on a real transition.
func JobStarted(jobID, url, formatID string, occurredAt time.Time) DomainEvent {
	return DomainEvent{
		Kind:        TypeJobStarted,
		AggregateID: jobID,
		OccurredAt:  occurredAt,
		URL:         url,
		FormatID:    formatID,
	}
}

// JobProgressUpdated builds the event DownloadJob.UpdateProgress returns.
func JobProgressUpdated(jobID string, progress vo.JobProgress, occurredAt time.Time) DomainEvent {
	return DomainEvent{
		Kind:        TypeJobProgressUpdated,
		AggregateID: jobID,
		OccurredAt:  occurredAt,
		Progress:    progress,
	}
}

// JobCompleted builds the event DownloadJob.Complete returns.
func JobCompleted(jobID, downloadURL string, expireAt, occurredAt time.Time) DomainEvent {
	return DomainEvent{
		Kind:        TypeJobCompleted,
		AggregateID: jobID,
		OccurredAt:  occurredAt,
		DownloadURL: downloadURL,
		ExpireAt:    expireAt,
	}
}

// JobFailed builds the event DownloadJob.Fail returns.
func JobFailed(jobID, errorMessage, errorCategory string, occurredAt time.Time) DomainEvent {
	if errorCategory == "" {
		errorCategory = "UNKNOWN"
	}
	return DomainEvent{
		Kind:          TypeJobFailed,
		AggregateID:   jobID,
		OccurredAt:    occurredAt,
		ErrorMessage:  errorMessage,
		ErrorCategory: errorCategory,
	}
}

// JobCancelled builds the event published when a worker observes its job
// record has been deleted out from under it.
func JobCancelled(jobID string, occurredAt time.Time) DomainEvent {
	return DomainEvent{
		Kind:        TypeJobCancelled,
		AggregateID: jobID,
		OccurredAt:  occurredAt,
	}
}

// JobWarning is the supplemented non-terminal signal for extractor
// warnings (e.g. network retries) that do not fail the job.
func JobWarning(jobID, message string, occurredAt time.Time) DomainEvent {
	return DomainEvent{
		Kind:         TypeJobWarning,
		AggregateID:  jobID,
		OccurredAt:   occurredAt,
		ErrorMessage: message,
	}
}

// ToMap renders the event for JSON serialization over the client-push
// channel, matching the original's self-describing to_dict shape.
func (e DomainEvent) ToMap() map[string]any {
	m := map[string]any{
		"event_type":   string(e.Kind),
		"aggregate_id": e.AggregateID,
		"occurred_at":  e.OccurredAt.UTC().Format(time.RFC3339),
	}
	switch e.Kind {
	case TypeJobStarted:
		m["url"] = e.URL
		m["format_id"] = e.FormatID
	case TypeJobProgressUpdated:
		m["progress"] = e.Progress.ToMap()
	case TypeJobCompleted:
		m["download_url"] = e.DownloadURL
		m["expire_at"] = e.ExpireAt.UTC().Format(time.RFC3339)
	case TypeJobFailed:
		m["error_message"] = e.ErrorMessage
		m["error_category"] = e.ErrorCategory
	case TypeJobWarning:
		m["message"] = e.ErrorMessage
	}
	return m
}
