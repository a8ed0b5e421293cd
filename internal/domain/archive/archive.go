// Package archive holds the JobArchive value object: an immutable
// post-mortem snapshot of a terminal job, produced by the reaper.
package archive

import (
	"fmt"
	"time"

	"kingo/internal/domain/job"
	"kingo/internal/domain/vo"
)

// JobArchive is a frozen snapshot; it can only be built from a job that has
// already reached a terminal state.
type JobArchive struct {
	JobID         string
	URL           string
	FormatID      string
	Status        vo.JobStatus
	CreatedAt     time.Time
	CompletedAt   time.Time
	ArchivedAt    time.Time
	ErrorMessage  string
	ErrorCategory string
	DownloadToken string
}

// FromJob snapshots j at archivedAt. It fails if j has not reached a
// terminal state — archiving an active job would lose in-flight state.
func FromJob(j job.DownloadJob, archivedAt time.Time) (JobArchive, error) {
	if !j.IsTerminal() {
		return JobArchive{}, fmt.Errorf("cannot archive job %s in non-terminal state %s", j.JobID, j.Status)
	}
	a := JobArchive{
		JobID:         j.JobID,
		URL:           j.URL,
		FormatID:      j.FormatID.String(),
		Status:        j.Status,
		CreatedAt:     j.CreatedAt,
		CompletedAt:   j.UpdatedAt,
		ArchivedAt:    archivedAt,
		ErrorMessage:  j.ErrorMessage,
		ErrorCategory: j.ErrorCategory,
	}
	if !j.DownloadToken.IsZero() {
		a.DownloadToken = j.DownloadToken.String()
	}
	return a, nil
}

// ToMap renders the archive for KV-store persistence.
func (a JobArchive) ToMap() map[string]any {
	m := map[string]any{
		"job_id":       a.JobID,
		"url":          a.URL,
		"format_id":    a.FormatID,
		"status":       string(a.Status),
		"created_at":   a.CreatedAt.UTC().Format(time.RFC3339),
		"completed_at": a.CompletedAt.UTC().Format(time.RFC3339),
		"archived_at":  a.ArchivedAt.UTC().Format(time.RFC3339),
	}
	if a.ErrorMessage != "" {
		m["error_message"] = a.ErrorMessage
	}
	if a.ErrorCategory != "" {
		m["error_category"] = a.ErrorCategory
	}
	if a.DownloadToken != "" {
		m["download_token"] = a.DownloadToken
	}
	return m
}
