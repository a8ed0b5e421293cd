// Package job holds the DownloadJob aggregate root: the state machine
// that tracks a single media download from submission to terminal state.
package job

import (
	"fmt"
	"time"

	apperrors "kingo/internal/errors"
	"kingo/internal/events"

	"kingo/internal/domain/vo"
)

// DownloadJob is the aggregate root for a single download. Mutating
// methods validate the current status before transitioning and return the
// DomainEvent (if any) the caller should publish.
type DownloadJob struct {
	JobID         string
	URL           string
	FormatID      vo.FormatId
	Status        vo.JobStatus
	Progress      vo.JobProgress
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ErrorMessage  string
	ErrorCategory string
	DownloadURL   string
	DownloadToken vo.DownloadToken
	ExpireAt      time.Time
	hasExpireAt   bool
}

// Create builds a brand new job in PENDING with a fresh id, taking the
// current time so callers (and tests) control the clock.
func Create(jobID, url, formatID string, now time.Time) DownloadJob {
	return DownloadJob{
		JobID:     jobID,
		URL:       url,
		FormatID:  vo.NewFormatId(formatID),
		Status:    vo.JobPending,
		Progress:  vo.Initial(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start transitions PENDING -> PROCESSING, entering the metadata-extraction
// progress phase. Calling Start on an already-PROCESSING job is a no-op
// that returns no event. Calling it on a terminal job is illegal.
func (j *DownloadJob) Start(now time.Time) (*events.DomainEvent, error) {
	if !j.Status.IsActive() {
		return nil, fmt.Errorf("%w: cannot start job in %s state", apperrors.ErrJobState, j.Status)
	}
	if j.Status == vo.JobProcessing {
		return nil, nil
	}
	j.Status = vo.JobProcessing
	j.Progress = vo.MetadataExtraction()
	j.UpdatedAt = now
	ev := events.JobStarted(j.JobID, j.URL, j.FormatID.String(), now)
	return &ev, nil
}

// UpdateProgress replaces the job's progress snapshot. Only legal while
// PROCESSING.
func (j *DownloadJob) UpdateProgress(progress vo.JobProgress, now time.Time) (*events.DomainEvent, error) {
	if j.Status != vo.JobProcessing {
		return nil, fmt.Errorf("%w: cannot update progress for job in %s state", apperrors.ErrJobState, j.Status)
	}
	j.Progress = progress
	j.UpdatedAt = now
	ev := events.JobProgressUpdated(j.JobID, progress, now)
	return &ev, nil
}

// Complete transitions PROCESSING -> COMPLETED, forcing progress to 100%.
func (j *DownloadJob) Complete(downloadURL string, token vo.DownloadToken, expireAt, now time.Time) (*events.DomainEvent, error) {
	if j.Status != vo.JobProcessing {
		return nil, fmt.Errorf("%w: cannot complete job in %s state", apperrors.ErrJobState, j.Status)
	}
	j.Status = vo.JobCompleted
	j.Progress = vo.Completed()
	j.DownloadURL = downloadURL
	j.DownloadToken = token
	j.ExpireAt = expireAt
	j.hasExpireAt = true
	j.UpdatedAt = now
	ev := events.JobCompleted(j.JobID, downloadURL, expireAt, now)
	return &ev, nil
}

// Fail transitions the job to FAILED. This is always legal while the job
// exists, matching the original's unconditional fail() — a job can fail
// from PENDING (pre-start validation) or PROCESSING.
func (j *DownloadJob) Fail(message, category string, now time.Time) *events.DomainEvent {
	j.Status = vo.JobFailed
	j.ErrorMessage = message
	j.ErrorCategory = category
	j.UpdatedAt = now
	ev := events.JobFailed(j.JobID, message, category, now)
	return &ev
}

// IsTerminal reports whether the job has reached COMPLETED or FAILED.
func (j *DownloadJob) IsTerminal() bool { return j.Status.IsTerminal() }

// IsActive reports whether the job is still PENDING or PROCESSING.
func (j *DownloadJob) IsActive() bool { return j.Status.IsActive() }

// HasExpireAt reports whether ExpireAt was ever set (distinguishes the
// zero time from "never completed").
func (j *DownloadJob) HasExpireAt() bool { return j.hasExpireAt }

// ToMap renders the job for KV-store persistence and HTTP projections.
func (j *DownloadJob) ToMap() map[string]any {
	m := map[string]any{
		"job_id":     j.JobID,
		"url":        j.URL,
		"format_id":  j.FormatID.String(),
		"status":     string(j.Status),
		"progress":   j.Progress.ToMap(),
		"created_at": j.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": j.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if j.ErrorMessage != "" {
		m["error_message"] = j.ErrorMessage
	} else {
		m["error_message"] = nil
	}
	if j.ErrorCategory != "" {
		m["error_category"] = j.ErrorCategory
	} else {
		m["error_category"] = nil
	}
	if j.DownloadURL != "" {
		m["download_url"] = j.DownloadURL
	} else {
		m["download_url"] = nil
	}
	if !j.DownloadToken.IsZero() {
		m["download_token"] = j.DownloadToken.String()
	} else {
		m["download_token"] = nil
	}
	if j.hasExpireAt {
		m["expire_at"] = j.ExpireAt.UTC().Format(time.RFC3339)
	} else {
		m["expire_at"] = nil
	}
	return m
}

// FromMap reconstructs a DownloadJob from its persisted form. Times are
// parsed as RFC3339; malformed records return an error rather than
// panicking, since this runs on every job load.
func FromMap(m map[string]any) (DownloadJob, error) {
	jobID, _ := m["job_id"].(string)
	url, _ := m["url"].(string)
	formatID, _ := m["format_id"].(string)
	statusStr, _ := m["status"].(string)

	status := vo.JobStatus(statusStr)
	if !status.Valid() {
		return DownloadJob{}, fmt.Errorf("invalid job status %q", statusStr)
	}

	progressMap, _ := m["progress"].(map[string]any)
	progress := vo.JobProgressFromMap(progressMap)

	createdAt, err := parseTime(m["created_at"])
	if err != nil {
		return DownloadJob{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := parseTime(m["updated_at"])
	if err != nil {
		return DownloadJob{}, fmt.Errorf("invalid updated_at: %w", err)
	}

	j := DownloadJob{
		JobID:     jobID,
		URL:       url,
		FormatID:  vo.NewFormatId(formatID),
		Status:    status,
		Progress:  progress,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	if s, ok := m["error_message"].(string); ok {
		j.ErrorMessage = s
	}
	if s, ok := m["error_category"].(string); ok {
		j.ErrorCategory = s
	}
	if s, ok := m["download_url"].(string); ok {
		j.DownloadURL = s
	}
	if s, ok := m["download_token"].(string); ok && s != "" {
		token, err := vo.NewDownloadToken(s)
		if err == nil {
			j.DownloadToken = token
		}
	}
	if raw, ok := m["expire_at"]; ok && raw != nil {
		expireAt, err := parseTime(raw)
		if err == nil {
			j.ExpireAt = expireAt
			j.hasExpireAt = true
		}
	}

	return j, nil
}

func parseTime(v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	return time.Parse(time.RFC3339, s)
}
