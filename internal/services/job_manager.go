// Package services holds the domain services that enforce invariants,
// produce events, and coordinate repositories: JobManager, FileManager,
// RateLimitManager, and VideoProcessor.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kingo/internal/domain/job"
	"kingo/internal/domain/repo"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
	"kingo/internal/events"
)

// JobManager owns the job state machine and coordinates the job
// repository, publishing domain events as transitions occur.
type JobManager struct {
	jobs repo.JobRepository
	bus  *events.Bus
	now  func() time.Time
}

// NewJobManager constructs a JobManager. now defaults to time.Now when nil,
// overridable in tests for deterministic timestamps.
func NewJobManager(jobs repo.JobRepository, bus *events.Bus, now func() time.Time) *JobManager {
	if now == nil {
		now = time.Now
	}
	return &JobManager{jobs: jobs, bus: bus, now: now}
}

// Create builds a PENDING job with initial progress and persists it.
func (m *JobManager) Create(ctx context.Context, url, formatID string) (job.DownloadJob, error) {
	j := job.Create(uuid.NewString(), url, formatID, m.now())
	if err := m.jobs.Save(ctx, j); err != nil {
		return job.DownloadJob{}, err
	}
	return j, nil
}

// Get loads a job, failing with ErrJobNotFound on absence.
func (m *JobManager) Get(ctx context.Context, jobID string) (job.DownloadJob, error) {
	return m.jobs.Get(ctx, jobID)
}

// Start loads the job, invokes its entity Start, persists, and publishes
// JobStartedEvent on a real transition (a no-op if already PROCESSING).
func (m *JobManager) Start(ctx context.Context, jobID string) (job.DownloadJob, error) {
	j, err := m.jobs.Get(ctx, jobID)
	if err != nil {
		return job.DownloadJob{}, err
	}
	ev, err := j.Start(m.now())
	if err != nil {
		return job.DownloadJob{}, err
	}
	if err := m.jobs.SaveExisting(ctx, j); err != nil {
		return job.DownloadJob{}, err
	}
	if ev != nil && m.bus != nil {
		m.bus.Publish(*ev)
	}
	return j, nil
}

// UpdateProgress calls the repository's atomic progress update directly —
// it never loads-then-saves, so it cannot race a concurrent status write.
func (m *JobManager) UpdateProgress(ctx context.Context, jobID string, progress vo.JobProgress) error {
	if err := m.jobs.UpdateProgress(ctx, jobID, progress, m.now()); err != nil {
		return err
	}
	if m.bus != nil {
		m.bus.Publish(events.JobProgressUpdated(jobID, progress, m.now()))
	}
	return nil
}

// Complete loads the job, invokes Complete, persists, and publishes
// JobCompletedEvent.
func (m *JobManager) Complete(ctx context.Context, jobID, downloadURL string, token vo.DownloadToken, expireAt time.Time) (job.DownloadJob, error) {
	j, err := m.jobs.Get(ctx, jobID)
	if err != nil {
		return job.DownloadJob{}, err
	}
	ev, err := j.Complete(downloadURL, token, expireAt, m.now())
	if err != nil {
		return job.DownloadJob{}, err
	}
	if err := m.jobs.SaveExisting(ctx, j); err != nil {
		return job.DownloadJob{}, err
	}
	if m.bus != nil {
		m.bus.Publish(*ev)
	}
	return j, nil
}

// Fail loads the job (if it still exists) and marks it FAILED; always
// legal while the job exists. If the job has already been deleted (e.g.
// by a concurrent cancellation), either at the initial load or in the
// window before SaveExisting lands, Fail is a no-op rather than an error —
// there is nothing left to mark failed, and the worker must not resurrect
// a cancelled job.
func (m *JobManager) Fail(ctx context.Context, jobID, message, category string) error {
	j, err := m.jobs.Get(ctx, jobID)
	if err != nil {
		return nil
	}
	ev := j.Fail(message, category, m.now())
	if err := m.jobs.SaveExisting(ctx, j); err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			return nil
		}
		return err
	}
	if m.bus != nil {
		m.bus.Publish(*ev)
	}
	return nil
}

// Delete removes a job record. Used by cancellation: the next progress
// tick or status write from an in-flight worker will observe its absence.
func (m *JobManager) Delete(ctx context.Context, jobID string) error {
	exists, err := m.jobs.Exists(ctx, jobID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", apperrors.ErrJobNotFound, jobID)
	}
	if err := m.jobs.Delete(ctx, jobID); err != nil {
		return err
	}
	if m.bus != nil {
		m.bus.Publish(events.JobCancelled(jobID, m.now()))
	}
	return nil
}

// Exists reports whether a job record is still present — the check a
// worker performs at every progress tick to detect mid-flight cancellation.
func (m *JobManager) Exists(ctx context.Context, jobID string) (bool, error) {
	return m.jobs.Exists(ctx, jobID)
}

// StatusInfo projects a job into the shape the status HTTP endpoint
// returns, including time_remaining = max(0, expire_at - now) in seconds.
func (m *JobManager) StatusInfo(ctx context.Context, jobID string) (map[string]any, error) {
	j, err := m.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	info := map[string]any{
		"job_id":   j.JobID,
		"status":   string(j.Status),
		"progress": j.Progress.ToMap(),
	}
	if j.DownloadURL != "" {
		info["download_url"] = j.DownloadURL
	}
	if j.ErrorMessage != "" {
		info["error"] = j.ErrorMessage
	}
	if j.ErrorCategory != "" {
		info["error_category"] = j.ErrorCategory
	}
	if j.HasExpireAt() {
		info["expire_at"] = j.ExpireAt.UTC().Format(time.RFC3339)
		remaining := j.ExpireAt.Sub(m.now())
		if remaining < 0 {
			remaining = 0
		}
		info["time_remaining"] = int(remaining.Seconds())
	}
	return info, nil
}

// CleanupExpired removes terminal jobs older than expiration, archiving
// each one first via the supplied archiver callback (kept decoupled from
// JobArchiveRepository so this package doesn't import internal/domain/archive
// directly). Returns the count removed; a single sub-step failure is
// logged by the caller and does not halt the sweep.
func (m *JobManager) CleanupExpired(ctx context.Context, expiration time.Duration, archiver func(context.Context, job.DownloadJob) error) (int, []error) {
	ids, err := m.jobs.ExpiredJobIDs(ctx, expiration, m.now())
	if err != nil {
		return 0, []error{err}
	}
	var errs []error
	removed := 0
	for _, id := range ids {
		j, err := m.jobs.Get(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if archiver != nil {
			if err := archiver(ctx, j); err != nil {
				errs = append(errs, err)
			}
		}
		if err := m.jobs.Delete(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errs
}
