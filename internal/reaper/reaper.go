// Package reaper implements the periodic cleanup sweep (§4.8): expired
// terminal jobs are archived and removed, expired file entries are
// deleted, and the extractor's scratch directory is swept for orphans.
package reaper

import (
	"context"
	"time"

	"kingo/internal/domain/archive"
	"kingo/internal/domain/job"
	"kingo/internal/domain/repo"
	"kingo/internal/logger"
	"kingo/internal/metrics"
	"kingo/internal/services"
)

// orphanAge is how old a scratch-directory entry must be before the
// sweep removes it, per §4.8 step 3.
const orphanAge = time.Hour

// Locker is the distributed-lock port the reaper uses so multiple
// replicas running the sweep on the same schedule don't double-archive
// the same jobs; internal/storage/kv.Lock is the concrete adapter.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context), ok bool, err error)
}

// Summary is the structured result §4.8 requires the reaper to return.
type Summary struct {
	ExpiredJobsRemoved   int
	ExpiredFilesRemoved  int
	OrphanedFilesCleaned int
	Errors               []error
}

// Reaper drives one sweep iteration across jobs, files, and the scratch
// directory, behind a short-lived distributed lock.
type Reaper struct {
	jobs       *services.JobManager
	files      *services.FileManager
	archives   repo.JobArchiveRepository
	lock       Locker
	scratchDir string
	expiration time.Duration
	now        func() time.Time
}

// New constructs a Reaper. expiration is the terminal-job age threshold
// (§4.8 default 1h); scratchDir is the extractor's working directory.
func New(jobs *services.JobManager, files *services.FileManager, archives repo.JobArchiveRepository, lock Locker, scratchDir string, expiration time.Duration, now func() time.Time) *Reaper {
	if now == nil {
		now = time.Now
	}
	return &Reaper{
		jobs:       jobs,
		files:      files,
		archives:   archives,
		lock:       lock,
		scratchDir: scratchDir,
		expiration: expiration,
		now:        now,
	}
}

// Run executes one sweep iteration. If another replica currently holds
// the distributed lock, Run returns a zero Summary and no error — this
// iteration is simply skipped, not retried.
func (r *Reaper) Run(ctx context.Context) Summary {
	release, acquired, err := r.lock.Acquire(ctx, "reaper:lock", 55*time.Second)
	if err != nil {
		logger.Log.Error().Err(err).Msg("reaper lock acquisition failed")
		return Summary{}
	}
	if !acquired {
		return Summary{}
	}
	defer release(ctx)

	var summary Summary

	removedJobs, jobErrs := r.jobs.CleanupExpired(ctx, r.expiration, r.archiveJob)
	summary.ExpiredJobsRemoved = removedJobs
	summary.Errors = append(summary.Errors, jobErrs...)

	removedFiles, fileErrs := r.files.CleanupExpired(ctx)
	summary.ExpiredFilesRemoved = removedFiles
	summary.Errors = append(summary.Errors, fileErrs...)

	cleaned, scratchErrs := sweepScratch(r.scratchDir, r.now())
	summary.OrphanedFilesCleaned = cleaned
	summary.Errors = append(summary.Errors, scratchErrs...)

	for _, e := range summary.Errors {
		logger.Log.Error().Err(e).Msg("reaper sub-step failed")
	}
	metrics.RecordReaperSweep(summary.ExpiredJobsRemoved, summary.ExpiredFilesRemoved, summary.OrphanedFilesCleaned, len(summary.Errors))
	return summary
}

// archiveJob snapshots a terminal job into the archive store, then
// best-effort deletes its registered file. This is the callback
// JobManager.CleanupExpired invokes before deleting each job record; per
// §4.8 step 1 the file deletion failing must not block the job delete.
func (r *Reaper) archiveJob(ctx context.Context, j job.DownloadJob) error {
	a, err := archive.FromJob(j, r.now())
	if err != nil {
		return err
	}
	if err := r.archives.Save(ctx, a); err != nil {
		return err
	}
	if !j.DownloadToken.IsZero() {
		if err := r.files.DeleteByToken(ctx, j.DownloadToken, true); err != nil {
			logger.Log.Warn().Err(err).Str("job_id", j.JobID).Msg("reaper: failed to delete job file")
		}
	}
	return nil
}
