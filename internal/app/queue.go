package app

import (
	"context"
	"sync"

	"kingo/internal/logger"
)

// queuedJob pairs a persisted job id with the ephemeral request options
// that produced it — mute flags, trim bounds, quality cap — none of which
// belong on the DownloadJob aggregate itself.
type queuedJob struct {
	jobID string
	req   DownloadRequest
}

// Queue is the worker pool that drains job submissions with bounded
// concurrency, generalizing the teacher's channel-plus-semaphore Manager:
// Submit persists nothing itself (JobService.CreateJob already did, via
// JobManager), it only schedules DownloadService.Execute.
type Queue struct {
	downloads *DownloadService
	pending   chan queuedJob
	slots     chan struct{}
	quit      chan struct{}
	wg        sync.WaitGroup
}

// NewQueue constructs a Queue bounded to maxConcurrent simultaneous
// downloads, backed by a channel buffered to 256 pending submissions so
// bursts do not block the HTTP request path.
func NewQueue(downloads *DownloadService, maxConcurrent int) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 3
	}
	return &Queue{
		downloads: downloads,
		pending:   make(chan queuedJob, 256),
		slots:     make(chan struct{}, maxConcurrent),
		quit:      make(chan struct{}),
	}
}

// Start begins the dispatch loop in the background.
func (q *Queue) Start() {
	go func() {
		for {
			select {
			case job := <-q.pending:
				q.slots <- struct{}{}
				q.wg.Add(1)
				go func(j queuedJob) {
					defer q.wg.Done()
					defer func() { <-q.slots }()
					if err := q.downloads.Execute(context.Background(), j.jobID, j.req); err != nil {
						logger.Log.Error().Err(err).Str("job_id", j.jobID).Msg("job execution failed")
					}
				}(job)
			case <-q.quit:
				return
			}
		}
	}()
}

// Stop signals the dispatch loop to exit and waits for in-flight jobs to
// finish.
func (q *Queue) Stop() {
	close(q.quit)
	q.wg.Wait()
}

// Submit enqueues jobID for processing. The buffered channel absorbs
// bursts of up to 256 pending jobs; once it is full, Submit blocks the
// caller until the dispatch loop takes a job, same as the teacher's design.
func (q *Queue) Submit(jobID string, req DownloadRequest) {
	q.pending <- queuedJob{jobID: jobID, req: req}
}
