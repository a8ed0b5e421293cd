package app

import (
	"context"
	"fmt"

	"kingo/internal/domain/job"
	apperrors "kingo/internal/errors"
	"kingo/internal/services"
)

// JobService is the thin orchestrator the HTTP and WebSocket layers call
// into: it creates jobs, enqueues them for processing, and answers
// status/cancellation requests.
type JobService struct {
	jobs  *services.JobManager
	queue *Queue
}

// NewJobService constructs a JobService.
func NewJobService(jobs *services.JobManager, queue *Queue) *JobService {
	return &JobService{jobs: jobs, queue: queue}
}

// CreateJob persists a new PENDING job and schedules it for background
// processing, returning the job as created.
func (s *JobService) CreateJob(ctx context.Context, req DownloadRequest) (job.DownloadJob, error) {
	if req.URL == "" {
		return job.DownloadJob{}, fmt.Errorf("%w: url is required", apperrors.ErrInvalidRequest)
	}
	j, err := s.jobs.Create(ctx, req.URL, req.FormatID)
	if err != nil {
		return job.DownloadJob{}, err
	}
	s.queue.Submit(j.JobID, req)
	return j, nil
}

// GetJob returns the current status projection for a job.
func (s *JobService) GetJob(ctx context.Context, jobID string) (map[string]any, error) {
	return s.jobs.StatusInfo(ctx, jobID)
}

// DeleteJob cancels a job: this is the cancel_job path shared by the HTTP
// DELETE endpoint and the real-time protocol's cancel_job message.
func (s *JobService) DeleteJob(ctx context.Context, jobID string) error {
	return s.jobs.Delete(ctx, jobID)
}
