package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kingo/internal/domain/job"
	"kingo/internal/domain/vo"
	apperrors "kingo/internal/errors"
)

const jobKeyPrefix = "job:"

// defaultJobTTL matches spec's JOB_TTL_SECONDS default.
const defaultJobTTL = time.Hour

// JobRepository is the Redis-backed repo.JobRepository implementation.
type JobRepository struct {
	client *Client
	ttl    time.Duration
}

// NewJobRepository constructs a JobRepository. A zero ttl falls back to
// the spec default (1 hour).
func NewJobRepository(client *Client, ttl time.Duration) *JobRepository {
	if ttl <= 0 {
		ttl = defaultJobTTL
	}
	return &JobRepository{client: client, ttl: ttl}
}

func jobKey(jobID string) string { return jobKeyPrefix + jobID }

// Save writes the full job record, refreshing its TTL.
func (r *JobRepository) Save(ctx context.Context, j job.DownloadJob) error {
	data, err := json.Marshal(j.ToMap())
	if err != nil {
		return fmt.Errorf("%w: marshal job: %v", apperrors.ErrPersistence, err)
	}
	if err := r.client.Raw().Set(ctx, jobKey(j.JobID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Get loads and deserializes a job record.
func (r *JobRepository) Get(ctx context.Context, jobID string) (job.DownloadJob, error) {
	raw, err := r.client.Raw().Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return job.DownloadJob{}, fmt.Errorf("%w: %s", apperrors.ErrJobNotFound, jobID)
	}
	if err != nil {
		return job.DownloadJob{}, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return job.DownloadJob{}, fmt.Errorf("%w: unmarshal job %s: %v", apperrors.ErrPersistence, jobID, err)
	}
	j, err := job.FromMap(m)
	if err != nil {
		return job.DownloadJob{}, fmt.Errorf("%w: deserialize job %s: %v", apperrors.ErrPersistence, jobID, err)
	}
	return j, nil
}

// Delete removes a job record.
func (r *JobRepository) Delete(ctx context.Context, jobID string) error {
	if err := r.client.Raw().Del(ctx, jobKey(jobID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Exists reports whether a job record is present.
func (r *JobRepository) Exists(ctx context.Context, jobID string) (bool, error) {
	n, err := r.client.Raw().Exists(ctx, jobKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return n > 0, nil
}

// UpdateProgress atomically applies progress via updateProgressScript,
// refusing silently (by returning ErrJobState) if the job already reached
// a terminal status — this is the race the script exists to close.
func (r *JobRepository) UpdateProgress(ctx context.Context, jobID string, progress vo.JobProgress, now time.Time) error {
	progressJSON, err := json.Marshal(progress.ToMap())
	if err != nil {
		return fmt.Errorf("%w: marshal progress: %v", apperrors.ErrPersistence, err)
	}
	result, err := updateProgressScript.Run(ctx, r.client.Raw(), []string{jobKey(jobID)},
		string(progressJSON), now.UTC().Format(time.RFC3339), int(r.ttl.Seconds())).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	switch result {
	case 0:
		return fmt.Errorf("%w: %s", apperrors.ErrJobNotFound, jobID)
	case -1:
		return fmt.Errorf("%w: job %s already terminal", apperrors.ErrJobState, jobID)
	default:
		return nil
	}
}

// SaveExisting writes the full job record via saveIfExistsScript, refusing
// (ErrJobNotFound) if the record is absent instead of blindly recreating
// it. Start/Complete/Fail use this instead of Save so a racing cancel_job
// deletion can never be resurrected by a worker's subsequent status write.
func (r *JobRepository) SaveExisting(ctx context.Context, j job.DownloadJob) error {
	data, err := json.Marshal(j.ToMap())
	if err != nil {
		return fmt.Errorf("%w: marshal job: %v", apperrors.ErrPersistence, err)
	}
	result, err := saveIfExistsScript.Run(ctx, r.client.Raw(), []string{jobKey(j.JobID)},
		string(data), int(r.ttl.Seconds())).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if result == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrJobNotFound, j.JobID)
	}
	return nil
}

// ExpiredJobIDs scans job keys for terminal jobs whose updated_at is older
// than olderThan. Redis TTL already reaps most jobs; this covers the
// window before TTL expiry that the reaper is responsible for.
func (r *JobRepository) ExpiredJobIDs(ctx context.Context, olderThan time.Duration, now time.Time) ([]string, error) {
	var cursor uint64
	var ids []string
	cutoff := now.Add(-olderThan)
	for {
		keys, next, err := r.client.Raw().Scan(ctx, cursor, jobKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan jobs: %v", apperrors.ErrPersistence, err)
		}
		for _, key := range keys {
			jobID := key[len(jobKeyPrefix):]
			j, err := r.Get(ctx, jobID)
			if err != nil {
				continue
			}
			if j.IsTerminal() && j.UpdatedAt.Before(cutoff) {
				ids = append(ids, jobID)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}
